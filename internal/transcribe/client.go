// Package transcribe converts a finished answer recording into text via the
// transcription service.
package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Confidence is the optional delivery-quality report the service returns
// alongside the transcript.
type Confidence struct {
	Words int      `json:"words"`
	WPM   float64  `json:"wpm"`
	Score float64  `json:"score"`
	Tips  []string `json:"tips,omitempty"`
}

// Result is one transcription outcome. Text may legitimately be empty when
// the service heard nothing usable.
type Result struct {
	Text       string      `json:"text"`
	Confidence *Confidence `json:"confidence,omitempty"`
}

// Client posts WAV payloads to the transcription endpoint.
type Client struct {
	baseURL string
	client  *http.Client
	log     *zap.Logger
}

func NewClient(baseURL string, client *http.Client, log *zap.Logger) *Client {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), client: client, log: log}
}

// Transcribe uploads one recording as a multipart form and returns the text
// the service produced.
func (c *Client) Transcribe(ctx context.Context, wav []byte) (Result, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "answer.wav")
	if err != nil {
		_ = mw.Close()
		return Result{}, err
	}
	if _, err := fw.Write(wav); err != nil {
		_ = mw.Close()
		return Result{}, err
	}
	if err := mw.Close(); err != nil {
		return Result{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, &body)
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("transcription request: %w", err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Result{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("transcription HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var out Result
	if err := json.Unmarshal(b, &out); err != nil {
		return Result{}, fmt.Errorf("decode transcription response: %w", err)
	}
	out.Text = strings.TrimSpace(out.Text)
	c.log.Debug("transcription complete",
		zap.Int("payload_bytes", len(wav)),
		zap.Int("text_len", len(out.Text)))
	return out, nil
}
