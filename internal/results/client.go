// Package results fetches the per-session evaluation summary after an
// interview ends.
package results

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// TimelineEntry is one question/answer pair with its per-answer scores.
type TimelineEntry struct {
	QuestionIndex int     `json:"question_index"`
	Question      string  `json:"question"`
	Answer        string  `json:"answer"`
	Relevance     float64 `json:"relevance"`
	Clarity       float64 `json:"clarity"`
	Depth         float64 `json:"depth"`
	Confidence    float64 `json:"confidence"`
}

// Summary is the aggregate evaluation for one finished session.
type Summary struct {
	SessionID      string          `json:"session_id"`
	OverallScore   float64         `json:"overall_score"`
	AvgRelevance   float64         `json:"avg_relevance"`
	AvgClarity     float64         `json:"avg_clarity"`
	AvgDepth       float64         `json:"avg_depth"`
	AvgConfidence  float64         `json:"avg_confidence"`
	Recommendation string          `json:"recommendation"`
	TotalQuestions int             `json:"total_questions"`
	Timeline       []TimelineEntry `json:"timeline,omitempty"`
}

// Client talks to the results endpoint of the interview service.
type Client struct {
	baseURL   string
	healthURL string
	client    *http.Client
}

func NewClient(baseURL, healthURL string, client *http.Client) *Client {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		healthURL: healthURL,
		client:    client,
	}
}

// Fetch retrieves the evaluation summary for a session.
func (c *Client) Fetch(ctx context.Context, sessionID string) (Summary, error) {
	if strings.TrimSpace(sessionID) == "" {
		return Summary{}, fmt.Errorf("empty session id")
	}

	endpoint := c.baseURL + "/" + url.PathEscape(sessionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Summary{}, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return Summary{}, fmt.Errorf("results request: %w", err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Summary{}, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return Summary{}, fmt.Errorf("no results for session %s", sessionID)
	}
	if resp.StatusCode != http.StatusOK {
		return Summary{}, fmt.Errorf("results HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var out Summary
	if err := json.Unmarshal(b, &out); err != nil {
		return Summary{}, fmt.Errorf("decode results response: %w", err)
	}
	if out.SessionID == "" {
		out.SessionID = sessionID
	}
	return out, nil
}

// Health probes the interview service readiness endpoint.
func (c *Client) Health(ctx context.Context) error {
	if strings.TrimSpace(c.healthURL) == "" {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.healthURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("health probe: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health probe: HTTP %d", resp.StatusCode)
	}
	return nil
}
