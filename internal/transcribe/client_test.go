package transcribe

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTranscribeSendsMultipartFile(t *testing.T) {
	payload := []byte("RIFF-fake-wav")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		f, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile(file) error = %v", err)
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		defer f.Close()
		if header.Filename != "answer.wav" {
			t.Errorf("filename = %q, want answer.wav", header.Filename)
		}
		got, _ := io.ReadAll(f)
		if !bytes.Equal(got, payload) {
			t.Errorf("uploaded %d bytes, want %d", len(got), len(payload))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text":"  tell me about goroutines  ","confidence":{"words":5,"wpm":120,"score":0.8,"tips":["slow down"]}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.Client(), nil)
	res, err := c.Transcribe(context.Background(), payload)
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if res.Text != "tell me about goroutines" {
		t.Fatalf("Text = %q, want trimmed transcript", res.Text)
	}
	if res.Confidence == nil || res.Confidence.Words != 5 || res.Confidence.Score != 0.8 {
		t.Fatalf("Confidence = %+v, want words=5 score=0.8", res.Confidence)
	}
}

func TestTranscribeNonOKStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.Client(), nil)
	if _, err := c.Transcribe(context.Background(), []byte("x")); err == nil {
		t.Fatalf("Transcribe() error = nil, want non-nil on HTTP 503")
	}
}

func TestTranscribeEmptyTextIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text":""}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.Client(), nil)
	res, err := c.Transcribe(context.Background(), []byte("x"))
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if res.Text != "" {
		t.Fatalf("Text = %q, want empty", res.Text)
	}
}
