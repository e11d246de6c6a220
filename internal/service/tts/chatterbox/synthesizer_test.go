package chatterbox

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"insurance-voice-agent/internal/service/tts"
)

func TestSynthesize_Success(t *testing.T) {
	wantAudio := []byte("RIFFfakewav")
	var gotReq synthesizeRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/synthesize" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type: %s", ct)
		}
		json.NewDecoder(r.Body).Decode(&gotReq)
		w.Write(wantAudio)
	}))
	defer srv.Close()

	s := New(Config{BaseURL: srv.URL, Voice: "emily"})
	res, err := s.Synthesize(context.Background(), "Hi, how can I help you today?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(res.Audio) != string(wantAudio) {
		t.Errorf("unexpected audio: %q", res.Audio)
	}
	if res.Service != "chatterbox" {
		t.Errorf("unexpected service: %q", res.Service)
	}
	if gotReq.Text != "Hi, how can I help you today?" || gotReq.Voice != "emily" || gotReq.Format != "wav" {
		t.Errorf("unexpected request: %+v", gotReq)
	}
}

func TestSynthesize_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s := New(Config{BaseURL: srv.URL})
	if _, err := s.Synthesize(context.Background(), "hello"); err == nil {
		t.Fatal("expected error for 503 response")
	}
}

func TestSynthesize_EmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	s := New(Config{BaseURL: srv.URL})
	if _, err := s.Synthesize(context.Background(), "hello"); !errors.Is(err, tts.ErrEmptyAudio) {
		t.Errorf("expected ErrEmptyAudio, got %v", err)
	}
}

func TestSynthesize_EmptyText(t *testing.T) {
	s := New(Config{BaseURL: "http://localhost:8004"})
	if _, err := s.Synthesize(context.Background(), " "); !errors.Is(err, tts.ErrEmptyText) {
		t.Errorf("expected ErrEmptyText, got %v", err)
	}
}
