// Package http exposes the voice agent REST API.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"insurance-voice-agent/internal/audio"
	"insurance-voice-agent/internal/conversation"
	"insurance-voice-agent/internal/rag"
	"insurance-voice-agent/internal/session"
	"insurance-voice-agent/internal/vad"
)

// maxUploadBytes caps uploaded recordings at 10MB.
const maxUploadBytes = 10 << 20

// Handler serves the voice agent endpoints.
type Handler struct {
	sessions *session.Manager
	graph    *conversation.Graph

	retriever conversation.Retriever
	generator conversation.Generator

	store    rag.VectorStore
	vadCfg   vad.Config
	audioDir string

	llmConfigured bool

	// services names the active STT/TTS/LLM providers for /health.
	services    map[string]string
	startupTime time.Time
}

// NewHandler wires the REST handlers.
func NewHandler(
	sessions *session.Manager,
	graph *conversation.Graph,
	retriever conversation.Retriever,
	generator conversation.Generator,
	store rag.VectorStore,
	vadCfg vad.Config,
	audioDir string,
	llmConfigured bool,
	services map[string]string,
) *Handler {
	return &Handler{
		sessions:      sessions,
		graph:         graph,
		retriever:     retriever,
		generator:     generator,
		store:         store,
		vadCfg:        vadCfg,
		audioDir:      audioDir,
		llmConfigured: llmConfigured,
		services:      services,
		startupTime:   time.Now(),
	}
}

type textQueryRequest struct {
	Text      string `json:"text"`
	SessionID string `json:"session_id"`
}

// Root is the basic health endpoint at GET /.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	count := h.documentCount(r.Context())
	status := "Insurance Voice Agent API is running"
	if count < 0 {
		status = "Running with errors: document store unreachable"
		count = 0
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        status,
		"timestamp":     time.Now().Format(time.RFC3339),
		"database_docs": count,
	})
}

// Health is the detailed health endpoint at GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	count := h.documentCount(r.Context())

	dbStatus := "connected"
	if count < 0 {
		dbStatus = "unreachable"
		count = 0
	}
	apiKeyStatus := "configured"
	if !h.llmConfigured {
		apiKeyStatus = "missing"
	}

	services := h.services
	if services == nil {
		services = map[string]string{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(h.startupTime).String(),
		"components": map[string]any{
			"database": map[string]any{
				"status":    dbStatus,
				"documents": count,
			},
			"api_key": map[string]any{
				"status": apiKeyStatus,
			},
			"services": services,
			"sessions": map[string]any{
				"active": h.sessions.Count(),
			},
		},
	})
}

// StartCall handles POST /api/start-call: it creates a session, runs
// the workflow up to the first listen, and returns the greeting.
func (h *Handler) StartCall(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.Create()

	s.Lock()
	err := h.graph.Run(r.Context(), s.State)
	greetingText := s.State.AgentText
	greetingAudio := s.State.AgentAudio
	s.State.AgentAudio = nil
	s.Unlock()

	if err != nil {
		h.sessions.End(s)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to start call: %v", err))
		return
	}

	resp := map[string]any{
		"session_id":    s.ID,
		"greeting_text": greetingText,
	}
	if len(greetingAudio) == 0 {
		resp["greeting_audio_url"] = nil
		resp["warning"] = "TTS failed, text-only greeting"
	} else {
		url, err := h.saveAudio(s.ID+"_greeting.wav", greetingAudio)
		if err != nil {
			log.Error().Err(err).Str("sessionId", s.ID).Msg("Failed to save greeting audio")
			resp["greeting_audio_url"] = nil
			resp["warning"] = "audio unavailable, text-only greeting"
		} else {
			resp["greeting_audio_url"] = url
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// ProcessAudio handles POST /api/process-audio: one full voice turn.
// The multipart form carries the recording under "audio" and the
// session under "session_id". Without a session the turn runs against
// a fresh one, skipping the greeting.
func (h *Handler) ProcessAudio(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, _, err := r.FormFile("audio")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing audio file")
		return
	}
	defer file.Close()

	wav, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read audio file")
		return
	}
	if len(wav) == 0 {
		writeError(w, http.StatusBadRequest, "empty audio file")
		return
	}

	var s *session.Session
	if id := r.FormValue("session_id"); id != "" {
		s, err = h.sessions.Get(id)
		if err != nil {
			writeError(w, http.StatusNotFound, "session not found or expired")
			return
		}
	} else {
		s = h.sessions.Create()
		// No greeting for ad-hoc turns: enter the graph at the
		// listen node directly.
		s.State.NextNode = "listen_to_user"
	}

	s.Lock()
	if s.State.Ended {
		s.Unlock()
		writeError(w, http.StatusConflict, "call already ended")
		return
	}

	s.State.PendingAudio = h.trimSilence(wav)
	err = h.graph.Run(r.Context(), s.State)
	userText := s.State.LastUserText
	agentText := s.State.AgentText
	agentAudio := s.State.AgentAudio
	sources := len(s.State.RetrievedDocs)
	turn := s.State.CurrentTurn
	ended := s.State.Ended
	s.State.AgentAudio = nil
	s.Unlock()

	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to process audio: %v", err))
		return
	}
	if ended {
		h.sessions.End(s)
	}

	resp := map[string]any{
		"session_id":     s.ID,
		"user_text":      userText,
		"agent_response": agentText,
		"sources_found":  sources,
		"call_ended":     ended,
	}
	if len(agentAudio) == 0 {
		resp["audio_url"] = nil
		resp["warning"] = "TTS failed, text-only response"
	} else {
		name := fmt.Sprintf("%s_turn%d.wav", s.ID, turn)
		url, err := h.saveAudio(name, agentAudio)
		if err != nil {
			log.Error().Err(err).Str("sessionId", s.ID).Msg("Failed to save response audio")
			resp["audio_url"] = nil
			resp["warning"] = "audio unavailable, text-only response"
		} else {
			resp["audio_url"] = url
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// TextQuery handles POST /api/text-query: retrieval and generation
// without the voice pipeline.
func (h *Handler) TextQuery(w http.ResponseWriter, r *http.Request) {
	var req textQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		writeError(w, http.StatusBadRequest, "Text query cannot be empty")
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = "text_" + uuid.NewString()
	}

	hits, err := h.retriever.Search(r.Context(), text)
	if err != nil {
		log.Error().Err(err).Str("sessionId", sessionID).Msg("Retrieval failed")
		hits = nil
	}
	docs := rag.Documents(hits)

	var response string
	if len(docs) > 0 {
		answer, err := h.generator.GenerateAnswer(r.Context(), text, docs)
		if err != nil {
			log.Error().Err(err).Str("sessionId", sessionID).Msg("Generation failed")
		}
		response = answer
	} else {
		response = conversation.NoInfoResponse
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user_text":      text,
		"agent_response": response,
		"sources_found":  len(docs),
		"session_id":     sessionID,
	})
}

// ServeAudio handles GET /api/audio/{filename}.
func (h *Handler) ServeAudio(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	if filename == "" || filename != filepath.Base(filename) || strings.Contains(filename, "..") {
		writeError(w, http.StatusBadRequest, "invalid filename")
		return
	}

	path := filepath.Join(h.audioDir, filename)
	if _, err := os.Stat(path); err != nil {
		writeError(w, http.StatusNotFound, "Audio file not found")
		return
	}

	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%s", filename))
	http.ServeFile(w, r, path)
}

// trimSilence cuts trailing silence from an uploaded recording so the
// transcriber gets just the utterance. Undecodable audio passes
// through unchanged; the transcriber reports its own errors.
func (h *Handler) trimSilence(wav []byte) []byte {
	clip, err := audio.Decode(wav)
	if err != nil {
		return wav
	}

	d := vad.New(h.vadCfg)
	end := d.ScanPCM(clip.Samples(), clip.SampleRate)
	if end <= 0 || end >= len(clip.Data) {
		return wav
	}
	return audio.Encode(clip.Data[:end], clip.SampleRate)
}

// saveAudio writes a response clip under the audio output dir and
// returns its serving URL.
func (h *Handler) saveAudio(name string, data []byte) (string, error) {
	if err := os.MkdirAll(h.audioDir, 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(h.audioDir, name), data, 0o644); err != nil {
		return "", err
	}
	return "/api/audio/" + name, nil
}

// documentCount returns the indexed chunk count, or -1 when the store
// is unreachable.
func (h *Handler) documentCount(ctx context.Context) int {
	if h.store == nil {
		return 0
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	count, err := h.store.Count(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			log.Warn().Err(err).Msg("Document count unavailable")
		}
		return -1
	}
	return count
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
