package conversation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"insurance-voice-agent/internal/audio"
	"insurance-voice-agent/internal/rag"
	sttmock "insurance-voice-agent/internal/service/stt/mock"
	ttsmock "insurance-voice-agent/internal/service/tts/mock"
)

type stubRetriever struct {
	hits []rag.Hit
	err  error
}

func (s *stubRetriever) Search(_ context.Context, _ string) ([]rag.Hit, error) {
	return s.hits, s.err
}

type stubGenerator struct {
	answer string
	err    error
	calls  int
}

func (s *stubGenerator) GenerateAnswer(_ context.Context, _ string, _ []string) (string, error) {
	s.calls++
	return s.answer, s.err
}

func testUtterance() []byte {
	return audio.EncodeSamples(make([]int16, 1600), 16000)
}

func newTestWorkflow(retriever Retriever, generator Generator, transcriber *sttmock.Transcriber) *Workflow {
	return NewWorkflow(retriever, generator, transcriber, ttsmock.New(), nil, nil)
}

func TestDetectIntent(t *testing.T) {
	tests := []struct {
		text string
		want Intent
	}{
		{"I had an accident and need to file a claim", IntentClaims},
		{"my car was stolen yesterday", IntentClaims},
		{"what does my policy cover", IntentCustomerService},
		{"when is my premium due", IntentCustomerService},
		{"tell me about your company", IntentGeneral},
		{"goodbye", IntentEndCall},
		{"that's all thanks", IntentEndCall},
		{"nothing else for today", IntentEndCall},
		// End-call keywords win even when other keywords are present.
		{"thanks for the claim info, bye", IntentEndCall},
		{"", IntentGeneral},
	}
	for _, tt := range tests {
		if got := DetectIntent(tt.text); got != tt.want {
			t.Errorf("DetectIntent(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestWorkflow_GreetingPausesAtListen(t *testing.T) {
	w := newTestWorkflow(&stubRetriever{}, &stubGenerator{answer: "x"}, sttmock.New())
	g, err := w.BuildGraph()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	st := NewState("web_test", 5)
	if err := g.Run(context.Background(), st); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if st.Ended {
		t.Fatal("call should pause for input, not end")
	}
	if st.NextNode != "listen_to_user" {
		t.Fatalf("expected pause at listen_to_user, got %q", st.NextNode)
	}
	if st.AgentText != Greeting {
		t.Errorf("expected greeting, got %q", st.AgentText)
	}
	if len(st.AgentAudio) == 0 {
		t.Error("greeting should carry audio")
	}
	if len(st.Transcript) != 1 || st.Transcript[0] != "Agent: "+Greeting {
		t.Errorf("unexpected transcript: %v", st.Transcript)
	}
}

func TestWorkflow_FullTurn(t *testing.T) {
	retriever := &stubRetriever{hits: []rag.Hit{{Document: "Claims are settled in 30 days."}}}
	generator := &stubGenerator{answer: "Your claim will be settled within thirty days."}
	transcriber := sttmock.New()
	transcriber.Utterances = []string{"how long does a claim take"}

	w := newTestWorkflow(retriever, generator, transcriber)
	g, err := w.BuildGraph()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	st := NewState("web_test", 5)
	if err := g.Run(context.Background(), st); err != nil {
		t.Fatalf("greeting run failed: %v", err)
	}

	st.PendingAudio = testUtterance()
	if err := g.Run(context.Background(), st); err != nil {
		t.Fatalf("turn run failed: %v", err)
	}

	if st.Ended {
		t.Fatal("call should continue after one turn")
	}
	if st.CurrentTurn != 1 {
		t.Errorf("expected turn 1, got %d", st.CurrentTurn)
	}
	if st.Intent != IntentClaims {
		t.Errorf("expected claims intent, got %q", st.Intent)
	}
	if st.AgentText != generator.answer {
		t.Errorf("unexpected response: %q", st.AgentText)
	}
	if st.LastUserText != "how long does a claim take" {
		t.Errorf("unexpected user text: %q", st.LastUserText)
	}
	want := []string{
		"Agent: " + Greeting,
		"User: how long does a claim take",
		"Agent: " + generator.answer,
	}
	if strings.Join(st.Transcript, "|") != strings.Join(want, "|") {
		t.Errorf("unexpected transcript: %v", st.Transcript)
	}
}

func TestWorkflow_NoDocumentsUsesFallbackResponse(t *testing.T) {
	generator := &stubGenerator{answer: "should not be used"}
	transcriber := sttmock.New()
	transcriber.Utterances = []string{"what is the meaning of life"}

	w := newTestWorkflow(&stubRetriever{}, generator, transcriber)
	g, _ := w.BuildGraph()

	st := NewState("web_test", 5)
	_ = g.Run(context.Background(), st)
	st.PendingAudio = testUtterance()
	if err := g.Run(context.Background(), st); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if st.AgentText != NoInfoResponse {
		t.Errorf("expected fallback response, got %q", st.AgentText)
	}
	if generator.calls != 0 {
		t.Error("generator should not run without retrieved docs")
	}
}

func TestWorkflow_RetrievalErrorDegradesGracefully(t *testing.T) {
	transcriber := sttmock.New()
	transcriber.Utterances = []string{"what does my policy cover"}

	w := newTestWorkflow(&stubRetriever{err: errors.New("chroma down")}, &stubGenerator{answer: "x"}, transcriber)
	g, _ := w.BuildGraph()

	st := NewState("web_test", 5)
	_ = g.Run(context.Background(), st)
	st.PendingAudio = testUtterance()
	if err := g.Run(context.Background(), st); err != nil {
		t.Fatalf("run should not fail on retrieval errors: %v", err)
	}
	if st.AgentText != NoInfoResponse {
		t.Errorf("expected fallback response, got %q", st.AgentText)
	}
}

func TestWorkflow_UserEndsCall(t *testing.T) {
	transcriber := sttmock.New()
	transcriber.Utterances = []string{"thank you goodbye"}

	w := newTestWorkflow(&stubRetriever{}, &stubGenerator{answer: "x"}, transcriber)
	g, _ := w.BuildGraph()

	st := NewState("web_test", 5)
	_ = g.Run(context.Background(), st)
	st.PendingAudio = testUtterance()
	if err := g.Run(context.Background(), st); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if !st.Ended {
		t.Fatal("call should end on goodbye")
	}
	if st.Intent != IntentEndCall {
		t.Errorf("expected end_call intent, got %q", st.Intent)
	}
	if st.AgentText != Farewell {
		t.Errorf("expected farewell, got %q", st.AgentText)
	}
	last := st.Transcript[len(st.Transcript)-1]
	if last != "Agent: "+Farewell {
		t.Errorf("farewell missing from transcript: %v", st.Transcript)
	}
}

func TestWorkflow_MaxTurnsEndsCall(t *testing.T) {
	transcriber := sttmock.New()
	transcriber.Utterances = []string{"what does my policy cover"}

	w := newTestWorkflow(&stubRetriever{}, &stubGenerator{answer: "x"}, transcriber)
	g, _ := w.BuildGraph()

	st := NewState("web_test", 2)
	_ = g.Run(context.Background(), st)

	for i := 0; i < 2; i++ {
		st.PendingAudio = testUtterance()
		if err := g.Run(context.Background(), st); err != nil {
			t.Fatalf("turn %d failed: %v", i+1, err)
		}
	}

	if !st.Ended {
		t.Fatal("call should end after max turns")
	}
	if st.CurrentTurn != 2 {
		t.Errorf("expected 2 turns, got %d", st.CurrentTurn)
	}
	if st.AgentText != Farewell {
		t.Errorf("expected farewell, got %q", st.AgentText)
	}
}

func TestWorkflow_TranscriptionFailureKeepsCallAlive(t *testing.T) {
	transcriber := sttmock.New()
	transcriber.Err = errors.New("all transcribers failed")

	w := newTestWorkflow(&stubRetriever{}, &stubGenerator{answer: "x"}, transcriber)
	g, _ := w.BuildGraph()

	st := NewState("web_test", 5)
	_ = g.Run(context.Background(), st)
	st.PendingAudio = testUtterance()
	if err := g.Run(context.Background(), st); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if st.Ended {
		t.Fatal("call should survive a failed transcription")
	}
	if st.AgentText != NoInfoResponse {
		t.Errorf("expected fallback response, got %q", st.AgentText)
	}
	found := false
	for _, line := range st.Transcript {
		if line == "User: "+TranscriptionFailedLine {
			found = true
		}
	}
	if !found {
		t.Errorf("transcript should record the failed turn: %v", st.Transcript)
	}
	if st.Metrics.Errors != 1 {
		t.Errorf("expected 1 recorded error, got %d", st.Metrics.Errors)
	}
}

func TestWorkflow_SynthesisFailureCountsError(t *testing.T) {
	synth := ttsmock.New()
	synth.Err = errors.New("all synthesizers failed")

	w := NewWorkflow(&stubRetriever{}, &stubGenerator{answer: "x"}, sttmock.New(), synth, nil, nil)
	g, _ := w.BuildGraph()

	st := NewState("web_test", 5)
	if err := g.Run(context.Background(), st); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if st.AgentText != Greeting {
		t.Errorf("greeting text should survive a TTS failure, got %q", st.AgentText)
	}
	if st.AgentAudio != nil {
		t.Error("failed synthesis should yield no audio")
	}
	if st.Metrics.Errors != 1 {
		t.Errorf("expected 1 recorded error, got %d", st.Metrics.Errors)
	}
}
