// Package models defines the data structures for conversation events.
package models

// UserTurn represents a transcribed user utterance within a call.
type UserTurn struct {
	EventType  string `json:"eventType"`
	SessionID  string `json:"sessionId"`
	Turn       int    `json:"turn"`
	Text       string `json:"text"`
	Intent     string `json:"intent,omitempty"`
	STTService string `json:"sttService,omitempty"`
	Timestamp  int64  `json:"timestamp"`
}

// AgentTurn represents a generated agent response within a call.
type AgentTurn struct {
	EventType    string `json:"eventType"`
	SessionID    string `json:"sessionId"`
	Turn         int    `json:"turn"`
	Text         string `json:"text"`
	SourcesFound int    `json:"sourcesFound"`
	TTSService   string `json:"ttsService,omitempty"`
	Timestamp    int64  `json:"timestamp"`
}

// SessionEvent represents a session lifecycle change (started/ended).
type SessionEvent struct {
	EventType string `json:"eventType"`
	SessionID string `json:"sessionId"`
	Turns     int    `json:"turns"`
	Intent    string `json:"intent,omitempty"`
	Timestamp int64  `json:"timestamp"`
}
