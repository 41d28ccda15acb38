package types

import "time"

// Message type discriminators for the hub <-> viewer wire protocol.
const (
	TypeReady             = "ready"
	TypeInterimTranscript = "interim_transcript"
	TypePolishSentence    = "polish_sentence"
	TypeStopped           = "stopped"
	TypeError             = "error"
	TypeStart             = "start"
	TypeStop              = "stop"
	TypeAudio             = "audio"
)

// Message is a single wire frame. Type selects which of the optional
// fields carry data; the rest stay empty and are omitted on the wire.
type Message struct {
	Type string `json:"type"`
	// Transcript carries a non-final partial result (interim_transcript).
	Transcript string `json:"transcript,omitempty"`
	// Sentence carries one split, translated line (polish_sentence).
	Sentence string `json:"sentence,omitempty"`
	// DisplayTime is an advisory hold hint in milliseconds; the viewer's
	// pacer recomputes its own duration and may ignore it.
	DisplayTime int64 `json:"displayTime,omitempty"`
	// Message carries a human-readable error description (error).
	Message string `json:"message,omitempty"`
	// Audio carries base64-encoded PCM from viewer to hub (audio).
	Audio string `json:"audio,omitempty"`
}

// Fragment is one increment of recognized text from the upstream
// recognizer. Ephemeral; consumed immediately by the chunk accumulator.
type Fragment struct {
	Text         string
	IsFinal      bool
	UtteranceEnd bool
}

// Line is one rendered unit of output text with a bounded on-screen
// lifetime.
type Line struct {
	ID        uint64
	Text      string
	CreatedAt time.Time
}
