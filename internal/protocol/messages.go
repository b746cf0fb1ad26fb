package protocol

import "time"

// SpeechRequest asks the gateway to synthesize unlimited-length speech.
type SpeechRequest struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
	Voice     string `json:"voice,omitempty"`
	Format    string `json:"format,omitempty"`
}

// SpeechResult carries the finished audio for a session.
type SpeechResult struct {
	SessionID  string    `json:"session_id"`
	Format     string    `json:"format"`
	MediaType  string    `json:"media_type"`
	Audio      []byte    `json:"audio"`
	DurationMS int64     `json:"duration_ms"`
	ChunkCount int       `json:"chunk_count"`
	Timestamp  time.Time `json:"timestamp"`
}

// SpeechFailure reports a failed synthesis request.
type SpeechFailure struct {
	SessionID string    `json:"session_id"`
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	SubjectSpeechRequest = "speech.request"
	SubjectSpeechResult  = "speech.result"
	SubjectSpeechFailed  = "speech.failed"
)

// mediaTypes maps output formats to their response content types.
var mediaTypes = map[string]string{
	"wav":  "audio/wav",
	"mp3":  "audio/mpeg",
	"opus": "audio/opus",
	"flac": "audio/flac",
	"aac":  "audio/aac",
	"pcm":  "audio/pcm",
}

// MediaType returns the content type for an output format, defaulting to
// audio/mpeg for unknown formats.
func MediaType(format string) string {
	if mt, ok := mediaTypes[format]; ok {
		return mt
	}
	return "audio/mpeg"
}

// ValidFormat reports whether the gateway can produce the format.
func ValidFormat(format string) bool {
	_, ok := mediaTypes[format]
	return ok
}
