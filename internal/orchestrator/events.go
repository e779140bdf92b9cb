package orchestrator

// EventKind identifies one asynchronous session notification.
type EventKind string

const (
	EventSessionStarted    EventKind = "session_started"
	EventSessionStopped    EventKind = "session_stopped"
	EventTextRecognized    EventKind = "text_recognized"
	EventNoSpeechDetected  EventKind = "no_speech_detected"
	EventRecognitionFailed EventKind = "recognition_failed"
)

// Event is one notification emitted on the session's event channel.
// Text is set for EventTextRecognized; Message carries a human-readable
// description for EventRecognitionFailed, including a remediation hint
// when the failure is something the user can fix.
type Event struct {
	Kind    EventKind
	Text    string
	Message string

	// Backend that produced the result; for a fallback attempt this is
	// the offline backend, not the one originally selected.
	Backend string
}
