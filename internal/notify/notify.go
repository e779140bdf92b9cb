package notify

import (
	"log"
	"os/exec"
)

const appName = "Speechpipe"

// Notifier surfaces session events to the user.
type Notifier interface {
	SessionStarted(backend string)
	SessionStopped()
	Recognized(text string)
	NoSpeech()
	Error(msg string)
}

// New picks a notifier for the configured notification settings.
func New(enabled bool, notifierType string) Notifier {
	if !enabled {
		return Nop{}
	}
	switch notifierType {
	case "desktop":
		return Desktop{}
	case "log":
		return Log{}
	default:
		return Nop{}
	}
}

// Desktop sends notifications through notify-send.
type Desktop struct{}

func (Desktop) SessionStarted(backend string) {
	send("Listening", "Recognition started ("+backend+")", false)
}

func (Desktop) SessionStopped() {
	send("Stopped", "Recognition stopped", false)
}

func (Desktop) Recognized(text string) {
	send("Recognized", text, false)
}

func (Desktop) NoSpeech() {
	send("Nothing recognized", "No speech detected in the last frame", false)
}

func (Desktop) Error(msg string) {
	send("Recognition failed", msg, true)
}

func send(title, body string, critical bool) {
	args := []string{"-a", appName}
	if critical {
		args = append(args, "-u", "critical")
	}
	args = append(args, appName+": "+title, body)
	if err := exec.Command("notify-send", args...).Run(); err != nil {
		log.Printf("notify: failed to send notification: %v", err)
	}
}

// Log writes notifications to the process log instead of the desktop.
type Log struct{}

func (Log) SessionStarted(backend string) {
	log.Printf("notify: recognition started (%s)", backend)
}

func (Log) SessionStopped() {
	log.Printf("notify: recognition stopped")
}

func (Log) Recognized(text string) {
	log.Printf("notify: recognized: %s", text)
}

func (Log) NoSpeech() {
	log.Printf("notify: no speech detected")
}

func (Log) Error(msg string) {
	log.Printf("notify: error: %s", msg)
}

// Nop does nothing. Used when notifications are disabled and in tests.
type Nop struct{}

func (Nop) SessionStarted(backend string) {}
func (Nop) SessionStopped()               {}
func (Nop) Recognized(text string)        {}
func (Nop) NoSpeech()                     {}
func (Nop) Error(msg string)              {}
