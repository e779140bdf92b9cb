// Package deps probes for the external tools the pipeline shells out to.
package deps

import (
	"os/exec"
	"strings"
)

// Status represents the installation status of one external tool.
type Status struct {
	Installed bool
	Path      string
	Version   string
}

// CheckPwRecord reports whether the PipeWire capture tool is available.
func CheckPwRecord() Status {
	return check("pw-record", "--version")
}

// CheckPwCli reports whether the PipeWire CLI is available; the capture
// layer uses it to confirm the daemon is actually running.
func CheckPwCli() Status {
	return check("pw-cli", "--version")
}

// CheckWhisperCli reports whether the local whisper.cpp binary is
// available for the offline backend.
func CheckWhisperCli() Status {
	return check("whisper-cli", "--version")
}

// CheckNotifySend reports whether desktop notifications can be delivered.
func CheckNotifySend() Status {
	return check("notify-send", "--version")
}

func check(name, versionFlag string) Status {
	path, err := exec.LookPath(name)
	if err != nil {
		return Status{Installed: false}
	}

	status := Status{
		Installed: true,
		Path:      path,
	}

	// First output line is the version for all of these tools.
	output, err := exec.Command(path, versionFlag).Output()
	if err == nil {
		lines := strings.Split(string(output), "\n")
		if len(lines) > 0 {
			status.Version = strings.TrimSpace(lines[0])
		}
	}

	return status
}
