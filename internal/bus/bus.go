// Package bus is the control-plane plumbing between the speechpipe CLI
// and the daemon: a unix socket carrying one text command per connection,
// plus a PID file to keep a second daemon from starting.
package bus

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

const SockName = "control.sock"
const PidName = "speechpipe.pid"
const ProtoVer = "0.1"

// Commands understood by the daemon. Arguments follow the verb separated
// by a single space, e.g. "language en-US".
const (
	CmdStart    = "start"
	CmdStop     = "stop"
	CmdStatus   = "status"
	CmdLanguage = "language"
	CmdBackend  = "backend"
	CmdTier     = "tier"
	CmdVersion  = "version"
	CmdQuit     = "quit"
)

func runtimeDir() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "speechpipe"), nil
}

// SockPath is ~/.cache/speechpipe/control.sock.
func SockPath() (string, error) {
	dir, err := runtimeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, SockName), nil
}

// PidPath is ~/.cache/speechpipe/speechpipe.pid.
func PidPath() (string, error) {
	dir, err := runtimeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, PidName), nil
}

func Listen() (net.Listener, error) {
	sp, err := SockPath()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(sp), 0o700); err != nil {
		return nil, err
	}
	_ = os.Remove(sp) // stale socket from last run
	return net.Listen("unix", sp)
}

func Dial() (net.Conn, error) {
	sp, err := SockPath()
	if err != nil {
		return nil, err
	}
	return net.Dial("unix", sp)
}

// SendCommand dials the daemon, sends one command line and returns the
// single response line.
func SendCommand(verb string, args ...string) (string, error) {
	c, err := Dial()
	if err != nil {
		return "", fmt.Errorf("daemon not reachable (is 'speechpipe serve' running?): %w", err)
	}
	defer c.Close()

	line := verb
	if len(args) > 0 {
		line += " " + strings.Join(args, " ")
	}
	if _, err := fmt.Fprintf(c, "%s\n", line); err != nil {
		return "", err
	}

	resp, err := bufio.NewReader(c).ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(resp, "\n"), nil
}

// ParseCommand splits one wire line into verb and argument.
func ParseCommand(line string) (verb, arg string) {
	line = strings.TrimSpace(line)
	verb, arg, _ = strings.Cut(line, " ")
	return verb, strings.TrimSpace(arg)
}

// pidManager guards against two daemons sharing one socket.
type pidManager struct {
	path string
}

func newPidManager() (*pidManager, error) {
	path, err := PidPath()
	if err != nil {
		return nil, err
	}
	return &pidManager{path: path}, nil
}

func (p *pidManager) create() error {
	if err := os.MkdirAll(filepath.Dir(p.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(p.path, []byte(strconv.Itoa(os.Getpid())), 0o600)
}

func (p *pidManager) remove() error {
	return os.Remove(p.path)
}

// checkExisting returns an error when another live daemon owns the PID
// file; stale or malformed files are cleaned up silently.
func (p *pidManager) checkExisting() error {
	pidData, err := os.ReadFile(p.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(pidData)))
	if err != nil {
		_ = p.remove()
		return nil
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		_ = p.remove()
		return nil
	}
	if err := proc.Signal(syscall.Signal(0)); err != nil {
		_ = p.remove()
		return nil
	}

	return fmt.Errorf("daemon already running with PID %d", pid)
}

func CheckExistingDaemon() error {
	pm, err := newPidManager()
	if err != nil {
		return err
	}
	return pm.checkExisting()
}

func CreatePidFile() error {
	pm, err := newPidManager()
	if err != nil {
		return err
	}
	return pm.create()
}

func RemovePidFile() error {
	pm, err := newPidManager()
	if err != nil {
		return err
	}
	return pm.remove()
}
