package daemon

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/speechpipe/speechpipe/internal/audio"
	"github.com/speechpipe/speechpipe/internal/bus"
	"github.com/speechpipe/speechpipe/internal/config"
	"github.com/speechpipe/speechpipe/internal/notify"
	"github.com/speechpipe/speechpipe/internal/orchestrator"
)

// Daemon wires the whole pipeline together: config manager, audio capture,
// the recognition orchestrator and the control socket the CLI talks to.
type Daemon struct {
	manager *config.Manager
	version string

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	notifier notify.Notifier
	channel  *audio.Channel
	capture  *audio.Capture
	orch     *orchestrator.Orchestrator
}

func New(version string) (*Daemon, error) {
	manager, err := config.NewManager()
	if err != nil {
		return nil, err
	}

	cfg := manager.GetConfig()
	d := newDaemon(cfg, notify.New(cfg.Notifications.Enabled, cfg.Notifications.Type), version)
	d.manager = manager
	manager.OnReload(d.applyConfig)
	return d, nil
}

// newDaemon builds the pipeline from one config snapshot. Split from New
// so tests can construct a daemon without touching the user's config file.
func newDaemon(cfg *config.Config, notifier notify.Notifier, version string) *Daemon {
	ctx, cancel := context.WithCancel(context.Background())

	channel := audio.NewChannel()
	d := &Daemon{
		version:  version,
		ctx:      ctx,
		cancel:   cancel,
		notifier: notifier,
		channel:  channel,
		capture:  audio.NewCapture(cfg.ToCaptureConfig(), channel),
		orch:     orchestrator.New(channel, cfg.ToResolver(), cfg.ToBackendConfig()),
	}
	d.applySelection(cfg)
	return d
}

func (d *Daemon) applySelection(cfg *config.Config) {
	if err := d.orch.SetBackend(cfg.Recognition.Backend); err != nil {
		log.Printf("daemon: %v", err)
	}
	if err := d.orch.SetTier(cfg.Recognition.Tier); err != nil {
		log.Printf("daemon: %v", err)
	}
	if err := d.orch.SetLanguage(cfg.Recognition.Language); err != nil {
		log.Printf("daemon: %v", err)
	}
}

// applyConfig is the hot-reload hook: selection changes apply to the next
// frame, notification settings apply to the next event.
func (d *Daemon) applyConfig(cfg *config.Config) {
	d.applySelection(cfg)

	d.mu.Lock()
	d.notifier = notify.New(cfg.Notifications.Enabled, cfg.Notifications.Type)
	d.mu.Unlock()
}

func (d *Daemon) getNotifier() notify.Notifier {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.notifier
}

func (d *Daemon) Run() error {
	if err := bus.CheckExistingDaemon(); err != nil {
		return err
	}

	ln, err := bus.Listen()
	if err != nil {
		return err
	}
	defer ln.Close()

	if err := bus.CreatePidFile(); err != nil {
		return fmt.Errorf("failed to create PID file: %w", err)
	}
	defer bus.RemovePidFile()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)

	go func() {
		sig := <-sigCh
		log.Printf("daemon: received signal %v, shutting down", sig)
		d.cancel()
	}()

	go func() {
		<-d.ctx.Done()
		ln.Close()
	}()

	if d.manager != nil {
		if err := d.manager.StartWatching(d.ctx); err != nil {
			log.Printf("daemon: config watching disabled: %v", err)
		}
		defer d.manager.Stop()
	}

	go d.pumpEvents()

	log.Printf("daemon: started, listening on control socket")

	for {
		c, err := ln.Accept()
		if err != nil {
			if d.ctx.Err() != nil {
				d.stopSession()
				log.Printf("daemon: shutdown complete")
				return nil
			}
			return fmt.Errorf("accept failed: %w", err)
		}
		go d.handle(c)
	}
}

// pumpEvents forwards orchestrator events to the notifier. Recognized text
// also goes to stdout so scripted callers can consume it.
func (d *Daemon) pumpEvents() {
	for {
		select {
		case <-d.ctx.Done():
			return
		case ev := <-d.orch.Events():
			n := d.getNotifier()
			switch ev.Kind {
			case orchestrator.EventSessionStarted:
				n.SessionStarted(ev.Backend)
			case orchestrator.EventSessionStopped:
				n.SessionStopped()
			case orchestrator.EventTextRecognized:
				fmt.Println(ev.Text)
				n.Recognized(ev.Text)
			case orchestrator.EventNoSpeechDetected:
				n.NoSpeech()
			case orchestrator.EventRecognitionFailed:
				log.Printf("daemon: recognition failed: %s", ev.Message)
				n.Error(ev.Message)
			}
		}
	}
}

func (d *Daemon) handle(c net.Conn) {
	defer c.Close()

	line, err := bufio.NewReader(c).ReadString('\n')
	if err != nil {
		fmt.Fprintf(c, "ERR read_error: %v\n", err)
		return
	}

	verb, arg := bus.ParseCommand(line)
	fmt.Fprintf(c, "%s\n", d.dispatch(verb, arg))
}

func (d *Daemon) dispatch(verb, arg string) string {
	switch verb {
	case bus.CmdStart:
		if err := d.startSession(); err != nil {
			return fmt.Sprintf("ERR start_failed: %v", err)
		}
		return "OK started"

	case bus.CmdStop:
		d.stopSession()
		return "OK stopped"

	case bus.CmdStatus:
		return fmt.Sprintf("STATUS state=%s backend=%s tier=%s language=%s",
			d.orch.State(), d.orch.Backend(), d.orch.Tier(), displayLanguage(d.orch.Language()))

	case bus.CmdLanguage:
		if arg == "" {
			return "ERR missing_argument: language <tag>"
		}
		if arg == "auto" {
			arg = ""
		}
		if err := d.orch.SetLanguage(arg); err != nil {
			return fmt.Sprintf("ERR invalid_language: %v", err)
		}
		return "OK language=" + displayLanguage(arg)

	case bus.CmdBackend:
		if arg == "" {
			return "ERR missing_argument: backend <id>"
		}
		if err := d.orch.SetBackend(arg); err != nil {
			return fmt.Sprintf("ERR invalid_backend: %v", err)
		}
		return "OK backend=" + arg

	case bus.CmdTier:
		if arg == "" {
			return "ERR missing_argument: tier <personal|shared|public>"
		}
		if err := d.orch.SetTier(arg); err != nil {
			return fmt.Sprintf("ERR invalid_tier: %v", err)
		}
		return "OK tier=" + arg

	case bus.CmdVersion:
		return fmt.Sprintf("STATUS proto=%s version=%s", bus.ProtoVer, d.version)

	case bus.CmdQuit:
		d.cancel()
		return "OK quitting"

	default:
		return fmt.Sprintf("ERR unknown_command: %q", verb)
	}
}

func (d *Daemon) startSession() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.orch.State() != orchestrator.StateIdle {
		return fmt.Errorf("session is %s", d.orch.State())
	}

	errCh, err := d.capture.Start(d.ctx)
	if err != nil {
		return err
	}
	go d.watchCapture(errCh)

	if err := d.orch.Start(); err != nil {
		d.capture.Stop()
		return err
	}
	return nil
}

func (d *Daemon) stopSession() {
	d.orch.Stop()
	d.capture.Stop()
}

func (d *Daemon) watchCapture(errCh <-chan error) {
	for err := range errCh {
		log.Printf("daemon: capture error: %v", err)
		d.getNotifier().Error(fmt.Sprintf("audio capture failed: %v", err))
	}
}

func displayLanguage(tag string) string {
	if tag == "" {
		return "auto"
	}
	return tag
}
