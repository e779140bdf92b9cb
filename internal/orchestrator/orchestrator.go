package orchestrator

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/speechpipe/speechpipe/internal/audio"
	"github.com/speechpipe/speechpipe/internal/backend"
	"github.com/speechpipe/speechpipe/internal/credential"
	"github.com/speechpipe/speechpipe/internal/language"
)

// State is the session lifecycle state.
type State string

const (
	StateIdle     State = "idle"
	StateStarting State = "starting"
	StateRunning  State = "running"
	StateStopping State = "stopping"
)

const eventBufferSize = 32

// Orchestrator owns the recognition side of the pipeline: a worker loop
// that pulls frames from the audio channel, runs them through the active
// backend, applies the fallback policy on failure and emits results as
// events.
//
// Two locks, never held together: stateMu guards the session lifecycle,
// selMu guards the backend/tier/language selection. The worker reads the
// selection once per frame, so selection changes take effect on the next
// attempt and never race with the attempt already in flight.
type Orchestrator struct {
	channel  *audio.Channel
	resolver *credential.Resolver

	selMu     sync.Mutex
	backendID string
	tier      credential.Tier
	language  string
	backends  map[string]backend.Backend

	backendCfg backend.Config

	// appliedTier remembers which tier each backend instance was last
	// initialized for. Touched only by Start and the worker, which never
	// run concurrently.
	appliedTier map[string]credential.Tier

	stateMu sync.Mutex
	state   State
	stopCh  chan struct{}
	done    chan struct{}

	events chan Event
}

// New builds an orchestrator over the given channel and resolver. The
// initial selection is the offline backend on the personal tier; use the
// setters to change it before or after Start.
func New(channel *audio.Channel, resolver *credential.Resolver, cfg backend.Config) *Orchestrator {
	return &Orchestrator{
		channel:     channel,
		resolver:    resolver,
		backendID:   backend.IDOffline,
		tier:        credential.TierPersonal,
		language:    cfg.Language,
		backends:    make(map[string]backend.Backend),
		backendCfg:  cfg,
		appliedTier: make(map[string]credential.Tier),
		state:       StateIdle,
		events:      make(chan Event, eventBufferSize),
	}
}

// Events returns the notification channel. Slow consumers lose events
// rather than stalling the worker.
func (o *Orchestrator) Events() <-chan Event { return o.events }

// State returns the current session state.
func (o *Orchestrator) State() State {
	o.stateMu.Lock()
	defer o.stateMu.Unlock()
	return o.state
}

// Backend returns the currently selected backend id.
func (o *Orchestrator) Backend() string {
	o.selMu.Lock()
	defer o.selMu.Unlock()
	return o.backendID
}

// Tier returns the currently selected credential tier.
func (o *Orchestrator) Tier() credential.Tier {
	o.selMu.Lock()
	defer o.selMu.Unlock()
	return o.tier
}

// Language returns the currently selected language tag.
func (o *Orchestrator) Language() string {
	o.selMu.Lock()
	defer o.selMu.Unlock()
	return o.language
}

// SetBackend switches the active backend. Takes effect on the next frame.
func (o *Orchestrator) SetBackend(id string) error {
	if !backend.IsKnown(id) {
		return fmt.Errorf("unknown backend: %q", id)
	}
	o.selMu.Lock()
	defer o.selMu.Unlock()
	o.backendID = id
	return nil
}

// SetTier switches the active credential tier. Takes effect on the next
// frame; the backend is re-initialized with the new credential then.
func (o *Orchestrator) SetTier(s string) error {
	tier, err := credential.ParseTier(s)
	if err != nil {
		return err
	}
	o.selMu.Lock()
	defer o.selMu.Unlock()
	o.tier = tier
	return nil
}

// SetLanguage switches the recognition language. Takes effect on the next
// frame.
func (o *Orchestrator) SetLanguage(tag string) error {
	if !language.IsValid(tag) {
		return fmt.Errorf("unsupported language: %q", tag)
	}
	o.selMu.Lock()
	defer o.selMu.Unlock()
	o.language = tag
	return nil
}

// Start transitions Idle -> Starting -> Running. The selected backend must
// be ready, or become ready after one initialization attempt; otherwise
// Start fails and the session stays Idle.
func (o *Orchestrator) Start() error {
	o.stateMu.Lock()
	if o.state != StateIdle {
		state := o.state
		o.stateMu.Unlock()
		return fmt.Errorf("cannot start: session is %s", state)
	}
	o.state = StateStarting
	o.stateMu.Unlock()

	b, cred, tier, lang := o.snapshot()
	b.SetLanguage(lang)
	if !o.ensureReady(b, cred, tier) {
		o.setState(StateIdle)
		return o.initFailure(b, tier)
	}

	o.stopCh = make(chan struct{})
	o.done = make(chan struct{})
	o.setState(StateRunning)
	go o.run()

	o.emit(Event{Kind: EventSessionStarted, Backend: b.ID()})
	return nil
}

// Stop signals the worker, waits for it to finish the attempt in flight
// (never cancelling it mid-call) and returns with the session Idle. Safe
// to call more than once and safe when the worker already exited.
func (o *Orchestrator) Stop() {
	o.stateMu.Lock()
	if o.state != StateRunning {
		o.stateMu.Unlock()
		return
	}
	o.state = StateStopping
	o.stateMu.Unlock()

	close(o.stopCh)
	// Wake a worker parked in WaitFrame.
	o.channel.Stop()
	<-o.done

	o.setState(StateIdle)
	o.emit(Event{Kind: EventSessionStopped})
}

func (o *Orchestrator) setState(s State) {
	o.stateMu.Lock()
	o.state = s
	o.stateMu.Unlock()
}

func (o *Orchestrator) run() {
	defer close(o.done)
	defer o.finish()
	for {
		select {
		case <-o.stopCh:
			return
		default:
		}

		frame, ok := o.channel.WaitFrame(0)
		if !ok {
			// Recording stopped while we were waiting.
			return
		}
		o.processFrame(frame)
	}
}

// finish settles the session when the worker exits on its own, typically
// because capture died and stopped the channel underneath it. When Stop
// drives the shutdown the state is already Stopping and Stop owns the
// transition and the event; a later Stop on a self-ended session finds
// Idle and returns without a second event.
func (o *Orchestrator) finish() {
	o.stateMu.Lock()
	selfExit := o.state == StateRunning
	if selfExit {
		o.state = StateIdle
	}
	o.stateMu.Unlock()

	if selfExit {
		log.Printf("orchestrator: frame source stopped, session ended")
		o.emit(Event{Kind: EventSessionStopped})
	}
}

// snapshot reads the active selection once and returns the backend
// instance for it, constructing and caching it on first use.
func (o *Orchestrator) snapshot() (backend.Backend, credential.Credential, credential.Tier, string) {
	o.selMu.Lock()
	defer o.selMu.Unlock()

	b := o.backendLocked(o.backendID)
	cred, _ := o.resolver.Resolve(o.backendID, o.tier)
	return b, cred, o.tier, o.language
}

func (o *Orchestrator) backendLocked(id string) backend.Backend {
	if b, ok := o.backends[id]; ok {
		return b
	}
	b, err := backend.New(id, o.backendCfg)
	if err != nil {
		// Selection is validated in SetBackend, so this cannot happen
		// for ids coming through the public surface.
		panic(err)
	}
	o.backends[id] = b
	return b
}

// ensureReady initializes the backend when it is not ready or when the
// tier changed since it was last initialized (the credential changes with
// the tier).
func (o *Orchestrator) ensureReady(b backend.Backend, cred credential.Credential, tier credential.Tier) bool {
	if b.IsReady() && o.appliedTier[b.ID()] == tier {
		return true
	}
	ok := b.Initialize(cred, tier)
	if ok {
		o.appliedTier[b.ID()] = tier
	}
	return ok
}

func (o *Orchestrator) initFailure(b backend.Backend, tier credential.Tier) error {
	if b.ID() == backend.IDOffline {
		return &backend.Failure{Kind: backend.KindModelUnavailable,
			Detail: "offline model could not be loaded"}
	}
	return &backend.Failure{Kind: backend.KindUnauthorized,
		Detail: fmt.Sprintf("backend %s has no usable credential for tier %s", b.ID(), tier)}
}

func (o *Orchestrator) processFrame(frame audio.Frame) {
	b, cred, tier, lang := o.snapshot()
	b.SetLanguage(lang)

	if !o.ensureReady(b, cred, tier) {
		failure, _ := backend.AsFailure(o.initFailure(b, tier))
		o.resolveFailure(frame, tier, lang, b.ID(), failure)
		return
	}

	start := time.Now()
	text, err := b.Transcribe(context.Background(), frame)
	if err != nil {
		failure, ok := backend.AsFailure(err)
		if !ok {
			failure = &backend.Failure{Kind: backend.KindNetworkError, Detail: err.Error()}
		}
		log.Printf("orchestrator: %s attempt failed after %v: %v", b.ID(), time.Since(start), failure)
		o.resolveFailure(frame, tier, lang, b.ID(), failure)
		return
	}

	o.emitResult(text, b.ID())
}

// resolveFailure applies the fallback policy to one failed attempt. At
// most one offline retry happens per frame; a second cloud call never
// does.
func (o *Orchestrator) resolveFailure(frame audio.Frame, tier credential.Tier, lang, backendID string, failure *backend.Failure) {
	if backendID != backend.IDOffline && Decide(tier, failure.Kind) == RetryOffline {
		log.Printf("orchestrator: falling back to offline model (%s on %s tier)", failure.Kind, tier)

		o.selMu.Lock()
		offline := o.backendLocked(backend.IDOffline)
		o.selMu.Unlock()

		offline.SetLanguage(lang)
		if o.ensureReady(offline, credential.Credential{}, credential.TierPersonal) {
			text, err := offline.Transcribe(context.Background(), frame)
			if err == nil {
				o.emitResult(text, backend.IDOffline)
				return
			}
			if f, ok := backend.AsFailure(err); ok {
				failure = f
			}
			backendID = backend.IDOffline
		} else {
			failure = &backend.Failure{Kind: backend.KindModelUnavailable,
				Detail: "offline fallback model could not be loaded"}
			backendID = backend.IDOffline
		}
	}

	msg := failure.Error()
	if hint := failure.Kind.Remediation(); hint != "" {
		msg += " (" + hint + ")"
	}
	o.emit(Event{Kind: EventRecognitionFailed, Message: msg, Backend: backendID})
}

func (o *Orchestrator) emitResult(text, backendID string) {
	if text == "" {
		o.emit(Event{Kind: EventNoSpeechDetected, Backend: backendID})
		return
	}
	o.emit(Event{Kind: EventTextRecognized, Text: text, Backend: backendID})
}

func (o *Orchestrator) emit(ev Event) {
	select {
	case o.events <- ev:
	default:
		log.Printf("orchestrator: event buffer full, dropping %s", ev.Kind)
	}
}
