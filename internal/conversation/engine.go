package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"livechat-engine/internal/domain"
	"livechat-engine/internal/metrics"
)

const (
	defaultTypingTTL         = 2500 * time.Millisecond
	defaultThankYouHideAfter = 5000 * time.Millisecond
	defaultStaleAfter        = 2 * time.Hour
	defaultQueueSize         = 256
)

// Transport sends commands to the server side. Emits are fire-and-forget.
type Transport interface {
	Emit(ctx context.Context, event domain.EventName, payload any) error
}

// FlagStore is a persistent key-value store for UI flags, namespaced per identity.
type FlagStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Namespace(name string)
}

type Config struct {
	TypingTTL         time.Duration
	ThankYouHideAfter time.Duration
	StaleAfter        time.Duration
	QueueSize         int
	Clock             func() time.Time
}

type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func WithScheduler(s Scheduler) Option {
	return func(e *Engine) {
		if s != nil {
			e.scheduler = s
		}
	}
}

func WithEligibility(shown Eligibility) Option {
	return func(e *Engine) {
		if shown != nil {
			e.shown = shown
		}
	}
}

// WithObserver registers a callback that receives every published snapshot.
func WithObserver(fn func(State)) Option {
	return func(e *Engine) {
		e.observer = fn
	}
}

// Engine is the mutation gateway: every push event, user action and timer
// firing is applied here, one at a time.
type Engine struct {
	cfg       Config
	transport Transport
	local     FlagStore
	session   FlagStore
	scheduler Scheduler
	shown     Eligibility
	observer  func(State)
	logger    *slog.Logger

	mu      sync.Mutex
	state   State
	timers  map[TimerKind]pendingTimer
	nextGen uint64

	queue chan Event
}

func NewEngine(t Transport, local, session FlagStore, cfg Config, initial State, opts ...Option) (*Engine, error) {
	if t == nil {
		return nil, errors.New("conversation: transport must not be nil")
	}
	if local == nil {
		return nil, errors.New("conversation: local flag store must not be nil")
	}
	if session == nil {
		return nil, errors.New("conversation: session flag store must not be nil")
	}
	if cfg.TypingTTL <= 0 {
		cfg.TypingTTL = defaultTypingTTL
	}
	if cfg.ThankYouHideAfter <= 0 {
		cfg.ThankYouHideAfter = defaultThankYouHideAfter
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = defaultStaleAfter
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	e := &Engine{
		cfg:       cfg,
		transport: t,
		local:     local,
		session:   session,
		scheduler: realScheduler{},
		shown:     DefaultShown,
		logger:    slog.Default(),
		state:     initial.Clone(),
		timers:    map[TimerKind]pendingTimer{},
		queue:     make(chan Event, cfg.QueueSize),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Snapshot returns a copy of the current state.
func (e *Engine) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

// Shown exposes the engine's eligibility predicate to readers of snapshots.
func (e *Engine) Shown(m domain.Message) bool {
	return e.shown(m)
}

// Handle applies ev synchronously and then carries out its side effects.
func (e *Engine) Handle(ctx context.Context, ev Event) {
	e.mu.Lock()
	deferred, snapshot := e.applyLocked(ev)
	e.mu.Unlock()
	e.publish(snapshot)
	e.runEffects(ctx, deferred)
}

// applyLocked runs the reducer, commits the new state and handles timer
// effects. Remaining effects are returned for execution outside the lock.
func (e *Engine) applyLocked(ev Event) ([]Effect, *State) {
	prev := len(e.state.Messages)
	next, effects := reduce(e.state, ev, e.cfg.Clock(), e.cfg, e.shown)
	e.state = next

	var deferred []Effect
	for _, eff := range effects {
		switch eff := eff.(type) {
		case ArmTimer:
			e.armLocked(eff.Timer, eff.After)
		case CancelTimer:
			e.cancelLocked(eff.Timer)
		default:
			deferred = append(deferred, eff)
		}
	}

	metrics.EventsHandled.WithLabelValues(ev.Name()).Inc()
	metrics.StoredMessages.Set(float64(len(next.Messages)))
	metrics.UnreadMessages.Set(float64(next.Unread))
	if _, ok := ev.(PruneOutdated); ok && len(next.Messages) < prev {
		metrics.MessagesPruned.Add(float64(prev - len(next.Messages)))
	}

	if e.observer == nil {
		return deferred, nil
	}
	snapshot := next.Clone()
	return deferred, &snapshot
}

func (e *Engine) publish(snapshot *State) {
	if snapshot != nil && e.observer != nil {
		e.observer(*snapshot)
	}
}

func (e *Engine) armLocked(kind TimerKind, after time.Duration) {
	e.cancelLocked(kind)
	e.nextGen++
	gen := e.nextGen
	stop := e.scheduler.AfterFunc(after, func() { e.fire(kind, gen) })
	e.timers[kind] = pendingTimer{gen: gen, stop: stop}
}

func (e *Engine) cancelLocked(kind TimerKind) {
	if t, ok := e.timers[kind]; ok {
		t.stop()
		delete(e.timers, kind)
	}
}

func (e *Engine) fire(kind TimerKind, gen uint64) {
	e.mu.Lock()
	t, ok := e.timers[kind]
	if !ok || t.gen != gen {
		e.mu.Unlock()
		return
	}
	delete(e.timers, kind)
	deferred, snapshot := e.applyLocked(kind.expiry())
	e.mu.Unlock()
	e.publish(snapshot)
	e.runEffects(context.Background(), deferred)
}

func (e *Engine) runEffects(ctx context.Context, effects []Effect) {
	for _, eff := range effects {
		switch eff := eff.(type) {
		case Emit:
			if err := e.transport.Emit(ctx, eff.Event, eff.Payload); err != nil {
				metrics.EffectFailures.WithLabelValues("emit").Inc()
				e.logger.Warn("transport emit failed", "event", eff.Event, "err", err)
			}
		case WriteFlag:
			if err := e.flagStore(eff.Scope).Set(ctx, eff.Key, eff.Value); err != nil {
				metrics.EffectFailures.WithLabelValues("write_flag").Inc()
				e.logger.Warn("flag write failed", "scope", eff.Scope, "key", eff.Key, "err", err)
			}
		case RekeyFlags:
			e.local.Namespace(eff.Namespace)
			e.session.Namespace(eff.Namespace)
			vals, err := readFlags(ctx, e.local, e.session)
			if err != nil {
				metrics.EffectFailures.WithLabelValues("load_flags").Inc()
				e.logger.Warn("flag reload failed", "namespace", eff.Namespace, "err", err)
				continue
			}
			if len(vals) > 0 {
				e.Handle(ctx, flagsLoaded{values: vals})
			}
		}
	}
}

func (e *Engine) flagStore(scope FlagScope) FlagStore {
	if scope == ScopeSession {
		return e.session
	}
	return e.local
}

// Submit queues ev for the Run loop.
func (e *Engine) Submit(ctx context.Context, ev Event) error {
	select {
	case e.queue <- ev:
		return nil
	case <-ctx.Done():
		return newError(ErrorStopped, "submit_cancelled", ctx.Err())
	}
}

// Receive decodes a push event and queues it. Malformed or unknown events are
// logged and dropped.
func (e *Engine) Receive(ctx context.Context, name domain.EventName, data json.RawMessage) {
	ev, err := Decode(name, data)
	if err != nil {
		reason := "decode"
		var convErr *Error
		if errors.As(err, &convErr) {
			reason = string(convErr.Code)
		}
		metrics.EventsDropped.WithLabelValues(reason).Inc()
		e.logger.Warn("dropping push event", "event", name, "err", err)
		return
	}
	if err := e.Submit(ctx, ev); err != nil {
		metrics.EventsDropped.WithLabelValues(string(ErrorStopped)).Inc()
		e.logger.Warn("dropping push event", "event", name, "err", err)
	}
}

// Run applies queued events in arrival order until ctx is done, then cancels
// any pending timers.
func (e *Engine) Run(ctx context.Context) error {
	defer e.stopTimers()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-e.queue:
			e.Handle(ctx, ev)
		}
	}
}

// RunPruner queues a prune on every tick of interval until ctx is done.
func (e *Engine) RunPruner(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := e.Submit(ctx, PruneOutdated{}); err != nil {
				return
			}
		}
	}
}

func (e *Engine) stopTimers() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for kind := range e.timers {
		e.cancelLocked(kind)
	}
}

// LoadFlags reads the persisted UI flags. Chat panel flags are session
// scoped; personalization flags are local.
func LoadFlags(ctx context.Context, local, session FlagStore) (Flags, error) {
	vals, err := readFlags(ctx, local, session)
	if err != nil {
		return Flags{}, err
	}
	return Flags{
		ChatOpened:                 vals[domain.FlagChatOpened],
		Fullscreen:                 vals[domain.FlagFullscreen],
		DisplayPersonalizationForm: vals[domain.FlagDisplayPersonalizationForm],
		CustomerPersonalized:       vals[domain.FlagCustomerPersonalized],
	}, nil
}

// readFlags returns the flags present in the stores' current namespace.
// Unset and unparsable values are left out.
func readFlags(ctx context.Context, local, session FlagStore) (map[string]bool, error) {
	reads := []struct {
		store FlagStore
		key   string
	}{
		{session, domain.FlagChatOpened},
		{session, domain.FlagFullscreen},
		{local, domain.FlagDisplayPersonalizationForm},
		{local, domain.FlagCustomerPersonalized},
	}
	vals := make(map[string]bool, len(reads))
	for _, r := range reads {
		raw, ok, err := r.store.Get(ctx, r.key)
		if err != nil {
			return nil, fmt.Errorf("conversation: LoadFlags %s: %w", r.key, err)
		}
		if !ok {
			continue
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			continue
		}
		vals[r.key] = v
	}
	return vals, nil
}
