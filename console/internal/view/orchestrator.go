// Package view composes backend reads into per-view snapshots.
//
// # Load Model
//
// A view is identified by its descriptor key. Loading a view runs all of its
// reads concurrently and only applies their results once every read has
// succeeded; a single failure marks the whole view errored with that read's
// message. While a load is in flight the previous snapshot is retained so
// callers never see an empty view during a refresh.
//
// Subscribers see the states of one view in the order they were produced; a
// state that lost the race to a newer one is not delivered.
//
// # Abandoned Loads
//
// Every load carries a generation number. Opening another view, closing the
// view or starting a newer load of the same view bumps the generation and
// cancels the in-flight context; when the stale load returns its result is
// dropped without touching state.
package view

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Status is the lifecycle position of a view.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusErrored Status = "errored"
)

var (
	// ErrDiscarded is returned by a load whose result was dropped because
	// the view was abandoned or superseded before it completed.
	ErrDiscarded = errors.New("view load discarded")

	// ErrNoActiveView is returned when an operation needs an active view.
	ErrNoActiveView = errors.New("no active view")

	// ErrNoSnapshot is returned when patching a view with no loaded data.
	ErrNoSnapshot = errors.New("view has no snapshot")
)

// ReadError is the failure of one read of a view load. It reads as the
// underlying error so the backend's message is shown verbatim.
type ReadError struct {
	Read string
	Err  error
}

func (e *ReadError) Error() string { return e.Err.Error() }

func (e *ReadError) Unwrap() error { return e.Err }

// State is a point-in-time copy of a view.
type State struct {
	Key        string     `json:"key"`
	Descriptor Descriptor `json:"-"`
	Status     Status     `json:"status"`
	Snapshot   *Snapshot  `json:"snapshot,omitempty"`
	Err        error      `json:"-"`
	LoadedAt   time.Time  `json:"loaded_at,omitempty"`
	Generation uint64     `json:"generation"`

	// publish order, assigned under the orchestrator lock
	seq uint64
}

// Message is the error text shown for an errored view.
func (s State) Message() string {
	if s.Err == nil {
		return ""
	}
	return s.Err.Error()
}

type viewState struct {
	desc     Descriptor
	status   Status
	snap     *Snapshot
	err      error
	loadedAt time.Time
	gen      uint64
	cancel   context.CancelFunc

	// status to restore when an in-flight load is abandoned
	prevStatus Status
	prevErr    error

	// params of the last load that reached ready
	completed    Params
	hasCompleted bool
}

func (v *viewState) state(key string) State {
	return State{
		Key:        key,
		Descriptor: v.desc,
		Status:     v.status,
		Snapshot:   v.snap.Clone(),
		Err:        v.err,
		LoadedAt:   v.loadedAt,
		Generation: v.gen,
	}
}

// abandon cancels an in-flight load and restores the status it replaced.
// Caller must hold the orchestrator lock.
func (v *viewState) abandon() bool {
	if v.status != StatusLoading {
		return false
	}
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
	v.gen++
	v.status, v.err = v.prevStatus, v.prevErr
	return true
}

// Orchestrator owns the state of every view.
type Orchestrator struct {
	src    Source
	logger *slog.Logger

	mu     sync.Mutex
	views  map[string]*viewState
	active string
	seq    uint64

	subMu     sync.Mutex
	subs      map[int]func(State)
	nextID    int
	delivered map[string]uint64
}

// New creates an orchestrator reading from src.
func New(src Source, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		src:       src,
		logger:    logger.With("component", "view"),
		views:     make(map[string]*viewState),
		subs:      make(map[int]func(State)),
		delivered: make(map[string]uint64),
	}
}

// Subscribe registers fn to receive every state change. The returned
// function removes the subscription.
func (o *Orchestrator) Subscribe(fn func(State)) func() {
	o.subMu.Lock()
	id := o.nextID
	o.nextID++
	o.subs[id] = fn
	o.subMu.Unlock()

	return func() {
		o.subMu.Lock()
		delete(o.subs, id)
		o.subMu.Unlock()
	}
}

// stamped returns the state of vs ordered for publishing. Caller must hold
// the orchestrator lock.
func (o *Orchestrator) stamped(vs *viewState, key string) State {
	o.seq++
	st := vs.state(key)
	st.seq = o.seq
	return st
}

// publish delivers states to every subscriber, skipping any state older
// than one already delivered for the same view.
func (o *Orchestrator) publish(states ...State) {
	o.subMu.Lock()
	defer o.subMu.Unlock()
	for _, st := range states {
		if st.seq <= o.delivered[st.Key] {
			continue
		}
		o.delivered[st.Key] = st.seq
		for _, fn := range o.subs {
			fn(st)
		}
	}
}

// Open makes d the active view and loads it. Views that reuse unchanged
// params return their held state without a fetch when d's params equal the
// last completed load. Open blocks until the load completes, fails or is
// discarded.
func (o *Orchestrator) Open(ctx context.Context, d Descriptor) (State, error) {
	if err := d.Validate(); err != nil {
		return State{}, err
	}
	key := d.Key()

	o.mu.Lock()
	var abandoned []State
	if o.active != "" && o.active != key {
		if prev, ok := o.views[o.active]; ok && prev.abandon() {
			o.logger.Debug("abandoned view load", "view", o.active)
			abandoned = append(abandoned, o.stamped(prev, o.active))
		}
	}
	o.active = key

	if vs, ok := o.views[key]; ok && d.ReusesUnchanged() &&
		vs.status == StatusReady && vs.hasCompleted && vs.completed == d.Params {
		st := vs.state(key)
		o.mu.Unlock()
		o.publish(abandoned...)
		o.logger.Debug("view unchanged, skipping load", "view", key)
		return st, nil
	}
	p := o.beginLocked(ctx, key, d)
	o.mu.Unlock()
	o.publish(append(abandoned, p.loading)...)

	return o.finish(p)
}

// Refresh reloads the active view unconditionally.
func (o *Orchestrator) Refresh(ctx context.Context) (State, error) {
	o.mu.Lock()
	key := o.active
	vs, ok := o.views[key]
	if key == "" || !ok {
		o.mu.Unlock()
		return State{}, ErrNoActiveView
	}
	p := o.beginLocked(ctx, key, vs.desc)
	o.mu.Unlock()
	o.publish(p.loading)
	return o.finish(p)
}

// PollActive refreshes the active view if it opts into polling and is not
// already loading. It reports whether a refresh ran.
func (o *Orchestrator) PollActive(ctx context.Context) (bool, error) {
	o.mu.Lock()
	vs, ok := o.views[o.active]
	if !ok || !vs.desc.Polls() || vs.status == StatusLoading {
		o.mu.Unlock()
		return false, nil
	}
	p := o.beginLocked(ctx, o.active, vs.desc)
	o.mu.Unlock()
	o.publish(p.loading)

	_, err := o.finish(p)
	if errors.Is(err, ErrDiscarded) {
		return true, nil
	}
	return true, err
}

// Close abandons the active view. Any in-flight load is cancelled and its
// result discarded.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	var abandoned []State
	if vs, ok := o.views[o.active]; ok && vs.abandon() {
		abandoned = append(abandoned, o.stamped(vs, o.active))
	}
	o.active = ""
	o.mu.Unlock()
	o.publish(abandoned...)
}

// Active returns the descriptor of the active view.
func (o *Orchestrator) Active() (Descriptor, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	vs, ok := o.views[o.active]
	if !ok {
		return Descriptor{}, false
	}
	return vs.desc, true
}

// State returns the current state of the view with the given key.
func (o *Orchestrator) State(key string) (State, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	vs, ok := o.views[key]
	if !ok {
		return State{Key: key, Status: StatusIdle}, false
	}
	return vs.state(key), true
}

// ActiveState returns the state of the active view.
func (o *Orchestrator) ActiveState() (State, bool) {
	o.mu.Lock()
	key := o.active
	o.mu.Unlock()
	if key == "" {
		return State{}, false
	}
	return o.State(key)
}

// Patch applies fn to the active view's held snapshot and recomputes its
// derived figures. The next load replaces the patched snapshot wholesale.
func (o *Orchestrator) Patch(fn func(*Snapshot)) error {
	o.mu.Lock()
	vs, ok := o.views[o.active]
	if !ok {
		o.mu.Unlock()
		return ErrNoActiveView
	}
	if vs.snap == nil {
		o.mu.Unlock()
		return ErrNoSnapshot
	}
	snap := vs.snap.Clone()
	fn(snap)
	snap.derive()
	vs.snap = snap
	st := o.stamped(vs, o.active)
	o.mu.Unlock()

	o.publish(st)
	return nil
}

// pendingLoad is a load that has switched its view to loading.
type pendingLoad struct {
	vs      *viewState
	key     string
	desc    Descriptor
	gen     uint64
	ctx     context.Context
	cancel  context.CancelFunc
	loading State
}

// beginLocked starts a new generation of the view load, cancelling any load
// of the same view still in flight. Caller must hold the orchestrator lock.
func (o *Orchestrator) beginLocked(ctx context.Context, key string, d Descriptor) *pendingLoad {
	vs, ok := o.views[key]
	if !ok {
		vs = &viewState{status: StatusIdle}
		o.views[key] = vs
	}
	if vs.status == StatusLoading {
		if vs.cancel != nil {
			vs.cancel()
		}
	} else {
		vs.prevStatus, vs.prevErr = vs.status, vs.err
	}
	vs.gen++
	vs.desc = d
	vs.status = StatusLoading
	loadCtx, cancel := context.WithCancel(ctx)
	vs.cancel = cancel
	return &pendingLoad{
		vs:      vs,
		key:     key,
		desc:    d,
		gen:     vs.gen,
		ctx:     loadCtx,
		cancel:  cancel,
		loading: o.stamped(vs, key),
	}
}

// finish fetches a begun load and applies its result unless it was
// superseded or abandoned meanwhile.
func (o *Orchestrator) finish(p *pendingLoad) (State, error) {
	vs, key, d, gen := p.vs, p.key, p.desc, p.gen

	loadID := uuid.New().String()
	logger := o.logger.With("view", key, "load_id", loadID, "generation", gen)
	logger.Debug("loading view", "reads", d.Reads())
	start := time.Now()

	snap, err := o.fetch(p.ctx, d)
	p.cancel()

	o.mu.Lock()
	if vs.gen != gen || o.active != key {
		o.mu.Unlock()
		logger.Debug("discarding stale view load")
		return State{}, ErrDiscarded
	}
	vs.cancel = nil
	if err != nil {
		vs.status = StatusErrored
		vs.err = err
	} else {
		vs.status = StatusReady
		vs.err = nil
		vs.snap = snap
		vs.loadedAt = time.Now()
		vs.completed = d.Params
		vs.hasCompleted = true
	}
	st := o.stamped(vs, key)
	o.mu.Unlock()
	o.publish(st)

	if err != nil {
		var readErr *ReadError
		if errors.As(err, &readErr) {
			logger = logger.With("read", readErr.Read)
		}
		logger.Warn("view load failed", "error", err, "elapsed", time.Since(start))
		return st, err
	}
	logger.Debug("view ready", "elapsed", time.Since(start))
	return st, nil
}

// fetch issues every read of d concurrently. The first failure cancels the
// remaining reads and no result is applied.
func (o *Orchestrator) fetch(ctx context.Context, d Descriptor) (*Snapshot, error) {
	reads := specs[d.Kind].reads
	appliers := make([]func(*Snapshot), len(reads))

	g, gctx := errgroup.WithContext(ctx)
	for i, r := range reads {
		g.Go(func() error {
			apply, err := r.Fetch(gctx, o.src, d.Params)
			if err != nil {
				return &ReadError{Read: r.Name, Err: err}
			}
			appliers[i] = apply
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap := &Snapshot{}
	for _, apply := range appliers {
		apply(snap)
	}
	snap.derive()
	return snap, nil
}
