package script

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	lua "github.com/yuin/gopher-lua"

	"github.com/matzehuels/grephite/pkg/errors"
	"github.com/matzehuels/grephite/pkg/graph"
	"github.com/matzehuels/grephite/pkg/observability"
)

// State is the lifecycle state of the host's session.
type State int

const (
	Idle     State = iota // no session
	Loaded                // compiled, never resumed, not running
	Running               // auto-run enabled
	Paused                // resumed at least once, auto-run disabled
	Finished              // coroutine returned; cleared by the next Step
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loaded:
		return "loaded"
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Finished:
		return "finished"
	default:
		return "unknown"
	}
}

const (
	// DefaultSpeed is the auto-run cadence in steps per second.
	DefaultSpeed = 1.0
	MinSpeed     = 0.1
	MaxSpeed     = 1000.0
)

// Options configures a Host.
type Options struct {
	Logger *log.Logger
	// Speed is the initial auto-run cadence in steps per second.
	Speed float64
	// StepTimeout bounds a single resume. Zero disables the limit.
	StepTimeout time.Duration
}

// Session describes the active session.
type Session struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Steps   int       `json:"steps"`
	Started time.Time `json:"started"`
	State   State     `json:"-"`
	Pending int       `json:"pending"`
}

type session struct {
	id      string
	name    string
	L       *lua.LState
	co      *lua.LState
	fn      *lua.LFunction
	buf     *Buffer
	steps   int
	started time.Time
	done    bool
}

func (s *session) close() {
	s.L.Close()
}

// Host runs at most one script session at a time. It is safe for concurrent
// use; Lua code only runs inside Step.
type Host struct {
	mu      sync.Mutex
	logger  *log.Logger
	timeout time.Duration

	sess    *session
	running bool
	speed   float64
	elapsed time.Duration
}

// NewHost creates an idle host.
func NewHost(opts Options) *Host {
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	h := &Host{
		logger:  opts.Logger,
		timeout: opts.StepTimeout,
		speed:   DefaultSpeed,
	}
	if opts.Speed > 0 {
		h.speed = clampSpeed(opts.Speed)
	}
	return h
}

// Load replaces the active session with a new one running src. Commands the
// previous session buffered but never flushed are dropped. On a compile
// error the host is left Idle and the error carries ErrCodeScriptCompile.
func (h *Host) Load(ctx context.Context, name, src string, snap *graph.Snapshot) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.discardLocked("replaced")
	h.running = false
	h.elapsed = 0

	id := uuid.NewString()
	logger := h.logger.With("script", name, "session", id[:8])

	buf := &Buffer{}
	L, err := newState(buf, snap, logger)
	if err != nil {
		err = errors.Wrap(errors.ErrCodeInternal, err, "open interpreter")
		observability.Script().OnLoad(ctx, id, err)
		return err
	}
	fn, err := L.LoadString(src)
	if err != nil {
		L.Close()
		err = errors.Wrap(errors.ErrCodeScriptCompile, err, "compile %s", name)
		h.logger.Error("script failed to compile", "script", name, "err", err)
		observability.Script().OnLoad(ctx, id, err)
		return err
	}
	co, _ := L.NewThread()

	h.sess = &session{
		id:      id,
		name:    name,
		L:       L,
		co:      co,
		fn:      fn,
		buf:     buf,
		started: time.Now(),
	}
	h.logger.Info("script loaded", "script", name, "session", id[:8])
	observability.Script().OnLoad(ctx, id, nil)
	return nil
}

// Step resumes the session once and returns the resulting state.
//
// With no session Step does nothing and returns Idle. A finished session is
// cleared and Idle is returned. A runtime fault is logged, the session and
// its unflushed commands are dropped, and the error carries
// ErrCodeScriptRuntime (or ErrCodeScriptTimeout when the step exceeded its
// time budget).
func (h *Host) Step(ctx context.Context) (State, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := h.sess
	if s == nil {
		return Idle, nil
	}
	if s.done {
		h.discardLocked("finished")
		return Idle, nil
	}

	var (
		stepCtx context.Context
		cancel  context.CancelFunc
	)
	if h.timeout > 0 {
		stepCtx, cancel = context.WithTimeout(ctx, h.timeout)
	} else {
		stepCtx, cancel = context.WithCancel(ctx)
	}
	s.co.SetContext(stepCtx)
	start := time.Now()
	st, err, _ := s.L.Resume(s.co, s.fn)
	elapsed := time.Since(start)
	s.co.RemoveContext()
	timedOut := stepCtx.Err() == context.DeadlineExceeded
	cancel()

	s.steps++
	if st == lua.ResumeError {
		code := errors.ErrCodeScriptRuntime
		if timedOut {
			code = errors.ErrCodeScriptTimeout
		}
		err = errors.Wrap(code, err, "%s step %d", s.name, s.steps)
		h.logger.Error("script error", "script", s.name, "step", s.steps, "err", err)
		observability.Script().OnStep(ctx, s.id, elapsed, err)
		h.discardLocked("")
		return Idle, err
	}
	observability.Script().OnStep(ctx, s.id, elapsed, nil)
	if st == lua.ResumeOK {
		s.done = true
		h.logger.Debug("script finished", "script", s.name, "steps", s.steps)
	}
	return h.stateLocked(), nil
}

// Stop discards the active session and its unflushed commands.
func (h *Host) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.discardLocked("stopped")
}

// Close releases the interpreter of the active session.
func (h *Host) Close() error {
	h.Stop()
	return nil
}

func (h *Host) discardLocked(reason string) {
	if h.sess == nil {
		return
	}
	if reason != "" {
		h.logger.Debug("script session discarded", "script", h.sess.name,
			"reason", reason, "dropped", h.sess.buf.Len())
	}
	h.sess.close()
	h.sess = nil
	h.running = false
	h.elapsed = 0
}

// Flush drains the session buffer onto p in emission order and returns the
// number of commands published. p must not call back into h.
func (h *Host) Flush(ctx context.Context, p Publisher) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	s := h.sess
	if s == nil {
		return 0
	}
	cmds := s.buf.Drain()
	for _, c := range cmds {
		p.Publish(c)
	}
	if len(cmds) > 0 {
		observability.Script().OnFlush(ctx, s.id, len(cmds))
	}
	return len(cmds)
}

// SetRunning enables or disables auto-run.
func (h *Host) SetRunning(on bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.running = on
}

// Toggle flips auto-run and returns the new value.
func (h *Host) Toggle() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.running = !h.running
	return h.running
}

// Running reports whether auto-run is enabled.
func (h *Host) Running() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.running
}

// SetSpeed sets the auto-run cadence in steps per second, clamped to
// [MinSpeed, MaxSpeed]. It returns the applied value.
func (h *Host) SetSpeed(stepsPerSecond float64) float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.speed = clampSpeed(stepsPerSecond)
	return h.speed
}

// Speed returns the auto-run cadence in steps per second.
func (h *Host) Speed() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.speed
}

func clampSpeed(v float64) float64 {
	if v != v { // NaN
		return DefaultSpeed
	}
	return min(max(v, MinSpeed), MaxSpeed)
}

// Interval returns the time between automatic steps.
func (h *Host) Interval() time.Duration {
	return time.Duration(float64(time.Second) / h.Speed())
}

// Advance accumulates dt while a session is active and auto-run is on. It
// reports whether a step is due; when it is, the accumulator is reset and the
// caller is expected to issue exactly one Step.
func (h *Host) Advance(dt time.Duration) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.sess == nil || !h.running {
		return false
	}
	h.elapsed += dt
	if h.elapsed < time.Duration(float64(time.Second)/h.speed) {
		return false
	}
	h.elapsed = 0
	return true
}

// State returns the current lifecycle state.
func (h *Host) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stateLocked()
}

func (h *Host) stateLocked() State {
	switch {
	case h.sess == nil:
		return Idle
	case h.sess.done:
		return Finished
	case h.running:
		return Running
	case h.sess.steps == 0:
		return Loaded
	default:
		return Paused
	}
}

// Session returns information about the active session.
func (h *Host) Session() (Session, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s := h.sess
	if s == nil {
		return Session{}, false
	}
	return Session{
		ID:      s.id,
		Name:    s.name,
		Steps:   s.steps,
		Started: s.started,
		State:   h.stateLocked(),
		Pending: s.buf.Len(),
	}, true
}
