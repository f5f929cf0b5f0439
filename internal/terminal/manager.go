package terminal

import (
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gluk-w/termmux/internal/logutil"
)

// defaultEventBuffer is the capacity of the manager's event channel.
const defaultEventBuffer = 256

var (
	// killGracePeriod is how long Kill waits after the graceful signal
	// before escalating to a forced kill. Vars so tests can shorten them.
	killGracePeriod = 3 * time.Second

	// killForceWait bounds how long Kill waits for the exit path after
	// the forced kill before tearing the session down directly.
	killForceWait = 1 * time.Second
)

// SpawnRequest describes a session to create. An empty Command resolves
// to the platform default shell. Env is overlaid on the sanitized base
// environment. ExternalID is an optional caller-supplied correlation id.
type SpawnRequest struct {
	Command    string
	Args       []string
	Cwd        string
	Env        map[string]string
	ExternalID string
	Cols       uint16
	Rows       uint16
}

// Config holds Manager construction options.
type Config struct {
	// EnvPolicy filters the environment of spawned processes.
	EnvPolicy EnvPolicy
	// RecordingEnabled turns on timestamped output capture per session.
	RecordingEnabled bool
	// ScrollbackSize overrides the scrollback cap for new sessions.
	// Zero means the default.
	ScrollbackSize int
	// EventBuffer overrides the event channel capacity. Zero means the
	// default.
	EventBuffer int
	// StartProc creates the OS process. Nil means StartPTY. Tests
	// install a fake here.
	StartProc StartProcFunc
	// BaseEnv supplies the inherited environment. Nil means os.Environ.
	BaseEnv func() []string
}

// Manager owns the registry of live sessions. All session operations go
// through it; sessions themselves are mutated only by their own
// goroutines. Operations on unknown session ids are silent no-ops: the
// UI routinely races "session still shown" against "session just exited"
// and those races are harmless.
type Manager struct {
	cfg       Config
	startProc StartProcFunc
	baseEnv   func() []string

	mu       sync.RWMutex
	sessions map[int]*Session
	nextID   int

	events chan Event

	// quit is closed the moment shutdown begins. Emitters select on it
	// so a stray flush can never block or publish past shutdown.
	quit         chan struct{}
	down         atomic.Bool
	shutdownOnce sync.Once
}

// NewManager creates a Manager ready for use.
func NewManager(cfg Config) *Manager {
	start := cfg.StartProc
	if start == nil {
		start = StartPTY
	}
	baseEnv := cfg.BaseEnv
	if baseEnv == nil {
		baseEnv = os.Environ
	}
	buffer := cfg.EventBuffer
	if buffer <= 0 {
		buffer = defaultEventBuffer
	}
	return &Manager{
		cfg:       cfg,
		startProc: start,
		baseEnv:   baseEnv,
		sessions:  make(map[int]*Session),
		events:    make(chan Event, buffer),
		quit:      make(chan struct{}),
	}
}

// Events returns the channel of session events. It is never closed; use
// Done to detect shutdown.
func (m *Manager) Events() <-chan Event {
	return m.events
}

// Done returns a channel closed when shutdown begins.
func (m *Manager) Done() <-chan struct{} {
	return m.quit
}

func (m *Manager) shuttingDown() bool {
	return m.down.Load()
}

// Spawn creates a new session and returns its id. Session ids count up
// from 1 and are never reused for the lifetime of the manager. Spawn
// failures are returned synchronously to the caller.
func (m *Manager) Spawn(req SpawnRequest) (int, error) {
	if m.shuttingDown() {
		return 0, errors.New("session manager is shutting down")
	}

	env := m.cfg.EnvPolicy.Sanitize(environMap(m.baseEnv()), req.Env)

	proc, err := m.startProc(req.Command, req.Args, req.Cwd, env, req.Cols, req.Rows)
	if err != nil {
		return 0, fmt.Errorf("spawn session: %w", err)
	}

	s := &Session{
		ExternalID: req.ExternalID,
		Command:    req.Command,
		CreatedAt:  time.Now(),
		Scrollback: NewScrollbackBuffer(m.cfg.ScrollbackSize),
		proc:       proc,
		mgr:        m,
		writeCh:    make(chan []byte, writeQueueDepth),
		done:       make(chan struct{}),
	}
	s.lastActivity = s.CreatedAt
	if m.cfg.RecordingEnabled {
		s.Recording = NewRecording(0)
	}

	m.mu.Lock()
	m.nextID++
	s.ID = m.nextID
	m.sessions[s.ID] = s
	m.mu.Unlock()

	go s.readLoop()
	go s.writeLoop()

	log.Printf("[session-mgr] spawned session %d (pid=%d command=%s)",
		s.ID, proc.Pid(), logutil.SanitizeForLog(req.Command))
	return s.ID, nil
}

func (m *Manager) get(id int) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[id]
}

// Get returns the session with the given id, or nil.
func (m *Manager) Get(id int) *Session {
	return m.get(id)
}

// SessionByExternalID returns the first session whose external id
// matches, or nil. Used for reverse lookup by caller-level correlation
// ids.
func (m *Manager) SessionByExternalID(externalID string) *Session {
	if externalID == "" {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.sessions {
		if s.ExternalID == externalID {
			return s
		}
	}
	return nil
}

// List returns all live sessions ordered by id.
func (m *Manager) List() []*Session {
	m.mu.RLock()
	result := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		result = append(result, s)
	}
	m.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Write enqueues input for the session. No-op for unknown ids. Bytes
// reach the process input stream strictly in call order relative to
// other writes on the same session; a saturated queue blocks the caller
// until the writer catches up rather than dropping input.
func (m *Manager) Write(id int, data []byte) {
	s := m.get(id)
	if s == nil {
		return
	}
	if s.Recording != nil {
		s.Recording.RecordInput(data)
	}
	s.enqueueWrite(data)
}

// Scrollback returns a copy of the session's retained output. The second
// return is false for unknown ids.
func (m *Manager) Scrollback(id int) ([]byte, bool) {
	s := m.get(id)
	if s == nil {
		return nil, false
	}
	return s.Scrollback.Snapshot(), true
}

// Resize applies new PTY dimensions. Both dimensions must be finite and
// positive; invalid requests are dropped with a log line, never an
// error. Fractional dimensions are rounded to the nearest integer.
func (m *Manager) Resize(id int, cols, rows float64) {
	s := m.get(id)
	if s == nil {
		return
	}

	c, okC := roundDimension(cols)
	r, okR := roundDimension(rows)
	if !okC || !okR {
		log.Printf("[session-mgr] session %d dropped invalid resize (%v x %v)", id, cols, rows)
		return
	}

	if err := s.proc.Resize(c, r); err != nil {
		log.Printf("[session-mgr] session %d resize failed: %v", id, err)
	}
}

// roundDimension validates and rounds one terminal dimension.
func roundDimension(v float64) (uint16, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, false
	}
	rounded := math.Round(v)
	if rounded < 1 || rounded > math.MaxUint16 {
		return 0, false
	}
	return uint16(rounded), true
}

// Pause gates the session's read loop so its process blocks on write at
// the kernel level. Idempotent; no-op for unknown ids.
func (m *Manager) Pause(id int) {
	if s := m.get(id); s != nil {
		s.pause()
	}
}

// Resume releases a paused session. Idempotent; no-op for unknown ids.
func (m *Manager) Resume(id int) {
	if s := m.get(id); s != nil {
		s.resume()
	}
}

// Kill terminates a session. On platforms with a graceful signal it
// sends that first, waits up to killGracePeriod for the session to exit
// on its own, then escalates to a forced kill exactly once. It always
// finishes with the session removed from the registry. Killing an
// unknown id is a no-op.
func (m *Manager) Kill(id int) error {
	s := m.get(id)
	if s == nil {
		return nil
	}

	if gracefulKillSupported {
		if err := s.proc.SignalTerm(); err != nil {
			log.Printf("[session-mgr] session %d graceful signal failed: %v", id, err)
		}
		select {
		case <-s.done:
			return nil
		case <-time.After(killGracePeriod):
		}
		log.Printf("[session-mgr] session %d still alive after %s, forcing kill", id, killGracePeriod)
	}

	if err := s.proc.Terminate(); err != nil {
		log.Printf("[session-mgr] session %d forced kill failed: %v", id, err)
	}

	select {
	case <-s.done:
	case <-time.After(killForceWait):
		// The exit callback never ran (wedged PTY read). Unblock the
		// reader and run the exit path ourselves.
		s.proc.Close()
		m.sessionExited(s)
	}
	return nil
}

// sessionExited is the single exit path for a session. It runs at most
// once, whether triggered by the read loop hitting EOF or by Kill
// forcing teardown.
func (m *Manager) sessionExited(s *Session) {
	s.exitOnce.Do(func() {
		exitCode, signal := s.proc.Wait()
		s.proc.Close()

		// A paused session must never be destroyed frozen.
		s.resume()

		m.mu.Lock()
		delete(m.sessions, s.ID)
		m.mu.Unlock()

		if !m.shuttingDown() {
			s.drainBuffered()
			m.emit(Event{Type: EventClosed, SessionID: s.ID, ExitCode: exitCode, Signal: signal})
		}

		close(s.done)
		log.Printf("[session-mgr] session %d exited (code=%d signal=%q)", s.ID, exitCode, signal)
	})
}

// emit publishes an event unless shutdown has begun. The select keeps a
// slow gateway from wedging teardown: backpressure is bounded by the
// event channel, shutdown by the quit channel.
func (m *Manager) emit(ev Event) {
	select {
	case m.events <- ev:
	case <-m.quit:
	}
}

// CleanupIdle kills sessions that have had no activity since the cutoff
// and for which hasOwners reports no remaining owner. Returns the number
// of sessions killed. Sessions survive disconnects by design; this only
// exists for operators who want an upper bound on abandoned shells.
func (m *Manager) CleanupIdle(idleTimeout time.Duration, hasOwners func(sessionID int) bool) int {
	if idleTimeout <= 0 {
		return 0
	}

	cutoff := time.Now().Add(-idleTimeout)
	var stale []int
	for _, s := range m.List() {
		if s.LastActivity().After(cutoff) {
			continue
		}
		if hasOwners != nil && hasOwners(s.ID) {
			continue
		}
		stale = append(stale, s.ID)
	}

	for _, id := range stale {
		log.Printf("[session-mgr] cleaning up idle session %d", id)
		m.Kill(id)
	}
	return len(stale)
}

// Shutdown sets the shutdown guard before touching any session, so late
// PTY callbacks stop mutating state the instant teardown begins, then
// kills every live session concurrently and waits for all of them.
func (m *Manager) Shutdown() {
	m.shutdownOnce.Do(func() {
		m.down.Store(true)
		close(m.quit)

		sessions := m.List()
		log.Printf("[session-mgr] shutting down, killing %d session(s)", len(sessions))

		var wg sync.WaitGroup
		for _, s := range sessions {
			wg.Add(1)
			go func(id int) {
				defer wg.Done()
				m.Kill(id)
			}(s.ID)
		}
		wg.Wait()
	})
}
