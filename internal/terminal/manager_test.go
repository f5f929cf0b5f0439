package terminal

import (
	"bytes"
	"errors"
	"io"
	"math"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeProc stands in for a PTY process. Output is fed through emit and
// consumed by the session's read loop; exit closes the read side.
type fakeProc struct {
	pid int

	output   chan []byte
	exited   chan struct{}
	exitOnce sync.Once

	ignoreTerm bool
	ignoreKill bool
	exitCode   int
	signal     string

	// writeGate, when set, stalls Write until the gate closes.
	writeGate chan struct{}

	mu       sync.Mutex
	writes   [][]byte
	resizes  [][2]uint16
	termSigs int
	kills    int
	closes   int
}

func newFakeProc() *fakeProc {
	return &fakeProc{
		pid:    4242,
		output: make(chan []byte, 64),
		exited: make(chan struct{}),
	}
}

func (f *fakeProc) emit(s string) { f.output <- []byte(s) }

func (f *fakeProc) exit() { f.exitOnce.Do(func() { close(f.exited) }) }

func (f *fakeProc) Read(p []byte) (int, error) {
	select {
	case data := <-f.output:
		return copy(p, data), nil
	case <-f.exited:
		// Deliver output queued before the exit, like a PTY buffer.
		select {
		case data := <-f.output:
			return copy(p, data), nil
		default:
			return 0, io.EOF
		}
	}
}

func (f *fakeProc) Write(p []byte) (int, error) {
	if f.writeGate != nil {
		<-f.writeGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	buf := make([]byte, len(p))
	copy(buf, p)
	f.writes = append(f.writes, buf)
	return len(p), nil
}

func (f *fakeProc) Resize(cols, rows uint16) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resizes = append(f.resizes, [2]uint16{cols, rows})
	return nil
}

func (f *fakeProc) Pid() int { return f.pid }

func (f *fakeProc) SignalTerm() error {
	f.mu.Lock()
	f.termSigs++
	ignore := f.ignoreTerm
	f.mu.Unlock()
	if !ignore {
		f.exit()
	}
	return nil
}

func (f *fakeProc) Terminate() error {
	f.mu.Lock()
	f.kills++
	ignore := f.ignoreKill
	f.mu.Unlock()
	if !ignore {
		f.exit()
	}
	return nil
}

func (f *fakeProc) Wait() (int, string) {
	<-f.exited
	return f.exitCode, f.signal
}

func (f *fakeProc) Close() error {
	f.mu.Lock()
	f.closes++
	f.mu.Unlock()
	f.exit()
	return nil
}

func (f *fakeProc) writesSnapshot() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := make([][]byte, len(f.writes))
	copy(result, f.writes)
	return result
}

func (f *fakeProc) resizesSnapshot() [][2]uint16 {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := make([][2]uint16, len(f.resizes))
	copy(result, f.resizes)
	return result
}

// fakeSpawner hands out fakeProcs and records spawn arguments.
type fakeSpawner struct {
	mu    sync.Mutex
	procs []*fakeProc
	envs  [][]string
	fail  error
	setup func(*fakeProc)
}

func (fs *fakeSpawner) start(command string, args []string, cwd string, env []string, cols, rows uint16) (Proc, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.fail != nil {
		return nil, fs.fail
	}
	p := newFakeProc()
	if fs.setup != nil {
		fs.setup(p)
	}
	fs.procs = append(fs.procs, p)
	fs.envs = append(fs.envs, env)
	return p, nil
}

func (fs *fakeSpawner) proc(i int) *fakeProc {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.procs[i]
}

func newTestManager(fs *fakeSpawner, cfg Config) *Manager {
	cfg.StartProc = fs.start
	if cfg.BaseEnv == nil {
		cfg.BaseEnv = func() []string { return []string{"PATH=/bin"} }
	}
	return NewManager(cfg)
}

func nextEvent(t *testing.T, m *Manager) Event {
	t.Helper()
	select {
	case ev := <-m.Events():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func expectNoEvent(t *testing.T, m *Manager, wait time.Duration) {
	t.Helper()
	select {
	case ev := <-m.Events():
		t.Fatalf("unexpected event %+v", ev)
	case <-time.After(wait):
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func fastKillTimeouts(t *testing.T) {
	t.Helper()
	origGrace, origForce := killGracePeriod, killForceWait
	killGracePeriod = 50 * time.Millisecond
	killForceWait = 50 * time.Millisecond
	t.Cleanup(func() {
		killGracePeriod, killForceWait = origGrace, origForce
	})
}

func TestManager_SpawnAssignsMonotonicIDs(t *testing.T) {
	fs := &fakeSpawner{}
	m := newTestManager(fs, Config{})

	for want := 1; want <= 3; want++ {
		id, err := m.Spawn(SpawnRequest{Command: "bash"})
		if err != nil {
			t.Fatalf("Spawn: %v", err)
		}
		if id != want {
			t.Errorf("Spawn() id = %d, want %d", id, want)
		}
	}

	s := m.Get(2)
	fs.proc(1).exit()
	<-s.Done()

	id, err := m.Spawn(SpawnRequest{Command: "bash"})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	if id != 4 {
		t.Errorf("id after removal = %d, want 4 (ids are never reused)", id)
	}
	if m.Count() != 3 {
		t.Errorf("Count() = %d, want 3", m.Count())
	}
}

func TestManager_SpawnSanitizesEnvironment(t *testing.T) {
	fs := &fakeSpawner{}
	m := newTestManager(fs, Config{
		EnvPolicy: DefaultEnvPolicy(),
		BaseEnv: func() []string {
			return []string{"PATH=/bin", "NODE_OPTIONS=--inspect", "npm_config_prefix=/usr"}
		},
	})

	if _, err := m.Spawn(SpawnRequest{Command: "bash", Env: map[string]string{"FOO": "bar"}}); err != nil {
		t.Fatalf("Spawn: %v", err)
	}

	env := fs.envs[0]
	joined := strings.Join(env, " ")
	if !strings.Contains(joined, "PATH=/bin") || !strings.Contains(joined, "FOO=bar") {
		t.Errorf("expected PATH and FOO in env, got %v", env)
	}
	if strings.Contains(joined, "NODE_OPTIONS") || strings.Contains(joined, "npm_config") {
		t.Errorf("denied variables leaked into env: %v", env)
	}
}

func TestManager_SpawnFailure(t *testing.T) {
	fs := &fakeSpawner{fail: errors.New("no such command")}
	m := newTestManager(fs, Config{})

	if _, err := m.Spawn(SpawnRequest{Command: "nope"}); err == nil {
		t.Fatal("expected spawn error")
	}
	if m.Count() != 0 {
		t.Errorf("Count() = %d after failed spawn, want 0", m.Count())
	}
}

func TestManager_SpawnAfterShutdown(t *testing.T) {
	m := newTestManager(&fakeSpawner{}, Config{})
	m.Shutdown()

	if _, err := m.Spawn(SpawnRequest{Command: "bash"}); err == nil {
		t.Fatal("expected error spawning after shutdown")
	}
}

func TestManager_OutputCoalescedIntoOneEvent(t *testing.T) {
	fs := &fakeSpawner{}
	m := newTestManager(fs, Config{})
	id, _ := m.Spawn(SpawnRequest{Command: "bash"})

	p := fs.proc(0)
	p.emit("hel")
	p.emit("lo")

	ev := nextEvent(t, m)
	if ev.Type != EventOutput || ev.SessionID != id {
		t.Fatalf("unexpected event %+v", ev)
	}
	if string(ev.Data) != "hello" {
		t.Errorf("Data = %q, want %q", ev.Data, "hello")
	}
}

func TestManager_LargeOutputDrainsInBatches(t *testing.T) {
	fs := &fakeSpawner{}
	m := newTestManager(fs, Config{})
	m.Spawn(SpawnRequest{Command: "bash"})

	payload := strings.Repeat("x", 2*FlushBatchSize)
	fs.proc(0).emit(payload)

	first := nextEvent(t, m)
	second := nextEvent(t, m)
	if len(first.Data) != FlushBatchSize || len(second.Data) != FlushBatchSize {
		t.Errorf("batch sizes = %d, %d; want %d each", len(first.Data), len(second.Data), FlushBatchSize)
	}
	if string(first.Data)+string(second.Data) != payload {
		t.Error("reassembled batches do not match the original output")
	}
	expectNoEvent(t, m, 50*time.Millisecond)
}

func TestSession_OutputBufferDropsOldest(t *testing.T) {
	m := newTestManager(&fakeSpawner{}, Config{})
	s := &Session{
		mgr:        m,
		Scrollback: NewScrollbackBuffer(1),
		done:       make(chan struct{}),
	}
	// Park the flush timer so the buffer is observable.
	s.flushTimer = time.NewTimer(time.Hour)

	s.handleData(bytes.Repeat([]byte("a"), 60_000))
	s.handleData(bytes.Repeat([]byte("b"), 60_000))

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.outBuf) != outputBufferCap {
		t.Fatalf("buffer length = %d, want %d", len(s.outBuf), outputBufferCap)
	}
	if s.outBuf[0] != 'a' || s.outBuf[len(s.outBuf)-1] != 'b' {
		t.Error("expected oldest bytes trimmed from the front")
	}
	aCount := bytes.Count(s.outBuf, []byte("a"))
	if aCount != 40_000 {
		t.Errorf("retained %d 'a' bytes, want 40000", aCount)
	}
}

func TestManager_WritePassesThrough(t *testing.T) {
	fs := &fakeSpawner{}
	m := newTestManager(fs, Config{})
	id, _ := m.Spawn(SpawnRequest{Command: "bash"})

	m.Write(id, []byte("ls\n"))

	p := fs.proc(0)
	waitFor(t, "write to reach proc", func() bool { return len(p.writesSnapshot()) == 1 })
	if got := p.writesSnapshot()[0]; string(got) != "ls\n" {
		t.Errorf("write = %q, want %q", got, "ls\n")
	}
}

func TestManager_LargeWriteIsChunked(t *testing.T) {
	fs := &fakeSpawner{}
	m := newTestManager(fs, Config{})
	id, _ := m.Spawn(SpawnRequest{Command: "bash"})

	payload := strings.Repeat("p", 1500)
	m.Write(id, []byte(payload))

	p := fs.proc(0)
	waitFor(t, "chunked writes", func() bool { return len(p.writesSnapshot()) == 15 })

	var rebuilt []byte
	for _, w := range p.writesSnapshot() {
		if len(w) > writeChunkSize {
			t.Errorf("chunk of %d bytes exceeds %d", len(w), writeChunkSize)
		}
		rebuilt = append(rebuilt, w...)
	}
	if string(rebuilt) != payload {
		t.Error("reassembled chunks do not match the original input")
	}
}

func TestManager_WriteOrderPreserved(t *testing.T) {
	fs := &fakeSpawner{}
	m := newTestManager(fs, Config{})
	id, _ := m.Spawn(SpawnRequest{Command: "bash"})

	var want bytes.Buffer
	for i := 0; i < 50; i++ {
		msg := []byte{byte('a' + i%26), ';'}
		want.Write(msg)
		m.Write(id, msg)
	}

	p := fs.proc(0)
	waitFor(t, "all writes applied", func() bool { return len(p.writesSnapshot()) == 50 })

	var got bytes.Buffer
	for _, w := range p.writesSnapshot() {
		got.Write(w)
	}
	if got.String() != want.String() {
		t.Errorf("writes out of order: got %q want %q", got.String(), want.String())
	}
}

func TestManager_SaturatedWriteQueueBlocksNotDrops(t *testing.T) {
	gate := make(chan struct{})
	fs := &fakeSpawner{setup: func(p *fakeProc) { p.writeGate = gate }}
	m := newTestManager(fs, Config{})
	id, _ := m.Spawn(SpawnRequest{Command: "bash"})

	total := writeQueueDepth + 50
	submitted := make(chan struct{})
	go func() {
		for i := 0; i < total; i++ {
			m.Write(id, []byte{byte(i)})
		}
		close(submitted)
	}()

	// With the writer stalled, the queue fills and the submitter must
	// block instead of losing input.
	select {
	case <-submitted:
		t.Fatal("submitter finished with a stalled writer; input was dropped")
	case <-time.After(100 * time.Millisecond):
	}

	close(gate)
	select {
	case <-submitted:
	case <-time.After(2 * time.Second):
		t.Fatal("submitter never unblocked after the writer drained")
	}

	p := fs.proc(0)
	waitFor(t, "all writes applied", func() bool { return len(p.writesSnapshot()) == total })
	for i, w := range p.writesSnapshot() {
		if len(w) != 1 || w[0] != byte(i) {
			t.Fatalf("write %d = %v, want [%d]", i, w, byte(i))
		}
	}
}

func TestManager_WriteUnknownSessionIsNoop(t *testing.T) {
	m := newTestManager(&fakeSpawner{}, Config{})
	m.Write(99, []byte("ignored"))
}

func TestManager_ResizeRoundsAndValidates(t *testing.T) {
	fs := &fakeSpawner{}
	m := newTestManager(fs, Config{})
	id, _ := m.Spawn(SpawnRequest{Command: "bash"})

	m.Resize(id, 80.7, 24.3)
	m.Resize(id, 120, 40)

	// All of these must be dropped without touching the proc.
	m.Resize(id, math.NaN(), 24)
	m.Resize(id, 80, math.Inf(1))
	m.Resize(id, -1, 24)
	m.Resize(id, 80, 0)
	m.Resize(id, 1e9, 24)
	m.Resize(99, 80, 24)

	got := fs.proc(0).resizesSnapshot()
	want := [][2]uint16{{81, 24}, {120, 40}}
	if len(got) != len(want) {
		t.Fatalf("resizes = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("resize %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestManager_KillGraceful(t *testing.T) {
	fs := &fakeSpawner{}
	m := newTestManager(fs, Config{})
	id, _ := m.Spawn(SpawnRequest{Command: "bash"})
	fs.proc(0).exitCode = 0

	if err := m.Kill(id); err != nil {
		t.Fatalf("Kill: %v", err)
	}

	p := fs.proc(0)
	p.mu.Lock()
	termSigs, kills := p.termSigs, p.kills
	p.mu.Unlock()
	if termSigs != 1 {
		t.Errorf("graceful signals = %d, want 1", termSigs)
	}
	if kills != 0 {
		t.Errorf("forced kills = %d, want 0", kills)
	}
	if m.Get(id) != nil {
		t.Error("session still registered after Kill")
	}

	ev := nextEvent(t, m)
	if ev.Type != EventClosed || ev.SessionID != id {
		t.Errorf("expected closed event, got %+v", ev)
	}
}

func TestManager_KillEscalatesExactlyOnce(t *testing.T) {
	fastKillTimeouts(t)
	fs := &fakeSpawner{setup: func(p *fakeProc) { p.ignoreTerm = true }}
	m := newTestManager(fs, Config{})
	id, _ := m.Spawn(SpawnRequest{Command: "bash"})

	if err := m.Kill(id); err != nil {
		t.Fatalf("Kill: %v", err)
	}

	p := fs.proc(0)
	p.mu.Lock()
	termSigs, kills := p.termSigs, p.kills
	p.mu.Unlock()
	if termSigs != 1 || kills != 1 {
		t.Errorf("termSigs=%d kills=%d, want 1 and 1", termSigs, kills)
	}
	if m.Get(id) != nil {
		t.Error("session still registered after forced kill")
	}
}

func TestManager_KillWedgedProcForcesTeardown(t *testing.T) {
	fastKillTimeouts(t)
	fs := &fakeSpawner{setup: func(p *fakeProc) {
		p.ignoreTerm = true
		p.ignoreKill = true
	}}
	m := newTestManager(fs, Config{})
	id, _ := m.Spawn(SpawnRequest{Command: "bash"})

	if err := m.Kill(id); err != nil {
		t.Fatalf("Kill: %v", err)
	}
	if m.Get(id) != nil {
		t.Error("session still registered after wedged kill")
	}

	p := fs.proc(0)
	p.mu.Lock()
	closes := p.closes
	p.mu.Unlock()
	if closes == 0 {
		t.Error("expected the PTY to be closed to unblock the reader")
	}
}

func TestManager_KillUnknownSession(t *testing.T) {
	m := newTestManager(&fakeSpawner{}, Config{})
	if err := m.Kill(42); err != nil {
		t.Errorf("Kill(unknown) = %v, want nil", err)
	}
}

func TestManager_PauseGatesOutput(t *testing.T) {
	fs := &fakeSpawner{}
	m := newTestManager(fs, Config{})
	id, _ := m.Spawn(SpawnRequest{Command: "bash"})
	p := fs.proc(0)

	p.emit("one")
	if ev := nextEvent(t, m); string(ev.Data) != "one" {
		t.Fatalf("Data = %q, want %q", ev.Data, "one")
	}

	m.Pause(id)
	if !m.Get(id).Paused() {
		t.Fatal("expected session paused")
	}

	// The read loop is already parked in Read, so one in-flight chunk
	// still comes through before the gate takes effect.
	p.emit("two")
	if ev := nextEvent(t, m); string(ev.Data) != "two" {
		t.Fatalf("Data = %q, want %q", ev.Data, "two")
	}

	p.emit("three")
	expectNoEvent(t, m, 100*time.Millisecond)

	m.Resume(id)
	if ev := nextEvent(t, m); string(ev.Data) != "three" {
		t.Fatalf("Data after resume = %q, want %q", ev.Data, "three")
	}
	if m.Get(id).Paused() {
		t.Error("expected session resumed")
	}
}

func TestManager_PauseResumeIdempotent(t *testing.T) {
	fs := &fakeSpawner{}
	m := newTestManager(fs, Config{})
	id, _ := m.Spawn(SpawnRequest{Command: "bash"})

	m.Pause(id)
	m.Pause(id)
	m.Resume(id)
	m.Resume(id)
	if m.Get(id).Paused() {
		t.Error("expected session resumed")
	}

	m.Pause(99)
	m.Resume(99)
}

func TestManager_Scrollback(t *testing.T) {
	fs := &fakeSpawner{}
	m := newTestManager(fs, Config{})
	id, _ := m.Spawn(SpawnRequest{Command: "bash"})

	fs.proc(0).emit("remembered")
	waitFor(t, "scrollback", func() bool {
		data, _ := m.Scrollback(id)
		return string(data) == "remembered"
	})

	if _, ok := m.Scrollback(99); ok {
		t.Error("expected ok=false for unknown session")
	}
}

func TestManager_SessionByExternalID(t *testing.T) {
	fs := &fakeSpawner{}
	m := newTestManager(fs, Config{})
	id, _ := m.Spawn(SpawnRequest{Command: "bash", ExternalID: "task-7"})

	s := m.SessionByExternalID("task-7")
	if s == nil || s.ID != id {
		t.Errorf("SessionByExternalID = %v, want session %d", s, id)
	}
	if m.SessionByExternalID("task-8") != nil {
		t.Error("expected nil for unknown external id")
	}
	if m.SessionByExternalID("") != nil {
		t.Error("expected nil for empty external id")
	}
}

func TestManager_ListOrderedByID(t *testing.T) {
	fs := &fakeSpawner{}
	m := newTestManager(fs, Config{})
	for i := 0; i < 5; i++ {
		m.Spawn(SpawnRequest{Command: "bash"})
	}

	list := m.List()
	if len(list) != 5 {
		t.Fatalf("List() returned %d sessions, want 5", len(list))
	}
	for i, s := range list {
		if s.ID != i+1 {
			t.Errorf("List()[%d].ID = %d, want %d", i, s.ID, i+1)
		}
	}
}

func TestManager_ExitDrainsBufferBeforeClosedEvent(t *testing.T) {
	fs := &fakeSpawner{}
	m := newTestManager(fs, Config{})
	id, _ := m.Spawn(SpawnRequest{Command: "bash"})
	p := fs.proc(0)
	p.exitCode = 7

	payload := strings.Repeat("z", 10_000)
	p.emit(payload)
	waitFor(t, "output buffered", func() bool {
		data, _ := m.Scrollback(id)
		return len(data) == len(payload)
	})
	p.exit()

	var rebuilt []byte
	for {
		ev := nextEvent(t, m)
		if ev.Type == EventClosed {
			if ev.ExitCode != 7 {
				t.Errorf("ExitCode = %d, want 7", ev.ExitCode)
			}
			break
		}
		if len(ev.Data) > FlushBatchSize {
			t.Errorf("drain batch of %d bytes exceeds %d", len(ev.Data), FlushBatchSize)
		}
		rebuilt = append(rebuilt, ev.Data...)
	}
	if string(rebuilt) != payload {
		t.Errorf("drained %d bytes, want all %d before the closed event", len(rebuilt), len(payload))
	}
	if m.Get(id) != nil {
		t.Error("session still registered after exit")
	}
}

func TestManager_OutputOrderedAcrossExit(t *testing.T) {
	// A flush racing the exit drain must not reorder bytes: the chunk a
	// flush took has to land before the drain's remainder.
	for round := 0; round < 20; round++ {
		fs := &fakeSpawner{}
		m := newTestManager(fs, Config{})
		id, _ := m.Spawn(SpawnRequest{Command: "bash"})
		p := fs.proc(0)

		var payload bytes.Buffer
		for i := 0; i < 5; i++ {
			chunk := strings.Repeat(string(rune('a'+i)), 3000)
			payload.WriteString(chunk)
			p.emit(chunk)
		}
		p.exit()

		var rebuilt []byte
		for {
			ev := nextEvent(t, m)
			if ev.Type == EventClosed {
				break
			}
			rebuilt = append(rebuilt, ev.Data...)
		}
		if string(rebuilt) != payload.String() {
			t.Fatalf("round %d: output reordered or lost (%d bytes, want %d)",
				round, len(rebuilt), payload.Len())
		}
		if m.Get(id) != nil {
			t.Fatalf("round %d: session still registered", round)
		}
	}
}

func TestManager_ShutdownKillsAllSilently(t *testing.T) {
	fs := &fakeSpawner{}
	m := newTestManager(fs, Config{})
	m.Spawn(SpawnRequest{Command: "bash"})
	m.Spawn(SpawnRequest{Command: "bash"})

	m.Shutdown()

	if m.Count() != 0 {
		t.Errorf("Count() = %d after shutdown, want 0", m.Count())
	}
	select {
	case <-m.Done():
	default:
		t.Error("Done() not closed after shutdown")
	}

	// Teardown during shutdown must not publish closed events.
	for {
		select {
		case ev := <-m.Events():
			if ev.Type == EventClosed {
				t.Fatalf("unexpected closed event during shutdown: %+v", ev)
			}
		default:
			return
		}
	}
}

func TestManager_CleanupIdle(t *testing.T) {
	fs := &fakeSpawner{}
	m := newTestManager(fs, Config{})
	id, _ := m.Spawn(SpawnRequest{Command: "bash"})

	if n := m.CleanupIdle(0, nil); n != 0 {
		t.Errorf("CleanupIdle(0) = %d, want 0", n)
	}
	if n := m.CleanupIdle(time.Hour, nil); n != 0 {
		t.Errorf("CleanupIdle(1h) = %d, want 0 for a fresh session", n)
	}

	time.Sleep(20 * time.Millisecond)
	if n := m.CleanupIdle(10*time.Millisecond, func(sessionID int) bool { return true }); n != 0 {
		t.Errorf("CleanupIdle = %d, want 0 while owned", n)
	}
	if n := m.CleanupIdle(10*time.Millisecond, nil); n != 1 {
		t.Errorf("CleanupIdle = %d, want 1", n)
	}
	if m.Get(id) != nil {
		t.Error("idle session still registered")
	}
}

func TestManager_RecordingCapturesTraffic(t *testing.T) {
	fs := &fakeSpawner{}
	m := newTestManager(fs, Config{RecordingEnabled: true})
	id, _ := m.Spawn(SpawnRequest{Command: "bash"})

	s := m.Get(id)
	if s.Recording == nil {
		t.Fatal("expected recording to be attached")
	}

	fs.proc(0).emit("output")
	m.Write(id, []byte("input"))
	waitFor(t, "recording entries", func() bool { return s.Recording.EntryCount() == 2 })
}

func TestManager_RecordingDisabledByDefault(t *testing.T) {
	fs := &fakeSpawner{}
	m := newTestManager(fs, Config{})
	id, _ := m.Spawn(SpawnRequest{Command: "bash"})

	if m.Get(id).Recording != nil {
		t.Error("expected no recording without the flag")
	}
}
