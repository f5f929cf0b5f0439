package terminal

import (
	"log"
	"runtime"
	"sync"
	"time"
)

const (
	// outputBufferCap bounds the per-session buffer of output awaiting
	// flush. Oldest data is trimmed on overflow.
	outputBufferCap = 100_000

	// FlushBatchSize is the largest slice of output emitted in a single
	// event. Bigger buffers drain across multiple flushes.
	FlushBatchSize = 4096

	// flushInterval is the coalescing delay between a data arrival and
	// its flush. Tuned for perceived terminal responsiveness.
	flushInterval = 16 * time.Millisecond

	// maxImmediateWrite is the largest input written to the PTY in one
	// syscall. Anything bigger is applied in writeChunkSize pieces with
	// a scheduler yield in between so a huge paste cannot starve other
	// sessions' writers.
	maxImmediateWrite = 1000
	writeChunkSize    = 100

	// writeQueueDepth bounds pending input per session. A full queue
	// applies backpressure to the submitter instead of dropping input.
	writeQueueDepth = 1024
)

// Session is one live PTY process together with its output buffers, write
// queue, and flow-control state. All fields other than the identity ones
// are owned by the session's own goroutines and mutex; the Manager never
// mutates them directly.
type Session struct {
	ID         int
	ExternalID string
	Command    string
	CreatedAt  time.Time

	Scrollback *ScrollbackBuffer
	Recording  *Recording

	proc Proc
	mgr  *Manager

	// emitMu orders output emission: whoever takes bytes out of outBuf
	// publishes them before anyone else can take more.
	emitMu sync.Mutex

	mu           sync.Mutex
	outBuf       []byte
	flushTimer   *time.Timer
	paused       bool
	resumeCh     chan struct{}
	lastActivity time.Time

	writeCh chan []byte

	// exitOnce guards the exit path: the read loop and a forced Kill
	// can both reach it.
	exitOnce sync.Once

	// done is closed exactly once when the exit path has run and the
	// session is gone from the registry.
	done chan struct{}
}

// Pid returns the OS process id of the session's child.
func (s *Session) Pid() int {
	return s.proc.Pid()
}

// Done returns a channel closed when the session has fully exited.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// LastActivity returns the time of the most recent output or input.
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// Paused reports whether the session's read loop is currently gated.
func (s *Session) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// readLoop relays PTY output into the buffers until the process exits.
// It runs for the lifetime of the session regardless of viewer
// connections.
func (s *Session) readLoop() {
	buf := make([]byte, 32*1024)
	for {
		s.waitWhilePaused()
		n, err := s.proc.Read(buf)
		if n > 0 {
			s.handleData(buf[:n])
		}
		if err != nil {
			s.mgr.sessionExited(s)
			return
		}
	}
}

// waitWhilePaused blocks until the session is resumed. Not reading from
// the PTY fills the kernel tty buffer and eventually blocks the child on
// write; that is the flow control, there is nothing to drop.
func (s *Session) waitWhilePaused() {
	for {
		s.mu.Lock()
		if !s.paused {
			s.mu.Unlock()
			return
		}
		ch := s.resumeCh
		s.mu.Unlock()
		<-ch
	}
}

func (s *Session) pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.paused {
		return
	}
	s.paused = true
	s.resumeCh = make(chan struct{})
}

func (s *Session) resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.paused {
		return
	}
	s.paused = false
	close(s.resumeCh)
}

// handleData appends raw PTY output to the flush buffer and scrollback,
// trimming both at their caps, and schedules a flush if none is pending.
func (s *Session) handleData(p []byte) {
	if s.mgr.shuttingDown() {
		return
	}

	s.Scrollback.Write(p)
	if s.Recording != nil {
		s.Recording.RecordOutput(p)
	}

	s.mu.Lock()
	s.outBuf = append(s.outBuf, p...)
	if len(s.outBuf) > outputBufferCap {
		trimmed := make([]byte, outputBufferCap)
		copy(trimmed, s.outBuf[len(s.outBuf)-outputBufferCap:])
		s.outBuf = trimmed
	}
	s.lastActivity = time.Now()
	if s.flushTimer == nil {
		s.flushTimer = time.AfterFunc(flushInterval, s.flush)
	}
	s.mu.Unlock()
}

// flush emits at most FlushBatchSize bytes and re-arms itself while data
// remains, bounding both event size and emission frequency under load.
func (s *Session) flush() {
	if s.mgr.shuttingDown() {
		return
	}

	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	if len(s.outBuf) == 0 {
		s.flushTimer = nil
		s.mu.Unlock()
		return
	}
	n := len(s.outBuf)
	if n > FlushBatchSize {
		n = FlushBatchSize
	}
	chunk := make([]byte, n)
	copy(chunk, s.outBuf[:n])
	s.outBuf = append(s.outBuf[:0], s.outBuf[n:]...)
	if len(s.outBuf) > 0 {
		s.flushTimer = time.AfterFunc(flushInterval, s.flush)
	} else {
		s.flushTimer = nil
	}
	s.mu.Unlock()

	s.mgr.emit(Event{Type: EventOutput, SessionID: s.ID, Data: chunk})
}

// drainBuffered flushes whatever is left in the output buffer, still in
// ceiling-sized slices, and stops any pending flush timer. Called once
// from the exit path before the closed event. Taking emitMu first means
// an in-progress flush finishes its emission before the drain takes the
// remainder, keeping the byte stream ordered.
func (s *Session) drainBuffered() {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	if s.flushTimer != nil {
		s.flushTimer.Stop()
		s.flushTimer = nil
	}
	buf := s.outBuf
	s.outBuf = nil
	s.mu.Unlock()

	for off := 0; off < len(buf); off += FlushBatchSize {
		end := off + FlushBatchSize
		if end > len(buf) {
			end = len(buf)
		}
		s.mgr.emit(Event{Type: EventOutput, SessionID: s.ID, Data: buf[off:end]})
	}
}

// enqueueWrite hands input to the session's writer goroutine. Submission
// order on the channel is application order on the PTY. A full queue
// blocks the submitter until the writer catches up or the session ends;
// accepted input is never dropped.
func (s *Session) enqueueWrite(data []byte) {
	buf := make([]byte, len(data))
	copy(buf, data)

	s.mu.Lock()
	s.lastActivity = time.Now()
	s.mu.Unlock()

	select {
	case s.writeCh <- buf:
	case <-s.done:
	}
}

// writeLoop drains the write queue one item at a time. Write errors are
// logged and absorbed; the queue keeps going so a transient PTY error
// does not wedge later input.
func (s *Session) writeLoop() {
	for {
		select {
		case data := <-s.writeCh:
			s.applyWrite(data)
		case <-s.done:
			return
		}
	}
}

func (s *Session) applyWrite(data []byte) {
	if len(data) <= maxImmediateWrite {
		if _, err := s.proc.Write(data); err != nil {
			log.Printf("[session-mgr] session %d write failed: %v", s.ID, err)
		}
		return
	}

	for off := 0; off < len(data); off += writeChunkSize {
		end := off + writeChunkSize
		if end > len(data) {
			end = len(data)
		}
		if _, err := s.proc.Write(data[off:end]); err != nil {
			log.Printf("[session-mgr] session %d chunked write failed at offset %d: %v", s.ID, off, err)
			return
		}
		runtime.Gosched()
	}
}
