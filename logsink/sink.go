// Package logsink provides a best-effort, non-blocking async log sink for
// connection-level errors, ported from FailWriter.java: a bounded queue
// drained by one background goroutine, a dropped-message counter exposed
// for diagnostics, and a clean shutdown that reports the final count.
package logsink

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/valyala/bytebufferpool"
)

const (
	logDir        = "logs"
	logFileName   = "error.log"
	queueCapacity = 8192
)

// entry is one queued log line, built in a pooled buffer so formatting a
// dropped-or-written line never allocates a fresh []byte.
type entry struct {
	buf *bytebufferpool.ByteBuffer
}

// Sink is a single-writer async error-log sink. One Sink is typically
// shared process-wide.
type Sink struct {
	queue   chan entry
	logger  zerolog.Logger
	dropped atomic.Uint64

	wg       sync.WaitGroup
	stopOnce sync.Once
	done     chan struct{}
}

// New opens (creating if necessary) dir/logs/error.log and starts the
// background writer goroutine. Callers should defer Shutdown.
func New(dir string) (*Sink, error) {
	path := filepath.Join(dir, logDir)
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("logsink: create log dir: %w", err)
	}

	f, err := os.OpenFile(filepath.Join(path, logFileName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logsink: open log file: %w", err)
	}

	s := &Sink{
		queue:  make(chan entry, queueCapacity),
		logger: zerolog.New(f).With().Timestamp().Logger(),
		done:   make(chan struct{}),
	}
	s.wg.Add(1)
	go s.run(f)
	return s, nil
}

// run drains the queue until Shutdown closes done and the queue empties.
func (s *Sink) run(f *os.File) {
	defer s.wg.Done()
	defer f.Close()

	for {
		select {
		case e := <-s.queue:
			s.write(e)
		case <-s.done:
			s.drain()
			return
		}
	}
}

func (s *Sink) drain() {
	for {
		select {
		case e := <-s.queue:
			s.write(e)
		default:
			return
		}
	}
}

func (s *Sink) write(e entry) {
	s.logger.Error().Msg(e.buf.String())
	bytebufferpool.Put(e.buf)
}

// WriteError formats and enqueues an error log line, following the same
// shape as writeFile(message, throwable): a timestamp, the message, and
// the error. If the queue is full the line is dropped and DroppedCount
// increments; WriteError itself never blocks the caller.
func (s *Sink) WriteError(message string, err error) {
	select {
	case <-s.done:
		return
	default:
	}

	buf := bytebufferpool.Get()
	fmt.Fprintf(buf, "[%s] ERROR: %s - %v", time.Now().Format(time.RFC3339Nano), message, err)

	select {
	case s.queue <- entry{buf: buf}:
	default:
		bytebufferpool.Put(buf)
		s.dropped.Add(1)
	}
}

// DroppedCount reports how many log lines have been discarded because the
// queue was full.
func (s *Sink) DroppedCount() uint64 { return s.dropped.Load() }

// QueueLen reports how many log lines are currently queued.
func (s *Sink) QueueLen() int { return len(s.queue) }

// Shutdown stops accepting new work, flushes whatever is queued, and
// blocks until the writer goroutine has exited. It is safe to call more
// than once.
func (s *Sink) Shutdown() uint64 {
	s.stopOnce.Do(func() { close(s.done) })
	s.wg.Wait()
	return s.DroppedCount()
}
