package engine

import (
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-fastsocket/fastsocket/pool"
	"github.com/go-fastsocket/fastsocket/wire"
)

// Handler processes one decoded value delivered on a connection.
type Handler interface {
	HandleMessage(ctx *Context)
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(ctx *Context)

func (fn HandlerFunc) HandleMessage(ctx *Context) { fn(ctx) }

// DefaultHandler discards every message; used when a caller does not
// supply one.
var DefaultHandler HandlerFunc = func(ctx *Context) {}

// ErrorFunc is notified of a non-fatal per-frame protocol error (a
// malformed inner payload that did not desynchronize the stream). Fatal
// connection errors are not reported here; they reach CloseFunc.
type ErrorFunc func(conn *Conn, err error)

// CloseFunc is notified exactly once, when the connection is torn down
// (socket closed, queued writes failed), with the error that caused the
// close (nil for a caller-initiated Close). It runs on the goroutine that
// triggered the close; the read and write loops may still be exiting.
type CloseFunc func(conn *Conn, err error)

// Conn wraps one net.Conn with the framing protocol: a resynchronizing
// decoder feeding a goroutine-per-connection read loop, and a single
// writer goroutine draining a FIFO write queue so that concurrent Sends
// from multiple goroutines never interleave their bytes on the wire. This
// resolves the reference design's unserialized-concurrent-send gap,
// grounded in the same writerQueue/writerCond shape the reference
// connection type uses internally for its own request/response writes.
type Conn struct {
	raw  net.Conn
	pool *pool.Pool

	decoder *wire.Decoder
	encoder *wire.Encoder

	handler      Handler
	onFrameError ErrorFunc
	onClose      CloseFunc

	keepAlive        bool
	keepAliveTimeout time.Duration

	writeMu    sync.Mutex
	writeCond  *sync.Cond
	writeQueue []*pendingWrite
	writerDone bool

	watchdogReset chan struct{}
	watchdogStop  chan struct{}

	closeOnce sync.Once
	closed    atomic.Bool
}

// Options configures a Conn at construction. Zero value is valid: no
// keep-alive watchdog, a discarding handler, maxFrameLength defaulting to
// pool.Large.
type Options struct {
	MaxFrameLength   int
	KeepAlive        bool
	KeepAliveTimeout time.Duration
	Handler          Handler
	OnFrameError     ErrorFunc
	OnClose          CloseFunc

	// Submit, if non-nil, runs the connection's read/write/watchdog loops
	// as tasks on a caller-managed worker pool instead of a raw unmanaged
	// goroutine per loop. A submitter that returns an error (e.g. the
	// pool is closed) falls back to a plain goroutine for that loop.
	Submit func(task func()) error
}

// NewConn wraps raw with the framing engine and starts its read, write,
// and (if enabled) watchdog goroutines. The caller must not use raw
// directly after this call.
func NewConn(raw net.Conn, p *pool.Pool, opts Options) *Conn {
	maxFrameLength := opts.MaxFrameLength
	if maxFrameLength <= 0 {
		maxFrameLength = pool.Large
	}
	handler := opts.Handler
	if handler == nil {
		handler = DefaultHandler
	}

	c := &Conn{
		raw:              raw,
		pool:             p,
		decoder:          wire.NewDecoder(maxFrameLength),
		handler:          handler,
		onFrameError:     opts.OnFrameError,
		onClose:          opts.OnClose,
		keepAlive:        opts.KeepAlive,
		keepAliveTimeout: opts.KeepAliveTimeout,
		watchdogReset:    make(chan struct{}, 1),
		watchdogStop:     make(chan struct{}),
	}
	c.writeCond = sync.NewCond(&c.writeMu)
	c.encoder = wire.NewEncoder(p, c)

	spawn := opts.Submit
	if spawn == nil {
		spawn = func(task func()) error { go task(); return nil }
	}
	run := func(task func()) {
		if err := spawn(task); err != nil {
			go task()
		}
	}

	run(c.readLoop)
	run(c.writeLoop)
	if c.keepAlive {
		run(c.watchdogLoop)
	}
	return c
}

// Encoder returns the connection's frame encoder, the entry point for
// sending any wire.Value.
func (c *Conn) Encoder() *wire.Encoder { return c.encoder }

// RemoteAddr and LocalAddr pass through to the wrapped net.Conn.
func (c *Conn) RemoteAddr() net.Addr { return c.raw.RemoteAddr() }
func (c *Conn) LocalAddr() net.Addr  { return c.raw.LocalAddr() }

// Close shuts the connection down from the caller's side. The close
// handler, if any, still runs exactly once, with a nil error.
func (c *Conn) Close() error {
	c.fail(nil)
	return nil
}

// Send implements wire.Sender: it enqueues buf for the single writer
// goroutine and returns immediately. buf is released by the writer after
// it is fully written (or on failure).
func (c *Conn) Send(buf *pool.Buffer, onComplete func(), onException func(error)) {
	pw := pendingWritePool.acquire(buf, onComplete, onException)

	c.writeMu.Lock()
	if c.writerDone {
		c.writeMu.Unlock()
		buf.Release()
		pendingWritePool.release(pw)
		if onException != nil {
			onException(&ChannelClosed{})
		}
		return
	}
	c.writeQueue = append(c.writeQueue, pw)
	c.writeMu.Unlock()
	c.writeCond.Signal()
}

// writeLoop is the single writer per connection: Start → pop the next
// queued buffer → write it fully, looping over partial writes → signal
// completion → Start again. Any write error, or the connection closing,
// terminates the loop; everything still queued at that point fails its
// onException with ChannelClosed.
func (c *Conn) writeLoop() {
	for {
		c.writeMu.Lock()
		for len(c.writeQueue) == 0 && !c.writerDone {
			c.writeCond.Wait()
		}
		if len(c.writeQueue) == 0 && c.writerDone {
			c.writeMu.Unlock()
			return
		}
		pw := c.writeQueue[0]
		c.writeQueue = c.writeQueue[1:]
		c.writeMu.Unlock()

		err := c.writeFully(pw.buf)
		pw.buf.Release()
		if err != nil {
			if pw.onException != nil {
				pw.onException(err)
			}
			pendingWritePool.release(pw)
			c.fail(err)
			continue
		}
		if pw.onComplete != nil {
			pw.onComplete()
		}
		pendingWritePool.release(pw)
	}
}

// writeFully drains buf to the socket, looping on short writes.
func (c *Conn) writeFully(buf *pool.Buffer) error {
	for buf.HasRemaining() {
		n, err := c.raw.Write(buf.Readable())
		if n > 0 {
			buf.Advance(n)
		}
		if err != nil {
			if c.closed.Load() {
				return &AsyncClose{}
			}
			return classifyIOError(err)
		}
	}
	return nil
}

// readLoop is the connection's single reader: acquire a large buffer,
// block on Read, feed whatever arrived to the decoder, dispatch every
// complete frame, repeat. A fatal frame error or read error ends the loop
// and fails the connection.
func (c *Conn) readLoop() {
	for {
		buf, err := c.pool.Acquire(pool.Large)
		if err != nil {
			c.fail(&ResourceInterrupted{Cause: err})
			return
		}

		n, readErr := c.raw.Read(buf.Raw())
		if n > 0 {
			c.kickWatchdog()
			chunk := append([]byte(nil), buf.Raw()[:n]...)
			buf.Release()

			feedErr := c.decoder.Feed(chunk, func(marker byte, payload []byte) {
				wire.Dispatch(marker, payload, receiveAdapter{conn: c})
			})
			if feedErr != nil {
				c.fail(feedErr)
				return
			}
		} else {
			buf.Release()
		}

		if readErr != nil {
			c.fail(classifyReadError(readErr, c.closed.Load()))
			return
		}
	}
}

// receiveAdapter bridges wire.Dispatch's ReceiveCallback to this
// connection's Handler and per-frame error hook.
type receiveAdapter struct {
	conn *Conn
}

func (r receiveAdapter) Receive(v wire.Value) {
	ctx := contextPool.acquire(r.conn, v)
	r.conn.handler.HandleMessage(ctx)
	contextPool.release(ctx)
}

func (r receiveAdapter) Exception(err error) {
	if r.conn.onFrameError != nil {
		r.conn.onFrameError(r.conn, err)
	}
}

func (c *Conn) kickWatchdog() {
	if !c.keepAlive {
		return
	}
	select {
	case c.watchdogReset <- struct{}{}:
	default:
	}
}

// watchdogLoop closes the connection if kickWatchdog is not called at
// least once per keepAliveTimeout, adapting the reference timer pool: the
// timer is acquired once and reset in place rather than reallocated every
// cycle.
func (c *Conn) watchdogLoop() {
	timer := timerPool.acquire(c.keepAliveTimeout)
	defer timerPool.release(timer)
	for {
		select {
		case <-timer.C:
			c.fail(&Timeout{})
			return
		case <-c.watchdogReset:
			timer.Reset(c.keepAliveTimeout)
		case <-c.watchdogStop:
			return
		}
	}
}

// fail closes the underlying socket and tears down both loops exactly
// once. err is nil for a caller-initiated Close.
func (c *Conn) fail(err error) {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		_ = c.raw.Close()

		c.writeMu.Lock()
		c.writerDone = true
		drained := c.writeQueue
		c.writeQueue = nil
		c.writeMu.Unlock()
		c.writeCond.Broadcast()

		for _, pw := range drained {
			pw.buf.Release()
			if pw.onException != nil {
				pw.onException(&ChannelClosed{})
			}
			pendingWritePool.release(pw)
		}

		if c.keepAlive {
			close(c.watchdogStop)
		}

		if c.onClose != nil {
			c.onClose(c, err)
		}
	})
}

func classifyIOError(err error) error {
	if errors.Is(err, io.EOF) {
		return &PeerClosed{}
	}
	return &ResourceInterrupted{Cause: err}
}

func classifyReadError(err error, selfClosed bool) error {
	if errors.Is(err, io.EOF) {
		return &PeerClosed{}
	}
	if selfClosed {
		return &AsyncClose{}
	}
	return &ResourceInterrupted{Cause: err}
}
