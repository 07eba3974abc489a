// Package listener accepts inbound connections and wires each one into
// the engine, and dials outbound connections with reconnect backoff. The
// single-Serve-call guard is ported from AsyncServerSocket's own
// single-channel restriction (one AsynchronousServerSocketChannel per
// listen address); ConnectionRequest's OnAccepted/OnAcceptFailed split is
// carried as AcceptHandler.
package listener

import (
	"errors"
	"net"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/go-fastsocket/fastsocket/engine"
	"github.com/go-fastsocket/fastsocket/pool"
	"github.com/go-fastsocket/fastsocket/workpool"
)

// ErrListenerAlreadyStarted is returned by a second call to Serve on the
// same Listener.
var ErrListenerAlreadyStarted = errors.New("listener: Serve already called")

// AcceptHandler is notified of every accept outcome.
type AcceptHandler interface {
	OnAccepted(conn *engine.Conn)
	OnAcceptFailed(err error)
}

// AcceptHandlerFuncs adapts two plain functions to AcceptHandler.
type AcceptHandlerFuncs struct {
	Accepted func(conn *engine.Conn)
	Failed   func(err error)
}

func (f AcceptHandlerFuncs) OnAccepted(conn *engine.Conn) {
	if f.Accepted != nil {
		f.Accepted(conn)
	}
}

func (f AcceptHandlerFuncs) OnAcceptFailed(err error) {
	if f.Failed != nil {
		f.Failed(err)
	}
}

// Listener accepts connections on a net.Listener and hands each one to
// the engine with ConnOptions applied. A Listener may only Serve once.
//
// If ConnOptions.Submit is nil and Workers is set, Serve installs a
// workpool.Pool-backed submitter sized to Workers (threadsNumber, per
// config.Options) before the first Accept, so every accepted connection's
// read/write/watchdog loops run on the bounded pool instead of one raw
// goroutine each.
type Listener struct {
	Pool        *pool.Pool
	ConnOptions engine.Options
	ServerName  string
	ThreadsHint int
	Workers     int

	workers *workpool.Pool

	started atomic.Bool
	closing chan struct{}

	mu    sync.Mutex
	conns map[*engine.Conn]struct{}
}

// Serve accepts connections from ln until ln.Accept fails because the
// Listener is shutting down, or forever otherwise. Every accepted raw
// connection is wrapped in an engine.Conn and handed to handler.
func (l *Listener) Serve(ln net.Listener, handler AcceptHandler) error {
	if !l.started.CompareAndSwap(false, true) {
		return ErrListenerAlreadyStarted
	}
	l.closing = make(chan struct{})
	l.conns = make(map[*engine.Conn]struct{})

	if l.ConnOptions.Submit == nil && l.Workers > 0 {
		l.workers = workpool.New(l.Workers)
		l.ConnOptions.Submit = l.workers.Submit
	}

	workerThreads := l.ThreadsHint
	if l.workers != nil {
		workerThreads = l.workers.NumWorkers()
	}

	log.Info().
		Str("server_name", l.ServerName).
		Str("listening_on", ln.Addr().String()).
		Int("worker_threads", workerThreads).
		Bool("keep_alive", l.ConnOptions.KeepAlive).
		Msg("server online")

	for {
		raw, err := ln.Accept()
		if err != nil {
			if l.isClosing() {
				return nil
			}
			handler.OnAcceptFailed(err)
			continue
		}

		opts := l.ConnOptions
		userClose := opts.OnClose
		opts.OnClose = func(conn *engine.Conn, closeErr error) {
			l.untrack(conn)
			if userClose != nil {
				userClose(conn, closeErr)
			}
		}

		conn := engine.NewConn(raw, l.Pool, opts)
		l.track(conn)
		handler.OnAccepted(conn)
	}
}

// Shutdown closes every connection currently tracked by this Listener and
// its worker pool, if any. It does not close the net.Listener passed to
// Serve: Serve keeps accepting until the caller closes that listener, and
// then returns nil.
func (l *Listener) Shutdown() {
	if l.closing == nil {
		return
	}
	select {
	case <-l.closing:
		return
	default:
		close(l.closing)
	}

	l.mu.Lock()
	conns := make([]*engine.Conn, 0, len(l.conns))
	for c := range l.conns {
		conns = append(conns, c)
	}
	l.mu.Unlock()

	for _, c := range conns {
		c.Close()
	}

	if l.workers != nil {
		l.workers.Close()
	}
}

func (l *Listener) isClosing() bool {
	if l.closing == nil {
		return false
	}
	select {
	case <-l.closing:
		return true
	default:
		return false
	}
}

func (l *Listener) track(c *engine.Conn) {
	l.mu.Lock()
	l.conns[c] = struct{}{}
	l.mu.Unlock()
}

func (l *Listener) untrack(c *engine.Conn) {
	l.mu.Lock()
	delete(l.conns, c)
	l.mu.Unlock()
}
