package pipeline

import (
	"sync/atomic"

	"github.com/go-fastsocket/fastsocket/engine"
)

// ReplyFunc sends a response Message back on the connection a received
// Message arrived on.
type ReplyFunc func(msg Message, onComplete func(), onException func(error))

// ReceiveCallback is invoked once per decoded Message. reply is non-nil
// and may be called zero or more times; it ignores a Heartbeat's absence
// of payload the same way Handle does.
type ReceiveCallback func(msg Message, reply ReplyFunc)

// discard is installed until the caller provides a real callback, so a
// pipeline that hasn't been wired yet drops messages instead of panicking
// on a nil callback.
func discard(Message, ReplyFunc) {}

// InboundPipeline owns the currently-installed receive callback and
// adapts engine.Conn's per-message dispatch to it. SetReceiveCallback
// swaps the callback atomically, so a caller may change what happens to
// inbound traffic without tearing down the connection — e.g. switching a
// connection from a handshake handler to its steady-state handler.
type InboundPipeline struct {
	cb atomic.Value // ReceiveCallback
}

// NewInboundPipeline constructs an InboundPipeline that discards every
// message until SetReceiveCallback is called.
func NewInboundPipeline() *InboundPipeline {
	ip := &InboundPipeline{}
	ip.cb.Store(ReceiveCallback(discard))
	return ip
}

// SetReceiveCallback installs cb as the pipeline's receive callback.
func (ip *InboundPipeline) SetReceiveCallback(cb ReceiveCallback) {
	if cb == nil {
		cb = discard
	}
	ip.cb.Store(cb)
}

// HandleMessage implements engine.Handler: it adapts one decoded
// engine.Context to the currently installed ReceiveCallback.
func (ip *InboundPipeline) HandleMessage(ctx *engine.Context) {
	cb := ip.cb.Load().(ReceiveCallback)
	cb(ctx.Value(), ctx.Reply)
}
