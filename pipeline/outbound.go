package pipeline

import "github.com/go-fastsocket/fastsocket/wire"

// OutboundPipeline is the application-facing entry point for sending a
// Message on a connection. Handle's dispatch on msg.Kind happens once,
// inside wire.Encoder.Send, so adding a variant never needs a second
// switch here.
type OutboundPipeline struct {
	encoder *wire.Encoder
}

// NewOutboundPipeline wraps encoder, typically obtained from
// (*engine.Conn).Encoder().
func NewOutboundPipeline(encoder *wire.Encoder) *OutboundPipeline {
	return &OutboundPipeline{encoder: encoder}
}

// Handle frames and enqueues msg for sending. onComplete and onException
// may both be nil.
func (o *OutboundPipeline) Handle(msg Message, onComplete func(), onException func(error)) {
	o.encoder.Send(msg, onComplete, onException)
}
