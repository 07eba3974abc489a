// Package pipeline provides the inbound/outbound message pipelines that
// sit between application code and the engine's per-connection read/write
// loops.
package pipeline

import "github.com/go-fastsocket/fastsocket/wire"

// Message is the value every pipeline stage exchanges. It is an alias to
// wire.Value, not a separate type: per the "Runtime-typed dispatch →
// tagged variant" design note, there is exactly one tagged-union
// representation of "a frame's payload" in this module, shared by the
// wire codec and both pipelines.
type Message = wire.Value
