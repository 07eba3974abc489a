package wire

import (
	"math"

	"github.com/go-fastsocket/fastsocket/pool"
)

// Sender delivers one already-framed, already-flipped buffer to a
// connection. Implemented by engine.Conn; kept as an interface here so the
// protocol layer never imports the transport layer.
type Sender interface {
	Send(buf *pool.Buffer, onComplete func(), onException func(error))
}

// Encoder assembles one typed value into a single pooled buffer and hands
// it to a Sender. It never retries: an assembly failure is fatal to the
// single send operation only, never to the connection.
type Encoder struct {
	Pool   *pool.Pool
	Sender Sender
}

// NewEncoder constructs an Encoder bound to p for buffer acquisition and s
// for delivery.
func NewEncoder(p *pool.Pool, s Sender) *Encoder {
	return &Encoder{Pool: p, Sender: s}
}

// Send frames v and hands it to the Sender. onComplete and onException may
// both be nil.
func (e *Encoder) Send(v Value, onComplete func(), onException func(error)) {
	switch v.Kind {
	case MarkerHeartbeat:
		e.send(MarkerHeartbeat, 0, onComplete, onException, nil)
	case MarkerString:
		payload := []byte(v.Str)
		e.send(MarkerString, 4+len(payload), onComplete, onException, func(buf *pool.Buffer) {
			buf.PutUint32BE(uint32(len(payload)))
			buf.Write(payload)
		})
	case MarkerInt32:
		e.send(MarkerInt32, 4, onComplete, onException, func(buf *pool.Buffer) {
			buf.PutUint32BE(uint32(v.I32))
		})
	case MarkerFloat32:
		e.send(MarkerFloat32, 4, onComplete, onException, func(buf *pool.Buffer) {
			buf.PutUint32BE(math.Float32bits(v.F32))
		})
	case MarkerFloat64:
		e.send(MarkerFloat64, 8, onComplete, onException, func(buf *pool.Buffer) {
			buf.PutUint64BE(math.Float64bits(v.F64))
		})
	case MarkerChar:
		e.send(MarkerChar, 2, onComplete, onException, func(buf *pool.Buffer) {
			buf.PutUint16BE(v.Ch)
		})
	case MarkerBytes:
		e.send(MarkerBytes, 4+len(v.Bytes), onComplete, onException, func(buf *pool.Buffer) {
			buf.PutUint32BE(uint32(len(v.Bytes)))
			buf.Write(v.Bytes)
		})
	default:
		if onException != nil {
			onException(&ProtocolViolationError{Marker: v.Kind, Message: "unsupported value kind"})
		}
	}
}

// send implements the five-step algorithm shared by every Send* operation:
// compute total size, acquire, write header + payload, flip, deliver.
func (e *Encoder) send(marker byte, payloadSize int, onComplete func(), onException func(error), writePayload func(*pool.Buffer)) {
	totalSize := StartMarkerSize + FrameLengthSize + DataTypeSize + payloadSize

	buf, err := e.Pool.Acquire(totalSize)
	if err != nil {
		if onException != nil {
			onException(err)
		}
		return
	}

	if ok := e.assemble(buf, marker, payloadSize, writePayload, onException); !ok {
		return
	}

	buf.Flip()
	e.Sender.Send(buf, onComplete, onException)
}

// assemble writes the frame header and payload into buf. On any panic from
// an out-of-range write (an encoder invariant violation), it releases the
// buffer and reports EncoderInternalError instead of propagating the
// panic, matching the reference design's "assembly failure is local"
// guarantee.
func (e *Encoder) assemble(buf *pool.Buffer, marker byte, payloadSize int, writePayload func(*pool.Buffer), onException func(error)) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			buf.Release()
			ok = false
			if onException != nil {
				if err, isErr := r.(error); isErr {
					onException(&EncoderInternalError{Cause: err})
				} else {
					onException(&EncoderInternalError{Cause: &ProtocolViolationError{Marker: marker, Message: "frame assembly panicked"}})
				}
			}
		}
	}()

	buf.PutByte(StartMarker)
	buf.PutUint32BE(uint32(DataTypeSize + payloadSize))
	buf.PutByte(marker)
	if writePayload != nil {
		writePayload(buf)
	}
	return true
}
