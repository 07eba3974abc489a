package wire

import (
	"math"
	"unicode/utf8"

	"github.com/lithdew/bytesutil"
)

// ReceiveCallback is the application-facing sink for decoded values. A
// malformed inner payload reaches Exception, not the connection's error
// path: the outer frame boundary was already consumed by the Decoder
// before Dispatch ever runs, so the stream stays in sync regardless of
// what Dispatch finds inside the payload.
type ReceiveCallback interface {
	Receive(v Value)
	Exception(err error)
}

// ReceiveCallbackFunc adapts two plain functions to ReceiveCallback.
type ReceiveCallbackFunc struct {
	OnReceive   func(Value)
	OnException func(error)
}

func (f ReceiveCallbackFunc) Receive(v Value) {
	if f.OnReceive != nil {
		f.OnReceive(v)
	}
}

func (f ReceiveCallbackFunc) Exception(err error) {
	if f.OnException != nil {
		f.OnException(err)
	}
}

// Dispatch implements the Type Dispatcher of spec.md §4.5: given a marker
// and the payload view the Decoder already bounded to payload_size bytes,
// reconstruct the typed Value and deliver it to cb.
func Dispatch(marker byte, payload []byte, cb ReceiveCallback) {
	switch marker {
	case MarkerHeartbeat:
		cb.Receive(Heartbeat())
		return
	case MarkerString:
		s, err := readLengthPrefixed(marker, payload)
		if err != nil {
			cb.Exception(err)
			return
		}
		if !verifyUTF8(s) {
			cb.Exception(&ProtocolViolationError{Marker: marker, Message: "string payload is not valid UTF-8"})
			return
		}
		cb.Receive(StringValue(string(s)))
	case MarkerInt32:
		if len(payload) != 4 {
			cb.Exception(&ProtocolIncompleteError{Marker: marker})
			return
		}
		v := int32(bytesutil.Uint32BE(payload))
		cb.Receive(Int32Value(v))
	case MarkerFloat32:
		if len(payload) != 4 {
			cb.Exception(&ProtocolIncompleteError{Marker: marker})
			return
		}
		cb.Receive(Float32Value(math.Float32frombits(bytesutil.Uint32BE(payload))))
	case MarkerFloat64:
		if len(payload) != 8 {
			cb.Exception(&ProtocolIncompleteError{Marker: marker})
			return
		}
		hi := uint64(bytesutil.Uint32BE(payload[:4]))
		lo := uint64(bytesutil.Uint32BE(payload[4:8]))
		cb.Receive(Float64Value(math.Float64frombits(hi<<32 | lo)))
	case MarkerChar:
		if len(payload) != 2 {
			cb.Exception(&ProtocolIncompleteError{Marker: marker})
			return
		}
		cb.Receive(CharValue(bytesutil.Uint16BE(payload)))
	case MarkerBytes:
		b, err := readLengthPrefixed(marker, payload)
		if err != nil {
			cb.Exception(err)
			return
		}
		cb.Receive(BytesValue(append([]byte{}, b...)))
	default:
		cb.Exception(&ProtocolViolationError{Marker: marker, Message: "unknown data-type marker"})
	}
}

// readLengthPrefixed implements the shared 4-byte-length-then-bytes shape
// used by both String and Byte Array payloads.
func readLengthPrefixed(marker byte, payload []byte) ([]byte, error) {
	if len(payload) < 4 {
		return nil, &ProtocolIncompleteError{Marker: marker}
	}
	length := int32(bytesutil.Uint32BE(payload[:4]))
	rest := payload[4:]
	if length < 0 {
		return nil, &ProtocolViolationError{Marker: marker, Message: "negative inner length"}
	}
	if int(length) > len(rest) {
		return nil, &ProtocolViolationError{Marker: marker, Message: "inner length exceeds remaining payload"}
	}
	return rest[:length], nil
}

// verifyUTF8 is kept separate from readLengthPrefixed so callers that want
// raw bytes (ByteArray) skip the UTF-8 check that String values need.
func verifyUTF8(b []byte) bool { return utf8.Valid(b) }
