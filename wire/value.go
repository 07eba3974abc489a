package wire

// Value is the closed sum type of every message this protocol can carry.
// It replaces the "instanceof" cascade of the reference design (see the
// "Runtime-typed dispatch on message → tagged variant" design note): both
// the encoder (as input) and the type dispatcher (as output) speak Value,
// so there is a single compile-time-checked representation of "a decoded
// frame" or "a message to send" on either side of the wire.
type Value struct {
	Kind  byte
	Str   string
	I32   int32
	F32   float32
	F64   float64
	Ch    uint16
	Bytes []byte
}

// Heartbeat is the payload-less keep-alive value.
func Heartbeat() Value { return Value{Kind: MarkerHeartbeat} }

// StringValue wraps a UTF-8 string payload.
func StringValue(s string) Value { return Value{Kind: MarkerString, Str: s} }

// Int32Value wraps a signed 32-bit integer payload.
func Int32Value(i int32) Value { return Value{Kind: MarkerInt32, I32: i} }

// Float32Value wraps an IEEE-754 single-precision payload.
func Float32Value(f float32) Value { return Value{Kind: MarkerFloat32, F32: f} }

// Float64Value wraps an IEEE-754 double-precision payload.
func Float64Value(f float64) Value { return Value{Kind: MarkerFloat64, F64: f} }

// CharValue wraps a single UTF-16 code unit.
func CharValue(c uint16) Value { return Value{Kind: MarkerChar, Ch: c} }

// BytesValue wraps a raw byte-array payload.
func BytesValue(b []byte) Value { return Value{Kind: MarkerBytes, Bytes: b} }

// IsHeartbeat reports whether v carries no payload.
func (v Value) IsHeartbeat() bool { return v.Kind == MarkerHeartbeat }
