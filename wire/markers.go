// Package wire implements the framing protocol: header layout, the
// per-type payload encoders, the stateful resynchronizing frame decoder,
// and the type dispatcher that turns a decoded payload into a typed value.
package wire

// StartMarker anchors the beginning of every frame and is the byte the
// decoder resynchronizes on after garbage.
const StartMarker byte = 0x01

// DataTypeSize is the width, in bytes, of the DATA_TYPE field.
const DataTypeSize = 1

// StartMarkerSize is the width, in bytes, of the START_MARKER field.
const StartMarkerSize = 1

// FrameLengthSize is the width, in bytes, of the FRAME_LENGTH field.
const FrameLengthSize = 4

// MaxGarbageTolerance bounds how many non-marker bytes the decoder scans in
// a single resynchronization window. When a window holds no marker, Feed
// discards it and scans the next window within the same call, until a
// marker is found or the buffered data is exhausted.
const MaxGarbageTolerance = 8192

// Type markers, one per DATA_TYPE value.
const (
	MarkerHeartbeat byte = 0x00
	MarkerString    byte = 0x01
	MarkerInt32     byte = 0x02
	MarkerFloat32   byte = 0x03
	MarkerFloat64   byte = 0x04
	MarkerChar      byte = 0x05
	MarkerBytes     byte = 0x06
)

// FixedPayloadSize returns the payload width for every type whose payload
// has a constant size, or -1 for types whose payload carries its own
// length prefix (String, Bytes) or has no fixed meaning (unknown markers).
func FixedPayloadSize(marker byte) int {
	switch marker {
	case MarkerHeartbeat:
		return 0
	case MarkerInt32, MarkerFloat32:
		return 4
	case MarkerFloat64:
		return 8
	case MarkerChar:
		return 2
	default:
		return -1
	}
}
