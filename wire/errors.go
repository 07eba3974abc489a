package wire

import "fmt"

// FrameNonPositiveError reports a FRAME_LENGTH of zero or less. Fatal to
// the connection: the stream cannot be trusted to resynchronize safely.
type FrameNonPositiveError struct {
	FrameLength int32
}

func (e *FrameNonPositiveError) Error() string {
	return fmt.Sprintf("wire: non-positive frame length %d", e.FrameLength)
}

// FrameOversizeError reports a FRAME_LENGTH exceeding maxFrameLength.
// Fatal to the connection.
type FrameOversizeError struct {
	FrameLength int32
	Max         int32
}

func (e *FrameOversizeError) Error() string {
	return fmt.Sprintf("wire: frame length %d exceeds maximum %d", e.FrameLength, e.Max)
}

// ProtocolViolationError reports an inner-payload parse failure that does
// not desynchronize the stream: an unknown marker, a negative inner
// length, or an inner length exceeding the bytes available. Reported to
// the receive callback; the connection continues.
type ProtocolViolationError struct {
	Marker  byte
	Message string
}

func (e *ProtocolViolationError) Error() string {
	return fmt.Sprintf("wire: protocol violation (marker 0x%02X): %s", e.Marker, e.Message)
}

// ProtocolIncompleteError reports a short read within a typed payload:
// the outer frame boundary said payload_size bytes were present, but the
// decoder for that type needed more than were actually delivered for its
// own sub-fields (e.g. an Int32 payload shorter than 4 bytes, or a String
// payload too short to hold its 4-byte length prefix). Local to the single
// frame.
type ProtocolIncompleteError struct {
	Marker byte
}

func (e *ProtocolIncompleteError) Error() string {
	return fmt.Sprintf("wire: incomplete payload for marker 0x%02X", e.Marker)
}

// EncoderInternalError wraps an assembly-time failure inside the frame
// encoder (e.g. a payload writer invariant violation). The buffer is
// always released before this error reaches the caller.
type EncoderInternalError struct {
	Cause error
}

func (e *EncoderInternalError) Error() string {
	return fmt.Sprintf("wire: encoder internal error: %v", e.Cause)
}

func (e *EncoderInternalError) Unwrap() error { return e.Cause }
