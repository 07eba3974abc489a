package wire

import "github.com/lithdew/bytesutil"

// FrameHandler receives one fully-framed (marker, payload) pair. payload is
// a view into the decoder's internal buffer and is only valid for the
// duration of the call; implementations that need to retain data must copy
// it (the Dispatch function in this package always does).
type FrameHandler func(marker byte, payload []byte)

// Decoder is the stateful, resynchronizing frame decoder of spec.md §4.4.
// One Decoder exists per connection; it is single-accessed — only the
// connection's read loop ever calls Feed.
//
// Open Question 2 of spec.md is resolved as: the decoder owns a residual
// carry buffer. Any bytes left over at the end of a Feed call — only ever
// an in-progress frame whose header or payload hasn't fully arrived yet —
// are retained here and prepended to the next Feed call's chunk, so a
// frame that straddles two reads is assembled correctly instead of lost.
// A run of garbage is fully scanned and discarded within the same Feed
// call no matter how long it is, so sustained non-marker traffic never
// grows residual past what one call already drained.
type Decoder struct {
	maxFrameLength int
	residual       []byte
}

// NewDecoder constructs a Decoder that rejects any FRAME_LENGTH outside
// (0, maxFrameLength].
func NewDecoder(maxFrameLength int) *Decoder {
	if maxFrameLength <= 0 {
		panic("wire: maxFrameLength must be positive")
	}
	return &Decoder{maxFrameLength: maxFrameLength}
}

// Feed consumes chunk (plus any residual bytes carried from a prior call),
// emitting every complete frame found to handle, in arrival order. It
// returns a non-nil *FrameNonPositiveError or *FrameOversizeError if an
// illegal FRAME_LENGTH is encountered; this is fatal to the connection and
// the caller must close the channel. On any other return, the connection
// remains open and Feed may be called again with the next chunk.
func (d *Decoder) Feed(chunk []byte, handle FrameHandler) error {
	data := make([]byte, 0, len(d.residual)+len(chunk))
	data = append(data, d.residual...)
	data = append(data, chunk...)

	pos := 0
	for {
		frameStart, scanEnd, found := seekStartMarker(data, pos, MaxGarbageTolerance)
		if !found {
			if scanEnd >= len(data) {
				// Every byte through the end of the currently-buffered data
				// was examined and discarded as garbage — nothing survives
				// to carry forward, so a sustained garbage flood never
				// grows residual past what this single Feed call already
				// drained.
				d.residual = d.residual[:0]
				return nil
			}
			// This tolerance window was garbage; keep scanning the next
			// window within the same call instead of yielding the
			// unexamined remainder untouched (that remainder could be
			// arbitrarily large — up to one full read buffer — and
			// carrying it forward unbounded is what let garbage floods
			// grow residual without limit).
			pos = scanEnd
			continue
		}

		afterMarker := frameStart + 1
		if len(data)-afterMarker < FrameLengthSize {
			d.residual = append(d.residual[:0], data[frameStart:]...)
			return nil
		}

		frameLength := int32(bytesutil.Uint32BE(data[afterMarker : afterMarker+FrameLengthSize]))
		afterLen := afterMarker + FrameLengthSize

		if frameLength <= 0 {
			d.residual = d.residual[:0]
			return &FrameNonPositiveError{FrameLength: frameLength}
		}
		if int(frameLength) > d.maxFrameLength {
			d.residual = d.residual[:0]
			return &FrameOversizeError{FrameLength: frameLength, Max: int32(d.maxFrameLength)}
		}

		payloadSize := int(frameLength) - DataTypeSize
		// Resolved Open Question 1: FRAME_LENGTH = 1 (marker) + payload_size,
		// so the bytes still required past the length field are exactly
		// DataTypeSize + payloadSize — not payloadSize alone.
		if len(data)-afterLen < DataTypeSize+payloadSize {
			d.residual = append(d.residual[:0], data[frameStart:]...)
			return nil
		}

		marker := data[afterLen]
		payloadStart := afterLen + DataTypeSize
		payload := data[payloadStart : payloadStart+payloadSize]

		handle(marker, payload)

		pos = payloadStart + payloadSize
	}
}

// seekStartMarker scans data[from:] for StartMarker, never examining more
// than scanLimit bytes. It reports the absolute index of the marker and
// true if found; otherwise it reports how far the scan reached (capped at
// len(data)) and false.
func seekStartMarker(data []byte, from int, scanLimit int) (markerIdx int, scanEnd int, found bool) {
	end := len(data)
	if from+scanLimit < end {
		end = from + scanLimit
	}
	for i := from; i < end; i++ {
		if data[i] == StartMarker {
			return i, end, true
		}
	}
	return 0, end, false
}
