package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func dispatchOnce(marker byte, payload []byte) (*Value, error) {
	var got *Value
	var gotErr error
	Dispatch(marker, payload, ReceiveCallbackFunc{
		OnReceive:   func(v Value) { got = &v },
		OnException: func(err error) { gotErr = err },
	})
	return got, gotErr
}

func TestDispatchUnknownMarkerIsProtocolViolation(t *testing.T) {
	_, err := dispatchOnce(0x7F, nil)
	require.Error(t, err)
	_, ok := err.(*ProtocolViolationError)
	require.True(t, ok, "expected *ProtocolViolationError, got %T", err)
}

func TestDispatchShortFixedPayloadIsIncomplete(t *testing.T) {
	for marker, payload := range map[byte][]byte{
		MarkerInt32:   {0, 0, 1},
		MarkerFloat32: {0, 0},
		MarkerFloat64: {0, 0, 0, 0, 0, 0, 0},
		MarkerChar:    {0x41},
	} {
		_, err := dispatchOnce(marker, payload)
		require.Error(t, err, "marker 0x%02X", marker)
		_, ok := err.(*ProtocolIncompleteError)
		require.True(t, ok, "marker 0x%02X: expected *ProtocolIncompleteError, got %T", marker, err)
	}
}

func TestDispatchStringNegativeInnerLengthIsViolation(t *testing.T) {
	payload := []byte{0xFF, 0xFF, 0xFF, 0xFF} // -1 as int32
	_, err := dispatchOnce(MarkerString, payload)
	require.Error(t, err)
	_, ok := err.(*ProtocolViolationError)
	require.True(t, ok, "expected *ProtocolViolationError, got %T", err)
}

func TestDispatchStringInnerLengthExceedsPayloadIsViolation(t *testing.T) {
	payload := []byte{0, 0, 0, 100, 'h', 'i'}
	_, err := dispatchOnce(MarkerString, payload)
	require.Error(t, err)
	_, ok := err.(*ProtocolViolationError)
	require.True(t, ok, "expected *ProtocolViolationError, got %T", err)
}

func TestDispatchBytesMalformedFrameDoesNotAffectNextFrame(t *testing.T) {
	d := NewDecoder(1 << 20)
	bad := frame(MarkerBytes, []byte{0, 0, 0, 100})
	good := frame(MarkerHeartbeat, nil)

	recv := &capturingReceiver{}
	err := d.Feed(append(bad, good...), func(marker byte, payload []byte) {
		Dispatch(marker, payload, recv)
	})
	require.NoError(t, err)
	require.Len(t, recv.errs, 1)
	require.Len(t, recv.values, 1)
	require.True(t, recv.values[0].IsHeartbeat())
}

func TestDispatchStringInvalidUTF8IsViolation(t *testing.T) {
	payload := []byte{0, 0, 0, 2, 0xFF, 0xFE}
	_, err := dispatchOnce(MarkerString, payload)
	require.Error(t, err)
	_, ok := err.(*ProtocolViolationError)
	require.True(t, ok, "expected *ProtocolViolationError, got %T", err)
}

func TestDispatchHeartbeatIgnoresPayload(t *testing.T) {
	got, err := dispatchOnce(MarkerHeartbeat, nil)
	require.NoError(t, err)
	require.True(t, got.IsHeartbeat())
}
