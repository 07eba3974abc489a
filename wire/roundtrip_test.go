package wire

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go-fastsocket/fastsocket/pool"
)

// capturingSender implements Sender by stashing the framed bytes for the
// test to feed straight into a Decoder + Dispatch, rather than going over a
// real connection.
type capturingSender struct {
	frames [][]byte
}

func (s *capturingSender) Send(buf *pool.Buffer, onComplete func(), onException func(error)) {
	s.frames = append(s.frames, append([]byte(nil), buf.Readable()...))
	buf.Release()
	if onComplete != nil {
		onComplete()
	}
}

type capturingReceiver struct {
	values []Value
	errs   []error
}

func (r *capturingReceiver) Receive(v Value)   { r.values = append(r.values, v) }
func (r *capturingReceiver) Exception(e error) { r.errs = append(r.errs, e) }

// roundtrip encodes v, decodes the resulting bytes, and returns what the
// dispatcher produced.
func roundtrip(t *testing.T, v Value) (Value, error) {
	p := pool.New(2)
	sender := &capturingSender{}
	enc := NewEncoder(p, sender)

	var sendErr error
	enc.Send(v, nil, func(err error) { sendErr = err })
	require.NoError(t, sendErr)
	require.Len(t, sender.frames, 1)

	recv := &capturingReceiver{}
	dec := NewDecoder(1 << 20)
	err := dec.Feed(sender.frames[0], func(marker byte, payload []byte) {
		Dispatch(marker, payload, recv)
	})
	require.NoError(t, err)

	if len(recv.errs) > 0 {
		return Value{}, recv.errs[0]
	}
	require.Len(t, recv.values, 1)
	return recv.values[0], nil
}

func TestRoundtripHeartbeat(t *testing.T) {
	got, err := roundtrip(t, Heartbeat())
	require.NoError(t, err)
	require.True(t, got.IsHeartbeat())
}

func TestRoundtripInt32FullRange(t *testing.T) {
	for _, v := range []int32{0, 1, -1, math.MinInt32, math.MaxInt32, 123456789, -123456789} {
		got, err := roundtrip(t, Int32Value(v))
		require.NoError(t, err)
		require.Equal(t, v, got.I32)
	}
}

func TestRoundtripFloat32FiniteAndNonFinite(t *testing.T) {
	vals := []float32{0, -0, 1.5, -1.5, math.MaxFloat32, float32(math.Inf(1)), float32(math.Inf(-1))}
	for _, v := range vals {
		got, err := roundtrip(t, Float32Value(v))
		require.NoError(t, err)
		require.Equal(t, v, got.F32)
	}

	got, err := roundtrip(t, Float32Value(float32(math.NaN())))
	require.NoError(t, err)
	require.True(t, math.IsNaN(float64(got.F32)))
}

func TestRoundtripFloat64FiniteAndNonFinite(t *testing.T) {
	vals := []float64{0, -0, 1.5, -1.5, math.MaxFloat64, math.Inf(1), math.Inf(-1)}
	for _, v := range vals {
		got, err := roundtrip(t, Float64Value(v))
		require.NoError(t, err)
		require.Equal(t, v, got.F64)
	}

	got, err := roundtrip(t, Float64Value(math.NaN()))
	require.NoError(t, err)
	require.True(t, math.IsNaN(got.F64))
}

func TestRoundtripCharFullUTF16Range(t *testing.T) {
	for _, c := range []uint16{0x0000, 0x0041, 0xFFFF, 0x7FFF, 0x8000} {
		got, err := roundtrip(t, CharValue(c))
		require.NoError(t, err)
		require.Equal(t, c, got.Ch)
	}
}

func TestRoundtripStringRandomUTF8IncludingEmptyAndEmbeddedNUL(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	cases := []string{"", "a", "hello, world", "\x00embedded\x00nul\x00", "é中\U0001F600"}
	for i := 0; i < 20; i++ {
		n := rng.Intn(64)
		b := make([]rune, n)
		for j := range b {
			b[j] = rune(32 + rng.Intn(95))
		}
		cases = append(cases, string(b))
	}

	for _, s := range cases {
		got, err := roundtrip(t, StringValue(s))
		require.NoError(t, err)
		require.Equal(t, s, got.Str)
	}
}

func TestRoundtripByteArrayRandomIncludingEmpty(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	cases := [][]byte{{}, {0x00}, {0xFF}}
	for i := 0; i < 20; i++ {
		n := rng.Intn(512)
		b := make([]byte, n)
		rng.Read(b)
		cases = append(cases, b)
	}

	for _, want := range cases {
		got, err := roundtrip(t, BytesValue(want))
		require.NoError(t, err)
		require.Equal(t, want, got.Bytes)
	}
}
