package listener

import (
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/go-fastsocket/fastsocket/engine"
	"github.com/go-fastsocket/fastsocket/pool"
	"github.com/go-fastsocket/fastsocket/wire"
)

func TestListenerServeTwiceFails(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	l := &Listener{Pool: pool.New(2)}
	go l.Serve(ln, AcceptHandlerFuncs{})

	time.Sleep(20 * time.Millisecond)
	require.ErrorIs(t, l.Serve(ln, AcceptHandlerFuncs{}), ErrListenerAlreadyStarted)
	l.Shutdown()
}

func TestListenerAcceptsAndDispatches(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	p := pool.New(2)
	received := make(chan wire.Value, 1)

	l := &Listener{
		Pool: p,
		ConnOptions: engine.Options{
			Handler: engine.HandlerFunc(func(ctx *engine.Context) {
				received <- ctx.Value()
			}),
		},
	}
	go l.Serve(ln, AcceptHandlerFuncs{})
	defer l.Shutdown()

	clientRaw, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	client := engine.NewConn(clientRaw, p, engine.Options{})
	defer client.Close()

	client.Encoder().Send(wire.StringValue("ping"), nil, func(err error) { require.NoError(t, err) })

	select {
	case v := <-received:
		require.Equal(t, "ping", v.Str)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for accepted connection to dispatch")
	}
}

func TestListenerShutdownClosesTrackedConnections(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	p := pool.New(2)
	var mu sync.Mutex
	var closed []error

	l := &Listener{
		Pool: p,
		ConnOptions: engine.Options{
			OnClose: func(conn *engine.Conn, err error) {
				mu.Lock()
				closed = append(closed, err)
				mu.Unlock()
			},
		},
	}
	go l.Serve(ln, AcceptHandlerFuncs{})

	clientRaw, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer clientRaw.Close()

	time.Sleep(20 * time.Millisecond)
	l.Shutdown()
	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, closed, 1)
}
