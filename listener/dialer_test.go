package listener

import (
	"net"
	"testing"
	"time"

	"github.com/jpillora/backoff"
	"github.com/stretchr/testify/require"

	"github.com/go-fastsocket/fastsocket/pool"
)

func TestDialerSucceedsOnFirstAttempt(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		c, err := ln.Accept()
		if err == nil {
			c.Close()
		}
	}()

	d := &Dialer{Pool: pool.New(2)}
	conn, err := d.Dial(ln.Addr().String())
	require.NoError(t, err)
	require.NotNil(t, conn)
	conn.Close()
}

func TestDialerRetriesThenFailsAfterMaxAttempts(t *testing.T) {
	d := &Dialer{
		Pool:        pool.New(2),
		MaxAttempts: 3,
		Backoff:     &backoff.Backoff{Min: time.Millisecond, Max: 5 * time.Millisecond, Factor: 2},
	}

	// Nothing is listening on this address.
	_, err := d.Dial("127.0.0.1:1")
	require.Error(t, err)
}
