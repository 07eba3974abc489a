package pipeline

import (
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/go-fastsocket/fastsocket/engine"
	"github.com/go-fastsocket/fastsocket/pool"
)

func TestInboundPipelineSwapsCallbackAtomically(t *testing.T) {
	p := pool.New(2)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	ip := NewInboundPipeline()
	var mu sync.Mutex
	var first, second []Message

	ip.SetReceiveCallback(func(msg Message, reply ReplyFunc) {
		mu.Lock()
		first = append(first, msg)
		mu.Unlock()
	})

	go func() {
		raw, err := ln.Accept()
		if err != nil {
			return
		}
		engine.NewConn(raw, p, engine.Options{Handler: ip})
	}()

	clientRaw, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	client := engine.NewConn(clientRaw, p, engine.Options{})
	defer client.Close()
	out := NewOutboundPipeline(client.Encoder())

	out.Handle(Message{Kind: 0x02, I32: 1}, nil, func(err error) { require.NoError(t, err) })
	time.Sleep(50 * time.Millisecond)

	ip.SetReceiveCallback(func(msg Message, reply ReplyFunc) {
		mu.Lock()
		second = append(second, msg)
		mu.Unlock()
	})

	out.Handle(Message{Kind: 0x02, I32: 2}, nil, func(err error) { require.NoError(t, err) })
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, first, 1)
	require.EqualValues(t, 1, first[0].I32)
	require.Len(t, second, 1)
	require.EqualValues(t, 2, second[0].I32)
}

func TestOutboundPipelineHandleDeliversEveryVariant(t *testing.T) {
	p := pool.New(2)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	received := make(chan Message, 8)
	ip := NewInboundPipeline()
	ip.SetReceiveCallback(func(msg Message, reply ReplyFunc) { received <- msg })

	go func() {
		raw, err := ln.Accept()
		if err != nil {
			return
		}
		engine.NewConn(raw, p, engine.Options{Handler: ip})
	}()

	clientRaw, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	client := engine.NewConn(clientRaw, p, engine.Options{})
	defer client.Close()
	out := NewOutboundPipeline(client.Encoder())

	values := []Message{
		{Kind: 0x01, Str: "hi"},
		{Kind: 0x02, I32: 7},
		{Kind: 0x06, Bytes: []byte{1, 2, 3}},
	}
	for _, v := range values {
		out.Handle(v, nil, func(err error) { require.NoError(t, err) })
	}

	for i := 0; i < len(values); i++ {
		select {
		case <-received:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for message %d", i)
		}
	}
}
