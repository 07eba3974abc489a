package engine

import (
	"sync"
	"sync/atomic"

	"github.com/go-fastsocket/fastsocket/wire"
)

// Context is handed to a connection's receive handler for exactly one
// decoded value. Reply sends a response value back over the same
// connection, subject to the same write-queue serialization as every
// other send on that connection.
type Context struct {
	conn *Conn
	val  wire.Value
}

// Value returns the decoded value this Context carries.
func (c *Context) Value() wire.Value { return c.val }

// Reply frames and enqueues v for sending back to the connection this
// Context arrived on.
func (c *Context) Reply(v wire.Value, onComplete func(), onException func(error)) {
	c.conn.Encoder().Send(v, onComplete, onException)
}

// Conn exposes the underlying connection, e.g. for RemoteAddr or Close.
func (c *Context) Conn() *Conn { return c.conn }

var contextPool = &ContextPool{}

// ContextPool recycles Context values across every receive dispatch on
// every connection.
type ContextPool struct {
	sp         sync.Pool
	na, nr, np atomic.Uint64
}

func (p *ContextPool) acquire(conn *Conn, val wire.Value) *Context {
	v := p.sp.Get()
	if v == nil {
		v = &Context{}
		p.na.Add(1)
	} else {
		p.nr.Add(1)
	}
	ctx := v.(*Context)
	ctx.conn = conn
	ctx.val = val
	return ctx
}

func (p *ContextPool) release(ctx *Context) {
	ctx.conn = nil
	ctx.val = wire.Value{}
	p.sp.Put(ctx)
	p.np.Add(1)
}

func (p *ContextPool) metrics() (na, nr, np uint64) {
	return p.na.Load(), p.nr.Load(), p.np.Load()
}
