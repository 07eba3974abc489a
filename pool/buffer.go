// Package pool implements the fixed-capacity, size-classed buffer pool that
// every frame passes through on its way to or from the wire.
//
// There are exactly three size classes (256, 4096, 65536 bytes). Buffers are
// allocated once, at pool construction, and are never grown, shrunk, or
// freed individually: the pool is a closed loop of pre-allocated memory.
package pool

import "github.com/lithdew/bytesutil"

// Buffer is a pooled, fixed-capacity byte region with logical write and read
// cursors, modeled after java.nio.ByteBuffer's put/flip/clear lifecycle.
//
// A Buffer is leased by exactly one holder at a time and must be returned to
// its originating Pool via Release on every exit path.
type Buffer struct {
	data  []byte
	class int // capacity this buffer was allocated at; one of the size classes
	pos   int // write cursor while filling, read cursor after Flip
	limit int // readable bound after Flip; equals pos at end of fill
	pool  *Pool
}

// Cap returns the buffer's fixed capacity (its size class).
func (b *Buffer) Cap() int { return b.class }

// reset clears the cursors so the buffer is ready to be filled again.
func (b *Buffer) reset() {
	b.pos = 0
	b.limit = b.class
}

// PutByte appends a single byte at the write cursor.
func (b *Buffer) PutByte(v byte) {
	b.data[b.pos] = v
	b.pos++
}

// PutUint32BE appends a big-endian uint32 at the write cursor, using
// bytesutil's append-style encoder against the buffer's own backing array
// (same technique the wire RPC layer uses to build its frames) so the
// write happens in place with no intermediate allocation.
func (b *Buffer) PutUint32BE(v uint32) {
	bytesutil.AppendUint32BE(b.data[b.pos:b.pos], v)
	b.pos += 4
}

// PutUint16BE appends a big-endian uint16 at the write cursor.
func (b *Buffer) PutUint16BE(v uint16) {
	bytesutil.AppendUint16BE(b.data[b.pos:b.pos], v)
	b.pos += 2
}

// PutUint64BE appends a big-endian uint64 at the write cursor.
func (b *Buffer) PutUint64BE(v uint64) {
	for i := 0; i < 8; i++ {
		b.data[b.pos+i] = byte(v >> uint(56-8*i))
	}
	b.pos += 8
}

// Write appends raw bytes at the write cursor.
func (b *Buffer) Write(p []byte) {
	copy(b.data[b.pos:], p)
	b.pos += len(p)
}

// Flip switches the buffer from fill mode to drain mode: the readable range
// becomes [0, pos), and pos is rewound to 0.
func (b *Buffer) Flip() {
	b.limit = b.pos
	b.pos = 0
}

// Readable returns the unread portion of the buffer after Flip.
func (b *Buffer) Readable() []byte { return b.data[b.pos:b.limit] }

// Advance moves the read cursor forward by n bytes (used by the write engine
// as it drains partial writes).
func (b *Buffer) Advance(n int) { b.pos += n }

// HasRemaining reports whether any unread bytes remain after Flip.
func (b *Buffer) HasRemaining() bool { return b.pos < b.limit }

// Raw exposes the full backing slice at its size-class capacity, for the
// read engine to fill directly from net.Conn.Read.
func (b *Buffer) Raw() []byte { return b.data }

// Release returns the buffer to the pool it was acquired from. After
// Release, the buffer must not be used by the caller.
func (b *Buffer) Release() {
	b.pool.Release(b)
}
