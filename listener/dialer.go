package listener

import (
	"fmt"
	"net"
	"time"

	"github.com/jpillora/backoff"
	"github.com/rs/zerolog/log"

	"github.com/go-fastsocket/fastsocket/engine"
	"github.com/go-fastsocket/fastsocket/pool"
)

// Dialer establishes outbound connections with exponential-backoff
// retries, the client-side counterpart implied by the teacher's own
// Client type and its handshake-timeout test.
type Dialer struct {
	Pool        *pool.Pool
	ConnOptions engine.Options

	// Backoff configures retry spacing; a zero value gets sane defaults
	// (100ms..10s, factor 2) on first use.
	Backoff *backoff.Backoff

	// MaxAttempts bounds how many dial attempts Dial makes before giving
	// up; <= 0 means exactly one attempt, no retry.
	MaxAttempts int

	// DialTimeout bounds each individual dial attempt; <= 0 means no
	// per-attempt timeout.
	DialTimeout time.Duration
}

func (d *Dialer) backoffOrDefault() *backoff.Backoff {
	if d.Backoff != nil {
		return d.Backoff
	}
	return &backoff.Backoff{
		Min:    100 * time.Millisecond,
		Max:    10 * time.Second,
		Factor: 2,
		Jitter: true,
	}
}

// Dial connects to addr, retrying with backoff up to MaxAttempts times.
func (d *Dialer) Dial(addr string) (*engine.Conn, error) {
	b := d.backoffOrDefault()
	b.Reset()

	attempts := d.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		raw, err := d.dialOnce(addr)
		if err == nil {
			return engine.NewConn(raw, d.Pool, d.ConnOptions), nil
		}
		lastErr = err
		if i == attempts-1 {
			break
		}
		wait := b.Duration()
		log.Warn().Err(err).Str("addr", addr).Dur("retry_in", wait).Int("attempt", i+1).Msg("dial failed, retrying")
		time.Sleep(wait)
	}
	return nil, fmt.Errorf("listener: dial %s failed after %d attempts: %w", addr, attempts, lastErr)
}

func (d *Dialer) dialOnce(addr string) (net.Conn, error) {
	if d.DialTimeout > 0 {
		return net.DialTimeout("tcp", addr, d.DialTimeout)
	}
	return net.Dial("tcp", addr)
}
