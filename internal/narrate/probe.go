package narrate

import (
	"context"
	"net"
)

// DefaultProbeAddress is a well-known, highly available endpoint.
const DefaultProbeAddress = "8.8.8.8:53"

// Prober reports whether the network synthesizer is worth trying. The
// context carries the probe timeout.
type Prober interface {
	Reachable(ctx context.Context) bool
}

// ProberFunc adapts a function to Prober.
type ProberFunc func(ctx context.Context) bool

// Reachable calls f.
func (f ProberFunc) Reachable(ctx context.Context) bool {
	return f(ctx)
}

var (
	// Online always reports the network as reachable.
	Online Prober = ProberFunc(func(context.Context) bool { return true })
	// Offline always reports the network as unreachable.
	Offline Prober = ProberFunc(func(context.Context) bool { return false })
)

// TCPProber dials Address and reports success.
type TCPProber struct {
	Address string
}

// Reachable dials the address within the context deadline.
func (p TCPProber) Reachable(ctx context.Context) bool {
	addr := p.Address
	if addr == "" {
		addr = DefaultProbeAddress
	}
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}
