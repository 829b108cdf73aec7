package httpx

import (
	"context"
	"net"
	"time"

	"github.com/rs/dnscache"
)

// DNSCacheDialContext returns a dial function that caches DNS lookup results.
func DNSCacheDialContext(dialer *net.Dialer) func(context.Context, string, string) (net.Conn, error) {
	resolver := &dnscache.Resolver{}

	go func() {
		t := time.NewTicker(5 * time.Minute)
		defer t.Stop()
		for range t.C {
			resolver.Refresh(true)
		}
	}()

	return func(ctx context.Context, nw, addr string) (conn net.Conn, err error) {
		h, p, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, err
		}
		ips, err := resolver.LookupHost(ctx, h)
		if err != nil {
			return nil, err
		}
		// Try to connect to each IP address in order.
		for _, ip := range ips {
			conn, err = dialer.DialContext(ctx, nw, net.JoinHostPort(ip, p))
			if err == nil {
				break
			}
		}
		return conn, err
	}
}
