// Package transport provides the full-duplex connection used to exchange
// frames with a session endpoint, behind a seam the session layer can fake.
package transport

import "context"

// Transport is one connection epoch to the session endpoint, from open to
// close. Implementations deliver inbound frames in arrival order from a
// single goroutine.
type Transport interface {
	// Start begins delivering events. onMessage receives each raw inbound
	// frame; onClose fires exactly once when the transport stops, with a nil
	// error on clean close. Both callbacks must be set before any frame can
	// be delivered.
	Start(onMessage func(data []byte), onClose func(err error))

	// Send transmits one raw frame.
	Send(data []byte) error

	// Close tears the connection down. Safe to call more than once.
	Close() error
}

// Dialer resolves a session identifier to a live transport. It owns endpoint
// URL resolution and the protocol upgrade; the session layer never sees
// either.
type Dialer func(ctx context.Context, sessionID string) (Transport, error)
