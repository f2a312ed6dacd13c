// package wa abstracts the WhatsApp messaging capability behind a small
// interface: subscribe to lifecycle events, start the connection, send one
// message, report readiness.
//
// The concrete implementation is [MeowClient], backed by whatsmeow. Keeping
// the session state machine and send pipeline on the interface side makes both
// testable with a fake client emitting synthetic events.
package wa

import "context"

// Events carries the lifecycle callbacks a subscriber registers with a client.
// Nil callbacks are skipped. Callbacks must not block; they run on the
// client's event goroutine.
type Events struct {
	// QR fires when the transport issues a new pairing code to scan.
	QR func(code string)
	// Authenticated fires when pairing succeeds. The transport may not yet
	// accept sends at this point.
	Authenticated func()
	// Ready fires when the session is fully connected and sendable.
	Ready func()
	// AuthFailure fires when the session is rejected or logged out remotely.
	AuthFailure func(reason string)
	// Disconnected fires when an established connection drops.
	Disconnected func(reason string)
}

// Client is the single long-lived messaging session.
type Client interface {
	// Subscribe registers lifecycle callbacks. Must be called before Start.
	Subscribe(events Events)

	// Start brings up the underlying transport and begins emitting lifecycle
	// events. A nil return means bring-up succeeded, not that the session is
	// ready; readiness is event-driven.
	Start(ctx context.Context) error

	// Send delivers one message to a normalized recipient address.
	Send(ctx context.Context, address, text string) error

	// Ready reports whether the session is currently able to send.
	Ready() bool
}

// Sender is the narrow send-only view of a [Client] the batch pipeline needs.
type Sender interface {
	Send(ctx context.Context, address, text string) error
}
