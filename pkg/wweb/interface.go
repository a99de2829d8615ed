package wweb

import "context"

// Client is one WhatsApp Web connection. The bridge behind it owns
// authentication and browser automation; this interface is the whole surface
// the rest of the application may touch.
type Client interface {
	// Connect starts the underlying session. Events begin flowing to the
	// handler once the bridge accepts the connection.
	Connect(ctx context.Context) error

	// Send delivers a text message to a chat id (e.g. "244929782402@c.us").
	Send(ctx context.Context, target, text string) error

	// Logout signs the account out, invalidating the stored auth state.
	Logout(ctx context.Context) error

	// Destroy tears down the session and releases bridge resources. The
	// client is unusable afterwards.
	Destroy(ctx context.Context) error

	// Version reports the WhatsApp Web version the bridge is running.
	Version(ctx context.Context) (string, error)
}

// Factory creates transport clients. The session manager depends on this
// rather than on the concrete gateway so tests can inject fakes.
type Factory interface {
	New(opts Options, handler Handler) (Client, error)
}
