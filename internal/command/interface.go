package command

import "context"

// Command is one chat command. Execute returns the reply text to send back
// to the chat; a non-nil error marks the dispatch as failed and triggers the
// generic apology reply.
type Command interface {
	Name() string
	Description() string
	Usage() string
	Execute(ctx context.Context, req Request) (string, error)
}
