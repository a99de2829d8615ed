package command

import "context"

type pingCommand struct{}

// NewPing answers with a pong so users can check the bot is alive.
func NewPing() Command {
	return pingCommand{}
}

func (pingCommand) Name() string        { return "ping" }
func (pingCommand) Description() string { return "Test bot responsiveness" }
func (pingCommand) Usage() string       { return "!ping" }

func (pingCommand) Execute(ctx context.Context, req Request) (string, error) {
	return "🏓 Pong!", nil
}
