package command

import (
	"context"
	"strings"
)

type helpCommand struct {
	registry *Registry
}

// NewHelp lists every registered command with its usage line.
func NewHelp(registry *Registry) Command {
	return helpCommand{registry: registry}
}

func (helpCommand) Name() string        { return "help" }
func (helpCommand) Description() string { return "Show all available commands" }
func (helpCommand) Usage() string       { return "!help" }

func (c helpCommand) Execute(ctx context.Context, req Request) (string, error) {
	var b strings.Builder
	b.WriteString("📚 *Available Commands:*\n\n")

	for _, cmd := range c.registry.All() {
		usage := cmd.Usage()
		if usage == "" {
			usage = "!" + cmd.Name()
		}
		desc := cmd.Description()
		if desc == "" {
			desc = "No description"
		}
		b.WriteString("*" + usage + "*\n")
		b.WriteString(desc + "\n\n")
	}

	return strings.TrimRight(b.String(), "\n"), nil
}
