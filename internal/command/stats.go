package command

import (
	"context"
	"fmt"

	"zapnode/internal/storage"
)

type statsCommand struct {
	store storage.Store
}

// NewStats reports aggregate store counters.
func NewStats(store storage.Store) Command {
	return statsCommand{store: store}
}

func (statsCommand) Name() string        { return "stats" }
func (statsCommand) Description() string { return "Show database statistics" }
func (statsCommand) Usage() string       { return "!stats" }

func (c statsCommand) Execute(ctx context.Context, req Request) (string, error) {
	stats, err := c.store.Stats(ctx)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(
		"📊 *ZapNode Statistics*\n\n"+
			"*Database:*\n"+
			"• Total Sessions: %d\n"+
			"• Active Sessions: %d\n"+
			"• Database Size: %s\n\n"+
			"*Messages:*\n"+
			"• Total Messages: %d\n"+
			"• Messages Today: %d\n\n"+
			"*Contacts:*\n"+
			"• Total Contacts: %d\n\n"+
			"*Commands:*\n"+
			"• Total Executed: %d",
		stats.TotalSessions,
		stats.ActiveSessions,
		formatBytes(stats.DatabaseSizeBytes),
		stats.TotalMessages,
		stats.MessagesToday,
		stats.TotalContacts,
		stats.TotalCommands,
	), nil
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
