package command

import (
	"context"
	"fmt"
	"strings"

	"zapnode/internal/model"
	"zapnode/pkg/wweb"
)

type infoCommand struct {
	features model.Features
}

// NewInfo reports the bot's feature toggles and the current chat.
func NewInfo(features model.Features) Command {
	return infoCommand{features: features}
}

func (infoCommand) Name() string        { return "info" }
func (infoCommand) Description() string { return "Show bot information and settings" }
func (infoCommand) Usage() string       { return "!info" }

func (c infoCommand) Execute(ctx context.Context, req Request) (string, error) {
	chatKind := "Other"
	if wweb.IsPrivateChat(req.ChatID) {
		chatKind = "Private"
	}

	var b strings.Builder
	b.WriteString("🤖 *ZapNode Bot Info*\n\n")

	b.WriteString("⚙️ *Features:*\n")
	fmt.Fprintf(&b, "• Auto Reply: %s\n", mark(c.features.AutoReply))
	fmt.Fprintf(&b, "• Welcome Message: %s\n\n", mark(c.features.WelcomeMessage))

	b.WriteString("🔍 *Message Filters:*\n")
	fmt.Fprintf(&b, "• Ignore Groups: %s\n", mark(c.features.IgnoreGroups))
	fmt.Fprintf(&b, "• Ignore Status: %s\n", mark(c.features.IgnoreStatus))
	fmt.Fprintf(&b, "• Ignore Newsletters: %s\n\n", mark(c.features.IgnoreNewsletters))

	b.WriteString("💬 *Chat Info:*\n")
	fmt.Fprintf(&b, "• Type: %s\n", chatKind)
	fmt.Fprintf(&b, "• Contact: %s\n", req.From)
	fmt.Fprintf(&b, "• Chat ID: %s\n\n", req.ChatID)

	b.WriteString("📝 Use *!help* to see available commands")
	return b.String(), nil
}

func mark(enabled bool) string {
	if enabled {
		return "✅"
	}
	return "❌"
}
