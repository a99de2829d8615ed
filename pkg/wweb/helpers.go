package wweb

import "strings"

// Chat id suffixes used by WhatsApp Web.
const (
	suffixPrivate    = "@c.us"
	suffixGroup      = "@g.us"
	suffixNewsletter = "@newsletter"
	statusBroadcast  = "status@broadcast"
)

// FormatNumber converts a phone number to a private chat id
// (e.g. "+244 929 782 402" -> "244929782402@c.us").
func FormatNumber(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String() + suffixPrivate
}

// IsPrivateChat reports whether the chat id is a 1:1 conversation.
func IsPrivateChat(chatID string) bool {
	return strings.HasSuffix(chatID, suffixPrivate)
}

// IsGroupChat reports whether the chat id is a group.
func IsGroupChat(chatID string) bool {
	return strings.HasSuffix(chatID, suffixGroup)
}

// IsStatusBroadcast reports whether the chat id is the status/story feed.
func IsStatusBroadcast(chatID string) bool {
	return chatID == statusBroadcast
}

// IsNewsletter reports whether the chat id is a newsletter channel.
func IsNewsletter(chatID string) bool {
	return strings.HasSuffix(chatID, suffixNewsletter)
}
