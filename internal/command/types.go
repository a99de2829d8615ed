package command

// Request carries the context of one command invocation.
type Request struct {
	SessionID string
	From      string
	ChatID    string
	Args      []string
}
