package message

import (
	"context"
	"errors"
	"strings"

	"zapnode/internal/command"
	"zapnode/internal/conversation"
	"zapnode/internal/model"
	"zapnode/internal/session"
	"zapnode/internal/storage"
	"zapnode/pkg/groq"
	"zapnode/pkg/log"
	"zapnode/pkg/wweb"
)

// commandPrefix marks a message as a command.
const commandPrefix = "!"

// Canned replies sent when the AI collaborator fails, by error category.
const (
	replyRateLimited = "Desculpe, estou recebendo muitas solicitações no momento. Por favor, tente novamente em alguns instantes. ⏳"
	replyMisconfig   = "Desculpe, há um problema com minha configuração. Por favor, contate o administrador. 🔧"
	replyGeneric     = "Desculpe, não consegui processar sua mensagem no momento. Por favor, tente novamente. ❌"

	replyCommandError = "❌ Error executing command. Please try again."
)

// Sender delivers outbound text through a session. Satisfied by the session
// manager.
type Sender interface {
	Send(ctx context.Context, sessionID, target, text string) error
}

// Pipeline routes inbound messages: filter, persist, then dispatch to either
// the command registry or the AI auto-reply path. Handle never lets a failure
// escape; one bad message must not affect other sessions or messages.
type Pipeline struct {
	l        log.Logger
	store    storage.Store
	memory   *conversation.Memory
	registry *command.Registry
	ai       groq.IGroq
	sender   Sender
	features model.Features
	prompt   string
}

// Config wires the pipeline's collaborators. Store, AI and Sender may be nil
// in reduced deployments; the corresponding paths turn into no-ops.
type Config struct {
	Logger       log.Logger
	Store        storage.Store
	Memory       *conversation.Memory
	Registry     *command.Registry
	AI           groq.IGroq
	Sender       Sender
	Features     model.Features
	SystemPrompt string
}

func New(cfg Config) *Pipeline {
	l := cfg.Logger
	if l == nil {
		l = log.NewNop()
	}
	mem := cfg.Memory
	if mem == nil {
		mem = conversation.New()
	}
	reg := cfg.Registry
	if reg == nil {
		reg = command.NewRegistry()
	}
	return &Pipeline{
		l:        l,
		store:    cfg.Store,
		memory:   mem,
		registry: reg,
		ai:       cfg.AI,
		sender:   cfg.Sender,
		features: cfg.Features,
		prompt:   cfg.SystemPrompt,
	}
}

// Handle implements session.MessageSink.
func (p *Pipeline) Handle(ctx context.Context, sessionID string, msg session.InboundMessage) {
	defer func() {
		if r := recover(); r != nil {
			p.l.Errorf(ctx, "message.Pipeline.Handle: recovered panic: %v", r)
		}
	}()

	chatID := msg.From
	if p.shouldIgnore(chatID, msg.IsStatus) {
		p.l.Debugf(ctx, "message.Pipeline.Handle: ignoring message from %s", chatID)
		return
	}
	if !wweb.IsPrivateChat(chatID) {
		p.l.Debugf(ctx, "message.Pipeline.Handle: non-private chat ignored: %s", chatID)
		return
	}

	p.persist(ctx, sessionID, msg)

	body := strings.TrimSpace(msg.Body)
	if strings.HasPrefix(body, commandPrefix) {
		p.handleCommand(ctx, sessionID, msg, body)
		return
	}
	p.handleFreeText(ctx, sessionID, msg, body)
}

func (p *Pipeline) shouldIgnore(chatID string, isStatus bool) bool {
	if p.features.IgnoreGroups && wweb.IsGroupChat(chatID) {
		return true
	}
	if p.features.IgnoreStatus && (isStatus || wweb.IsStatusBroadcast(chatID)) {
		return true
	}
	if p.features.IgnoreNewsletters && wweb.IsNewsletter(chatID) {
		return true
	}
	return false
}

// persist is best-effort; a storage failure is logged and message handling
// continues.
func (p *Pipeline) persist(ctx context.Context, sessionID string, msg session.InboundMessage) {
	if p.store == nil {
		return
	}

	err := p.store.InsertMessage(ctx, model.StoredMessage{
		ID:          msg.ID,
		SessionID:   sessionID,
		From:        msg.From,
		To:          msg.To,
		ChatID:      msg.From,
		ChatType:    model.ChatTypeOf(msg.From),
		Body:        msg.Body,
		MessageType: msg.MessageType,
		HasMedia:    msg.HasMedia,
		Timestamp:   msg.Timestamp,
		IsForwarded: msg.IsForwarded,
		IsStatus:    msg.IsStatus,
	})
	if err != nil {
		p.l.Warnf(ctx, "message.Pipeline.persist: insert message %s: %v", msg.ID, err)
	}

	if err := p.store.UpsertContact(ctx, sessionID, msg.From, ""); err != nil {
		p.l.Warnf(ctx, "message.Pipeline.persist: upsert contact %s: %v", msg.From, err)
	}
}

// ParseCommand splits a prefixed message body into a lower-cased command name
// and its whitespace-separated arguments.
func ParseCommand(body string) (string, []string) {
	fields := strings.Fields(strings.TrimPrefix(strings.TrimSpace(body), commandPrefix))
	if len(fields) == 0 {
		return "", nil
	}
	return strings.ToLower(fields[0]), fields[1:]
}

func (p *Pipeline) handleCommand(ctx context.Context, sessionID string, msg session.InboundMessage, body string) {
	name, args := ParseCommand(body)
	if name == "" {
		return
	}

	cmd, ok := p.registry.Get(name)
	if !ok {
		p.l.Warnf(ctx, "message.Pipeline.handleCommand: unknown command %q from %s", name, msg.From)
		p.logCommand(ctx, sessionID, msg, name, args, false, "unknown command")
		return
	}

	reply, err := cmd.Execute(ctx, command.Request{
		SessionID: sessionID,
		From:      msg.From,
		ChatID:    msg.From,
		Args:      args,
	})
	if err != nil {
		p.l.Errorf(ctx, "message.Pipeline.handleCommand: %s: %v", name, err)
		p.logCommand(ctx, sessionID, msg, name, args, false, err.Error())
		p.reply(ctx, sessionID, msg.From, replyCommandError)
		return
	}

	p.logCommand(ctx, sessionID, msg, name, args, true, "")
	if reply != "" {
		p.reply(ctx, sessionID, msg.From, reply)
	}
}

func (p *Pipeline) logCommand(ctx context.Context, sessionID string, msg session.InboundMessage, name string, args []string, success bool, errText string) {
	if p.store == nil {
		return
	}
	err := p.store.InsertCommandLog(ctx, model.CommandLog{
		SessionID: sessionID,
		Command:   name,
		From:      msg.From,
		ChatID:    msg.From,
		Args:      args,
		Success:   success,
		Error:     errText,
	})
	if err != nil {
		p.l.Warnf(ctx, "message.Pipeline.logCommand: %v", err)
	}
}

func (p *Pipeline) handleFreeText(ctx context.Context, sessionID string, msg session.InboundMessage, body string) {
	if !p.features.AutoReply || p.ai == nil || body == "" {
		return
	}

	p.memory.Append(sessionID, msg.From, conversation.RoleUser, body)

	history := make([]groq.Message, 0, conversation.MaxEntries)
	for _, e := range p.memory.History(sessionID, msg.From) {
		history = append(history, groq.Message{Role: string(e.Role), Content: e.Content})
	}

	completion, err := p.ai.Complete(ctx, p.prompt, history)
	if err != nil {
		p.l.Errorf(ctx, "message.Pipeline.handleFreeText: completion for %s: %v", msg.From, err)
		p.reply(ctx, sessionID, msg.From, cannedReply(err))
		return
	}

	p.memory.Append(sessionID, msg.From, conversation.RoleAssistant, completion)
	p.reply(ctx, sessionID, msg.From, completion)
}

func cannedReply(err error) string {
	switch {
	case errors.Is(err, groq.ErrRateLimited):
		return replyRateLimited
	case errors.Is(err, groq.ErrAuth):
		return replyMisconfig
	default:
		return replyGeneric
	}
}

func (p *Pipeline) reply(ctx context.Context, sessionID, target, text string) {
	if p.sender == nil {
		return
	}
	if err := p.sender.Send(ctx, sessionID, target, text); err != nil {
		p.l.Errorf(ctx, "message.Pipeline.reply: send to %s: %v", target, err)
	}
}
