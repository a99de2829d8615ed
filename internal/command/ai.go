package command

import (
	"context"
	"fmt"
	"strings"

	"zapnode/internal/conversation"
)

type aiCommand struct {
	memory  *conversation.Memory
	enabled bool
	model   string
}

// NewAI manages the auto-reply bot: status, stats and per-conversation
// history reset.
func NewAI(memory *conversation.Memory, enabled bool, model string) Command {
	return aiCommand{memory: memory, enabled: enabled, model: model}
}

func (aiCommand) Name() string { return "ai" }
func (aiCommand) Description() string {
	return "Gerenciar o bot de IA (ativar/desativar/limpar histórico/status)"
}
func (aiCommand) Usage() string { return "!ai <on|off|clear|status|stats>" }

func (c aiCommand) Execute(ctx context.Context, req Request) (string, error) {
	action := ""
	if len(req.Args) > 0 {
		action = strings.ToLower(req.Args[0])
	}

	switch action {
	case "on":
		if c.enabled {
			return "✅ O bot de IA já está ativado!", nil
		}
		return "⚠️ O bot de IA está desativado nas configurações.\n" +
			"Para ativar, defina AI_RESPONSES=true no arquivo .env e reinicie o servidor.", nil

	case "off":
		return "⚠️ Para desativar o bot de IA, defina AI_RESPONSES=false no arquivo .env e reinicie o servidor.\n\n" +
			"Você pode usar !ai clear para limpar o histórico desta conversa.", nil

	case "clear":
		c.memory.Clear(req.SessionID, req.From)
		return "🗑️ *Histórico de conversa limpo!*\n\n" +
			"O bot de IA não se lembrará de mensagens anteriores desta conversa.", nil

	case "status":
		statusEmoji, statusText := "✅", "Ativo"
		if !c.enabled {
			statusEmoji, statusText = "⚠️", "Desativado (AI_RESPONSES=false)"
		}
		return fmt.Sprintf(
			"%s *Status do Bot de IA*\n\n"+
				"• Status: %s\n"+
				"• Modelo: %s\n\n"+
				"_Use !ai stats para mais informações_",
			statusEmoji, statusText, c.model,
		), nil

	case "stats":
		return fmt.Sprintf(
			"📊 *Estatísticas do Bot de IA*\n\n"+
				"• Conversas Ativas: %d\n"+
				"• Histórico Máx: %d mensagens\n"+
				"• Modelo: %s\n\n"+
				"_Use !ai clear para limpar seu histórico_",
			c.memory.Len(), conversation.MaxEntries, c.model,
		), nil

	default:
		return "🤖 *Comandos do Bot de IA*\n\n" +
			"• !ai status - Ver status do bot\n" +
			"• !ai stats - Ver estatísticas\n" +
			"• !ai clear - Limpar histórico desta conversa\n" +
			"• !ai on - Informações sobre ativação\n" +
			"• !ai off - Informações sobre desativação\n\n" +
			"_O bot responde automaticamente mensagens que não são comandos_", nil
	}
}
