package http

import (
	"zapnode/internal/model"
	"zapnode/internal/storage"
)

// --- Request DTOs ---

type messagesReq struct {
	SessionID string `form:"session_id"`
	ChatID    string `form:"chat_id"`
	Limit     int    `form:"limit"`
	Offset    int    `form:"offset"`
}

func (r messagesReq) toQuery() storage.MessageQuery {
	return storage.MessageQuery{
		SessionID: r.SessionID,
		ChatID:    r.ChatID,
		Limit:     clampLimit(r.Limit),
		Offset:    r.Offset,
	}
}

type searchReq struct {
	Term      string `form:"q"`
	SessionID string `form:"session_id"`
	Limit     int    `form:"limit"`
}

type contactsReq struct {
	SessionID string `form:"session_id"`
	Limit     int    `form:"limit"`
	Offset    int    `form:"offset"`
}

type topContactsReq struct {
	SessionID string `form:"session_id"`
	Limit     int    `form:"limit"`
}

type commandsReq struct {
	SessionID string `form:"session_id"`
	Limit     int    `form:"limit"`
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 200 {
		return 50
	}
	return limit
}

// --- Response DTOs ---

type messagesResp struct {
	Messages []model.StoredMessage `json:"messages"`
	Total    int                   `json:"total"`
	Limit    int                   `json:"limit"`
	Offset   int                   `json:"offset"`
}

func newMessagesResp(msgs []model.StoredMessage, limit, offset int) messagesResp {
	if msgs == nil {
		msgs = []model.StoredMessage{}
	}
	return messagesResp{
		Messages: msgs,
		Total:    len(msgs),
		Limit:    clampLimit(limit),
		Offset:   offset,
	}
}
