package http

import (
	"errors"

	"github.com/gin-gonic/gin"

	"zapnode/internal/storage"
	"zapnode/pkg/response"
)

// Stats godoc
// @Summary     Database statistics
// @Description Aggregate counters over sessions, messages, contacts and commands.
// @Tags        Database
// @Produce     json
// @Success     200 {object} response.Resp
// @Failure     500 {object} response.Resp "Internal Server Error"
// @Router      /api/v1/database/stats [GET]
func (h *handler) Stats(c *gin.Context) {
	ctx := c.Request.Context()

	stats, err := h.store.Stats(ctx)
	if err != nil {
		h.l.Errorf(ctx, "storage.delivery.Stats: %v", err)
		response.InternalError(c, err)
		return
	}
	response.OK(c, stats)
}

// Messages godoc
// @Summary     Query messages
// @Description Paginated messages, newest first, optionally filtered by session and chat.
// @Tags        Database
// @Produce     json
// @Param       session_id query string false "Session id"
// @Param       chat_id    query string false "Chat id"
// @Param       limit      query int    false "Page size (default 50, max 200)"
// @Param       offset     query int    false "Offset"
// @Success     200 {object} response.Resp
// @Failure     500 {object} response.Resp "Internal Server Error"
// @Router      /api/v1/database/messages [GET]
func (h *handler) Messages(c *gin.Context) {
	ctx := c.Request.Context()

	var req messagesReq
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, err, nil)
		return
	}

	msgs, err := h.store.QueryMessages(ctx, req.toQuery())
	if err != nil {
		h.l.Errorf(ctx, "storage.delivery.Messages: %v", err)
		response.InternalError(c, err)
		return
	}
	response.OK(c, newMessagesResp(msgs, req.Limit, req.Offset))
}

// Search godoc
// @Summary     Search messages
// @Description Full-text-ish search over message bodies.
// @Tags        Database
// @Produce     json
// @Param       q          query string true  "Search term"
// @Param       session_id query string false "Session id"
// @Param       limit      query int    false "Page size (default 50, max 200)"
// @Success     200 {object} response.Resp
// @Failure     400 {object} response.Resp "Bad Request"
// @Failure     500 {object} response.Resp "Internal Server Error"
// @Router      /api/v1/database/messages/search [GET]
func (h *handler) Search(c *gin.Context) {
	ctx := c.Request.Context()

	var req searchReq
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, err, nil)
		return
	}
	if req.Term == "" {
		response.Error(c, errors.New("q is required"), nil)
		return
	}

	msgs, err := h.store.SearchMessages(ctx, req.Term, req.SessionID, clampLimit(req.Limit))
	if err != nil {
		h.l.Errorf(ctx, "storage.delivery.Search: %v", err)
		response.InternalError(c, err)
		return
	}
	response.OK(c, newMessagesResp(msgs, req.Limit, 0))
}

// Contacts godoc
// @Summary     Query contacts
// @Description Contacts for a session, most recently seen first.
// @Tags        Database
// @Produce     json
// @Param       session_id query string false "Session id"
// @Param       limit      query int    false "Page size (default 50, max 200)"
// @Param       offset     query int    false "Offset"
// @Success     200 {object} response.Resp
// @Failure     500 {object} response.Resp "Internal Server Error"
// @Router      /api/v1/database/contacts [GET]
func (h *handler) Contacts(c *gin.Context) {
	ctx := c.Request.Context()

	var req contactsReq
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, err, nil)
		return
	}

	contacts, err := h.store.QueryContacts(ctx, storage.ContactQuery{
		SessionID: req.SessionID,
		Limit:     clampLimit(req.Limit),
		Offset:    req.Offset,
	})
	if err != nil {
		h.l.Errorf(ctx, "storage.delivery.Contacts: %v", err)
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"contacts": contacts, "total": len(contacts)})
}

// TopContacts godoc
// @Summary     Busiest contacts
// @Description Contacts ordered by message count for a session.
// @Tags        Database
// @Produce     json
// @Param       session_id query string true  "Session id"
// @Param       limit      query int    false "Page size (default 10)"
// @Success     200 {object} response.Resp
// @Failure     400 {object} response.Resp "Bad Request"
// @Failure     500 {object} response.Resp "Internal Server Error"
// @Router      /api/v1/database/contacts/top [GET]
func (h *handler) TopContacts(c *gin.Context) {
	ctx := c.Request.Context()

	var req topContactsReq
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, err, nil)
		return
	}
	if req.SessionID == "" {
		response.Error(c, errors.New("session_id is required"), nil)
		return
	}
	limit := req.Limit
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	contacts, err := h.store.TopContacts(ctx, req.SessionID, limit)
	if err != nil {
		h.l.Errorf(ctx, "storage.delivery.TopContacts: %v", err)
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"contacts": contacts, "total": len(contacts)})
}

// Commands godoc
// @Summary     Command usage
// @Description Aggregated command usage counters for a session.
// @Tags        Database
// @Produce     json
// @Param       session_id query string true  "Session id"
// @Param       limit      query int    false "Page size (default 50)"
// @Success     200 {object} response.Resp
// @Failure     400 {object} response.Resp "Bad Request"
// @Failure     500 {object} response.Resp "Internal Server Error"
// @Router      /api/v1/database/commands [GET]
func (h *handler) Commands(c *gin.Context) {
	ctx := c.Request.Context()

	var req commandsReq
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, err, nil)
		return
	}
	if req.SessionID == "" {
		response.Error(c, errors.New("session_id is required"), nil)
		return
	}

	stats, err := h.store.CommandStats(ctx, req.SessionID, clampLimit(req.Limit))
	if err != nil {
		h.l.Errorf(ctx, "storage.delivery.Commands: %v", err)
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"commands": stats, "total": len(stats)})
}
