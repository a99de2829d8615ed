package http

import (
	"errors"

	"github.com/gin-gonic/gin"

	"zapnode/internal/session"
	"zapnode/pkg/response"
	"zapnode/pkg/wweb"
)

// Create godoc
// @Summary     Create a session
// @Description Allocates a new WhatsApp session and starts its transport connect.
// @Tags        Sessions
// @Accept      json
// @Produce     json
// @Param       body body createReq true "Session data"
// @Success     201  {object} sessionResp
// @Failure     400  {object} response.Resp "Bad Request"
// @Failure     409  {object} response.Resp "Conflict - session id already exists"
// @Failure     500  {object} response.Resp "Internal Server Error"
// @Router      /api/v1/sessions [POST]
func (h *handler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err, nil)
		return
	}
	if err := req.validate(); err != nil {
		response.Error(c, err, nil)
		return
	}

	info, err := h.manager.CreateSession(ctx, req.ID, req.toOptions())
	if err != nil {
		if errors.Is(err, session.ErrDuplicateSession) {
			response.Conflict(c, err)
			return
		}
		h.l.Errorf(ctx, "session.delivery.Create: %v", err)
		response.InternalError(c, err)
		return
	}

	response.Created(c, newSessionResp(info))
}

// List godoc
// @Summary     List sessions
// @Description Returns every session in the table with its state.
// @Tags        Sessions
// @Produce     json
// @Success     200 {object} listResp
// @Router      /api/v1/sessions [GET]
func (h *handler) List(c *gin.Context) {
	response.OK(c, newListResp(h.manager.ListSessions()))
}

// Detail godoc
// @Summary     Get a session
// @Description Returns one session's read-only projection.
// @Tags        Sessions
// @Produce     json
// @Param       id path string true "Session id"
// @Success     200 {object} sessionResp
// @Failure     404 {object} response.Resp "Not Found"
// @Router      /api/v1/sessions/{id} [GET]
func (h *handler) Detail(c *gin.Context) {
	info, ok := h.manager.GetSessionInfo(c.Param("id"))
	if !ok {
		response.NotFound(c, session.ErrSessionNotFound)
		return
	}
	response.OK(c, newSessionResp(info))
}

// Delete godoc
// @Summary     Delete a session
// @Description Logs the session out (best effort) and tears it down.
// @Tags        Sessions
// @Produce     json
// @Param       id path string true "Session id"
// @Success     200 {object} response.Resp
// @Failure     404 {object} response.Resp "Not Found"
// @Router      /api/v1/sessions/{id} [DELETE]
func (h *handler) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	if err := h.manager.DeleteSession(ctx, id); err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			response.NotFound(c, err)
			return
		}
		h.l.Errorf(ctx, "session.delivery.Delete: %v", err)
		response.InternalError(c, err)
		return
	}

	response.OK(c, gin.H{"id": id, "deleted": true})
}

// Status godoc
// @Summary     Session status
// @Description Reports the session's state and readiness.
// @Tags        Sessions
// @Produce     json
// @Param       id path string true "Session id"
// @Success     200 {object} statusResp
// @Failure     404 {object} response.Resp "Not Found"
// @Router      /api/v1/sessions/{id}/status [GET]
func (h *handler) Status(c *gin.Context) {
	info, ok := h.manager.GetSessionInfo(c.Param("id"))
	if !ok {
		response.NotFound(c, session.ErrSessionNotFound)
		return
	}
	response.OK(c, statusResp{ID: info.ID, State: info.State, IsReady: info.IsReady()})
}

// Send godoc
// @Summary     Send a message
// @Description Sends text through a ready session. Not retried on failure.
// @Tags        Sessions
// @Accept      json
// @Produce     json
// @Param       id   path string  true "Session id"
// @Param       body body sendReq true "Message"
// @Success     200  {object} sendResp
// @Failure     400  {object} response.Resp "Bad Request / session not ready"
// @Failure     404  {object} response.Resp "Not Found"
// @Failure     500  {object} response.Resp "Transport error"
// @Router      /api/v1/sessions/{id}/send [POST]
func (h *handler) Send(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	var req sendReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err, nil)
		return
	}
	if err := req.validate(); err != nil {
		response.Error(c, err, nil)
		return
	}

	target := wweb.FormatNumber(req.To)
	if err := h.manager.Send(ctx, id, target, req.Message); err != nil {
		switch {
		case errors.Is(err, session.ErrSessionNotFound):
			response.NotFound(c, err)
		case errors.Is(err, session.ErrNotReady):
			response.Error(c, err, nil)
		default:
			h.l.Errorf(ctx, "session.delivery.Send: %v", err)
			response.InternalError(c, err)
		}
		return
	}

	response.OK(c, sendResp{SessionID: id, To: target, Sent: true})
}
