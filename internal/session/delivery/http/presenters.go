package http

import (
	"errors"
	"time"

	"zapnode/internal/model"
	"zapnode/pkg/wweb"
)

// --- Request DTOs ---

type createReq struct {
	ID      string     `json:"id" binding:"required,min=1,max=64"`
	Options optionsReq `json:"options"`
}

type optionsReq struct {
	Headless   *bool  `json:"headless"`
	ChromePath string `json:"chrome_path"`
	Reconnect  bool   `json:"reconnect"`
}

func (r createReq) validate() error { return nil }

func (r createReq) toOptions() model.SessionOptions {
	headless := true
	if r.Options.Headless != nil {
		headless = *r.Options.Headless
	}
	return model.SessionOptions{
		Headless:   headless,
		ChromePath: r.Options.ChromePath,
		Reconnect:  r.Options.Reconnect,
	}
}

type sendReq struct {
	To      string `json:"to" binding:"required"`
	Message string `json:"message" binding:"required,min=1,max=4096"`
}

func (r sendReq) validate() error {
	if wweb.FormatNumber(r.To) == "@c.us" {
		return errors.New("to must contain a phone number")
	}
	return nil
}

// --- Response DTOs ---

type sessionResp struct {
	ID         string               `json:"id"`
	State      model.SessionState   `json:"state"`
	IsReady    bool                 `json:"is_ready"`
	CreatedAt  time.Time            `json:"created_at"`
	ReadyAt    *time.Time           `json:"ready_at,omitempty"`
	LastSeenAt *time.Time           `json:"last_seen_at,omitempty"`
	Options    model.SessionOptions `json:"options"`
}

func newSessionResp(info model.SessionInfo) sessionResp {
	return sessionResp{
		ID:         info.ID,
		State:      info.State,
		IsReady:    info.IsReady(),
		CreatedAt:  info.CreatedAt,
		ReadyAt:    info.ReadyAt,
		LastSeenAt: info.LastSeenAt,
		Options:    info.Options,
	}
}

type listResp struct {
	Sessions []sessionResp `json:"sessions"`
	Total    int           `json:"total"`
}

func newListResp(infos []model.SessionInfo) listResp {
	sessions := make([]sessionResp, len(infos))
	for i, info := range infos {
		sessions[i] = newSessionResp(info)
	}
	return listResp{Sessions: sessions, Total: len(sessions)}
}

type statusResp struct {
	ID      string             `json:"id"`
	State   model.SessionState `json:"state"`
	IsReady bool               `json:"is_ready"`
}

type sendResp struct {
	SessionID string `json:"session_id"`
	To        string `json:"to"`
	Sent      bool   `json:"sent"`
}
