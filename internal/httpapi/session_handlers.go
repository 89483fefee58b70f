package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tommyzki/tommyzki-translate/internal/preview"
	"github.com/tommyzki/tommyzki-translate/internal/view"
)

type sessionPayload struct {
	ID      string           `json:"id"`
	Session preview.Snapshot `json:"session"`
	Cards   []view.Card      `json:"cards"`
}

type commitPayload struct {
	Entry   *preview.HistoryEntry `json:"entry"`
	Session sessionPayload        `json:"session"`
}

type setInputRequest struct {
	Text *string `json:"text"`
}

func (s *Server) buildSessionPayload(id string, snap preview.Snapshot) sessionPayload {
	return sessionPayload{
		ID:      id,
		Session: snap,
		Cards:   view.Cards(snap, s.catalog),
	}
}

func (s *Server) lookupSession(c echo.Context) (string, *preview.Orchestrator, error) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return "", nil, preview.ErrSessionNotFound
	}
	orchestrator, err := s.sessions.Get(id)
	if err != nil {
		return "", nil, err
	}
	return id, orchestrator, nil
}

func (s *Server) sessionError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, preview.ErrSessionNotFound), errors.Is(err, preview.ErrClosed):
		return failNotFound(c, "Session not found")
	case errors.Is(err, preview.ErrNoticeNotFound):
		return failNotFound(c, "Notice not found")
	case errors.Is(err, preview.ErrTooManySessions):
		return fail(c, http.StatusServiceUnavailable, "Too many active sessions", nil)
	case errors.Is(err, preview.ErrBusy):
		return fail(c, http.StatusConflict, "A translation is already in progress", nil)
	default:
		s.logger.Error().Err(err).Msg("session request failed")
		return internalError(c, "Failed to process session request")
	}
}

func (s *Server) handleCreateSession(c echo.Context) error {
	id, orchestrator, err := s.sessions.Create()
	if err != nil {
		return s.sessionError(c, err)
	}
	return created(c, s.buildSessionPayload(id, orchestrator.Snapshot()))
}

func (s *Server) handleGetSession(c echo.Context) error {
	id, orchestrator, err := s.lookupSession(c)
	if err != nil {
		return s.sessionError(c, err)
	}
	return success(c, s.buildSessionPayload(id, orchestrator.Snapshot()))
}

func (s *Server) handleDeleteSession(c echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	if err := s.sessions.Delete(id); err != nil {
		return s.sessionError(c, err)
	}
	return success(c, map[string]any{
		"id":     id,
		"closed": true,
	})
}

func (s *Server) handleSetInput(c echo.Context) error {
	id, orchestrator, err := s.lookupSession(c)
	if err != nil {
		return s.sessionError(c, err)
	}

	var req setInputRequest
	if err := decodeJSONBody(c, &req); err != nil {
		return failValidation(c, map[string]string{"body": err.Error()})
	}
	if req.Text == nil {
		return failValidation(c, map[string]string{"text": "is required"})
	}

	snap, err := orchestrator.SetInput(*req.Text)
	if err != nil {
		return s.sessionError(c, err)
	}
	return success(c, s.buildSessionPayload(id, snap))
}

func (s *Server) handleCommit(c echo.Context) error {
	id, orchestrator, err := s.lookupSession(c)
	if err != nil {
		return s.sessionError(c, err)
	}

	entry, err := orchestrator.Commit(c.Request().Context())
	switch {
	case err == nil:
		return success(c, commitPayload{
			Entry:   entry,
			Session: s.buildSessionPayload(id, orchestrator.Snapshot()),
		})
	case errors.Is(err, preview.ErrEmptyInput):
		return failValidation(c, map[string]string{"text": msgEmptyText})
	case errors.Is(err, preview.ErrBusy), errors.Is(err, preview.ErrClosed):
		return s.sessionError(c, err)
	default:
		return fail(c, http.StatusBadGateway, msgTranslateError, s.buildSessionPayload(id, orchestrator.Snapshot()))
	}
}

func (s *Server) handleDismissNotice(c echo.Context) error {
	id, orchestrator, err := s.lookupSession(c)
	if err != nil {
		return s.sessionError(c, err)
	}

	noticeID := strings.TrimSpace(c.Param("notice_id"))
	if err := orchestrator.DismissNotice(noticeID); err != nil {
		return s.sessionError(c, err)
	}
	return success(c, s.buildSessionPayload(id, orchestrator.Snapshot()))
}

// handleSessionEvents streams one "snapshot" event per state change. Slow
// clients only ever see the latest snapshot.
func (s *Server) handleSessionEvents(c echo.Context) error {
	id, orchestrator, err := s.lookupSession(c)
	if err != nil {
		return s.sessionError(c, err)
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.Header().Set("X-Accel-Buffering", "no")
	// Streams outlive the server-wide write timeout.
	_ = http.NewResponseController(res).SetWriteDeadline(time.Time{})
	res.WriteHeader(http.StatusOK)
	res.Flush()

	updates, unsubscribe := orchestrator.Subscribe()
	defer unsubscribe()

	ticker := time.NewTicker(s.opts.KeepAliveInterval)
	defer ticker.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case snap, ok := <-updates:
			if !ok {
				writeClosedEvent(res)
				return nil
			}
			payload, err := json.Marshal(s.buildSessionPayload(id, snap))
			if err != nil {
				s.logger.Error().Err(err).Str("session_id", id).Msg("encode session snapshot failed")
				return nil
			}
			if _, err := fmt.Fprintf(res, "event: snapshot\nid: %d\ndata: %s\n\n", snap.Version, payload); err != nil {
				return nil
			}
			res.Flush()
		case <-ticker.C:
			// Keeps proxies from closing the stream and the session from idling out.
			if _, err := s.sessions.Get(id); err != nil {
				writeClosedEvent(res)
				return nil
			}
			if _, err := fmt.Fprint(res, ": keep-alive\n\n"); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}

func writeClosedEvent(res *echo.Response) {
	_, _ = fmt.Fprint(res, "event: closed\ndata: {}\n\n")
	res.Flush()
}
