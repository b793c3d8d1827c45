package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"vn.io.arda/notify/internal/application"
	"vn.io.arda/notify/internal/domain"
	"vn.io.arda/notify/internal/messages"
	"vn.io.arda/notify/internal/transport/mw"
)

const maxBodyBytes = 1 << 20

// Handler holds all HTTP handler methods.
type Handler struct {
	svc *application.Service
	hub *Hub
}

// NewHandler creates a new Handler.
func NewHandler(svc *application.Service, hub *Hub) *Handler {
	return &Handler{svc: svc, hub: hub}
}

// --- Notifications ---

// List GET /notify
func (h *Handler) List(c echo.Context) error {
	rc := mw.RequestContext(c)
	in, err := application.ParseListInput(rc.Lang, c.QueryParam("query"), c.QueryParam("limit"), c.QueryParam("offset"))
	if err != nil {
		return respondQueryError(c, rc.Lang, err)
	}
	page, err := h.svc.List(c.Request().Context(), rc, in)
	if err != nil {
		return respondQueryError(c, rc.Lang, err)
	}
	return c.JSON(http.StatusOK, page)
}

// ListSelf GET /notify/_self
func (h *Handler) ListSelf(c echo.Context) error {
	rc := mw.RequestContext(c)
	in, err := application.ParseListInput(rc.Lang, c.QueryParam("query"), c.QueryParam("limit"), c.QueryParam("offset"))
	if err != nil {
		return respondQueryError(c, rc.Lang, err)
	}
	page, err := h.svc.ListSelf(c.Request().Context(), rc, in)
	if err != nil {
		return respondQueryError(c, rc.Lang, err)
	}
	return c.JSON(http.StatusOK, page)
}

// Create POST /notify
func (h *Handler) Create(c echo.Context) error {
	rc := mw.RequestContext(c)
	n, ok, err := h.bindNotification(c, rc.Lang)
	if !ok {
		return err
	}
	saved, err := h.svc.Create(c.Request().Context(), rc, n)
	if err != nil {
		return respondError(c, rc.Lang, err)
	}
	return created(c, saved)
}

// CreateByUsername POST /notify/_username/:username
func (h *Handler) CreateByUsername(c echo.Context) error {
	rc := mw.RequestContext(c)
	n, ok, err := h.bindNotification(c, rc.Lang)
	if !ok {
		return err
	}
	saved, err := h.svc.CreateByUsername(c.Request().Context(), rc, c.Param("username"), n)
	if err != nil {
		return respondError(c, rc.Lang, err)
	}
	return created(c, saved)
}

// Get GET /notify/:id
func (h *Handler) Get(c echo.Context) error {
	rc := mw.RequestContext(c)
	n, err := h.svc.Get(c.Request().Context(), rc, c.Param("id"))
	if err != nil {
		return respondError(c, rc.Lang, err)
	}
	return c.JSON(http.StatusOK, n)
}

// Update PUT /notify/:id
func (h *Handler) Update(c echo.Context) error {
	rc := mw.RequestContext(c)
	n, ok, err := h.bindNotification(c, rc.Lang)
	if !ok {
		return err
	}
	if err := h.svc.Update(c.Request().Context(), rc, c.Param("id"), n); err != nil {
		return respondError(c, rc.Lang, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Delete DELETE /notify/:id
func (h *Handler) Delete(c echo.Context) error {
	rc := mw.RequestContext(c)
	if err := h.svc.Delete(c.Request().Context(), rc, c.Param("id")); err != nil {
		return respondError(c, rc.Lang, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteSelf DELETE /notify/_self?olderthan=YYYY-MM-DD
func (h *Handler) DeleteSelf(c echo.Context) error {
	rc := mw.RequestContext(c)
	var olderThan *time.Time
	if raw := c.QueryParam("olderthan"); raw != "" {
		t, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return c.String(http.StatusBadRequest, messages.Get(rc.Lang, messages.InvalidOlderDay, raw))
		}
		olderThan = &t
	}
	count, err := h.svc.DeleteSelf(c.Request().Context(), rc, olderThan)
	if err != nil {
		return respondError(c, rc.Lang, err)
	}
	log.Info().Str("tenant", rc.Tenant).Str("user", rc.UserID).Int64("deleted", count).Msg("own notifications deleted")
	return c.NoContent(http.StatusNoContent)
}

// --- Patron notices ---

// PatronNotice POST /patron-notice
func (h *Handler) PatronNotice(c echo.Context) error {
	rc := mw.RequestContext(c)
	body, ok, err := readBody(c, rc.Lang)
	if !ok {
		return err
	}
	if ok, err := validateBody(c, rc.Lang, patronNoticeSchema, body); !ok {
		return err
	}
	var notice domain.PatronNotice
	if err := json.Unmarshal(body, &notice); err != nil {
		return c.String(http.StatusBadRequest, messages.Get(rc.Lang, messages.InvalidBody, err.Error()))
	}
	if err := h.svc.CreatePatronNotice(c.Request().Context(), rc, notice); err != nil {
		return respondError(c, rc.Lang, err)
	}
	return c.NoContent(http.StatusOK)
}

// --- SSE Handler ---

// Stream GET /notify/_self/stream: SSE endpoint
func (h *Handler) Stream(c echo.Context) error {
	rc := mw.RequestContext(c)
	if !rc.HasIdentity() {
		return c.String(http.StatusBadRequest, messages.Get(rc.Lang, messages.NoUserID))
	}

	w := c.Response()
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable proxy buffering
	w.WriteHeader(http.StatusOK)

	sub := h.hub.Subscribe(rc.Tenant, rc.UserID)
	defer h.hub.Unsubscribe(sub)

	fmt.Fprint(w, "event: connected\ndata: {\"status\":\"ok\"}\n\n")
	w.Flush()

	log.Info().Str("tenant", rc.Tenant).Str("user", rc.UserID).Msg("SSE stream opened")

	ctx := c.Request().Context()
	for {
		select {
		case frame, ok := <-sub.Frames():
			if !ok {
				return nil
			}
			if _, err := w.Write(frame); err != nil {
				return nil
			}
			w.Flush()

		case <-ctx.Done():
			log.Info().Str("user", rc.UserID).Msg("SSE stream closed by client")
			return nil
		}
	}
}

// --- Healthcheck ---

// Health GET /admin/health
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":      "ok",
		"sse_clients": h.hub.Count(),
	})
}

// --- Helpers ---

// bindNotification reads and schema-checks a notification body. When ok is false the
// response has already been written and err is what the handler must return.
func (h *Handler) bindNotification(c echo.Context, lang string) (*domain.Notification, bool, error) {
	body, ok, err := readBody(c, lang)
	if !ok {
		return nil, false, err
	}
	if ok, err := validateBody(c, lang, notificationSchema, body); !ok {
		return nil, false, err
	}
	var n domain.Notification
	if err := json.Unmarshal(body, &n); err != nil {
		return nil, false, c.String(http.StatusBadRequest, messages.Get(lang, messages.InvalidBody, err.Error()))
	}
	return &n, true, nil
}

// readBody returns the request body. An empty or unreadable body is answered with a 400.
func readBody(c echo.Context, lang string) ([]byte, bool, error) {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxBodyBytes))
	if err == nil && len(body) == 0 {
		err = io.ErrUnexpectedEOF
	}
	if err != nil {
		return nil, false, c.String(http.StatusBadRequest, messages.Get(lang, messages.InvalidBody, err.Error()))
	}
	return body, true, nil
}

func created(c echo.Context, n *domain.Notification) error {
	c.Response().Header().Set(echo.HeaderLocation, "/notify/"+n.ID)
	return c.JSON(http.StatusCreated, n)
}
