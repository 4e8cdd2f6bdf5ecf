package handler

import (
	"net/http"

	ws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/dafibh/gastify/gastify-backend/internal/websocket"
)

// WebSocketHandler upgrades authenticated requests to event streams
type WebSocketHandler struct {
	hub      *websocket.Hub
	verifier websocket.TokenVerifier
	origins  map[string]struct{}
	upgrader ws.Upgrader
}

// NewWebSocketHandler accepts browser connections only from allowedOrigins
func NewWebSocketHandler(hub *websocket.Hub, verifier websocket.TokenVerifier, allowedOrigins []string) *WebSocketHandler {
	h := &WebSocketHandler{
		hub:      hub,
		verifier: verifier,
		origins:  make(map[string]struct{}, len(allowedOrigins)),
	}
	for _, o := range allowedOrigins {
		h.origins[o] = struct{}{}
	}
	h.upgrader = ws.Upgrader{
		ReadBufferSize:  512,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// checkOrigin lets through non-browser clients, which send no Origin
func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if _, ok := h.origins[origin]; ok {
		return true
	}
	log.Warn().Str("origin", origin).Msg("WebSocket origin rejected")
	return false
}

// HandleWS godoc
// @Summary Event stream
// @Description Upgrades to a WebSocket that receives the user's expense, income, budget, category and session events.
// @Tags realtime
// @Param token query string true "Access token"
// @Success 101
// @Failure 401 {object} ProblemDetails
// @Router /ws [get]
func (h *WebSocketHandler) HandleWS(c echo.Context) error {
	// Browsers cannot set headers on a WebSocket handshake
	token := c.QueryParam("token")
	if token == "" {
		return NewUnauthorizedError(c, "Missing token")
	}
	userID, err := h.verifier.VerifyToken(c.Request().Context(), token)
	if err != nil {
		log.Debug().Err(err).Msg("WebSocket token rejected")
		return NewUnauthorizedError(c, "Invalid token")
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// The upgrader has already written the error response
		log.Debug().Err(err).Str("user_id", userID.String()).Msg("WebSocket upgrade failed")
		return err
	}

	client := websocket.NewClient(conn, userID, h.hub)
	log.Info().
		Str("user_id", userID.String()).
		Str("client_id", client.ID()).
		Msg("WebSocket client connected")

	// The upgraded connection outlives the request
	go client.Serve()
	return nil
}
