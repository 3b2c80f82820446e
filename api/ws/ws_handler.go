package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/Bilal292/livedraw/models"
	"github.com/Bilal292/livedraw/service"
	"github.com/gorilla/websocket"
)

// Error messages sent to the submitting client only. Stroke broadcasts carry
// the payload verbatim; these envelopes are the only server-shaped messages.
const (
	errNoInk        = "No ink left"
	errAuthRequired = "Authentication required"
	errBadPayload   = "Invalid drawing payload"
	errSaveFailed   = "Failed to save drawing"
)

type errorMessage struct {
	Error string `json:"error"`
}

type Handler struct {
	Service *service.Service
	Hub     *Hub
}

func NewHandler(svc *service.Service, hub *Hub) *Handler {
	return &Handler{
		Service: svc,
		Hub:     hub,
	}
}

func (h *Handler) NewWsUpgrader(requiredOrigin string) websocket.Upgrader {
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == requiredOrigin
		},
		Subprotocols: []string{"livedraw-v1"},
	}
}

// ServeWS handles websocket requests from the peer. The bearer token rides
// in as a second subprotocol; a missing or invalid token yields an anonymous
// session that still receives broadcasts but may not draw.
func (h *Handler) ServeWS(wsUpgrader websocket.Upgrader, w http.ResponseWriter, r *http.Request, shutdownCtx context.Context) {
	var user models.User
	protocols := strings.Split(r.Header.Get("Sec-WebSocket-Protocol"), ",")
	if len(protocols) == 2 {
		token := strings.TrimSpace(protocols[1])
		authedUser, err := h.Service.AuthenticateToken(r.Context(), token)
		if err != nil {
			log.Printf("WS token rejected, continuing as anonymous: %v", err)
		} else {
			user = authedUser
		}
	}

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Failed to upgrade ws connection: %v", err)
		return
	}

	client := NewClient(h.Hub, conn, user, h.HandleWsMessage)
	h.Hub.Register(client)

	go client.ReadPump()
	go client.WritePump(shutdownCtx)
}

// HandleWsMessage processes one inbound stroke submission. Identity is
// checked before the payload is even parsed; an anonymous sender always
// hears the auth error. The payload itself is opaque: anything that parses
// as a JSON object is accepted and rebroadcast verbatim (sender included).
// All failures go to the sender alone and leave the connection open.
func (h *Handler) HandleWsMessage(client *Client, messageType int, messageBytes []byte) {
	if !client.authenticated() {
		h.sendError(client, errAuthRequired)
		return
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(messageBytes, &payload); err != nil {
		log.Printf("Invalid drawing JSON: %v", err)
		h.sendError(client, errBadPayload)
		return
	}

	_, err := h.Service.SubmitDrawing(context.Background(), client.user, messageBytes)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoInk):
			h.sendError(client, errNoInk)
		default:
			log.Printf("SubmitDrawing failed for user %s: %v", client.user.Id, err)
			h.sendError(client, errSaveFailed)
		}
	}
	// On success the sender hears back through the broadcast itself
}

func (h *Handler) sendError(client *Client, message string) {
	msgBytes, err := json.Marshal(errorMessage{Error: message})
	if err != nil {
		log.Printf("Error marshaling error message: %v", err)
		return
	}

	select {
	case client.Send <- msgBytes:
	default:
		log.Printf("Dropping error reply to backed-up client (user %q)", client.user.Id)
	}
}
