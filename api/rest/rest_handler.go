package rest

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Bilal292/livedraw/service"
)

type Handler struct {
	Service *service.Service
}

func NewHandler(svc *service.Service) *Handler {
	return &Handler{Service: svc}
}

type loginRequest struct {
	Provider string `json:"provider"`
	Code     string `json:"code"`
}

type loginResponse struct {
	Username string `json:"username"`
	Id       string `json:"id"`
	Provider string `json:"provider"`
	Token    string `json:"token"`
	Ink      int    `json:"ink"`
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	user, token, err := h.Service.Login(r.Context(), req.Provider, req.Code)
	if err != nil {
		log.Printf("Login failed: %v", err)
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}

	resp := loginResponse{
		Username: user.Username,
		Id:       user.Id,
		Provider: user.Provider,
		Token:    token,
		Ink:      user.Ink,
	}
	h.sendResponse(w, resp)
}

type getUserResponse struct {
	Username  string `json:"username"`
	Id        string `json:"id"`
	Provider  string `json:"provider"`
	Ink       int    `json:"ink"`
	NextClaim string `json:"nextClaim,omitempty"`
}

func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	user, err := h.Service.AuthenticateToken(r.Context(), h.getTokenFromAuthHeader(r))
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	// The ledger, not the stored row, has the live balance
	ink, err := h.Service.Ledger.Balance(r.Context(), user)
	if err != nil {
		log.Printf("Balance lookup failed: %v", err)
		http.Error(w, "failed to load ink balance", http.StatusInternalServerError)
		return
	}

	resp := getUserResponse{
		Username: user.Username,
		Id:       user.Id,
		Provider: user.Provider,
		Ink:      ink,
	}
	if user.LastClaimTime != 0 {
		resp.NextClaim = time.Unix(user.LastClaimTime, 0).Add(service.ClaimCooldown).Format(time.RFC3339)
	}
	h.sendResponse(w, resp)
}

type claimInkResponse struct {
	Success   bool   `json:"success"`
	Ink       int    `json:"ink,omitempty"`
	NextClaim string `json:"next_claim"`
}

// HandleClaimInk is the time-gated refill: 200 ink every 8 hours.
func (h *Handler) HandleClaimInk(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	user, err := h.Service.AuthenticateToken(r.Context(), h.getTokenFromAuthHeader(r))
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	result, err := h.Service.Ledger.Claim(r.Context(), user)
	if err != nil {
		log.Printf("Claim failed for user %s: %v", user.Id, err)
		http.Error(w, "failed to claim ink", http.StatusInternalServerError)
		return
	}

	resp := claimInkResponse{
		Success:   result.Success,
		NextClaim: result.NextClaim.Format(time.RFC3339),
	}
	if result.Success {
		resp.Ink = result.Ink
	}
	h.sendResponse(w, resp)
}

type drawingChunksResponse struct {
	Data     []json.RawMessage `json:"data"`
	HasNext  bool              `json:"has_next"`
	NextPage *int              `json:"next_page"`
}

// HandleDrawingChunks serves the drawing history in submission order, one
// numbered chunk at a time, for replay by late joiners.
func (h *Handler) HandleDrawingChunks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	page := 1
	if p := r.URL.Query().Get("page"); p != "" {
		parsed, err := strconv.Atoi(p)
		if err != nil || parsed < 1 {
			http.Error(w, "invalid page number", http.StatusBadRequest)
			return
		}
		page = parsed
	}

	chunk, err := h.Service.GetDrawingChunk(r.Context(), page)
	if err != nil {
		log.Printf("GetDrawingChunk failed: %v", err)
		http.Error(w, "failed to load drawings", http.StatusInternalServerError)
		return
	}

	resp := drawingChunksResponse{
		Data:    chunk.Data,
		HasNext: chunk.HasNext,
	}
	if chunk.HasNext {
		resp.NextPage = &chunk.NextPage
	}
	h.sendResponse(w, resp)
}

func (h *Handler) sendResponse(w http.ResponseWriter, resp any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

func (h *Handler) getTokenFromAuthHeader(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(authHeader, prefix) {
		return ""
	}
	return strings.TrimPrefix(authHeader, prefix)
}
