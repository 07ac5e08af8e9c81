package handlers

import (
	"net/http"
	"strings"

	"rentfolio/internal/auth"
	"rentfolio/internal/websocket"
)

// WSSync upgrades to a websocket that streams sync progress for the
// authenticated user. Browsers cannot set headers on websocket requests, so
// the token may arrive as a query parameter.
func (h *Handler) WSSync(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		authHeader := r.Header.Get("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			token = strings.TrimPrefix(authHeader, "Bearer ")
		}
	}
	if token == "" {
		respondError(w, http.StatusUnauthorized, "missing token")
		return
	}
	claims, err := auth.ParseToken(h.cfg.JWTSecret, token)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	websocket.ServeWS(w, r, h.hub, claims.UserID)
}
