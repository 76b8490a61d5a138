package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-accounts-api/internal/application/account"
	"github.com/go-accounts-api/internal/domain"
	"github.com/go-accounts-api/internal/pkg/validate"
	"github.com/go-accounts-api/internal/transport/http/middleware"
)

// SessionDestroyer revokes a session by its raw token.
type SessionDestroyer interface {
	Destroy(ctx context.Context, token string) error
}

// AccountHandler handles profile reads and writes plus the account
// lifecycle: deactivate, reactivate, permanent delete. Every endpoint
// operates on the authenticated caller; there is no cross-account access.
type AccountHandler struct {
	svc      account.Service
	sessions SessionDestroyer
	secure   bool
}

func NewAccountHandler(svc account.Service, sessions SessionDestroyer, secureCookies bool) *AccountHandler {
	return &AccountHandler{svc: svc, sessions: sessions, secure: secureCookies}
}

func (h *AccountHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	profile, err := h.svc.GetProfile(r.Context(), sess.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ProfileEnvelope{Profile: profile})
}

func (h *AccountHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	profile, err := h.svc.UpdateProfile(r.Context(), sess.UserID, req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ProfileEnvelope{Profile: profile, Message: "profile updated"})
}

func (h *AccountHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.UpdateAvatarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	profile, err := h.svc.UpdateAvatar(r.Context(), sess.UserID, req.AvatarLink)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ProfileEnvelope{Profile: profile, Message: "avatar updated"})
}

// Deactivate soft-deletes the caller's account and revokes the current
// session. Reactivation within the retention window goes through a fresh
// login, which issues a session flagged soft-deleted.
func (h *AccountHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.svc.SoftDelete(r.Context(), sess.UserID); err != nil {
		writeDomainError(w, err)
		return
	}
	h.revokeSession(r)
	clearSessionCookie(w, h.secure)
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "account deactivated"})
}

func (h *AccountHandler) Reactivate(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.svc.Restore(r.Context(), sess.UserID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "account reactivated"})
}

// Delete permanently removes a deactivated account. The account must
// already be soft-deleted; an active account gets 404 here.
func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.svc.HardDelete(r.Context(), sess.UserID); err != nil {
		writeDomainError(w, err)
		return
	}
	h.revokeSession(r)
	clearSessionCookie(w, h.secure)
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "account permanently deleted"})
}

func (h *AccountHandler) revokeSession(r *http.Request) {
	token := middleware.SessionToken(r)
	if token == "" {
		return
	}
	if err := h.sessions.Destroy(r.Context(), token); err != nil {
		slog.Warn("session revoke failed", "err", err)
	}
}
