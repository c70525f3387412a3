package rest

import (
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/gophauth/internal/api"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/go-chi/chi/v5"
)

func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	var req api.SignupRequest
	if err := decode(w, r, &req); err != nil {
		s.fail(w, r, "signup", err)
		return
	}

	session, err := s.auth.Signup(r.Context(), req.Email, req.Password)
	if err != nil {
		s.fail(w, r, "signup", err)
		return
	}
	writeJSON(w, http.StatusCreated, toSessionResponse(session))
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if err := decode(w, r, &req); err != nil {
		s.fail(w, r, "login", err)
		return
	}

	session, err := s.auth.Login(r.Context(), req.Email, req.Password, req.TwoFactorCode)
	if err != nil {
		s.fail(w, r, "login", err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(session))
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	list, err := s.auth.ListUsers(r.Context())
	if err != nil {
		s.fail(w, r, "list users", err)
		return
	}

	out := make([]api.User, 0, len(list))
	for _, u := range list {
		out = append(out, api.User{
			ID:               u.ID,
			Email:            u.Email,
			TwoFactorEnabled: u.TwoFactorEnabled,
			CreatedAt:        u.CreatedAt,
			UpdatedAt:        u.UpdatedAt,
		})
	}
	// a bare array, as the route has always returned
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())
	writeJSON(w, http.StatusOK, api.MeResponse{UserID: id.UserID, Email: id.Email})
}

func (s *Server) deleteAccount(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())

	res, err := s.auth.DeleteAccount(r.Context(), id.UserID)
	if err != nil {
		s.fail(w, r, "delete account", err)
		return
	}
	writeJSON(w, http.StatusOK, api.DeleteResponse{Message: res.Message})
}

func (s *Server) deleteAccountByID(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.IdentityFromContext(r.Context())
	target := chi.URLParam(r, "id")

	if _, err := s.auth.DeleteAccount(r.Context(), target); err != nil {
		s.fail(w, r, "delete account", err)
		return
	}

	s.logger.Info(r.Context(), "Account deleted", "user_id", target, "by", caller.UserID)
	writeJSON(w, http.StatusOK, api.DeleteResponse{Message: fmt.Sprintf("Account %s deleted successfully", target)})
}

func (s *Server) deleteByCredentials(w http.ResponseWriter, r *http.Request) {
	var req api.CredentialsRequest
	if err := decode(w, r, &req); err != nil {
		s.fail(w, r, "delete account", err)
		return
	}

	res, err := s.auth.DeleteAccountByCredentials(r.Context(), req.Email, req.Password)
	if err != nil {
		s.fail(w, r, "delete account", err)
		return
	}
	writeJSON(w, http.StatusOK, api.DeleteResponse{Message: res.Message, Email: res.Email})
}

func (s *Server) updateAccount(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())

	var req api.UpdateAccountRequest
	if err := decode(w, r, &req); err != nil {
		s.fail(w, r, "update account", err)
		return
	}

	res, err := s.auth.UpdateAccount(r.Context(), id.UserID, services.AccountUpdate{
		Email:    optional(req.Email),
		Password: optional(req.Password),
	})
	if err != nil {
		s.fail(w, r, "update account", err)
		return
	}
	writeJSON(w, http.StatusOK, toUpdateResponse(res))
}

func (s *Server) updateByCredentials(w http.ResponseWriter, r *http.Request) {
	var req api.UpdateByCredentialsRequest
	if err := decode(w, r, &req); err != nil {
		s.fail(w, r, "update account", err)
		return
	}

	res, err := s.auth.UpdateAccountByCredentials(r.Context(), req.CurrentEmail, req.CurrentPassword, services.AccountUpdate{
		Email:    optional(req.NewEmail),
		Password: optional(req.NewPassword),
	})
	if err != nil {
		s.fail(w, r, "update account", err)
		return
	}
	writeJSON(w, http.StatusOK, toUpdateResponse(res))
}

func (s *Server) enable2FA(w http.ResponseWriter, r *http.Request) {
	var req api.CredentialsRequest
	if err := decode(w, r, &req); err != nil {
		s.fail(w, r, "enable 2fa", err)
		return
	}

	res, err := s.auth.Enable2FA(r.Context(), req.Email, req.Password)
	if err != nil {
		s.fail(w, r, "enable 2fa", err)
		return
	}
	writeJSON(w, http.StatusOK, api.Enable2FAResponse{Message: res.Message, Secret: res.Secret, QRCode: res.QRCode})
}

func (s *Server) verify2FA(w http.ResponseWriter, r *http.Request) {
	var req api.Verify2FARequest
	if err := decode(w, r, &req); err != nil {
		s.fail(w, r, "verify 2fa", err)
		return
	}

	msg, err := s.auth.Verify2FA(r.Context(), req.Email, req.Code)
	if err != nil {
		s.fail(w, r, "verify 2fa", err)
		return
	}
	writeJSON(w, http.StatusOK, api.MessageResponse{Message: msg})
}

func (s *Server) disable2FA(w http.ResponseWriter, r *http.Request) {
	var req api.Disable2FARequest
	if err := decode(w, r, &req); err != nil {
		s.fail(w, r, "disable 2fa", err)
		return
	}

	msg, err := s.auth.Disable2FA(r.Context(), req.Email, req.Password, req.Code)
	if err != nil {
		s.fail(w, r, "disable 2fa", err)
		return
	}
	writeJSON(w, http.StatusOK, api.MessageResponse{Message: msg})
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, msg := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error(r.Context(), op+" failed", "error", err.Error())
	}
	writeError(w, status, msg)
}

func toSessionResponse(s *services.Session) api.SessionResponse {
	return api.SessionResponse{
		AccessToken: s.AccessToken,
		User:        api.UserRef{ID: s.User.ID, Email: s.User.Email},
	}
}

func toUpdateResponse(r *services.UpdateResult) api.UpdateResponse {
	return api.UpdateResponse{
		Message: r.Message,
		User:    api.UserRef{ID: r.User.ID, Email: r.User.Email},
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
