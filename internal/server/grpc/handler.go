package grpc

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/api"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func (s *GRPCServer) Signup(ctx context.Context, req *api.SignupRequest) (*api.SessionResponse, error) {
	if err := api.Validate(req); err != nil {
		return nil, toStatus(err)
	}

	session, err := s.auth.Signup(ctx, req.Email, req.Password)
	if err != nil {
		s.logFailure(ctx, "signup", err)
		return nil, toStatus(err)
	}

	s.logger.Info(ctx, "Registered", "user_id", session.User.ID)
	return toSessionResponse(session), nil
}

func (s *GRPCServer) Login(ctx context.Context, req *api.LoginRequest) (*api.SessionResponse, error) {
	if err := api.Validate(req); err != nil {
		return nil, toStatus(err)
	}

	session, err := s.auth.Login(ctx, req.Email, req.Password, req.TwoFactorCode)
	if err != nil {
		s.logFailure(ctx, "login", err)
		return nil, toStatus(err)
	}
	return toSessionResponse(session), nil
}

func (s *GRPCServer) Me(ctx context.Context, _ *api.Empty) (*api.MeResponse, error) {
	id, err := identity(ctx)
	if err != nil {
		return nil, err
	}
	return &api.MeResponse{UserID: id.UserID, Email: id.Email}, nil
}

func (s *GRPCServer) ListUsers(ctx context.Context, _ *api.Empty) (*api.ListUsersResponse, error) {
	list, err := s.auth.ListUsers(ctx)
	if err != nil {
		s.logFailure(ctx, "list users", err)
		return nil, toStatus(err)
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
	return &api.ListUsersResponse{Users: out}, nil
}

// DeleteAccount deletes the caller's account, or the account named by
// req.ID when set.
func (s *GRPCServer) DeleteAccount(ctx context.Context, req *api.DeleteAccountRequest) (*api.DeleteResponse, error) {
	id, err := identity(ctx)
	if err != nil {
		return nil, err
	}

	target := id.UserID
	if req.ID != "" {
		target = req.ID
	}

	res, err := s.auth.DeleteAccount(ctx, target)
	if err != nil {
		s.logFailure(ctx, "delete account", err)
		return nil, toStatus(err)
	}

	s.logger.Info(ctx, "Account deleted", "user_id", target, "by", id.UserID)
	if req.ID != "" {
		return &api.DeleteResponse{Message: fmt.Sprintf("Account %s deleted successfully", target)}, nil
	}
	return &api.DeleteResponse{Message: res.Message}, nil
}

func (s *GRPCServer) DeleteAccountByCredentials(ctx context.Context, req *api.CredentialsRequest) (*api.DeleteResponse, error) {
	if err := api.Validate(req); err != nil {
		return nil, toStatus(err)
	}

	res, err := s.auth.DeleteAccountByCredentials(ctx, req.Email, req.Password)
	if err != nil {
		s.logFailure(ctx, "delete account", err)
		return nil, toStatus(err)
	}
	return &api.DeleteResponse{Message: res.Message, Email: res.Email}, nil
}

func (s *GRPCServer) UpdateAccount(ctx context.Context, req *api.UpdateAccountRequest) (*api.UpdateResponse, error) {
	id, err := identity(ctx)
	if err != nil {
		return nil, err
	}
	if err := api.Validate(req); err != nil {
		return nil, toStatus(err)
	}

	res, err := s.auth.UpdateAccount(ctx, id.UserID, services.AccountUpdate{
		Email:    optional(req.Email),
		Password: optional(req.Password),
	})
	if err != nil {
		s.logFailure(ctx, "update account", err)
		return nil, toStatus(err)
	}
	return toUpdateResponse(res), nil
}

func (s *GRPCServer) UpdateAccountByCredentials(ctx context.Context, req *api.UpdateByCredentialsRequest) (*api.UpdateResponse, error) {
	if err := api.Validate(req); err != nil {
		return nil, toStatus(err)
	}

	res, err := s.auth.UpdateAccountByCredentials(ctx, req.CurrentEmail, req.CurrentPassword, services.AccountUpdate{
		Email:    optional(req.NewEmail),
		Password: optional(req.NewPassword),
	})
	if err != nil {
		s.logFailure(ctx, "update account", err)
		return nil, toStatus(err)
	}
	return toUpdateResponse(res), nil
}

func (s *GRPCServer) Enable2FA(ctx context.Context, req *api.CredentialsRequest) (*api.Enable2FAResponse, error) {
	if err := api.Validate(req); err != nil {
		return nil, toStatus(err)
	}

	res, err := s.auth.Enable2FA(ctx, req.Email, req.Password)
	if err != nil {
		s.logFailure(ctx, "enable 2fa", err)
		return nil, toStatus(err)
	}
	return &api.Enable2FAResponse{Message: res.Message, Secret: res.Secret, QRCode: res.QRCode}, nil
}

func (s *GRPCServer) Verify2FA(ctx context.Context, req *api.Verify2FARequest) (*api.MessageResponse, error) {
	if err := api.Validate(req); err != nil {
		return nil, toStatus(err)
	}

	msg, err := s.auth.Verify2FA(ctx, req.Email, req.Code)
	if err != nil {
		s.logFailure(ctx, "verify 2fa", err)
		return nil, toStatus(err)
	}
	return &api.MessageResponse{Message: msg}, nil
}

func (s *GRPCServer) Disable2FA(ctx context.Context, req *api.Disable2FARequest) (*api.MessageResponse, error) {
	if err := api.Validate(req); err != nil {
		return nil, toStatus(err)
	}

	msg, err := s.auth.Disable2FA(ctx, req.Email, req.Password, req.Code)
	if err != nil {
		s.logFailure(ctx, "disable 2fa", err)
		return nil, toStatus(err)
	}
	return &api.MessageResponse{Message: msg}, nil
}

// logFailure records internal failures with their cause; expected
// outcomes such as bad credentials are left to the access log.
func (s *GRPCServer) logFailure(ctx context.Context, op string, err error) {
	if status.Code(toStatus(err)) == codes.Internal {
		s.logger.Error(ctx, op+" failed", "error", err.Error())
	}
}

func identity(ctx context.Context) (*auth.Identity, error) {
	id, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}
	return id, nil
}

func toSessionResponse(s *services.Session) *api.SessionResponse {
	return &api.SessionResponse{
		AccessToken: s.AccessToken,
		User:        api.UserRef{ID: s.User.ID, Email: s.User.Email},
	}
}

func toUpdateResponse(r *services.UpdateResult) *api.UpdateResponse {
	return &api.UpdateResponse{
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
