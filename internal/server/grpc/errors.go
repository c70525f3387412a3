package grpc

import (
	"errors"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// toStatus maps service errors to gRPC statuses. The message is the coarse
// error kind only; internal details are never sent.
func toStatus(err error) error {
	switch {
	case errors.Is(err, common.ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrInvalidCredentials):
		return status.Error(codes.Unauthenticated, common.ErrInvalidCredentials.Error())
	case errors.Is(err, common.ErrTwoFactorRequired):
		return status.Error(codes.Unauthenticated, common.ErrTwoFactorRequired.Error())
	case errors.Is(err, common.ErrInvalidTwoFactorCode):
		return status.Error(codes.Unauthenticated, common.ErrInvalidTwoFactorCode.Error())
	case errors.Is(err, common.ErrTokenExpired):
		return status.Error(codes.Unauthenticated, common.ErrTokenExpired.Error())
	case errors.Is(err, common.ErrInvalidToken):
		return status.Error(codes.Unauthenticated, common.ErrInvalidToken.Error())
	case errors.Is(err, common.ErrEmailInUse):
		return status.Error(codes.AlreadyExists, common.ErrEmailInUse.Error())
	case errors.Is(err, common.ErrTwoFactorNotSetUp):
		return status.Error(codes.FailedPrecondition, common.ErrTwoFactorNotSetUp.Error())
	case errors.Is(err, common.ErrTwoFactorNotEnabled):
		return status.Error(codes.FailedPrecondition, common.ErrTwoFactorNotEnabled.Error())
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, common.ErrorNotFound.Error())
	default:
		return status.Error(codes.Internal, common.ErrorInternal.Error())
	}
}
