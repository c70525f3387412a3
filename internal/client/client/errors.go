package client

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrNotLoggedIn  = errors.New("not logged in")
	ErrUnauthorized = errors.New("unauthorized")
)

// knownErrors are matched against the status message the server sends.
var knownErrors = []error{
	common.ErrInvalidCredentials,
	common.ErrTwoFactorRequired,
	common.ErrInvalidTwoFactorCode,
	common.ErrEmailInUse,
	common.ErrTwoFactorNotSetUp,
	common.ErrTwoFactorNotEnabled,
	common.ErrInvalidToken,
	common.ErrTokenExpired,
	common.ErrorNotFound,
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	for _, known := range knownErrors {
		if st.Message() == known.Error() {
			return known
		}
	}

	switch st.Code() {
	case codes.InvalidArgument:
		msg := strings.TrimPrefix(st.Message(), common.ErrInvalidInput.Error()+": ")
		return fmt.Errorf("%w: %s", common.ErrInvalidInput, msg)
	case codes.Unauthenticated, codes.PermissionDenied:
		return ErrUnauthorized
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
