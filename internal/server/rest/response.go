package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dmitrijs2005/gophauth/internal/api"
	"github.com/dmitrijs2005/gophauth/internal/common"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, api.ErrorResponse{StatusCode: status, Message: msg})
}

// decode reads a JSON body into req and validates it. An empty body decodes
// as an empty object so that validation reports the missing fields.
func decode(w http.ResponseWriter, r *http.Request, req any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(req); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: malformed JSON body", common.ErrInvalidInput)
	}
	return api.Validate(req)
}

// statusFor maps service errors to HTTP statuses and coarse messages.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, common.ErrInvalidCredentials):
		return http.StatusUnauthorized, common.ErrInvalidCredentials.Error()
	case errors.Is(err, common.ErrTwoFactorRequired):
		return http.StatusUnauthorized, common.ErrTwoFactorRequired.Error()
	case errors.Is(err, common.ErrInvalidTwoFactorCode):
		return http.StatusUnauthorized, common.ErrInvalidTwoFactorCode.Error()
	case errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized, common.ErrTokenExpired.Error()
	case errors.Is(err, common.ErrInvalidToken):
		return http.StatusUnauthorized, common.ErrInvalidToken.Error()
	case errors.Is(err, common.ErrEmailInUse):
		return http.StatusConflict, common.ErrEmailInUse.Error()
	case errors.Is(err, common.ErrTwoFactorNotSetUp):
		return http.StatusBadRequest, common.ErrTwoFactorNotSetUp.Error()
	case errors.Is(err, common.ErrTwoFactorNotEnabled):
		return http.StatusBadRequest, common.ErrTwoFactorNotEnabled.Error()
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, common.ErrorNotFound.Error()
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}
