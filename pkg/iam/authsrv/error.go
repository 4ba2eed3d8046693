package authsrv

import (
	"net/http"

	"github.com/Abraxas-365/wakka/pkg/errx"
)

var ErrRegistry = errx.NewRegistry("AUTH")

var (
	CodeInvalidCredentials  = ErrRegistry.Register("INVALID_CREDENTIALS", errx.TypeAuthorization, http.StatusUnauthorized, "Invalid email or password")
	CodeInvalidRefreshToken = ErrRegistry.Register("INVALID_REFRESH_TOKEN", errx.TypeValidation, http.StatusBadRequest, "Invalid refresh token")
	CodeEmailSendingFailed  = ErrRegistry.Register("EMAIL_SENDING_FAILED", errx.TypeExternal, http.StatusInternalServerError, "Failed to send email")
	CodeTooManyRequests     = ErrRegistry.Register("TOO_MANY_REQUESTS", errx.TypeBusiness, http.StatusTooManyRequests, "Too many email requests")
)

func ErrInvalidCredentials() *errx.Error  { return ErrRegistry.New(CodeInvalidCredentials) }
func ErrInvalidRefreshToken() *errx.Error { return ErrRegistry.New(CodeInvalidRefreshToken) }
func ErrEmailSendingFailed() *errx.Error  { return ErrRegistry.New(CodeEmailSendingFailed) }
func ErrTooManyRequests() *errx.Error     { return ErrRegistry.New(CodeTooManyRequests) }
