package token

import (
	"net/http"

	"github.com/Abraxas-365/wakka/pkg/errx"
)

var ErrRegistry = errx.NewRegistry("TOKEN")

var (
	CodeInvalid = ErrRegistry.Register("INVALID", errx.TypeValidation, http.StatusBadRequest, "Token is invalid")
	CodeExpired = ErrRegistry.Register("EXPIRED", errx.TypeValidation, http.StatusBadRequest, "Token has expired")
)

func ErrInvalid() *errx.Error { return ErrRegistry.New(CodeInvalid) }
func ErrExpired() *errx.Error { return ErrRegistry.New(CodeExpired) }
