package user

import (
	"net/http"

	"github.com/Abraxas-365/wakka/pkg/errx"
)

var ErrRegistry = errx.NewRegistry("USER")

var (
	CodeAlreadyExists = ErrRegistry.Register("ALREADY_EXISTS", errx.TypeConflict, http.StatusConflict, "User already exists")
	CodeDoesNotExist  = ErrRegistry.Register("DOES_NOT_EXIST", errx.TypeNotFound, http.StatusNotFound, "User does not exist")
	CodeNotVerified   = ErrRegistry.Register("NOT_VERIFIED", errx.TypeBusiness, http.StatusBadRequest, "User is not verified")
	CodeNotActive     = ErrRegistry.Register("NOT_ACTIVE", errx.TypeBusiness, http.StatusBadRequest, "User is not active")
	CodeValidation    = ErrRegistry.Register("VALIDATION", errx.TypeValidation, http.StatusBadRequest, "User validation failed")
)

func ErrAlreadyExists() *errx.Error { return ErrRegistry.New(CodeAlreadyExists) }
func ErrDoesNotExist() *errx.Error  { return ErrRegistry.New(CodeDoesNotExist) }
func ErrNotVerified() *errx.Error   { return ErrRegistry.New(CodeNotVerified) }
func ErrNotActive() *errx.Error     { return ErrRegistry.New(CodeNotActive) }
func ErrValidation() *errx.Error    { return ErrRegistry.New(CodeValidation) }
