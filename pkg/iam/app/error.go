package app

import (
	"net/http"

	"github.com/Abraxas-365/wakka/pkg/errx"
)

var ErrRegistry = errx.NewRegistry("APP")

var (
	CodeInvalidAppName      = ErrRegistry.Register("INVALID_APP_NAME", errx.TypeValidation, http.StatusBadRequest, "Invalid app name")
	CodeInvalidServerAPIKey = ErrRegistry.Register("INVALID_SERVER_API_KEY", errx.TypeAuthorization, http.StatusForbidden, "Invalid server API key")
	CodeValidation          = ErrRegistry.Register("VALIDATION", errx.TypeValidation, http.StatusBadRequest, "App validation failed")
	CodeAlreadyExists       = ErrRegistry.Register("ALREADY_EXISTS", errx.TypeConflict, http.StatusConflict, "App already exists")
	CodeNotFound            = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "App not found")
)

func ErrInvalidAppName() *errx.Error      { return ErrRegistry.New(CodeInvalidAppName) }
func ErrInvalidServerAPIKey() *errx.Error { return ErrRegistry.New(CodeInvalidServerAPIKey) }
func ErrValidation() *errx.Error          { return ErrRegistry.New(CodeValidation) }
func ErrAlreadyExists() *errx.Error       { return ErrRegistry.New(CodeAlreadyExists) }
func ErrNotFound() *errx.Error            { return ErrRegistry.New(CodeNotFound) }
