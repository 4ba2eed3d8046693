package iamapi

import (
	"context"

	"github.com/Abraxas-365/wakka/pkg/errx"
	"github.com/Abraxas-365/wakka/pkg/iam"
	"github.com/Abraxas-365/wakka/pkg/iam/auth"
	"github.com/Abraxas-365/wakka/pkg/iam/authsrv"
	"github.com/Abraxas-365/wakka/pkg/iam/token"
	"github.com/Abraxas-365/wakka/pkg/iam/user"
	"github.com/Abraxas-365/wakka/pkg/iam/user/usersrv"
	"github.com/Abraxas-365/wakka/pkg/kernel"
	"github.com/Abraxas-365/wakka/pkg/metricsx"
	"github.com/gofiber/fiber/v2"
)

// Pinger is the slice of the database handle the health check needs.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Handlers expone la superficie HTTP del servicio de autenticación.
type Handlers struct {
	auth     *authsrv.Service
	users    *usersrv.Service
	pipeline *auth.Pipeline
	db       Pinger
}

// NewHandlers crea los handlers HTTP.
func NewHandlers(authService *authsrv.Service, users *usersrv.Service, pipeline *auth.Pipeline, db Pinger) *Handlers {
	return &Handlers{
		auth:     authService,
		users:    users,
		pipeline: pipeline,
		db:       db,
	}
}

// RegisterRoutes monta todas las rutas sobre la app de fiber.
func (h *Handlers) RegisterRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	// Token endpoints: tenant resolution only.
	appOnly := h.pipeline.Require(auth.RequireApp)
	api.Post("/obtain-token", appOnly, h.obtainToken)
	api.Post("/refresh-token", appOnly, h.refreshToken)
	api.Post("/send-verification-email", appOnly, h.sendVerificationEmail)
	api.Post("/send-forgot-password-email", appOnly, h.sendForgotPasswordEmail)

	// Management endpoints: tenant + server key.
	server := h.pipeline.Require(auth.RequireApp, auth.RequireServerKey)
	api.Get("/test", server, h.test)
	api.Post("/user", server, h.createUser)
	api.Get("/user/:id", server, h.getUser)
	api.Put("/user/:id", server, h.updateUser)
	api.Delete("/user/:id", server, h.deleteUser)

	// End-user endpoints: tenant + bearer token.
	bearer := h.pipeline.Require(auth.RequireApp, auth.RequireBearerUser)
	api.Get("/me", bearer, h.me)

	// One-time pages, opened from email links. No pipeline requirements:
	// the token itself carries the app binding.
	app.Get("/one-time/verify-email", h.verifyEmailPage)
	app.Get("/one-time/forgot-password", h.forgotPasswordFormPage)
	app.Post("/one-time/forgot-password", h.forgotPasswordSubmit)

	app.Get("/health", h.health)
	app.Get("/metrics", metricsx.Handler())
}

// ============================================================================
// Token endpoints
// ============================================================================

type obtainTokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handlers) obtainToken(c *fiber.Ctx) error {
	var req obtainTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return user.ErrValidation().WithDetail("reason", "invalid request body")
	}

	a := auth.AppFromLocals(c)
	pair, err := h.auth.Login(c.UserContext(), a, req.Email, req.Password)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, pair)
}

type refreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *Handlers) refreshToken(c *fiber.Ctx) error {
	var req refreshTokenRequest
	if err := c.BodyParser(&req); err != nil || req.RefreshToken == "" {
		return authsrv.ErrInvalidRefreshToken().WithDetail("reason", "missing refresh_token")
	}

	access, err := h.auth.Refresh(c.UserContext(), req.RefreshToken)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, fiber.Map{"access_token": access})
}

// ============================================================================
// User management (server-key protected)
// ============================================================================

func (h *Handlers) test(c *fiber.Ctx) error {
	a := auth.AppFromLocals(c)
	return respond(c, fiber.StatusOK, fiber.Map{
		"message":  "server credentials accepted",
		"app_name": a.Name,
	})
}

type createUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (h *Handlers) createUser(c *fiber.Ctx) error {
	var req createUserRequest
	if err := c.BodyParser(&req); err != nil {
		return user.ErrValidation().WithDetail("reason", "invalid request body")
	}

	a := auth.AppFromLocals(c)
	u, err := h.auth.Signup(c.UserContext(), a, req.Email, req.Password, req.Name)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, u)
}

func (h *Handlers) getUser(c *fiber.Ctx) error {
	a := auth.AppFromLocals(c)
	u, err := h.users.GetUser(c.UserContext(), kernel.UserID(c.Params("id")), a.ID)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, u)
}

type updateUserRequest struct {
	Name     *string `json:"name"`
	IsActive *bool   `json:"is_active"`
}

func (h *Handlers) updateUser(c *fiber.Ctx) error {
	var req updateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return user.ErrValidation().WithDetail("reason", "invalid request body")
	}

	a := auth.AppFromLocals(c)
	u, err := h.users.UpdateUser(c.UserContext(), kernel.UserID(c.Params("id")), a.ID, req.Name, req.IsActive)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, u)
}

func (h *Handlers) deleteUser(c *fiber.Ctx) error {
	a := auth.AppFromLocals(c)
	if err := h.users.SoftDeleteUser(c.UserContext(), kernel.UserID(c.Params("id")), a.ID); err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, fiber.Map{"message": "user deleted"})
}

func (h *Handlers) me(c *fiber.Ctx) error {
	a := auth.AppFromLocals(c)
	reqAuth := auth.FromLocals(c)
	if reqAuth == nil || reqAuth.UserID == nil {
		return iam.ErrUnauthorized()
	}

	u, err := h.users.GetUser(c.UserContext(), *reqAuth.UserID, a.ID)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, u)
}

// ============================================================================
// One-time token email sending
// ============================================================================

type sendVerificationEmailRequest struct {
	UserID string `json:"user_id"`
}

func (h *Handlers) sendVerificationEmail(c *fiber.Ctx) error {
	var req sendVerificationEmailRequest
	if err := c.BodyParser(&req); err != nil || req.UserID == "" {
		return user.ErrValidation().WithDetail("reason", "missing user_id")
	}

	a := auth.AppFromLocals(c)
	u, err := h.users.GetUser(c.UserContext(), kernel.UserID(req.UserID), a.ID)
	if err != nil {
		return err
	}

	if err := h.auth.SendVerificationEmail(c.UserContext(), a, u, c.Protocol(), c.Hostname()); err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, fiber.Map{"message": "verification email sent"})
}

type sendForgotPasswordEmailRequest struct {
	Email string `json:"email"`
}

func (h *Handlers) sendForgotPasswordEmail(c *fiber.Ctx) error {
	var req sendForgotPasswordEmailRequest
	if err := c.BodyParser(&req); err != nil || req.Email == "" {
		return user.ErrValidation().WithDetail("reason", "missing email")
	}

	a := auth.AppFromLocals(c)
	if err := h.auth.SendPasswordResetEmail(c.UserContext(), a, req.Email, c.Protocol(), c.Hostname()); err != nil {
		return err
	}

	// Same answer whether or not the account exists.
	return respond(c, fiber.StatusOK, fiber.Map{"message": "password reset email sent"})
}

// ============================================================================
// One-time HTML pages
// ============================================================================

func (h *Handlers) verifyEmailPage(c *fiber.Ctx) error {
	tokenString := c.Query("token")
	if tokenString == "" {
		return renderPage(c, fiber.StatusBadRequest, pageData{
			Title: "Email verification",
			Error: "The verification link is missing its token.",
		})
	}

	if _, err := h.auth.VerifyEmail(c.UserContext(), tokenString); err != nil {
		return renderPage(c, fiber.StatusBadRequest, pageData{
			Title: "Email verification",
			Error: oneTimeErrorMessage(err),
		})
	}

	return renderPage(c, fiber.StatusOK, pageData{
		Title:   "Email verified",
		Message: "Your email address has been verified. You can now log in.",
	})
}

func (h *Handlers) forgotPasswordFormPage(c *fiber.Ctx) error {
	tokenString := c.Query("token")
	if tokenString == "" {
		return renderPage(c, fiber.StatusBadRequest, pageData{
			Title: "Password reset",
			Error: "The reset link is missing its token.",
		})
	}

	formToken, err := h.auth.PasswordResetForm(c.UserContext(), tokenString)
	if err != nil {
		return renderPage(c, fiber.StatusBadRequest, pageData{
			Title: "Password reset",
			Error: oneTimeErrorMessage(err),
		})
	}

	return renderPage(c, fiber.StatusOK, pageData{
		Title:    "Choose a new password",
		ShowForm: true,
		Token:    formToken,
	})
}

func (h *Handlers) forgotPasswordSubmit(c *fiber.Ctx) error {
	tokenString := c.FormValue("token")
	newPassword := c.FormValue("new_password")
	confirmPassword := c.FormValue("confirm_password")

	if newPassword == "" || newPassword != confirmPassword {
		// Token not consumed yet, so the form stays usable.
		return renderPage(c, fiber.StatusBadRequest, pageData{
			Title:    "Choose a new password",
			Error:    "Passwords do not match.",
			ShowForm: true,
			Token:    tokenString,
		})
	}

	if _, err := h.auth.ResetPassword(c.UserContext(), tokenString, newPassword); err != nil {
		return renderPage(c, fiber.StatusBadRequest, pageData{
			Title: "Password reset",
			Error: oneTimeErrorMessage(err),
		})
	}

	return renderPage(c, fiber.StatusOK, pageData{
		Title:   "Password changed",
		Message: "Your password has been updated. You can now log in with it.",
	})
}

func oneTimeErrorMessage(err error) string {
	if errx.IsCode(err, token.CodeExpired) {
		return "This link has expired. Please request a new one."
	}
	return "This link is invalid or has already been used."
}

// ============================================================================
// Health
// ============================================================================

func (h *Handlers) health(c *fiber.Ctx) error {
	health := fiber.Map{
		"status":  "healthy",
		"service": "wakka-auth",
	}

	status := fiber.StatusOK
	if err := h.db.PingContext(c.UserContext()); err != nil {
		health["db"] = "unhealthy"
		health["db_error"] = err.Error()
		health["status"] = "degraded"
		status = fiber.StatusServiceUnavailable
	} else {
		health["db"] = "healthy"
	}

	return c.Status(status).JSON(health)
}
