package authsrv

import (
	"context"
	"fmt"
	"time"

	"github.com/Abraxas-365/wakka/pkg/errx"
	"github.com/Abraxas-365/wakka/pkg/iam/app"
	"github.com/Abraxas-365/wakka/pkg/iam/auth"
	"github.com/Abraxas-365/wakka/pkg/iam/token"
	"github.com/Abraxas-365/wakka/pkg/iam/user"
	"github.com/Abraxas-365/wakka/pkg/iam/user/usersrv"
	"github.com/Abraxas-365/wakka/pkg/logx"
	"github.com/Abraxas-365/wakka/pkg/metricsx"
	"github.com/Abraxas-365/wakka/pkg/notifx"
)

// TokenPair is the result of a successful login.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Service orquesta los flujos de autenticación sobre los engines de tokens y
// el ciclo de vida de users.
type Service struct {
	users        *usersrv.Service
	sessions     *token.SessionEngine
	oneTime      *token.OneTimeEngine
	mailer       *notifx.Client
	limiter      auth.ResendLimiter
	resendWindow time.Duration
}

// NewService crea el servicio de autenticación y registra las plantillas de
// correo.
func NewService(
	users *usersrv.Service,
	sessions *token.SessionEngine,
	oneTime *token.OneTimeEngine,
	mailer *notifx.Client,
	limiter auth.ResendLimiter,
	resendWindow time.Duration,
) (*Service, error) {
	if err := mailer.RegisterTemplate(templateVerifyEmail, verifyEmailTemplate); err != nil {
		return nil, err
	}
	if err := mailer.RegisterTemplate(templateResetPassword, resetPasswordTemplate); err != nil {
		return nil, err
	}
	if resendWindow == 0 {
		resendWindow = time.Minute
	}

	return &Service{
		users:        users,
		sessions:     sessions,
		oneTime:      oneTime,
		mailer:       mailer,
		limiter:      limiter,
		resendWindow: resendWindow,
	}, nil
}

// Login authenticates an (email, password) pair against an app and returns a
// fresh token pair. Missing user and wrong password are indistinguishable to
// the caller.
func (s *Service) Login(ctx context.Context, a *app.App, email, password string) (*TokenPair, error) {
	u, err := s.users.FindByEmail(ctx, email, a.ID)
	if err != nil {
		if errx.IsCode(err, user.CodeDoesNotExist) {
			metricsx.LoginCounter.WithLabelValues("invalid_credentials").Inc()
			return nil, ErrInvalidCredentials()
		}
		return nil, err
	}

	if !s.users.CheckPassword(u, password) {
		metricsx.LoginCounter.WithLabelValues("invalid_credentials").Inc()
		return nil, ErrInvalidCredentials()
	}
	if !u.Verified {
		metricsx.LoginCounter.WithLabelValues("not_verified").Inc()
		return nil, user.ErrNotVerified()
	}
	if !u.IsActive {
		metricsx.LoginCounter.WithLabelValues("not_active").Inc()
		return nil, user.ErrNotActive()
	}

	if err := s.users.TouchLastLogin(ctx, u.ID); err != nil {
		return nil, err
	}

	access, err := s.sessions.IssueAccess(u, a.Name)
	if err != nil {
		return nil, err
	}
	refresh, err := s.sessions.IssueRefresh(u, a.Name)
	if err != nil {
		return nil, err
	}

	metricsx.LoginCounter.WithLabelValues("success").Inc()
	metricsx.TokensIssuedCounter.WithLabelValues(string(token.TypeAccess)).Inc()
	metricsx.TokensIssuedCounter.WithLabelValues(string(token.TypeRefresh)).Inc()
	logx.WithFields(logx.Fields{"user_id": u.ID.String(), "app_name": a.Name}).
		Info("user logged in")

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh mints a new access token from a refresh token. The user's verified
// and active flags are re-checked at refresh time, so a deactivated account
// stops refreshing even though tokens are stateless.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.sessions.Verify(refreshToken, token.TypeRefresh)
	if err != nil {
		return "", ErrInvalidRefreshToken()
	}

	u, err := s.users.GetUser(ctx, claims.UserID, claims.AppID)
	if err != nil {
		if errx.IsCode(err, user.CodeDoesNotExist) {
			return "", ErrInvalidRefreshToken()
		}
		return "", err
	}

	if !u.Verified {
		return "", user.ErrNotVerified()
	}
	if !u.IsActive {
		return "", user.ErrNotActive()
	}

	if err := s.users.TouchLastLogin(ctx, u.ID); err != nil {
		return "", err
	}

	access, err := s.sessions.IssueAccess(u, claims.App)
	if err != nil {
		return "", err
	}

	metricsx.TokensRefreshedCounter.Inc()
	metricsx.TokensIssuedCounter.WithLabelValues(string(token.TypeAccess)).Inc()
	return access, nil
}

// Signup registers a new user under the app. No email is sent here; callers
// trigger verification separately.
func (s *Service) Signup(ctx context.Context, a *app.App, email, password, name string) (*user.User, error) {
	u, err := s.users.CreateUser(ctx, a, email, password, name)
	if err != nil {
		return nil, err
	}
	metricsx.SignupCounter.Inc()
	return u, nil
}

// SendVerificationEmail issues a one-time verification token and mails its
// link to the user. Sends are skipped for already-verified users and are
// rate-limited per user.
func (s *Service) SendVerificationEmail(ctx context.Context, a *app.App, u *user.User, protocol, domain string) error {
	if u.Verified {
		logx.WithField("user_id", u.ID.String()).Debug("verification email skipped, user already verified")
		return nil
	}

	if err := s.allowSend(ctx, u, token.PurposeEmailVerification); err != nil {
		return err
	}

	oneTimeToken, err := s.oneTime.Issue(ctx, u.ID, a.ID, token.PurposeEmailVerification)
	if err != nil {
		return err
	}

	link := fmt.Sprintf("%s://%s/one-time/verify-email?token=%s", protocol, domain, oneTimeToken)
	err = s.mailer.SendTemplatedEmail(ctx, templateVerifyEmail, emailTemplateData{
		Name:     u.Name,
		AppTitle: a.Title,
		Link:     link,
	}, notifx.Message{
		To:      []string{u.Email},
		Subject: fmt.Sprintf("Verify your email for %s", a.Title),
	})
	if err != nil {
		// The token record stays valid; a later resend can still be consumed.
		metricsx.EmailsSentCounter.WithLabelValues("verification", "error").Inc()
		return ErrRegistry.NewWithCause(CodeEmailSendingFailed, err).
			WithDetail("kind", "verification")
	}

	metricsx.EmailsSentCounter.WithLabelValues("verification", "success").Inc()
	return nil
}

// VerifyEmail consumes a verification token and marks the user verified and
// active.
func (s *Service) VerifyEmail(ctx context.Context, oneTimeToken string) (*user.User, error) {
	claims, err := s.oneTime.Verify(ctx, oneTimeToken, token.PurposeEmailVerification)
	if err != nil {
		metricsx.OneTimeTokensConsumedCounter.WithLabelValues(string(token.PurposeEmailVerification), "error").Inc()
		return nil, err
	}

	u, err := s.users.GetUser(ctx, claims.UserID, claims.AppID)
	if err != nil {
		return nil, err
	}

	if err := s.users.MarkVerified(ctx, u); err != nil {
		return nil, err
	}

	metricsx.OneTimeTokensConsumedCounter.WithLabelValues(string(token.PurposeEmailVerification), "success").Inc()
	logx.WithField("user_id", u.ID.String()).Info("email verified")
	return u, nil
}

// SendPasswordResetEmail mails a reset link when the account exists. Callers
// must answer identically either way so the endpoint does not leak whether an
// email is registered.
func (s *Service) SendPasswordResetEmail(ctx context.Context, a *app.App, email, protocol, domain string) error {
	u, err := s.users.FindByEmail(ctx, email, a.ID)
	if err != nil {
		if errx.IsCode(err, user.CodeDoesNotExist) {
			logx.WithField("app_name", a.Name).Debug("password reset requested for unknown email")
			return nil
		}
		return err
	}

	if err := s.allowSend(ctx, u, token.PurposePasswordReset); err != nil {
		return err
	}

	oneTimeToken, err := s.oneTime.Issue(ctx, u.ID, a.ID, token.PurposePasswordReset)
	if err != nil {
		return err
	}

	link := fmt.Sprintf("%s://%s/one-time/forgot-password?token=%s", protocol, domain, oneTimeToken)
	err = s.mailer.SendTemplatedEmail(ctx, templateResetPassword, emailTemplateData{
		Name:     u.Name,
		AppTitle: a.Title,
		Link:     link,
	}, notifx.Message{
		To:      []string{u.Email},
		Subject: fmt.Sprintf("Reset your password for %s", a.Title),
	})
	if err != nil {
		metricsx.EmailsSentCounter.WithLabelValues("password_reset", "error").Inc()
		return ErrRegistry.NewWithCause(CodeEmailSendingFailed, err).
			WithDetail("kind", "password_reset")
	}

	metricsx.EmailsSentCounter.WithLabelValues("password_reset", "success").Inc()
	return nil
}

// PasswordResetForm consumes the emailed reset token and issues a fresh one
// bound to the same user, for the form to submit. Reloading the form link a
// second time therefore fails.
func (s *Service) PasswordResetForm(ctx context.Context, oneTimeToken string) (string, error) {
	claims, err := s.oneTime.Verify(ctx, oneTimeToken, token.PurposePasswordReset)
	if err != nil {
		metricsx.OneTimeTokensConsumedCounter.WithLabelValues(string(token.PurposePasswordReset), "error").Inc()
		return "", err
	}
	metricsx.OneTimeTokensConsumedCounter.WithLabelValues(string(token.PurposePasswordReset), "success").Inc()

	return s.oneTime.Issue(ctx, claims.UserID, claims.AppID, token.PurposePasswordReset)
}

// ResetPassword consumes a reset form token and sets the new password.
func (s *Service) ResetPassword(ctx context.Context, oneTimeToken, newPassword string) (*user.User, error) {
	claims, err := s.oneTime.Verify(ctx, oneTimeToken, token.PurposePasswordReset)
	if err != nil {
		metricsx.OneTimeTokensConsumedCounter.WithLabelValues(string(token.PurposePasswordReset), "error").Inc()
		return nil, err
	}
	metricsx.OneTimeTokensConsumedCounter.WithLabelValues(string(token.PurposePasswordReset), "success").Inc()

	u, err := s.users.GetUser(ctx, claims.UserID, claims.AppID)
	if err != nil {
		return nil, err
	}

	if err := s.users.ChangePassword(ctx, u, newPassword); err != nil {
		return nil, err
	}

	logx.WithField("user_id", u.ID.String()).Info("password reset")
	return u, nil
}

func (s *Service) allowSend(ctx context.Context, u *user.User, purpose token.Purpose) error {
	if s.limiter == nil {
		return nil
	}
	key := fmt.Sprintf("%s:%s:%s", u.AppID.String(), u.ID.String(), purpose)
	ok, err := s.limiter.Allow(ctx, key, s.resendWindow)
	if err != nil {
		return err
	}
	if !ok {
		return ErrTooManyRequests().WithDetail("retry_after", s.resendWindow.String())
	}
	return nil
}
