package auth

import (
	"strings"

	"github.com/Abraxas-365/wakka/pkg/iam"
	"github.com/Abraxas-365/wakka/pkg/iam/app"
	"github.com/Abraxas-365/wakka/pkg/iam/token"
	"github.com/Abraxas-365/wakka/pkg/kernel"
	"github.com/gofiber/fiber/v2"
)

// Require builds a fiber middleware that enforces the given requirements for
// every request on the route.
func (p *Pipeline) Require(reqs ...Requirement) fiber.Handler {
	ordered := orderRequirements(reqs)

	return func(c *fiber.Ctx) error {
		auth := &kernel.RequestAuth{}

		for _, req := range ordered {
			var err error
			switch req {
			case RequireApp:
				err = p.resolveApp(c, auth)
			case RequireServerKey:
				err = p.checkServerKey(c, auth)
			case RequireBearerUser:
				err = p.checkBearer(c, auth)
			}
			if err != nil {
				return err
			}
		}

		c.Locals(kernel.RequestAuthKey, auth)
		return c.Next()
	}
}

func (p *Pipeline) resolveApp(c *fiber.Ctx, auth *kernel.RequestAuth) error {
	var (
		a   *app.App
		err error
	)

	if p.singleApp.Enabled {
		a, err = p.apps.GetOrCreateDefault(c.UserContext(), p.singleApp.Name, p.singleApp.Title)
	} else {
		name := strings.TrimSpace(c.Get(HeaderAppName))
		if name == "" {
			return app.ErrInvalidAppName().WithDetail("reason", "missing "+HeaderAppName+" header")
		}
		a, err = p.apps.ResolveByName(c.UserContext(), name)
	}
	if err != nil {
		return err
	}

	auth.AppID = a.ID
	auth.AppName = a.Name
	c.Locals(appLocalsKey, a)
	return nil
}

func (p *Pipeline) checkServerKey(c *fiber.Ctx, auth *kernel.RequestAuth) error {
	a := AppFromLocals(c)
	if a == nil {
		// Server-key auth is meaningless without a resolved app.
		return app.ErrInvalidAppName().WithDetail("reason", "app not resolved")
	}

	if err := p.apps.VerifyServerKey(a, c.Get(HeaderServerAPIKey)); err != nil {
		return err
	}

	auth.ServerAuthenticated = true
	return nil
}

func (p *Pipeline) checkBearer(c *fiber.Ctx, auth *kernel.RequestAuth) error {
	if auth.AppID.IsEmpty() {
		return app.ErrInvalidAppName().WithDetail("reason", "app not resolved")
	}

	authHeader := c.Get(fiber.HeaderAuthorization)
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return iam.ErrUnauthorized().WithDetail("reason", "missing bearer token")
	}

	claims, err := p.sessions.Verify(parts[1], token.TypeAccess)
	if err != nil {
		return iam.ErrUnauthorized().WithDetail("reason", "invalid access token")
	}
	if claims.AppID != auth.AppID {
		return iam.ErrUnauthorized().WithDetail("reason", "token issued for another app")
	}

	userID := claims.UserID
	auth.UserID = &userID
	auth.Email = claims.Email
	auth.Name = claims.Name
	return nil
}

const appLocalsKey = "resolved_app"

// AppFromLocals returns the tenant resolved by the pipeline, or nil.
func AppFromLocals(c *fiber.Ctx) *app.App {
	a, _ := c.Locals(appLocalsKey).(*app.App)
	return a
}

// FromLocals returns the RequestAuth built by the pipeline, or nil when the
// route carried no requirements.
func FromLocals(c *fiber.Ctx) *kernel.RequestAuth {
	auth, _ := c.Locals(kernel.RequestAuthKey).(*kernel.RequestAuth)
	return auth
}
