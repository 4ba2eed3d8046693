package iamcontainer

import (
	"github.com/Abraxas-365/wakka/pkg/config"
	"github.com/Abraxas-365/wakka/pkg/iam/app/appinfra"
	"github.com/Abraxas-365/wakka/pkg/iam/app/appsrv"
	"github.com/Abraxas-365/wakka/pkg/iam/auth"
	"github.com/Abraxas-365/wakka/pkg/iam/auth/authinfra"
	"github.com/Abraxas-365/wakka/pkg/iam/authsrv"
	"github.com/Abraxas-365/wakka/pkg/iam/iamapi"
	"github.com/Abraxas-365/wakka/pkg/iam/token"
	"github.com/Abraxas-365/wakka/pkg/iam/token/tokeninfra"
	"github.com/Abraxas-365/wakka/pkg/iam/user/userinfra"
	"github.com/Abraxas-365/wakka/pkg/iam/user/usersrv"
	"github.com/Abraxas-365/wakka/pkg/logx"
	"github.com/Abraxas-365/wakka/pkg/notifx"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

// ---------------------------------------------------------------------------
// Deps: explicit external dependencies this bounded context requires.
// No hidden globals, no ambient state. Everything comes through here.
// ---------------------------------------------------------------------------

type Deps struct {
	DB    *sqlx.DB
	Redis *redis.Client
	Cfg   *config.Config

	// Mailer is injected so the IAM module has zero knowledge of the
	// concrete email provider.
	Mailer *notifx.Client
}

// ---------------------------------------------------------------------------
// Container: the public surface of the IAM module.
// Only expose what other modules or cmd/ actually need.
// ---------------------------------------------------------------------------

type Container struct {
	AppService  *appsrv.Service
	UserService *usersrv.Service
	AuthService *authsrv.Service

	SessionEngine *token.SessionEngine
	OneTimeEngine *token.OneTimeEngine

	Pipeline *auth.Pipeline
	Handlers *iamapi.Handlers
}

// New constructs the entire IAM dependency graph.
// Order matters: infra, then repos, then services, then pipeline and handlers.
func New(deps Deps) (*Container, error) {
	logx.Info("🔧 Initializing IAM container...")

	c := &Container{}

	// ===== Repositories =====

	appRepo := appinfra.NewPostgresAppRepository(deps.DB)
	userRepo := userinfra.NewPostgresUserRepository(deps.DB)
	recordRepo := tokeninfra.NewPostgresRecordRepository(deps.DB)

	// ===== Token engines =====

	keys, err := token.ParseKeys(deps.Cfg.JWT.PrivateKeyPEM, deps.Cfg.JWT.PublicKeyPEM)
	if err != nil {
		return nil, err
	}

	c.SessionEngine = token.NewSessionEngine(keys, deps.Cfg.JWT.Issuer,
		deps.Cfg.JWT.AccessTokenTTL, deps.Cfg.JWT.RefreshTokenTTL)
	c.OneTimeEngine = token.NewOneTimeEngine(keys, deps.Cfg.JWT.Issuer,
		deps.Cfg.JWT.OneTimeTokenTTL, recordRepo)

	// ===== Domain services =====

	hasher := authinfra.NewBcryptHasher(0)

	c.AppService = appsrv.NewService(appRepo, hasher)
	c.UserService = usersrv.NewService(userRepo, hasher)

	limiter := authinfra.NewRedisResendLimiter(deps.Redis)

	c.AuthService, err = authsrv.NewService(
		c.UserService,
		c.SessionEngine,
		c.OneTimeEngine,
		deps.Mailer,
		limiter,
		deps.Cfg.App.ResendLimitWindow,
	)
	if err != nil {
		return nil, err
	}

	// ===== Pipeline & handlers =====

	c.Pipeline = auth.NewPipeline(c.AppService, c.SessionEngine, auth.SingleAppConfig{
		Enabled: deps.Cfg.App.SingleApp,
		Name:    deps.Cfg.App.DefaultAppName,
		Title:   deps.Cfg.App.DefaultAppTitle,
	})
	if deps.Cfg.App.SingleApp {
		logx.Warnf("  ⚠️  Single-app mode enabled, all requests resolve to app %q", deps.Cfg.App.DefaultAppName)
	}

	c.Handlers = iamapi.NewHandlers(c.AuthService, c.UserService, c.Pipeline, deps.DB)

	logx.Info("✅ IAM container initialized")
	return c, nil
}
