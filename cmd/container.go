// cmd/container.go
//
// Root composition root. Owns infrastructure (DB, Redis, email) and composes
// bounded-context containers. This is the only place that knows about ALL modules.
package main

import (
	"context"
	"time"

	"github.com/Abraxas-365/wakka/pkg/config"
	"github.com/Abraxas-365/wakka/pkg/iam/iamcontainer"
	"github.com/Abraxas-365/wakka/pkg/logx"
	"github.com/Abraxas-365/wakka/pkg/notifx"
	"github.com/Abraxas-365/wakka/pkg/notifx/notifxconsole"
	"github.com/Abraxas-365/wakka/pkg/notifx/notifxses"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

// Container holds shared infrastructure and composed module containers.
type Container struct {
	Config *config.Config

	// Infrastructure (shared across all modules)
	DB     *sqlx.DB
	Redis  *redis.Client
	Mailer *notifx.Client

	// Bounded-context containers
	IAM *iamcontainer.Container
}

func NewContainer(cfg *config.Config) *Container {
	logx.Info("🔧 Initializing application container...")

	c := &Container{Config: cfg}

	c.initInfrastructure()
	c.initModules()

	logx.Info("✅ Application container initialized")
	return c
}

// ---------------------------------------------------------------------------
// Infrastructure: DB, Redis, email
// ---------------------------------------------------------------------------

func (c *Container) initInfrastructure() {
	logx.Info("🏗️ Initializing infrastructure...")

	// 1. Database
	db, err := sqlx.Connect("postgres", c.Config.Database.DSN())
	if err != nil {
		logx.Fatalf("Failed to connect to database: %v", err)
	}
	db.SetMaxOpenConns(c.Config.Database.MaxOpenConns)
	db.SetMaxIdleConns(c.Config.Database.MaxIdleConns)
	db.SetConnMaxLifetime(c.Config.Database.ConnMaxLifetime)
	c.DB = db
	logx.Info("  ✅ Database connected")

	// 2. Redis
	c.Redis = redis.NewClient(&redis.Options{
		Addr:     c.Config.Redis.Address(),
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.DB,
	})
	if _, err := c.Redis.Ping(context.Background()).Result(); err != nil {
		logx.Fatalf("Failed to connect to Redis: %v (Redis is required)", err)
	}
	logx.Info("  ✅ Redis connected")

	// 3. Email provider
	c.initMailer()

	logx.Info("✅ Infrastructure initialized")
}

func (c *Container) initMailer() {
	switch c.Config.Email.Provider {
	case "ses":
		awsCfg, err := awsConfig.LoadDefaultConfig(context.TODO(),
			awsConfig.WithRegion(c.Config.Email.AWSRegion))
		if err != nil {
			logx.Fatalf("Unable to load AWS SDK config: %v", err)
		}
		provider := notifxses.NewProvider(ses.NewFromConfig(awsCfg))
		c.Mailer = notifx.NewClient(provider, c.Config.Email.FromAddress)
		logx.Infof("  ✅ SES email provider configured (region: %s)", c.Config.Email.AWSRegion)

	case "console":
		c.Mailer = notifx.NewClient(notifxconsole.NewProvider(), c.Config.Email.FromAddress)
		logx.Warn("  ⚠️  Console email provider configured (emails are only logged)")

	default:
		logx.Fatalf("Unknown EMAIL_PROVIDER: %s (use 'ses' or 'console')", c.Config.Email.Provider)
	}
}

// ---------------------------------------------------------------------------
// Module composition: each bounded context wires itself
// ---------------------------------------------------------------------------

func (c *Container) initModules() {
	logx.Info("📦 Initializing modules...")

	iamC, err := iamcontainer.New(iamcontainer.Deps{
		DB:     c.DB,
		Redis:  c.Redis,
		Cfg:    c.Config,
		Mailer: c.Mailer,
	})
	if err != nil {
		logx.Fatalf("Failed to initialize IAM container: %v", err)
	}
	c.IAM = iamC
}

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

// StartBackgroundServices runs the periodic one-time token record purge.
func (c *Container) StartBackgroundServices(ctx context.Context) {
	logx.Info("🔄 Starting background services...")

	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				purged, err := c.IAM.OneTimeEngine.DeleteExpired(ctx)
				if err != nil {
					logx.Errorf("One-time token purge failed: %v", err)
					continue
				}
				if purged > 0 {
					logx.Infof("Purged %d expired one-time token records", purged)
				}
			}
		}
	}()
}

func (c *Container) Cleanup() {
	logx.Info("🧹 Cleaning up resources...")

	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			logx.Errorf("Error closing database: %v", err)
		} else {
			logx.Info("  ✅ Database connection closed")
		}
	}

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logx.Errorf("Error closing Redis: %v", err)
		} else {
			logx.Info("  ✅ Redis connection closed")
		}
	}

	logx.Info("✅ Cleanup complete")
}
