package metricsx

import (
	"errors"
	"strconv"
	"time"

	"github.com/Abraxas-365/wakka/pkg/errx"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

const namespace = "wakka"

var (
	// Token metrics
	TokensIssuedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_issued_total",
			Help:      "Total number of tokens issued",
		},
		[]string{"token_type"},
	)

	TokensRefreshedCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tokens_refreshed_total",
		Help:      "Total number of access tokens minted from refresh tokens",
	})

	OneTimeTokensConsumedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "one_time_tokens_consumed_total",
			Help:      "Total number of one-time tokens consumed",
		},
		[]string{"purpose", "outcome"},
	)

	// Auth metrics
	LoginCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Total number of login attempts",
		},
		[]string{"outcome"},
	)

	SignupCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signups_total",
		Help:      "Total number of successful signups",
	})

	EmailsSentCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emails_sent_total",
			Help:      "Total number of emails sent",
		},
		[]string{"kind", "outcome"},
	)

	// Request metrics
	RequestDurationHistogram = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	APIRequestCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Total number of API requests",
		},
		[]string{"method", "path", "status"},
	)
)

// Middleware tracks request count and duration per route.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		// On error the global handler has not run yet, so the response still
		// reads 200. Take the status from the error itself.
		code := c.Response().StatusCode()
		if err != nil {
			var ex *errx.Error
			var fe *fiber.Error
			switch {
			case errors.As(err, &ex):
				code = ex.HTTPStatus
			case errors.As(err, &fe):
				code = fe.Code
			default:
				code = fiber.StatusInternalServerError
			}
		}

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(code)
		path := c.Route().Path

		APIRequestCounter.WithLabelValues(c.Method(), path, status).Inc()
		RequestDurationHistogram.WithLabelValues(c.Method(), path, status).Observe(duration)

		return err
	}
}

// Handler exposes the Prometheus scrape endpoint as a fiber handler.
func Handler() fiber.Handler {
	h := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	return func(c *fiber.Ctx) error {
		h(c.Context())
		return nil
	}
}
