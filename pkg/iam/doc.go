// Package iam provides multi-tenant authentication for applications that
// delegate their user management to this service.
//
// # Overview
//
// The iam package is organized into sub-packages that work together:
//
//   - iam/app      - Application (tenant) entity, server API keys, soft delete
//   - iam/user     - User entity, soft delete and identity resurrection
//   - iam/token    - Session token engine (access/refresh) and one-time token engine
//   - iam/auth     - Authentication pipeline (app header, server key, bearer token)
//   - iam/authsrv  - Auth flows: login, refresh, signup, verification, password reset
//   - iam/iamapi   - Fiber handlers and the one-time HTML pages
//
// # Architecture
//
// The package follows a layered, domain-driven architecture:
//
//	HTTP Handler  →  Service Layer  →  Repository Interface  →  Infrastructure (Postgres/Redis)
//
// Each sub-domain exposes its own error registry (e.g., "APP", "USER",
// "TOKEN", "AUTH"), domain entities with rich methods, and repository
// interfaces implemented in *infra packages.
//
// # Multi-Tenancy
//
// Every user belongs to an application. An email address can exist in
// multiple applications independently; deleting a user or an application is a
// soft delete that frees the identity for reuse. Requests select their
// application with the X-App-Name header, or implicitly in single-app mode.
//
// # Authentication Pipeline
//
// Routes declare requirements and the pipeline evaluates them in fixed
// precedence regardless of declaration order:
//
//	appOnly := pipeline.Require(auth.RequireApp)
//	server  := pipeline.Require(auth.RequireApp, auth.RequireServerKey)
//	bearer  := pipeline.Require(auth.RequireApp, auth.RequireBearerUser)
//
// # Tokens
//
// Session tokens are stateless RS256 JWTs: a short-lived access token and a
// long-lived refresh token distinguished by the "type" claim. Refreshing
// re-checks the user's verified and active flags.
//
// One-time tokens (email verification, password reset) are RS256 JWTs backed
// by a persisted record keyed on jti. Verifying a token deletes its record in
// a single statement, so each token is usable exactly once even under
// concurrent verification.
//
// # Endpoints
//
//	POST /api/v1/obtain-token                 [app]             login → token pair
//	POST /api/v1/refresh-token                [app]             refresh → access token
//	GET  /api/v1/test                         [app, server key] credential sanity check
//	POST /api/v1/user                         [app, server key] create user
//	GET/PUT/DELETE /api/v1/user/:id           [app, server key]
//	GET  /api/v1/me                           [app, bearer]
//	POST /api/v1/send-verification-email      [app]
//	POST /api/v1/send-forgot-password-email   [app]             200 either way
//	GET  /one-time/verify-email               HTML status page
//	GET  /one-time/forgot-password            HTML reset form (re-issues token)
//	POST /one-time/forgot-password            HTML result page
//	GET  /health, GET /metrics
//
// # Error Response Format
//
// All errors follow the errx structured format:
//
//	{
//	  "error":      "Invalid email or password",
//	  "code":       "AUTH_INVALID_CREDENTIALS",
//	  "type":       "AUTHORIZATION",
//	  "status":     401,
//	  "request_id": "..."
//	}
//
// Common error codes by module:
//
//	APP_INVALID_APP_NAME        - 400  missing or unknown X-App-Name
//	APP_INVALID_SERVER_API_KEY  - 403  missing or wrong X-Server-Api-Key
//	AUTH_INVALID_CREDENTIALS    - 401  unknown email or wrong password
//	AUTH_INVALID_REFRESH_TOKEN  - 400
//	AUTH_EMAIL_SENDING_FAILED   - 500
//	AUTH_TOO_MANY_REQUESTS      - 429  resend rate limit
//	USER_ALREADY_EXISTS         - 409
//	USER_DOES_NOT_EXIST         - 404
//	USER_NOT_VERIFIED           - 400
//	USER_NOT_ACTIVE             - 400
//	TOKEN_INVALID               - 400  bad signature, wrong purpose, or reused
//	TOKEN_EXPIRED               - 400
//
// # Infrastructure Dependencies
//
// Required:
//   - PostgreSQL - applications, users, one_time_tokens
//   - Redis - resend rate limiting for one-time token emails
//
// Optional:
//   - AWS SES - outbound email (console provider available for development)
package iam
