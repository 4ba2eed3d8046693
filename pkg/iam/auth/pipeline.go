package auth

import (
	"sort"

	"github.com/Abraxas-365/wakka/pkg/iam/app/appsrv"
	"github.com/Abraxas-365/wakka/pkg/iam/token"
)

// Requirement is one authentication demand a route can make. Requirements
// compose; the pipeline always evaluates them in fixed precedence
// (app, then server key, then bearer) regardless of declaration order.
type Requirement int

const (
	// RequireApp resolves the tenant from the X-App-Name header (or the
	// configured default app in single-app mode).
	RequireApp Requirement = iota
	// RequireServerKey checks X-Server-Api-Key against the resolved app's
	// stored hash. Requires the app to be resolved first.
	RequireServerKey
	// RequireBearerUser validates an access token from the Authorization
	// header and attaches the user identity.
	RequireBearerUser
)

// Header names understood by the pipeline.
const (
	HeaderAppName      = "X-App-Name"
	HeaderServerAPIKey = "X-Server-Api-Key"
)

// SingleAppConfig enables single-tenant mode, where the app-name header is
// ignored and a default app is resolved (creating it on first use).
type SingleAppConfig struct {
	Enabled bool
	Name    string
	Title   string
}

// Pipeline evaluates route requirements against a request.
type Pipeline struct {
	apps      *appsrv.Service
	sessions  *token.SessionEngine
	singleApp SingleAppConfig
}

// NewPipeline crea un nuevo pipeline de autenticación.
func NewPipeline(apps *appsrv.Service, sessions *token.SessionEngine, singleApp SingleAppConfig) *Pipeline {
	return &Pipeline{
		apps:      apps,
		sessions:  sessions,
		singleApp: singleApp,
	}
}

// orderRequirements returns the requirements sorted by precedence with
// duplicates removed.
func orderRequirements(reqs []Requirement) []Requirement {
	seen := make(map[Requirement]bool, len(reqs))
	ordered := make([]Requirement, 0, len(reqs))
	for _, r := range reqs {
		if !seen[r] {
			seen[r] = true
			ordered = append(ordered, r)
		}
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })
	return ordered
}
