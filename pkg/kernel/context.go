package kernel

// ============================================================================
// Request Context Types
// ============================================================================

// RequestAuth is the per-request authentication state built up by the
// authentication pipeline. App resolution fills AppID/AppName; the server-key
// check flips ServerAuthenticated; bearer authentication fills the user fields.
type RequestAuth struct {
	AppID               AppID   `json:"app_id"`
	AppName             string  `json:"app_name"`
	ServerAuthenticated bool    `json:"server_authenticated"`
	UserID              *UserID `json:"user_id,omitempty"`
	Email               string  `json:"email,omitempty"`
	Name                string  `json:"name,omitempty"`
}

// HasApp reports whether app resolution has run for this request.
func (ra *RequestAuth) HasApp() bool {
	return ra != nil && !ra.AppID.IsEmpty()
}

// HasUser reports whether a bearer user is attached to this request.
func (ra *RequestAuth) HasUser() bool {
	return ra != nil && ra.UserID != nil && !ra.UserID.IsEmpty()
}

// ============================================================================
// Context Keys
// ============================================================================

type ContextKey string

const (
	// RequestAuthKey is the fiber Locals key holding *RequestAuth
	RequestAuthKey ContextKey = "request_auth"

	// RequestIDKey is the key holding the request ID
	RequestIDKey ContextKey = "request_id"
)
