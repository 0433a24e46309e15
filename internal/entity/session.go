package entity

// CredentialKind identifies one of the two credential kinds the client stores.
type CredentialKind string

const (
	// KindToken is the short-lived bearer session token.
	KindToken CredentialKind = "token"
	// KindAPIKey is the long-lived API key.
	KindAPIKey CredentialKind = "apiKey"
)

// Kinds lists every credential kind in probe order.
var Kinds = []CredentialKind{KindToken, KindAPIKey}

// Key returns the durable storage key of the kind.
func (k CredentialKind) Key() string {
	return string(k)
}

func (k CredentialKind) String() string {
	switch k {
	case KindToken:
		return "session token"
	case KindAPIKey:
		return "api key"
	default:
		return string(k)
	}
}

// Credentials is a snapshot of the stored credentials. An empty field means absent.
type Credentials struct {
	Token  string
	APIKey string
}

// None reports whether no credential is present.
func (c Credentials) None() bool {
	return c.Token == "" && c.APIKey == ""
}

// SessionState is the derived authentication state of the client.
type SessionState int

const (
	StatePublic SessionState = iota
	StateAuthenticated
)

func (s SessionState) String() string {
	if s == StateAuthenticated {
		return "authenticated"
	}
	return "public"
}

// Validity is the outcome of a session validation probe.
type Validity int

const (
	// Valid means a protected probe succeeded with the stored credentials.
	Valid Validity = iota
	// Invalid means there were no credentials or the service rejected them.
	Invalid
	// Unreachable means the probe could not reach a verdict.
	Unreachable
)

func (v Validity) String() string {
	switch v {
	case Valid:
		return "valid"
	case Invalid:
		return "invalid"
	default:
		return "unreachable"
	}
}

// AuthResult is the outcome of a successful login or registration.
type AuthResult struct {
	Message string // Message is the human-readable server message.
	Token   string // Token is the session token; always present.
	APIKey  string // APIKey is optional; empty when the service did not return one.
}

// View is a dashboard tab.
type View string

const (
	ViewCreate  View = "create"
	ViewList    View = "list"
	ViewAPIKeys View = "api-keys"
)

// Views lists the dashboard tabs in display order.
var Views = []View{ViewCreate, ViewList, ViewAPIKeys}
