package provision

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AuthChangeEvent mirrors the identity provider's auth-state events
type AuthChangeEvent string

const (
	AuthEventSignedIn       AuthChangeEvent = "SIGNED_IN"
	AuthEventSignedOut      AuthChangeEvent = "SIGNED_OUT"
	AuthEventTokenRefreshed AuthChangeEvent = "TOKEN_REFRESHED"
)

// IdentityRecord is the account as issued by the identity provider.
// The id is assigned by the provider and is the key for the profile.
type IdentityRecord struct {
	ID       uuid.UUID      `json:"id"`
	Email    string         `json:"email"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// AuthSession is an authenticated session held by an identity client
type AuthSession struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	UserID       uuid.UUID `json:"user_id"`
	Email        string    `json:"email"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// SignUpParams is the payload for an identity-provider signup
type SignUpParams struct {
	Email    string         `json:"email"`
	Password string         `json:"password"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// SignUpResult is what a successful signup yields. The session belongs
// to the client that performed the signup, never to any other client.
type SignUpResult struct {
	Identity *IdentityRecord `json:"identity"`
	Session  *AuthSession    `json:"session,omitempty"`
}

// AuthChangeListener observes auth-state changes on a single client
type AuthChangeListener func(event AuthChangeEvent, session *AuthSession)

// IdentityClient is one logical connection to the identity provider.
// Session state is per client: SignUp and SetSession affect only the
// client they are called on.
type IdentityClient interface {
	SignUp(ctx context.Context, params SignUpParams) (*SignUpResult, error)
	GetSession(ctx context.Context) (*AuthSession, error)
	SetSession(ctx context.Context, session *AuthSession) error
	// OnAuthStateChange registers a listener and returns its unsubscribe
	// function. Listeners fire for events on this client only.
	OnAuthStateChange(fn AuthChangeListener) (unsubscribe func())
}

// SignupClientFactory hands out fresh, unauthenticated identity clients.
// The provisioner requests one per CreateAccount call so the signup
// shares no session state with the caller's client.
type SignupClientFactory interface {
	NewSignupClient() IdentityClient
}

// SignupClientFactoryFunc adapts a function to the SignupClientFactory interface
type SignupClientFactoryFunc func() IdentityClient

// NewSignupClient implements SignupClientFactory
func (f SignupClientFactoryFunc) NewSignupClient() IdentityClient {
	return f()
}

// IdentityResolver is an optional extension of SignupClientFactory.
// Factories that can look an account up by email let the provisioner
// recover attempts that created the identity but never confirmed the
// profile write.
type IdentityResolver interface {
	LookupByEmail(ctx context.Context, email string) (*IdentityRecord, error)
}
