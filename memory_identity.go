package provision

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTokenTTL is how long access tokens from the in-memory provider live
var DefaultTokenTTL = time.Hour

// MemoryIdentityProvider is an in-process identity provider backing any
// number of IdentityClients. All clients share the account store;
// session state lives in each client. Use it in tests and local
// development in place of the hosted provider.
type MemoryIdentityProvider struct {
	mu         sync.RWMutex
	accounts   map[string]*memoryAccount
	signingKey []byte
	tokenTTL   time.Duration
}

type memoryAccount struct {
	id           uuid.UUID
	email        string
	passwordHash string
	metadata     map[string]any
	createdAt    time.Time
}

// MemoryProviderOption configures the in-memory provider
type MemoryProviderOption func(*MemoryIdentityProvider)

// WithSigningKey overrides the HMAC key used to sign access tokens
func WithSigningKey(key []byte) MemoryProviderOption {
	return func(p *MemoryIdentityProvider) {
		if len(key) > 0 {
			p.signingKey = key
		}
	}
}

// WithTokenTTL overrides the access-token lifetime
func WithTokenTTL(ttl time.Duration) MemoryProviderOption {
	return func(p *MemoryIdentityProvider) {
		if ttl > 0 {
			p.tokenTTL = ttl
		}
	}
}

// NewMemoryIdentityProvider creates an empty provider
func NewMemoryIdentityProvider(opts ...MemoryProviderOption) *MemoryIdentityProvider {
	p := &MemoryIdentityProvider{
		accounts:   make(map[string]*memoryAccount),
		signingKey: []byte(uuid.NewString()),
		tokenTTL:   DefaultTokenTTL,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// NewClient returns a fresh, unauthenticated client bound to this provider
func (p *MemoryIdentityProvider) NewClient() *MemoryIdentityClient {
	return &MemoryIdentityClient{
		provider:  p,
		listeners: make(map[int]AuthChangeListener),
	}
}

// NewSignupClient implements SignupClientFactory
func (p *MemoryIdentityProvider) NewSignupClient() IdentityClient {
	return p.NewClient()
}

var _ SignupClientFactory = (*MemoryIdentityProvider)(nil)

func (p *MemoryIdentityProvider) register(params SignUpParams) (*IdentityRecord, error) {
	email := strings.ToLower(strings.TrimSpace(params.Email))

	hash, err := HashPassword(params.Password)
	if err != nil {
		return nil, err
	}

	id, err := hashid.NewUUID(email)
	if err != nil {
		id = uuid.New()
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, taken := p.accounts[email]; taken {
		return nil, goerrors.New(
			fmt.Sprintf("user already registered: %s", email),
			goerrors.CategoryConflict,
		).WithTextCode(textCodeAccountExists)
	}

	metadata := make(map[string]any, len(params.Metadata))
	for k, v := range params.Metadata {
		metadata[k] = v
	}

	p.accounts[email] = &memoryAccount{
		id:           id,
		email:        email,
		passwordHash: hash,
		metadata:     metadata,
		createdAt:    time.Now(),
	}

	return &IdentityRecord{ID: id, Email: email, Metadata: metadata}, nil
}

func (p *MemoryIdentityProvider) verify(email, password string) (*IdentityRecord, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	p.mu.RLock()
	account, ok := p.accounts[email]
	p.mu.RUnlock()

	if !ok {
		return nil, goerrors.New("invalid login credentials", goerrors.CategoryAuth)
	}

	if err := ComparePasswordAndHash(password, account.passwordHash); err != nil {
		return nil, goerrors.New("invalid login credentials", goerrors.CategoryAuth)
	}

	return &IdentityRecord{ID: account.id, Email: account.email, Metadata: account.metadata}, nil
}

// issueSession mints a signed access token for the identity
func (p *MemoryIdentityProvider) issueSession(identity *IdentityRecord) (*AuthSession, error) {
	now := time.Now()
	expiresAt := now.Add(p.tokenTTL)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   identity.ID.String(),
		"email": identity.Email,
		"iat":   jwt.NewNumericDate(now),
		"exp":   jwt.NewNumericDate(expiresAt),
	})

	signed, err := token.SignedString(p.signingKey)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign access token")
	}

	return &AuthSession{
		AccessToken:  signed,
		RefreshToken: uuid.NewString(),
		UserID:       identity.ID,
		Email:        identity.Email,
		ExpiresAt:    expiresAt,
	}, nil
}

// LookupByEmail implements IdentityResolver
func (p *MemoryIdentityProvider) LookupByEmail(ctx context.Context, email string) (*IdentityRecord, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	p.mu.RLock()
	defer p.mu.RUnlock()

	account, ok := p.accounts[email]
	if !ok {
		return nil, goerrors.New("account not found", goerrors.CategoryNotFound).
			WithCode(goerrors.CodeNotFound)
	}

	return &IdentityRecord{ID: account.id, Email: account.email, Metadata: account.metadata}, nil
}

var _ IdentityResolver = (*MemoryIdentityProvider)(nil)

// AccountCount reports how many accounts exist, for tests and diagnostics
func (p *MemoryIdentityProvider) AccountCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.accounts)
}

// MemoryIdentityClient is one logical connection to a
// MemoryIdentityProvider. Signing up or in mutates only this client's
// session and notifies only this client's listeners.
type MemoryIdentityClient struct {
	provider  *MemoryIdentityProvider
	mu        sync.Mutex
	session   *AuthSession
	listeners map[int]AuthChangeListener
	seq       int
}

var _ IdentityClient = (*MemoryIdentityClient)(nil)

// SignUp registers a new account and signs this client in as it
func (c *MemoryIdentityClient) SignUp(ctx context.Context, params SignUpParams) (*SignUpResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "context cancelled during signup")
	}

	if params.Email == "" || params.Password == "" {
		return nil, goerrors.New("email and password are required", goerrors.CategoryBadInput)
	}

	identity, err := c.provider.register(params)
	if err != nil {
		return nil, err
	}

	session, err := c.provider.issueSession(identity)
	if err != nil {
		return nil, err
	}

	c.setSession(session)

	return &SignUpResult{Identity: identity, Session: session}, nil
}

// SignInWithPassword authenticates an existing account on this client
func (c *MemoryIdentityClient) SignInWithPassword(ctx context.Context, email, password string) (*AuthSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "context cancelled during sign in")
	}

	identity, err := c.provider.verify(email, password)
	if err != nil {
		return nil, err
	}

	session, err := c.provider.issueSession(identity)
	if err != nil {
		return nil, err
	}

	c.setSession(session)

	return session, nil
}

// GetSession returns a copy of this client's session, nil when signed out
func (c *MemoryIdentityClient) GetSession(ctx context.Context) (*AuthSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return nil, nil
	}

	session := *c.session
	return &session, nil
}

// SetSession adopts an externally established session on this client
func (c *MemoryIdentityClient) SetSession(ctx context.Context, session *AuthSession) error {
	if session == nil {
		return goerrors.New("session is required", goerrors.CategoryBadInput)
	}
	c.setSession(session)
	return nil
}

// SignOut clears this client's session
func (c *MemoryIdentityClient) SignOut(ctx context.Context) error {
	c.mu.Lock()
	c.session = nil
	listeners := c.snapshotListeners()
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(AuthEventSignedOut, nil)
	}
	return nil
}

// OnAuthStateChange registers a listener for this client's auth events
func (c *MemoryIdentityClient) OnAuthStateChange(fn AuthChangeListener) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	id := c.seq
	c.listeners[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

func (c *MemoryIdentityClient) setSession(session *AuthSession) {
	c.mu.Lock()
	copied := *session
	c.session = &copied
	listeners := c.snapshotListeners()
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(AuthEventSignedIn, session)
	}
}

// snapshotListeners must be called with c.mu held
func (c *MemoryIdentityClient) snapshotListeners() []AuthChangeListener {
	out := make([]AuthChangeListener, 0, len(c.listeners))
	for _, fn := range c.listeners {
		out = append(out, fn)
	}
	return out
}
