package provision

import (
	"context"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// Provisioning audit actions under the "tenant" context
const (
	actionCreationStart   = "complete_creation_start"
	actionCreationSuccess = "complete_creation_success"
	actionCreationError   = "complete_creation_error"
)

// ProvisionedAccount is the outcome of a successful CreateAccount call
type ProvisionedAccount struct {
	ID      uuid.UUID    `json:"id"`
	Profile *Profile     `json:"profile"`
	Session *AuthSession `json:"session,omitempty"`
}

// Provisioner creates end-user accounts: an identity-provider signup
// followed by an idempotent profile upsert. It never touches the
// caller's identity client, so the session that invoked it stays intact.
type Provisioner struct {
	signups  SignupClientFactory
	profiles ProfileStore
	audit    *AuditLog
	logger   Logger
	now      func() time.Time
}

// ProvisionerOption configures a Provisioner
type ProvisionerOption func(*Provisioner)

// WithProvisionerLogger overrides the console logger
func WithProvisionerLogger(l Logger) ProvisionerOption {
	return func(p *Provisioner) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithProvisionerClock overrides the clock used for durations, mostly for tests
func WithProvisionerClock(now func() time.Time) ProvisionerOption {
	return func(p *Provisioner) {
		if now != nil {
			p.now = now
		}
	}
}

// NewProvisioner creates a Provisioner. All three collaborators are
// required; the audit log is shared with the rest of the process.
func NewProvisioner(signups SignupClientFactory, profiles ProfileStore, audit *AuditLog, opts ...ProvisionerOption) *Provisioner {
	p := &Provisioner{
		signups:  signups,
		profiles: profiles,
		audit:    audit,
		logger:   defLogger{},
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// CreateAccount provisions a new account from credentials. One logical
// attempt per call: no internal retries, no cancellation once started.
// Every call records one start entry and exactly one success or error
// entry in the "tenant" audit context, with wall-clock duration in ms.
//
// The signup runs on a fresh client from the factory, so the session of
// whichever client invoked this (typically a signed-in manager) is
// never replaced. If the identity is created but the profile write
// fails, the call fails; retrying with the same input converges because
// EnsureProfileExists treats the existing row as success.
func (p *Provisioner) CreateAccount(ctx context.Context, creds AccountCredentials) (account *ProvisionedAccount, err error) {
	start := p.now()

	p.audit.Log(LevelInfo, ContextTenant, actionCreationStart, "starting account provisioning", map[string]any{
		"email": creds.Email,
		"role":  string(creds.Role),
	})

	defer func() {
		if r := recover(); r != nil {
			account = nil
			err = goerrors.New(
				fmt.Sprintf("unexpected provisioning failure: %v", r),
				goerrors.CategoryInternal,
			)
		}
		if err != nil {
			p.audit.Log(LevelError, ContextTenant, actionCreationError, "account provisioning failed", map[string]any{
				"email":    creds.Email,
				"error":    err.Error(),
				"duration": p.now().Sub(start).Milliseconds(),
			})
			p.logger.Error("provisioning failed for %s: %v", creds.Email, err)
		}
	}()

	if err = creds.Validate(); err != nil {
		err = goerrors.Wrap(err, goerrors.CategoryValidation, "invalid account credentials")
		return nil, err
	}

	client := p.signups.NewSignupClient()

	result, signupErr := client.SignUp(ctx, SignUpParams{
		Email:    creds.Email,
		Password: creds.Password,
		Metadata: map[string]any{
			"role":       string(creds.Role),
			"first_name": creds.FirstName,
			"last_name":  creds.LastName,
		},
	})

	var identity *IdentityRecord
	var session *AuthSession

	switch {
	case signupErr == nil:
		if result == nil || result.Identity == nil {
			err = goerrors.New("identity provider returned no account", goerrors.CategoryAuth).
				WithTextCode(textCodeSignupFailed)
			return nil, err
		}
		identity = result.Identity
		session = result.Session
	case IsDuplicateAccount(signupErr):
		// A prior attempt may have created the identity but not the
		// profile; provisioning such an orphan converges here instead of
		// failing. A duplicate with a profile is a genuine conflict.
		identity = p.resolveOrphanIdentity(ctx, creds.Email)
		if identity == nil {
			err = goerrors.Wrap(signupErr, goerrors.CategoryConflict, "account already exists").
				WithTextCode(textCodeAccountExists)
			return nil, err
		}
	default:
		err = goerrors.Wrap(signupErr, goerrors.CategoryAuth, "identity signup failed").
			WithTextCode(textCodeSignupFailed)
		return nil, err
	}

	profile, profileErr := p.profiles.EnsureProfileExists(ctx, identity.ID, creds.Attributes())
	if profileErr != nil {
		// The identity exists but its profile is unconfirmed; this is the
		// recoverable partial-failure state, retried by calling again.
		err = goerrors.Wrap(profileErr, goerrors.CategoryInternal, "profile persistence failed").
			WithTextCode(textCodeProfilePersistence)
		return nil, err
	}

	duration := p.now().Sub(start)

	p.audit.LogUser(LevelInfo, ContextTenant, actionCreationSuccess, "account provisioned", identity.ID.String(), map[string]any{
		"email":    creds.Email,
		"userId":   identity.ID.String(),
		"duration": duration.Milliseconds(),
	})
	p.audit.LogPerformance(ContextTenant, "create_account", duration, map[string]any{
		"email": creds.Email,
	})

	return &ProvisionedAccount{
		ID:      identity.ID,
		Profile: profile,
		Session: session,
	}, nil
}

// resolveOrphanIdentity returns the identity for email when it exists
// at the provider without a corresponding profile. Requires both
// optional ports; without them duplicate signups always fail closed.
func (p *Provisioner) resolveOrphanIdentity(ctx context.Context, email string) *IdentityRecord {
	resolver, ok := p.signups.(IdentityResolver)
	if !ok {
		return nil
	}
	finder, ok := p.profiles.(ProfileFinder)
	if !ok {
		return nil
	}

	if _, err := finder.GetByEmail(ctx, email); err == nil || !goerrors.IsNotFound(err) {
		return nil
	}

	identity, err := resolver.LookupByEmail(ctx, email)
	if err != nil {
		return nil
	}
	return identity
}

// RegisterTenantMessage is the message-shaped wrapper used by screen
// event handlers that dispatch through a command bus.
type RegisterTenantMessage struct {
	AccountCredentials
}

// Type identifies the message on the bus
func (e RegisterTenantMessage) Type() string { return "tenant.register" }

// RegisterTenantHandler executes RegisterTenantMessage through a Provisioner
type RegisterTenantHandler struct {
	provisioner *Provisioner
}

// NewRegisterTenantHandler creates a handler bound to a provisioner
func NewRegisterTenantHandler(p *Provisioner) *RegisterTenantHandler {
	return &RegisterTenantHandler{provisioner: p}
}

// Execute implements the command-handler contract
func (h *RegisterTenantHandler) Execute(ctx context.Context, event RegisterTenantMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during tenant registration",
		)
	default:
		creds := event.AccountCredentials
		if creds.Role == "" {
			creds.Role = RoleTenant
		}
		_, err := h.provisioner.CreateAccount(ctx, creds)
		return err
	}
}
