package provision

import (
	"context"
	"database/sql"
	"errors"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ProfileStore is the persistence port the provisioner depends on
type ProfileStore interface {
	EnsureProfileExists(ctx context.Context, id uuid.UUID, attrs ProfileAttributes) (*Profile, error)
}

// ProfileFinder is an optional extension of ProfileStore used to tell a
// genuine duplicate account apart from an orphaned identity.
type ProfileFinder interface {
	GetByEmail(ctx context.Context, email string) (*Profile, error)
}

// statusTransitions is the allowed profile status graph. Profiles are
// never hard deleted; "inactive" is the closest thing to removal.
var statusTransitions = map[ProfileStatus][]ProfileStatus{
	ProfileStatusActive:    {ProfileStatusInactive, ProfileStatusSuspended},
	ProfileStatusInactive:  {ProfileStatusActive},
	ProfileStatusSuspended: {ProfileStatusActive, ProfileStatusInactive},
}

// ErrInvalidStatusTransition is returned when a requested status change is not allowed
var ErrInvalidStatusTransition = goerrors.New("invalid profile status transition", goerrors.CategoryValidation).
	WithTextCode("INVALID_PROFILE_STATUS_TRANSITION").
	WithCode(goerrors.CodeBadRequest)

// ProfileRepository implements ProfileStore using Bun over a profiles
// table. Creation is idempotent: the same id always converges to a
// single row, whether the duplicate shows up on the pre-insert fetch or
// as a unique-constraint violation from a lost race.
type ProfileRepository struct {
	db    *bun.DB
	audit *AuditLog
	now   func() time.Time
}

// NewProfileRepository creates a new repository. The audit log is
// required; every ensure outcome is recorded under the "profile" context.
func NewProfileRepository(db *bun.DB, audit *AuditLog) *ProfileRepository {
	return &ProfileRepository{
		db:    db,
		audit: audit,
		now:   time.Now,
	}
}

var (
	_ ProfileStore  = (*ProfileRepository)(nil)
	_ ProfileFinder = (*ProfileRepository)(nil)
)

// EnsureProfileExists returns the profile for id, creating it from
// attrs when absent. An existing row is returned unchanged: attributes
// of the request are not compared against or written over it. Failures
// other than "already exists" surface as errors; retry policy belongs
// to the caller.
func (r *ProfileRepository) EnsureProfileExists(ctx context.Context, id uuid.UUID, attrs ProfileAttributes) (*Profile, error) {
	start := r.now()

	existing, err := r.GetByID(ctx, id)
	if err == nil {
		r.logOutcome("create", id, true, start, map[string]any{"existed": true})
		return existing, nil
	}
	if !goerrors.IsNotFound(err) {
		r.logOutcome("create", id, false, start, map[string]any{"error": err.Error()})
		return nil, err
	}

	profile := newProfileFromAttributes(id, attrs)
	if _, err := r.db.NewInsert().Model(profile).Exec(ctx); err != nil {
		if IsUniqueViolation(err) {
			// Lost a race or retried after a partial failure; the row is there.
			existing, fetchErr := r.GetByID(ctx, id)
			if fetchErr == nil {
				r.logOutcome("create", id, true, start, map[string]any{"existed": true})
				return existing, nil
			}
			// Unique violation on a different key (e.g. email taken by
			// another id) is a real conflict, not idempotency.
			conflict := goerrors.Wrap(err, goerrors.CategoryConflict, "profile conflicts with an existing account").
				WithTextCode(textCodeAccountExists)
			r.logOutcome("create", id, false, start, map[string]any{"error": conflict.Error()})
			return nil, conflict
		}

		wrapped := goerrors.Wrap(err, goerrors.CategoryInternal, "could not create profile")
		r.logOutcome("create", id, false, start, map[string]any{"error": wrapped.Error()})
		return nil, wrapped
	}

	r.logOutcome("create", id, true, start, map[string]any{"existed": false})
	return profile, nil
}

// GetByID fetches a profile by account id
func (r *ProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*Profile, error) {
	profile := &Profile{}
	err := r.db.NewSelect().
		Model(profile).
		Where("prf.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, goerrors.New("profile not found", goerrors.CategoryNotFound).
				WithCode(goerrors.CodeNotFound)
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to fetch profile")
	}
	return profile, nil
}

// GetByEmail fetches a profile by email
func (r *ProfileRepository) GetByEmail(ctx context.Context, email string) (*Profile, error) {
	profile := &Profile{}
	err := r.db.NewSelect().
		Model(profile).
		Where("prf.email = ?", email).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, goerrors.New("profile not found", goerrors.CategoryNotFound).
				WithCode(goerrors.CodeNotFound)
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to fetch profile")
	}
	return profile, nil
}

// UpdateStatus moves the profile to target after validating the
// transition against the status graph.
func (r *ProfileRepository) UpdateStatus(ctx context.Context, id uuid.UUID, target ProfileStatus) (*Profile, error) {
	if !target.IsValid() {
		return nil, ErrInvalidStatusTransition
	}

	profile, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if profile.Status == target {
		return profile, nil
	}

	if !transitionAllowed(profile.Status, target) {
		return nil, ErrInvalidStatusTransition
	}

	now := r.now()
	profile.Status = target
	profile.UpdatedAt = &now

	if _, err := r.db.NewUpdate().
		Model(profile).
		Column("status", "updated_at").
		WherePK().
		Exec(ctx); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not update profile status")
	}

	r.audit.LogUser(LevelInfo, ContextProfile, "status_change", "profile status updated", id.String(), map[string]any{
		"status": string(target),
	})

	return profile, nil
}

func transitionAllowed(from, to ProfileStatus) bool {
	for _, allowed := range statusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func newProfileFromAttributes(id uuid.UUID, attrs ProfileAttributes) *Profile {
	profileType := attrs.ProfileType
	if profileType == "" {
		profileType = attrs.Role.DefaultProfileType()
	}

	now := time.Now()
	return &Profile{
		ID:          id,
		Email:       attrs.Email,
		FirstName:   attrs.FirstName,
		LastName:    attrs.LastName,
		Role:        attrs.Role,
		ProfileType: profileType,
		Status:      ProfileStatusActive,
		Phone:       attrs.Phone,
		Address:     attrs.Address,
		CreatedAt:   &now,
		UpdatedAt:   &now,
	}
}

func (r *ProfileRepository) logOutcome(action string, id uuid.UUID, success bool, start time.Time, metadata map[string]any) {
	if r.audit == nil {
		return
	}

	md := make(map[string]any, len(metadata)+2)
	for k, v := range metadata {
		md[k] = v
	}
	md["success"] = success
	md["duration"] = r.now().Sub(start).Milliseconds()

	level := LevelInfo
	message := "profile operation succeeded"
	if !success {
		level = LevelError
		message = "profile operation failed"
	}

	r.audit.LogUser(level, ContextProfile, action, message, id.String(), md)
}
