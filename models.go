package provision

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"
	"github.com/nyaruka/phonenumbers"
	"github.com/uptrace/bun"
)

// ProfileRole is the application role a profile holds
type ProfileRole string

const (
	// RoleTenant is a renter (i.e. dashboard, own units, maintenance)
	RoleTenant ProfileRole = "tenant"
	// RoleManager is a property manager (i.e. manage properties, tenants, finance)
	RoleManager ProfileRole = "manager"
	// RoleOwner is a property owner (i.e. everything a manager can, plus reports)
	RoleOwner ProfileRole = "owner"
	// RoleAdmin is a platform administrator
	RoleAdmin ProfileRole = "admin"
)

// ProfileType categorizes a profile; it mirrors the role unless
// explicitly overridden at creation time.
type ProfileType string

const (
	ProfileTypeTenant  ProfileType = "tenant"
	ProfileTypeManager ProfileType = "manager"
	ProfileTypeOwner   ProfileType = "owner"
	ProfileTypeAdmin   ProfileType = "admin"
)

// DefaultProfileType maps a role to the profile type used when none is set.
func (r ProfileRole) DefaultProfileType() ProfileType {
	switch r {
	case RoleManager:
		return ProfileTypeManager
	case RoleOwner:
		return ProfileTypeOwner
	case RoleAdmin:
		return ProfileTypeAdmin
	default:
		return ProfileTypeTenant
	}
}

// ProfileStatus is the lifecycle status of a profile
type ProfileStatus string

const (
	ProfileStatusActive    ProfileStatus = "active"
	ProfileStatusInactive  ProfileStatus = "inactive"
	ProfileStatusSuspended ProfileStatus = "suspended"
)

// IsValid checks if the status is one of the predefined statuses
func (s ProfileStatus) IsValid() bool {
	switch s {
	case ProfileStatusActive, ProfileStatusInactive, ProfileStatusSuspended:
		return true
	default:
		return false
	}
}

// Profile is the application record describing a user, keyed by the
// identity-provider account id. At most one profile exists per id;
// profiles are never hard deleted, only moved between statuses.
type Profile struct {
	bun.BaseModel `bun:"table:profiles,alias:prf"`
	ID            uuid.UUID     `bun:"id,pk,type:uuid" json:"id,omitempty"`
	Email         string        `bun:"email,notnull,unique" json:"email,omitempty"`
	FirstName     string        `bun:"first_name,notnull" json:"first_name,omitempty"`
	LastName      string        `bun:"last_name,notnull" json:"last_name,omitempty"`
	Role          ProfileRole   `bun:"role,notnull" json:"role,omitempty"`
	ProfileType   ProfileType   `bun:"profile_type,notnull" json:"profile_type,omitempty"`
	Status        ProfileStatus `bun:"status,notnull,default:'active'" json:"status,omitempty"`
	Phone         string        `bun:"phone_number" json:"phone_number,omitempty"`
	Address       string        `bun:"address" json:"address,omitempty"`
	CreatedAt     *time.Time    `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time    `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// ProfileAttributes carries the profile fields established during
// provisioning. Password never travels through here.
type ProfileAttributes struct {
	Email       string      `json:"email"`
	FirstName   string      `json:"first_name"`
	LastName    string      `json:"last_name"`
	Role        ProfileRole `json:"role"`
	ProfileType ProfileType `json:"profile_type,omitempty"`
	Phone       string      `json:"phone_number,omitempty"`
	Address     string      `json:"address,omitempty"`
}

// AccountCredentials is the transient input for CreateAccount. It is
// held only for the duration of the provisioning call.
type AccountCredentials struct {
	Email       string      `json:"email"`
	Password    string      `json:"password"`
	FirstName   string      `json:"first_name"`
	LastName    string      `json:"last_name"`
	Role        ProfileRole `json:"role"`
	ProfileType ProfileType `json:"profile_type,omitempty"`
	Phone       string      `json:"phone_number,omitempty"`
	Address     string      `json:"address,omitempty"`
}

// Validate checks the credentials before any provider call is made
func (c AccountCredentials) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&c.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(&c.FirstName, validation.Required, validation.Length(1, 200)),
		validation.Field(&c.LastName, validation.Required, validation.Length(1, 200)),
		validation.Field(&c.Role, validation.Required, validation.By(validRole)),
		validation.Field(&c.Phone, validation.By(validPhone)),
	)
}

// Attributes derives the profile attributes persisted for this account
func (c AccountCredentials) Attributes() ProfileAttributes {
	profileType := c.ProfileType
	if profileType == "" {
		profileType = c.Role.DefaultProfileType()
	}

	return ProfileAttributes{
		Email:       c.Email,
		FirstName:   c.FirstName,
		LastName:    c.LastName,
		Role:        c.Role,
		ProfileType: profileType,
		Phone:       c.Phone,
		Address:     c.Address,
	}
}

func validRole(value any) error {
	role, _ := value.(ProfileRole)
	if !role.IsValid() {
		return errInvalidRole
	}
	return nil
}

// validPhone accepts empty phones; when present the number must parse
// as a valid phone number (US assumed when no country code is given).
func validPhone(value any) error {
	phone, _ := value.(string)
	if phone == "" {
		return nil
	}

	num, err := phonenumbers.Parse(phone, "US")
	if err != nil {
		return errInvalidPhone
	}

	if !phonenumbers.IsValidNumber(num) {
		return errInvalidPhone
	}

	return nil
}
