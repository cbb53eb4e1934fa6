package provision_test

import (
	"context"

	"github.com/google/uuid"
	provision "github.com/quartershq/go-provision"
	"github.com/stretchr/testify/mock"
)

// MockProfileStore implements provision.ProfileStore and ProfileFinder
type MockProfileStore struct {
	mock.Mock
}

func (m *MockProfileStore) EnsureProfileExists(ctx context.Context, id uuid.UUID, attrs provision.ProfileAttributes) (*provision.Profile, error) {
	args := m.Called(ctx, id, attrs)
	if profile, ok := args.Get(0).(*provision.Profile); ok {
		return profile, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProfileStore) GetByEmail(ctx context.Context, email string) (*provision.Profile, error) {
	args := m.Called(ctx, email)
	if profile, ok := args.Get(0).(*provision.Profile); ok {
		return profile, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockIdentityClient implements provision.IdentityClient
type MockIdentityClient struct {
	mock.Mock
}

func (m *MockIdentityClient) SignUp(ctx context.Context, params provision.SignUpParams) (*provision.SignUpResult, error) {
	args := m.Called(ctx, params)
	if result, ok := args.Get(0).(*provision.SignUpResult); ok {
		return result, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockIdentityClient) GetSession(ctx context.Context) (*provision.AuthSession, error) {
	args := m.Called(ctx)
	if session, ok := args.Get(0).(*provision.AuthSession); ok {
		return session, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockIdentityClient) SetSession(ctx context.Context, session *provision.AuthSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockIdentityClient) OnAuthStateChange(fn provision.AuthChangeListener) func() {
	args := m.Called(fn)
	if unsubscribe, ok := args.Get(0).(func()); ok {
		return unsubscribe
	}
	return func() {}
}

// flakyProfileStore fails a configured number of EnsureProfileExists
// calls before delegating to the real store.
type flakyProfileStore struct {
	inner     provision.ProfileStore
	failures  int
	callCount int
	err       error
}

func (f *flakyProfileStore) EnsureProfileExists(ctx context.Context, id uuid.UUID, attrs provision.ProfileAttributes) (*provision.Profile, error) {
	f.callCount++
	if f.callCount <= f.failures {
		return nil, f.err
	}
	return f.inner.EnsureProfileExists(ctx, id, attrs)
}

func (f *flakyProfileStore) GetByEmail(ctx context.Context, email string) (*provision.Profile, error) {
	if finder, ok := f.inner.(provision.ProfileFinder); ok {
		return finder.GetByEmail(ctx, email)
	}
	return nil, f.err
}
