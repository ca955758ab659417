package role

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/crewdeck/crewdeck/internal/audit"
	"github.com/crewdeck/crewdeck/internal/catalog"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) Create(ctx context.Context, r *Role) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *mockRepo) GetByID(ctx context.Context, id string) (*Role, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Role), args.Error(1)
}

func (m *mockRepo) GetByName(ctx context.Context, name string) (*Role, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Role), args.Error(1)
}

func (m *mockRepo) Update(ctx context.Context, r *Role) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *mockRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockRepo) List(ctx context.Context) ([]*Role, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Role), args.Error(1)
}

type mockMemberCounter struct {
	mock.Mock
}

func (m *mockMemberCounter) CountMembers(ctx context.Context, roleID string) (int, error) {
	args := m.Called(ctx, roleID)
	return args.Int(0), args.Error(1)
}

type mockAudit struct {
	mock.Mock
}

func (m *mockAudit) Log(ctx context.Context, event audit.Event) {
	m.Called(ctx, event)
}

func newTestService(repo *mockRepo, counter *mockMemberCounter) *Service {
	auditLogger := new(mockAudit)
	auditLogger.On("Log", mock.Anything, mock.Anything).Maybe()
	return NewService(repo, counter, auditLogger)
}

func TestRole_Service_Create(t *testing.T) {
	repo := new(mockRepo)
	service := newTestService(repo, new(mockMemberCounter))
	ctx := context.Background()

	repo.On("GetByName", ctx, "Dispatcher").Return(nil, ErrRoleNotFound)
	repo.On("Create", ctx, mock.MatchedBy(func(r *Role) bool {
		if _, err := uuid.Parse(r.ID); err != nil {
			return false
		}
		return r.Name == "Dispatcher" && r.Active && !r.System && !r.Wildcard
	})).Return(nil)

	created, err := service.Create(ctx, "Dispatcher", "Schedules crews", []Grant{
		{Resource: catalog.ResourceJobs, Actions: []string{catalog.ActionView}},
		{Resource: catalog.ResourceJobs, Actions: []string{catalog.ActionEdit}},
	})

	assert.NoError(t, err)
	assert.Len(t, created.Grants, 1, "duplicate resources are merged on create")
	assert.ElementsMatch(t, []string{catalog.ActionView, catalog.ActionEdit}, created.Grants[0].Actions)
	repo.AssertExpectations(t)
}

func TestRole_Service_Create_DuplicateName(t *testing.T) {
	repo := new(mockRepo)
	service := newTestService(repo, new(mockMemberCounter))
	ctx := context.Background()

	repo.On("GetByName", ctx, "Dispatcher").Return(&Role{ID: "existing", Name: "Dispatcher"}, nil)

	_, err := service.Create(ctx, "Dispatcher", "", nil)

	assert.ErrorIs(t, err, ErrDuplicateRoleName)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

// Name collisions are case-sensitive: "dispatcher" and "Dispatcher" are
// distinct roles.
func TestRole_Service_Create_CaseSensitiveNames(t *testing.T) {
	repo := new(mockRepo)
	service := newTestService(repo, new(mockMemberCounter))
	ctx := context.Background()

	repo.On("GetByName", ctx, "dispatcher").Return(nil, ErrRoleNotFound)
	repo.On("Create", ctx, mock.Anything).Return(nil)

	_, err := service.Create(ctx, "dispatcher", "", nil)

	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestRole_Service_Create_InvalidGrant(t *testing.T) {
	repo := new(mockRepo)
	service := newTestService(repo, new(mockMemberCounter))

	_, err := service.Create(context.Background(), "Dispatcher", "", []Grant{
		{Resource: "payroll", Actions: []string{catalog.ActionView}},
	})

	assert.ErrorIs(t, err, ErrInvalidPermission)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRole_Service_Update_Toggles(t *testing.T) {
	repo := new(mockRepo)
	service := newTestService(repo, new(mockMemberCounter))
	ctx := context.Background()

	stored := &Role{
		ID:     "role-1",
		Name:   "Dispatcher",
		Active: true,
		Grants: []Grant{
			{Resource: catalog.ResourceJobs, Actions: []string{catalog.ActionView}},
		},
	}
	repo.On("GetByID", ctx, "role-1").Return(stored, nil)
	repo.On("Update", ctx, mock.MatchedBy(func(r *Role) bool {
		return r.Allows(catalog.ResourceJobs, catalog.ActionEdit) &&
			r.Allows(catalog.ResourceJobs, catalog.ActionView)
	})).Return(nil)

	updated, err := service.Update(ctx, "role-1", Patch{
		Toggles: []TogglePair{{Resource: catalog.ResourceJobs, Action: catalog.ActionEdit}},
	})

	assert.NoError(t, err)
	assert.True(t, updated.Allows(catalog.ResourceJobs, catalog.ActionEdit))
	// The service works on a copy; the stored snapshot is untouched.
	assert.False(t, stored.Allows(catalog.ResourceJobs, catalog.ActionEdit))
	repo.AssertExpectations(t)
}

func TestRole_Service_Update_SystemRoleImmutable(t *testing.T) {
	repo := new(mockRepo)
	service := newTestService(repo, new(mockMemberCounter))
	ctx := context.Background()

	repo.On("GetByID", ctx, IDAdmin).Return(&Role{ID: IDAdmin, Name: NameAdmin, System: true}, nil)

	desc := "tweaked"
	_, err := service.Update(ctx, IDAdmin, Patch{Description: &desc})

	assert.ErrorIs(t, err, ErrImmutableRole)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestRole_Service_Update_InvalidToggle(t *testing.T) {
	repo := new(mockRepo)
	service := newTestService(repo, new(mockMemberCounter))
	ctx := context.Background()

	repo.On("GetByID", ctx, "role-1").Return(&Role{ID: "role-1", Name: "Dispatcher"}, nil)

	_, err := service.Update(ctx, "role-1", Patch{
		Toggles: []TogglePair{{Resource: catalog.ResourceJobs, Action: "approve"}},
	})

	assert.ErrorIs(t, err, ErrInvalidPermission)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestRole_Service_Delete(t *testing.T) {
	repo := new(mockRepo)
	counter := new(mockMemberCounter)
	service := newTestService(repo, counter)
	ctx := context.Background()

	repo.On("GetByID", ctx, "role-1").Return(&Role{ID: "role-1", Name: "Dispatcher"}, nil)
	counter.On("CountMembers", ctx, "role-1").Return(0, nil)
	repo.On("Delete", ctx, "role-1").Return(nil)

	err := service.Delete(ctx, "role-1")

	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestRole_Service_Delete_WithMembers(t *testing.T) {
	repo := new(mockRepo)
	counter := new(mockMemberCounter)
	service := newTestService(repo, counter)
	ctx := context.Background()

	repo.On("GetByID", ctx, "role-1").Return(&Role{ID: "role-1", Name: "Dispatcher"}, nil)
	counter.On("CountMembers", ctx, "role-1").Return(3, nil)

	err := service.Delete(ctx, "role-1")

	assert.ErrorIs(t, err, ErrRoleHasMembers)
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestRole_Service_Delete_SystemRole(t *testing.T) {
	repo := new(mockRepo)
	service := newTestService(repo, new(mockMemberCounter))
	ctx := context.Background()

	repo.On("GetByID", ctx, IDOwner).Return(&Role{ID: IDOwner, Name: NameOwner, System: true}, nil)

	err := service.Delete(ctx, IDOwner)

	assert.ErrorIs(t, err, ErrImmutableRole)
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestRole_Service_Seed(t *testing.T) {
	repo := new(mockRepo)
	service := newTestService(repo, new(mockMemberCounter))
	ctx := context.Background()

	// First boot: nothing stored yet, every system role is created.
	repo.On("GetByID", ctx, mock.Anything).Return(nil, ErrRoleNotFound)
	repo.On("Create", ctx, mock.MatchedBy(func(r *Role) bool { return r.System })).Return(nil)

	err := service.Seed(ctx)

	assert.NoError(t, err)
	repo.AssertNumberOfCalls(t, "Create", len(SystemRoles()))
}

func TestRole_Service_Seed_RefreshesExisting(t *testing.T) {
	repo := new(mockRepo)
	service := newTestService(repo, new(mockMemberCounter))
	ctx := context.Background()

	// Subsequent boot: stored definitions are overwritten from code.
	repo.On("GetByID", ctx, mock.Anything).Return(&Role{ID: IDOwner, System: true}, nil)
	repo.On("Update", ctx, mock.MatchedBy(func(r *Role) bool { return r.System })).Return(nil)

	err := service.Seed(ctx)

	assert.NoError(t, err)
	repo.AssertNumberOfCalls(t, "Update", len(SystemRoles()))
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRole_Service_Get_FallsBackToName(t *testing.T) {
	repo := new(mockRepo)
	service := newTestService(repo, new(mockMemberCounter))
	ctx := context.Background()

	repo.On("GetByID", ctx, "Dispatcher").Return(nil, ErrRoleNotFound)
	repo.On("GetByName", ctx, "Dispatcher").Return(&Role{ID: "role-1", Name: "Dispatcher"}, nil)

	got, err := service.Get(ctx, "Dispatcher")

	assert.NoError(t, err)
	assert.Equal(t, "role-1", got.ID)
}
