// Copyright 2026 The Crewdeck Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package role

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/crewdeck/crewdeck/internal/audit"
	"github.com/crewdeck/crewdeck/internal/catalog"
	"github.com/crewdeck/crewdeck/internal/id"
	"github.com/crewdeck/crewdeck/internal/keylock"
)

// TogglePair identifies a single (resource, action) flip on a role's grants.
type TogglePair struct {
	Resource string `json:"resource"`
	Action   string `json:"action"`
}

// Patch describes a partial update to a custom role. Nil fields are left
// untouched. Toggles are applied in order against the role's current grants,
// so flipping one action never clobbers sibling actions on the same resource.
type Patch struct {
	Name        *string
	Description *string
	Active      *bool
	Toggles     []TogglePair
}

// Service provides role store business logic. Mutations are serialized per
// role via a keyed lock so concurrent toggles on the same role cannot lose
// updates; reads go straight to the repository.
type Service struct {
	repo        Repository
	members     MemberCounter
	auditLogger audit.Logger
	locks       *keylock.KeyLock
}

// NewService creates a new role service.
func NewService(repo Repository, members MemberCounter, auditLogger audit.Logger) *Service {
	return &Service{
		repo:        repo,
		members:     members,
		auditLogger: auditLogger,
		locks:       keylock.New(),
	}
}

// Seed upserts the built-in system roles. The in-code catalog is
// authoritative: a changed definition overwrites the stored record on the
// next startup. Custom roles are never touched.
func (s *Service) Seed(ctx context.Context) error {
	for _, def := range SystemRoles() {
		existing, err := s.repo.GetByID(ctx, def.ID)
		switch {
		case errors.Is(err, ErrRoleNotFound):
			now := time.Now()
			def.CreatedAt = now
			def.UpdatedAt = now
			if err := s.repo.Create(ctx, def); err != nil {
				return fmt.Errorf("failed to seed system role %s: %w", def.Name, err)
			}
			s.auditLogger.Log(ctx, audit.Event{
				Type:     audit.TypeSystemRoleSeeded,
				ActorID:  audit.ActorSystemSeed,
				Resource: def.Name,
				Metadata: map[string]any{"role_id": def.ID},
			})
		case err != nil:
			return fmt.Errorf("failed to look up system role %s: %w", def.Name, err)
		default:
			def.CreatedAt = existing.CreatedAt
			def.UpdatedAt = time.Now()
			if err := s.repo.Update(ctx, def); err != nil {
				return fmt.Errorf("failed to refresh system role %s: %w", def.Name, err)
			}
		}
	}
	return nil
}

// Create creates a custom role. The name must not collide (case-sensitive)
// with any existing role, system or custom; grants must be inside the
// catalog and are normalized before storage.
func (s *Service) Create(ctx context.Context, name, description string, grants []Grant) (*Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("role name is required")
	}

	normalized, err := NormalizeGrants(grants)
	if err != nil {
		return nil, err
	}

	// Serialize creates on the name so two racing creates cannot both pass
	// the duplicate check.
	key := "name:" + name
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	if _, err := s.repo.GetByName(ctx, name); err == nil {
		return nil, ErrDuplicateRoleName
	} else if !errors.Is(err, ErrRoleNotFound) {
		return nil, fmt.Errorf("failed to check role name: %w", err)
	}

	now := time.Now()
	r := &Role{
		ID:          id.NewUUIDv7(),
		Name:        name,
		Description: description,
		Active:      true,
		Grants:      normalized,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to create role: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeRoleCreated,
		Resource: r.Name,
		Metadata: map[string]any{"role_id": r.ID},
	})

	return r.Clone(), nil
}

// Update applies a patch to a custom role. System roles are immutable and
// fail with ErrImmutableRole regardless of the payload. The read-modify-write
// is serialized per role ID so concurrent toggles are linearized.
func (s *Service) Update(ctx context.Context, roleID string, patch Patch) (*Role, error) {
	s.locks.Lock(roleID)
	defer s.locks.Unlock(roleID)

	r, err := s.repo.GetByID(ctx, roleID)
	if err != nil {
		return nil, err
	}
	if r.System {
		return nil, ErrImmutableRole
	}
	r = r.Clone()

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, fmt.Errorf("role name is required")
		}
		if name != r.Name {
			if _, err := s.repo.GetByName(ctx, name); err == nil {
				return nil, ErrDuplicateRoleName
			} else if !errors.Is(err, ErrRoleNotFound) {
				return nil, fmt.Errorf("failed to check role name: %w", err)
			}
			r.Name = name
		}
	}
	if patch.Description != nil {
		r.Description = *patch.Description
	}
	if patch.Active != nil {
		r.Active = *patch.Active
	}

	for _, t := range patch.Toggles {
		if !catalog.Valid(t.Resource, t.Action) {
			return nil, ErrInvalidPermission
		}
		r.Toggle(t.Resource, t.Action)
	}

	r.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeRoleUpdated,
		Resource: r.Name,
		Metadata: map[string]any{"role_id": r.ID, "toggles": len(patch.Toggles)},
	})

	return r.Clone(), nil
}

// Delete removes a custom role. System roles fail with ErrImmutableRole.
// Roles that still have members fail with ErrRoleHasMembers; members must be
// reassigned first, the store never orphans them silently.
func (s *Service) Delete(ctx context.Context, roleID string) error {
	s.locks.Lock(roleID)
	defer s.locks.Unlock(roleID)

	r, err := s.repo.GetByID(ctx, roleID)
	if err != nil {
		return err
	}
	if r.System {
		return ErrImmutableRole
	}

	count, err := s.members.CountMembers(ctx, roleID)
	if err != nil {
		return fmt.Errorf("failed to count members: %w", err)
	}
	if count > 0 {
		return ErrRoleHasMembers
	}

	if err := s.repo.Delete(ctx, roleID); err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeRoleDeleted,
		Resource: r.Name,
		Metadata: map[string]any{"role_id": r.ID},
	})

	return nil
}

// Get retrieves a role by ID, falling back to a name lookup so callers can
// use either identifier.
func (s *Service) Get(ctx context.Context, nameOrID string) (*Role, error) {
	r, err := s.repo.GetByID(ctx, nameOrID)
	if errors.Is(err, ErrRoleNotFound) {
		r, err = s.repo.GetByName(ctx, nameOrID)
	}
	if err != nil {
		return nil, err
	}
	return r.Clone(), nil
}

// List returns system roles first in catalog order, then custom roles in
// insertion order.
func (s *Service) List(ctx context.Context) ([]*Role, error) {
	roles, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	out := make([]*Role, len(roles))
	for i, r := range roles {
		out[i] = r.Clone()
	}
	return out, nil
}
