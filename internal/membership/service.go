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

package membership

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/crewdeck/crewdeck/internal/audit"
	"github.com/crewdeck/crewdeck/internal/directory"
	"github.com/crewdeck/crewdeck/internal/keylock"
	"github.com/crewdeck/crewdeck/internal/role"
)

// RoleStore is the slice of the role service the registry needs.
type RoleStore interface {
	Get(ctx context.Context, nameOrID string) (*role.Role, error)
}

// Service provides membership registry business logic. Mutations are
// serialized per user so concurrent assigns for the same user linearize;
// different users proceed independently.
type Service struct {
	repo        Repository
	roles       RoleStore
	users       directory.Repository
	auditLogger audit.Logger
	locks       *keylock.KeyLock
}

// NewService creates a new membership service.
func NewService(repo Repository, roles RoleStore, users directory.Repository, auditLogger audit.Logger) *Service {
	return &Service{
		repo:        repo,
		roles:       roles,
		users:       users,
		auditLogger: auditLogger,
		locks:       keylock.New(),
	}
}

// Assign gives the user the role, overwriting any prior membership. The role
// must exist and be active; an inactive role is treated as not found so it
// cannot acquire new members. The user must exist in the directory.
func (s *Service) Assign(ctx context.Context, userID, roleNameOrID, assignedBy string) error {
	r, err := s.roles.Get(ctx, roleNameOrID)
	if err != nil {
		return err
	}
	if !r.Active {
		return role.ErrRoleNotFound
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	s.locks.Lock(userID)
	defer s.locks.Unlock(userID)

	m := &Membership{
		UserID:     user.ID,
		RoleID:     r.ID,
		AssignedAt: time.Now(),
		AssignedBy: assignedBy,
	}
	if err := s.repo.Upsert(ctx, m); err != nil {
		return fmt.Errorf("failed to assign role: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeMemberAssigned,
		ActorID:  assignedBy,
		Resource: r.Name,
		Metadata: map[string]any{"user_id": user.ID, "role_id": r.ID},
	})

	return nil
}

// Unassign removes the user's membership in the named role. If the user's
// current role is a different one (or none), it fails with ErrNotAMember.
// On success the user is roleless; the resolver denies everything for a
// roleless user until the next assign.
func (s *Service) Unassign(ctx context.Context, userID, roleNameOrID, removedBy string) error {
	r, err := s.roles.Get(ctx, roleNameOrID)
	if err != nil {
		return err
	}

	s.locks.Lock(userID)
	defer s.locks.Unlock(userID)

	current, err := s.repo.GetByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotAMember) {
			return ErrNotAMember
		}
		return fmt.Errorf("failed to look up membership: %w", err)
	}
	if current.RoleID != r.ID {
		return ErrNotAMember
	}

	if err := s.repo.Delete(ctx, userID); err != nil {
		return fmt.Errorf("failed to unassign role: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeMemberUnassigned,
		ActorID:  removedBy,
		Resource: r.Name,
		Metadata: map[string]any{"user_id": userID, "role_id": r.ID},
	})

	return nil
}

// MembersOf returns the memberships of the role. Order is not significant.
func (s *Service) MembersOf(ctx context.Context, roleNameOrID string) ([]*Membership, error) {
	r, err := s.roles.Get(ctx, roleNameOrID)
	if err != nil {
		return nil, err
	}
	members, err := s.repo.ListByRole(ctx, r.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return members, nil
}

// RoleOf returns the user's current role, or (nil, nil) when the user holds
// none. Unknown users also resolve to no role rather than an error: the
// registry answers "what role does this identity hold", not "does this
// identity exist".
func (s *Service) RoleOf(ctx context.Context, userID string) (*role.Role, error) {
	m, err := s.repo.GetByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotAMember) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up membership: %w", err)
	}
	r, err := s.roles.Get(ctx, m.RoleID)
	if err != nil {
		if errors.Is(err, role.ErrRoleNotFound) {
			// Dangling relation; treat as roleless.
			return nil, nil
		}
		return nil, err
	}
	return r, nil
}
