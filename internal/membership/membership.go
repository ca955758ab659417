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

// Package membership owns the user → role relation. A user holds at most one
// role at a time; assigning overwrites the previous relation rather than
// appending to it, and no history is kept here.
package membership

import (
	"context"
	"errors"
	"time"
)

// Domain errors
var (
	ErrNotAMember = errors.New("user does not hold this role")
)

// Membership binds a user to their current role.
type Membership struct {
	UserID     string    `json:"user_id"`
	RoleID     string    `json:"role_id"`
	AssignedAt time.Time `json:"assigned_at"`
	AssignedBy string    `json:"assigned_by,omitempty"`
}

// Repository defines the interface for membership storage. Upsert replaces
// any existing relation for the user in a single atomic write. GetByUser
// returns ErrNotAMember when the user holds no role.
type Repository interface {
	Upsert(ctx context.Context, m *Membership) error
	Delete(ctx context.Context, userID string) error
	GetByUser(ctx context.Context, userID string) (*Membership, error)
	ListByRole(ctx context.Context, roleID string) ([]*Membership, error)
	CountByRole(ctx context.Context, roleID string) (int, error)
}
