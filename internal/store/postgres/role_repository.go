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

package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/crewdeck/crewdeck/internal/role"
)

// pgUniqueViolation is the PostgreSQL error code for unique constraint violations.
const pgUniqueViolation = "23505"

// RoleRepository implements role.Repository
type RoleRepository struct {
	db *DB
}

// NewRoleRepository creates a new role repository
func NewRoleRepository(db *DB) *RoleRepository {
	return &RoleRepository{db: db}
}

// Create inserts a role. A name collision maps to role.ErrDuplicateRoleName.
func (r *RoleRepository) Create(ctx context.Context, ro *role.Role) error {
	grants, err := json.Marshal(ro.Grants)
	if err != nil {
		return fmt.Errorf("failed to encode grants: %w", err)
	}

	_, err = r.db.pool.Exec(ctx, `
		INSERT INTO roles (id, name, description, is_system, is_active, wildcard, grants, position, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, ro.ID, ro.Name, ro.Description, ro.System, ro.Active, ro.Wildcard, grants, ro.Position, ro.CreatedAt, ro.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return role.ErrDuplicateRoleName
		}
		return fmt.Errorf("failed to create role: %w", err)
	}

	return nil
}

// GetByID retrieves a role by ID
func (r *RoleRepository) GetByID(ctx context.Context, id string) (*role.Role, error) {
	return r.scanOne(ctx, `
		SELECT id, name, description, is_system, is_active, wildcard, grants, position, created_at, updated_at
		FROM roles
		WHERE id = $1
	`, id)
}

// GetByName retrieves a role by exact name. TEXT equality in PostgreSQL is
// case-sensitive, which is exactly the collision rule we want.
func (r *RoleRepository) GetByName(ctx context.Context, name string) (*role.Role, error) {
	return r.scanOne(ctx, `
		SELECT id, name, description, is_system, is_active, wildcard, grants, position, created_at, updated_at
		FROM roles
		WHERE name = $1
	`, name)
}

// Update updates a role record
func (r *RoleRepository) Update(ctx context.Context, ro *role.Role) error {
	grants, err := json.Marshal(ro.Grants)
	if err != nil {
		return fmt.Errorf("failed to encode grants: %w", err)
	}

	result, err := r.db.pool.Exec(ctx, `
		UPDATE roles
		SET name = $2, description = $3, is_system = $4, is_active = $5, wildcard = $6, grants = $7, position = $8, updated_at = $9
		WHERE id = $1
	`, ro.ID, ro.Name, ro.Description, ro.System, ro.Active, ro.Wildcard, grants, ro.Position, ro.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return role.ErrDuplicateRoleName
		}
		return fmt.Errorf("failed to update role: %w", err)
	}
	if result.RowsAffected() == 0 {
		return role.ErrRoleNotFound
	}

	return nil
}

// Delete removes a role by ID
func (r *RoleRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.pool.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
	}
	if result.RowsAffected() == 0 {
		return role.ErrRoleNotFound
	}
	return nil
}

// List returns system roles first in catalog order, then custom roles in
// insertion order.
func (r *RoleRepository) List(ctx context.Context) ([]*role.Role, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT id, name, description, is_system, is_active, wildcard, grants, position, created_at, updated_at
		FROM roles
		ORDER BY is_system DESC, position ASC, created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	defer rows.Close()

	var roles []*role.Role
	for rows.Next() {
		ro, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, ro)
	}

	return roles, rows.Err()
}

func (r *RoleRepository) scanOne(ctx context.Context, query, arg string) (*role.Role, error) {
	ro, err := scanRole(r.db.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, role.ErrRoleNotFound
		}
		return nil, err
	}
	return ro, nil
}

func scanRole(row pgx.Row) (*role.Role, error) {
	var ro role.Role
	var grants []byte
	if err := row.Scan(&ro.ID, &ro.Name, &ro.Description, &ro.System, &ro.Active, &ro.Wildcard, &grants, &ro.Position, &ro.CreatedAt, &ro.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan role: %w", err)
	}
	if err := json.Unmarshal(grants, &ro.Grants); err != nil {
		return nil, fmt.Errorf("failed to decode grants: %w", err)
	}
	return &ro, nil
}
