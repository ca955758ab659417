package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/crewdeck/crewdeck/internal/membership"
)

// MembershipRepository implements membership.Repository. The memberships
// table keys on user_id, so the one-role-per-user invariant holds at the
// store level too.
type MembershipRepository struct {
	db *DB
}

// NewMembershipRepository creates a new membership repository
func NewMembershipRepository(db *DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

// Upsert writes the user's membership, replacing any prior relation in one
// atomic statement.
func (r *MembershipRepository) Upsert(ctx context.Context, m *membership.Membership) error {
	var assignedBy sql.NullString
	if m.AssignedBy != "" {
		assignedBy = sql.NullString{String: m.AssignedBy, Valid: true}
	}

	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO memberships (user_id, role_id, assigned_at, assigned_by)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET role_id = EXCLUDED.role_id, assigned_at = EXCLUDED.assigned_at, assigned_by = EXCLUDED.assigned_by
	`, m.UserID, m.RoleID, m.AssignedAt, assignedBy)

	if err != nil {
		return fmt.Errorf("failed to upsert membership: %w", err)
	}
	return nil
}

// Delete removes the user's membership
func (r *MembershipRepository) Delete(ctx context.Context, userID string) error {
	result, err := r.db.pool.Exec(ctx, `DELETE FROM memberships WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete membership: %w", err)
	}
	if result.RowsAffected() == 0 {
		return membership.ErrNotAMember
	}
	return nil
}

// GetByUser retrieves the user's membership, membership.ErrNotAMember when none.
func (r *MembershipRepository) GetByUser(ctx context.Context, userID string) (*membership.Membership, error) {
	var m membership.Membership
	var assignedBy sql.NullString

	err := r.db.pool.QueryRow(ctx, `
		SELECT user_id, role_id, assigned_at, assigned_by
		FROM memberships
		WHERE user_id = $1
	`, userID).Scan(&m.UserID, &m.RoleID, &m.AssignedAt, &assignedBy)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, membership.ErrNotAMember
		}
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	if assignedBy.Valid {
		m.AssignedBy = assignedBy.String
	}

	return &m, nil
}

// ListByRole retrieves all memberships for a role
func (r *MembershipRepository) ListByRole(ctx context.Context, roleID string) ([]*membership.Membership, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT user_id, role_id, assigned_at, assigned_by
		FROM memberships
		WHERE role_id = $1
	`, roleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	defer rows.Close()

	var members []*membership.Membership
	for rows.Next() {
		var m membership.Membership
		var assignedBy sql.NullString
		if err := rows.Scan(&m.UserID, &m.RoleID, &m.AssignedAt, &assignedBy); err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		if assignedBy.Valid {
			m.AssignedBy = assignedBy.String
		}
		members = append(members, &m)
	}

	return members, rows.Err()
}

// CountMembers reports how many users hold the role. Satisfies
// role.MemberCounter for the role store's delete guard.
func (r *MembershipRepository) CountMembers(ctx context.Context, roleID string) (int, error) {
	return r.CountByRole(ctx, roleID)
}

// CountByRole counts memberships for a role
func (r *MembershipRepository) CountByRole(ctx context.Context, roleID string) (int, error) {
	var count int
	err := r.db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM memberships WHERE role_id = $1`, roleID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count memberships: %w", err)
	}
	return count, nil
}
