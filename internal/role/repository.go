package role

import "context"

// Repository defines the interface for role persistence. Implementations
// must provide atomic per-row writes; serialization of read-modify-write
// sequences is the service's responsibility.
type Repository interface {
	Create(ctx context.Context, role *Role) error
	GetByID(ctx context.Context, id string) (*Role, error)
	GetByName(ctx context.Context, name string) (*Role, error)
	Update(ctx context.Context, role *Role) error
	Delete(ctx context.Context, id string) error

	// List returns system roles first in catalog order, then custom roles
	// in insertion order.
	List(ctx context.Context) ([]*Role, error)
}

// MemberCounter reports how many users currently hold a role. Implemented by
// the membership store; the role service consults it before deletes.
type MemberCounter interface {
	CountMembers(ctx context.Context, roleID string) (int, error)
}
