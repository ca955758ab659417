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

// Package role owns the role store: built-in system roles seeded at startup
// and fully mutable custom roles, both expressed with the same grant
// representation so the resolver has a single source of truth.
package role

import (
	"errors"
	"slices"
	"time"

	"github.com/crewdeck/crewdeck/internal/catalog"
)

// Domain errors
var (
	ErrRoleNotFound      = errors.New("role not found")
	ErrDuplicateRoleName = errors.New("role name already in use")
	ErrImmutableRole     = errors.New("system roles cannot be modified")
	ErrInvalidPermission = errors.New("permission is not in the catalog")
	ErrRoleHasMembers    = errors.New("role still has members")
)

// Grant associates a resource with the set of actions a role may perform on
// it. An empty action set is never stored; the grant is pruned instead.
type Grant struct {
	Resource string   `json:"resource"`
	Actions  []string `json:"actions"`
}

// Has reports whether the grant includes the action.
func (g Grant) Has(action string) bool {
	return slices.Contains(g.Actions, action)
}

// Role is a named bundle of grants. System roles are seeded once at startup
// and rejected by every mutation path; custom roles are fully editable.
// Wildcard is the full-access sentinel; only seeded system roles carry it.
type Role struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	System      bool      `json:"is_system_role"`
	Active      bool      `json:"is_active"`
	Wildcard    bool      `json:"wildcard,omitempty"`
	Grants      []Grant   `json:"permissions"`
	Position    int       `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Allows reports whether the role grants the (resource, action) pair.
// The wildcard short-circuits before any grant lookup.
func (r *Role) Allows(resource, action string) bool {
	if r.Wildcard {
		return true
	}
	for _, g := range r.Grants {
		if g.Resource == resource {
			return g.Has(action)
		}
	}
	return false
}

// grantIndex returns the position of the grant for resource, or -1.
func (r *Role) grantIndex(resource string) int {
	for i, g := range r.Grants {
		if g.Resource == resource {
			return i
		}
	}
	return -1
}

// Toggle flips membership of action in the grant for resource. Adding to a
// missing grant creates it; removing the last action prunes the grant
// entirely, so an empty action set is never stored. Toggling the same pair
// twice restores the original state.
func (r *Role) Toggle(resource, action string) {
	i := r.grantIndex(resource)
	if i < 0 {
		r.Grants = append(r.Grants, Grant{Resource: resource, Actions: []string{action}})
		return
	}
	g := r.Grants[i]
	if g.Has(action) {
		actions := slices.DeleteFunc(slices.Clone(g.Actions), func(a string) bool { return a == action })
		if len(actions) == 0 {
			r.Grants = slices.Delete(r.Grants, i, i+1)
			return
		}
		r.Grants[i].Actions = actions
		return
	}
	r.Grants[i].Actions = append(slices.Clone(g.Actions), action)
}

// Clone returns a deep copy so callers can hand roles out without aliasing
// the stored grant slices.
func (r *Role) Clone() *Role {
	out := *r
	out.Grants = cloneGrants(r.Grants)
	return &out
}

func cloneGrants(grants []Grant) []Grant {
	if grants == nil {
		return nil
	}
	out := make([]Grant, len(grants))
	for i, g := range grants {
		out[i] = Grant{Resource: g.Resource, Actions: slices.Clone(g.Actions)}
	}
	return out
}

// NormalizeGrants validates grants against the catalog and canonicalizes
// them: duplicate resources are merged, duplicate actions deduplicated, and
// entries with no actions dropped. Returns ErrInvalidPermission if any
// (resource, action) pair is outside the catalog.
func NormalizeGrants(grants []Grant) ([]Grant, error) {
	var order []string
	merged := make(map[string][]string)

	for _, g := range grants {
		if len(g.Actions) == 0 {
			// Empty entries are dropped, not stored.
			continue
		}
		if !catalog.ValidResource(g.Resource) {
			return nil, ErrInvalidPermission
		}
		if _, seen := merged[g.Resource]; !seen {
			order = append(order, g.Resource)
		}
		for _, a := range g.Actions {
			if !catalog.ValidAction(a) {
				return nil, ErrInvalidPermission
			}
			if !slices.Contains(merged[g.Resource], a) {
				merged[g.Resource] = append(merged[g.Resource], a)
			}
		}
	}

	out := make([]Grant, 0, len(order))
	for _, resource := range order {
		out = append(out, Grant{Resource: resource, Actions: merged[resource]})
	}
	return out, nil
}
