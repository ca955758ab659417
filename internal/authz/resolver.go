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

// Package authz is the authorization decision engine. It composes the role
// store and the membership registry and answers exactly one question: may
// this user perform this action on this resource.
package authz

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/crewdeck/crewdeck/internal/observability/logger"
	"github.com/crewdeck/crewdeck/internal/role"
)

// MembershipRegistry is the slice of the membership service the resolver
// needs: the user's current role, or nil when the user holds none.
type MembershipRegistry interface {
	RoleOf(ctx context.Context, userID string) (*role.Role, error)
}

// Resolver decides allow/deny. It is a pure query layer: no caches, no
// second grant table. Every answer comes from the role the registry reports
// at call time.
type Resolver struct {
	members   MembershipRegistry
	decisions metric.Int64Counter
}

// NewResolver creates a resolver. The decision counter may be nil when
// metrics are disabled.
func NewResolver(members MembershipRegistry, decisions metric.Int64Counter) *Resolver {
	return &Resolver{
		members:   members,
		decisions: decisions,
	}
}

// Check reports whether userID may perform action on resource.
//
// Check is total: it never returns an error. Unknown resources or actions,
// a user with no role, and even a failing store all resolve to deny, so a
// broken caller is told "denied" rather than handed a distinguishable error
// it could probe.
//
// Rule order:
//  1. wildcard grant on the user's role: allow
//  2. exact grant for (resource, action): allow
//  3. otherwise: deny
func (r *Resolver) Check(ctx context.Context, userID, resource, action string) bool {
	allowed := r.evaluate(ctx, userID, resource, action)
	r.record(ctx, resource, action, allowed)
	return allowed
}

func (r *Resolver) evaluate(ctx context.Context, userID, resource, action string) bool {
	if userID == "" || resource == "" || action == "" {
		return false
	}

	userRole, err := r.members.RoleOf(ctx, userID)
	if err != nil {
		// Fail closed. The caller sees deny, never the error.
		slog.ErrorContext(ctx, "permission check failed, denying",
			logger.Error(err),
			logger.UserID(userID),
			logger.Resource(resource),
			logger.Action(action),
		)
		return false
	}
	if userRole == nil {
		return false
	}

	return userRole.Allows(resource, action)
}

func (r *Resolver) record(ctx context.Context, resource, action string, allowed bool) {
	if r.decisions == nil {
		return
	}
	decision := "deny"
	if allowed {
		decision = "allow"
	}
	r.decisions.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("resource", resource),
			attribute.String("action", action),
			attribute.String("decision", decision),
		),
	)
}
