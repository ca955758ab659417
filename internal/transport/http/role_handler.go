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

package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/crewdeck/crewdeck/internal/catalog"
	"github.com/crewdeck/crewdeck/internal/observability/logger"
	"github.com/crewdeck/crewdeck/internal/role"
)

// GrantPayload mirrors role.Grant on the wire.
type GrantPayload struct {
	Resource string   `json:"resource" validate:"required"`
	Actions  []string `json:"actions" validate:"required,min=1,dive,required"`
}

// CreateRoleRequest is the payload for creating a custom role.
type CreateRoleRequest struct {
	Name        string         `json:"name" validate:"required,max=128"`
	Description string         `json:"description" validate:"max=512"`
	Grants      []GrantPayload `json:"grants" validate:"dive"`
}

// UpdateRoleRequest is a partial update. Absent fields are untouched; toggles
// flip individual (resource, action) cells in the role's grant matrix.
type UpdateRoleRequest struct {
	Name        *string           `json:"name" validate:"omitempty,min=1,max=128"`
	Description *string           `json:"description" validate:"omitempty,max=512"`
	Active      *bool             `json:"is_active"`
	Toggles     []role.TogglePair `json:"toggles"`
}

// ListPermissions returns the permission catalog: every protected resource
// and every action. The console renders the grant matrix from this.
func (h *Handler) ListPermissions(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"resources": catalog.Resources(),
		"actions":   catalog.Actions(),
	})
}

// ListRoles returns all roles, system first.
func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.roleService.List(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list roles", logger.Error(err))
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"roles": roles})
}

// GetRole returns a single role by ID or name.
func (h *Handler) GetRole(w http.ResponseWriter, r *http.Request) {
	roleID := chi.URLParam(r, "roleID")
	res, err := h.roleService.Get(r.Context(), roleID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// CreateRole creates a custom role.
func (h *Handler) CreateRole(w http.ResponseWriter, r *http.Request) {
	var req CreateRoleRequest
	if err := h.decodeValid(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	grants := make([]role.Grant, len(req.Grants))
	for i, g := range req.Grants {
		grants[i] = role.Grant{Resource: g.Resource, Actions: g.Actions}
	}

	created, err := h.roleService.Create(r.Context(), req.Name, req.Description, grants)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to create role",
			logger.Error(err),
			logger.RoleName(req.Name),
			logger.UserID(GetUserID(r.Context())),
		)
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, created)
}

// UpdateRole applies a partial update to a custom role.
func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	roleID := chi.URLParam(r, "roleID")

	var req UpdateRoleRequest
	if err := h.decodeValid(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.roleService.Update(r.Context(), roleID, role.Patch{
		Name:        req.Name,
		Description: req.Description,
		Active:      req.Active,
		Toggles:     req.Toggles,
	})
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to update role",
			logger.Error(err),
			logger.RoleID(roleID),
			logger.UserID(GetUserID(r.Context())),
		)
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, updated)
}

// DeleteRole removes a custom role with no members.
func (h *Handler) DeleteRole(w http.ResponseWriter, r *http.Request) {
	roleID := chi.URLParam(r, "roleID")

	if err := h.roleService.Delete(r.Context(), roleID); err != nil {
		slog.ErrorContext(r.Context(), "failed to delete role",
			logger.Error(err),
			logger.RoleID(roleID),
			logger.UserID(GetUserID(r.Context())),
		)
		respondDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
