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
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/crewdeck/crewdeck/internal/directory"
	"github.com/crewdeck/crewdeck/internal/observability/logger"
)

// AssignMemberRequest names the user to place in the role. A user holds one
// role at a time, so an assign replaces whatever role the user held before.
type AssignMemberRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
}

// MemberRecord is a membership joined with its directory user.
type MemberRecord struct {
	User       *directory.User `json:"user"`
	AssignedAt time.Time       `json:"assigned_at"`
	AssignedBy string          `json:"assigned_by,omitempty"`
}

// ListMembers returns the members of a role with their directory records.
func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	roleID := chi.URLParam(r, "roleID")

	members, err := h.membershipService.MembersOf(r.Context(), roleID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	records := make([]MemberRecord, 0, len(members))
	for _, m := range members {
		user, err := h.users.GetByID(r.Context(), m.UserID)
		if err != nil {
			// A membership without a directory record is still a member.
			user = &directory.User{ID: m.UserID}
		}
		records = append(records, MemberRecord{
			User:       user,
			AssignedAt: m.AssignedAt,
			AssignedBy: m.AssignedBy,
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{"members": records})
}

// AssignMember places a user in the role, overwriting any previous role.
func (h *Handler) AssignMember(w http.ResponseWriter, r *http.Request) {
	roleID := chi.URLParam(r, "roleID")

	var req AssignMemberRequest
	if err := h.decodeValid(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	actor := GetUserID(r.Context())
	if err := h.membershipService.Assign(r.Context(), req.UserID, roleID, actor); err != nil {
		slog.ErrorContext(r.Context(), "failed to assign role",
			logger.Error(err),
			logger.RoleID(roleID),
			logger.UserID(req.UserID),
		)
		respondDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UnassignMember removes a user from the role, leaving them roleless.
func (h *Handler) UnassignMember(w http.ResponseWriter, r *http.Request) {
	roleID := chi.URLParam(r, "roleID")
	userID := chi.URLParam(r, "userID")

	actor := GetUserID(r.Context())
	if err := h.membershipService.Unassign(r.Context(), userID, roleID, actor); err != nil {
		slog.ErrorContext(r.Context(), "failed to unassign role",
			logger.Error(err),
			logger.RoleID(roleID),
			logger.UserID(userID),
		)
		respondDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListUsers returns a page of directory users for the console's people view.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)
	if limit < 1 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	users, err := h.users.List(r.Context(), limit, offset)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list users", logger.Error(err))
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"users": users})
}

// GetUserRole returns the user's current role, or role null when roleless.
func (h *Handler) GetUserRole(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	res, err := h.membershipService.RoleOf(r.Context(), userID)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to resolve user role",
			logger.Error(err),
			logger.UserID(userID),
		)
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"role": res})
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
