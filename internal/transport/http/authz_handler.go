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

import "net/http"

// CheckPermissionRequest asks whether a user may take an action on a resource.
type CheckPermissionRequest struct {
	UserID   string `json:"user_id" validate:"required"`
	Resource string `json:"resource" validate:"required"`
	Action   string `json:"action" validate:"required"`
}

// CheckPermission evaluates a single permission check. The answer is always
// 200 with an allowed flag; a malformed question is the only error. Unknown
// users, unknown resources and backend failures all come back as denials.
func (h *Handler) CheckPermission(w http.ResponseWriter, r *http.Request) {
	var req CheckPermissionRequest
	if err := h.decodeValid(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	allowed := h.resolver.Check(r.Context(), req.UserID, req.Resource, req.Action)

	respondJSON(w, http.StatusOK, map[string]any{
		"user_id":  req.UserID,
		"resource": req.Resource,
		"action":   req.Action,
		"allowed":  allowed,
	})
}
