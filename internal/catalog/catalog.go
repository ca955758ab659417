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

// Package catalog enumerates the fixed permission matrix: the resources the
// platform protects and the actions that can be taken on them. The catalog is
// constant for the process lifetime; roles reference it, never extend it.
package catalog

// -----------------------------------------------------------------------------
// Resource Constants
// These are the canonical protected resource identifiers.
// -----------------------------------------------------------------------------

const (
	ResourceJobs       = "jobs"
	ResourceSchedules  = "schedules"
	ResourceCustomers  = "customers"
	ResourceEstimates  = "estimates"
	ResourceInvoices   = "invoices"
	ResourceReports    = "reports"
	ResourceUsers      = "users"
	ResourcePurchasing = "purchasing"
	ResourceEquipment  = "equipment"
)

// -----------------------------------------------------------------------------
// Action Constants
// -----------------------------------------------------------------------------

const (
	ActionView   = "view"
	ActionCreate = "create"
	ActionEdit   = "edit"
	ActionDelete = "delete"
	ActionManage = "manage"
)

// resources lists every protected resource in display order.
var resources = []string{
	ResourceJobs,
	ResourceSchedules,
	ResourceCustomers,
	ResourceEstimates,
	ResourceInvoices,
	ResourceReports,
	ResourceUsers,
	ResourcePurchasing,
	ResourceEquipment,
}

// actions lists every action in display order.
var actions = []string{
	ActionView,
	ActionCreate,
	ActionEdit,
	ActionDelete,
	ActionManage,
}

var (
	resourceSet = toSet(resources)
	actionSet   = toSet(actions)
)

// Resources returns the ordered resource identifiers. The returned slice is a
// copy; callers may not mutate the catalog.
func Resources() []string {
	out := make([]string, len(resources))
	copy(out, resources)
	return out
}

// Actions returns the ordered action identifiers.
func Actions() []string {
	out := make([]string, len(actions))
	copy(out, actions)
	return out
}

// ValidResource reports whether the resource is part of the catalog.
func ValidResource(resource string) bool {
	_, ok := resourceSet[resource]
	return ok
}

// ValidAction reports whether the action is part of the catalog.
func ValidAction(action string) bool {
	_, ok := actionSet[action]
	return ok
}

// Valid reports whether the (resource, action) pair is part of the catalog.
func Valid(resource, action string) bool {
	return ValidResource(resource) && ValidAction(action)
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
