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

package role

import "github.com/crewdeck/crewdeck/internal/catalog"

// Canonical system role names.
const (
	NameOwner         = "Owner"
	NameAdmin         = "Admin"
	NameOfficeManager = "Office Manager"
	NameEstimator     = "Estimator"
	NameAccountant    = "Accountant"
	NameStaff         = "Staff"
)

// System-defined role IDs. These UUIDs are stable across deployments; the
// seeder upserts by ID so renames in code never duplicate rows.
// DO NOT modify these values without a data migration plan.
const (
	IDOwner         = "20000000-0000-0000-0000-000000000001"
	IDAdmin         = "20000000-0000-0000-0000-000000000002"
	IDOfficeManager = "20000000-0000-0000-0000-000000000003"
	IDEstimator     = "20000000-0000-0000-0000-000000000004"
	IDAccountant    = "20000000-0000-0000-0000-000000000005"
	IDStaff         = "20000000-0000-0000-0000-000000000006"
)

// SystemRoles returns the built-in role catalog in display order. Owner is
// the only role carrying the wildcard; every other system role enumerates
// explicit grants through the same representation custom roles use.
func SystemRoles() []*Role {
	return []*Role{
		{
			ID:          IDOwner,
			Name:        NameOwner,
			Description: "Full access to every resource and action.",
			System:      true,
			Active:      true,
			Wildcard:    true,
			Position:    0,
		},
		{
			ID:          IDAdmin,
			Name:        NameAdmin,
			Description: "Administers all day-to-day operations.",
			System:      true,
			Active:      true,
			Position:    1,
			Grants:      fullGrants(),
		},
		{
			ID:          IDOfficeManager,
			Name:        NameOfficeManager,
			Description: "Runs the office: jobs, scheduling, customers and billing.",
			System:      true,
			Active:      true,
			Position:    2,
			Grants: []Grant{
				{Resource: catalog.ResourceJobs, Actions: []string{catalog.ActionView, catalog.ActionCreate, catalog.ActionEdit, catalog.ActionDelete}},
				{Resource: catalog.ResourceSchedules, Actions: []string{catalog.ActionView, catalog.ActionCreate, catalog.ActionEdit, catalog.ActionDelete}},
				{Resource: catalog.ResourceCustomers, Actions: []string{catalog.ActionView, catalog.ActionCreate, catalog.ActionEdit, catalog.ActionDelete}},
				{Resource: catalog.ResourceEstimates, Actions: []string{catalog.ActionView, catalog.ActionCreate, catalog.ActionEdit}},
				{Resource: catalog.ResourceInvoices, Actions: []string{catalog.ActionView, catalog.ActionCreate, catalog.ActionEdit}},
				{Resource: catalog.ResourceReports, Actions: []string{catalog.ActionView}},
				{Resource: catalog.ResourceUsers, Actions: []string{catalog.ActionView}},
				{Resource: catalog.ResourcePurchasing, Actions: []string{catalog.ActionView, catalog.ActionCreate, catalog.ActionEdit}},
				{Resource: catalog.ResourceEquipment, Actions: []string{catalog.ActionView, catalog.ActionEdit}},
			},
		},
		{
			ID:          IDEstimator,
			Name:        NameEstimator,
			Description: "Prepares estimates and manages prospective customers.",
			System:      true,
			Active:      true,
			Position:    3,
			Grants: []Grant{
				{Resource: catalog.ResourceEstimates, Actions: []string{catalog.ActionView, catalog.ActionCreate, catalog.ActionEdit, catalog.ActionDelete}},
				{Resource: catalog.ResourceCustomers, Actions: []string{catalog.ActionView, catalog.ActionCreate, catalog.ActionEdit}},
				{Resource: catalog.ResourceJobs, Actions: []string{catalog.ActionView}},
			},
		},
		{
			ID:          IDAccountant,
			Name:        NameAccountant,
			Description: "Handles invoicing, purchasing and financial reports.",
			System:      true,
			Active:      true,
			Position:    4,
			Grants: []Grant{
				{Resource: catalog.ResourceInvoices, Actions: []string{catalog.ActionView, catalog.ActionCreate, catalog.ActionEdit, catalog.ActionDelete}},
				{Resource: catalog.ResourceReports, Actions: []string{catalog.ActionView}},
				{Resource: catalog.ResourcePurchasing, Actions: []string{catalog.ActionView, catalog.ActionEdit}},
				{Resource: catalog.ResourceCustomers, Actions: []string{catalog.ActionView}},
				{Resource: catalog.ResourceJobs, Actions: []string{catalog.ActionView}},
			},
		},
		{
			ID:          IDStaff,
			Name:        NameStaff,
			Description: "Field staff: sees assigned work and equipment.",
			System:      true,
			Active:      true,
			Position:    5,
			Grants: []Grant{
				{Resource: catalog.ResourceJobs, Actions: []string{catalog.ActionView, catalog.ActionEdit}},
				{Resource: catalog.ResourceSchedules, Actions: []string{catalog.ActionView}},
				{Resource: catalog.ResourceCustomers, Actions: []string{catalog.ActionView}},
				{Resource: catalog.ResourceEquipment, Actions: []string{catalog.ActionView}},
			},
		},
	}
}

// fullGrants enumerates every catalog pair explicitly. Admin gets this
// instead of the wildcard so revoking a single capability from Admin later
// is an edit, not a redesign.
func fullGrants() []Grant {
	actions := catalog.Actions()
	grants := make([]Grant, 0, len(catalog.Resources()))
	for _, resource := range catalog.Resources() {
		grants = append(grants, Grant{Resource: resource, Actions: append([]string(nil), actions...)})
	}
	return grants
}
