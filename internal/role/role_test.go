package role

import (
	"errors"
	"testing"

	"github.com/crewdeck/crewdeck/internal/catalog"
)

func TestRole_Allows(t *testing.T) {
	dispatcher := &Role{
		Name: "Dispatcher",
		Grants: []Grant{
			{Resource: catalog.ResourceJobs, Actions: []string{catalog.ActionView, catalog.ActionEdit}},
			{Resource: catalog.ResourceSchedules, Actions: []string{catalog.ActionView}},
		},
	}
	owner := &Role{Name: NameOwner, Wildcard: true}

	tests := []struct {
		name     string
		role     *Role
		resource string
		action   string
		want     bool
	}{
		{"granted pair", dispatcher, catalog.ResourceJobs, catalog.ActionEdit, true},
		{"granted resource wrong action", dispatcher, catalog.ResourceSchedules, catalog.ActionDelete, false},
		{"ungranted resource", dispatcher, catalog.ResourceInvoices, catalog.ActionView, false},
		{"wildcard allows any pair", owner, catalog.ResourceReports, catalog.ActionManage, true},
		{"wildcard allows unknown pair", owner, "anything", "anything", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.role.Allows(tt.resource, tt.action); got != tt.want {
				t.Errorf("Allows(%q, %q) = %v, want %v", tt.resource, tt.action, got, tt.want)
			}
		})
	}
}

func TestRole_Toggle_AddAndRemove(t *testing.T) {
	r := &Role{Grants: []Grant{
		{Resource: catalog.ResourceJobs, Actions: []string{catalog.ActionView}},
	}}

	r.Toggle(catalog.ResourceJobs, catalog.ActionEdit)
	if !r.Allows(catalog.ResourceJobs, catalog.ActionEdit) {
		t.Fatal("toggle should have added jobs/edit")
	}

	r.Toggle(catalog.ResourceJobs, catalog.ActionEdit)
	if r.Allows(catalog.ResourceJobs, catalog.ActionEdit) {
		t.Fatal("second toggle should have removed jobs/edit")
	}
	if !r.Allows(catalog.ResourceJobs, catalog.ActionView) {
		t.Fatal("toggling edit must not disturb view")
	}
}

func TestRole_Toggle_CreatesGrant(t *testing.T) {
	r := &Role{}

	r.Toggle(catalog.ResourceReports, catalog.ActionView)
	if len(r.Grants) != 1 {
		t.Fatalf("expected 1 grant, got %d", len(r.Grants))
	}
	if !r.Allows(catalog.ResourceReports, catalog.ActionView) {
		t.Fatal("toggle on empty role should grant the pair")
	}
}

func TestRole_Toggle_PrunesEmptyGrant(t *testing.T) {
	r := &Role{Grants: []Grant{
		{Resource: catalog.ResourceReports, Actions: []string{catalog.ActionView}},
	}}

	r.Toggle(catalog.ResourceReports, catalog.ActionView)
	if len(r.Grants) != 0 {
		t.Fatalf("removing the last action must prune the grant, got %+v", r.Grants)
	}
}

// Toggling the same pair twice always restores the starting grants, from any
// starting state.
func TestRole_Toggle_Involution(t *testing.T) {
	for _, sys := range SystemRoles() {
		if sys.Wildcard {
			continue
		}
		for _, resource := range catalog.Resources() {
			for _, action := range catalog.Actions() {
				r := sys.Clone()
				before := r.Allows(resource, action)
				r.Toggle(resource, action)
				if r.Allows(resource, action) == before {
					t.Fatalf("%s: toggle did not flip %s/%s", sys.Name, resource, action)
				}
				r.Toggle(resource, action)
				if r.Allows(resource, action) != before {
					t.Fatalf("%s: double toggle did not restore %s/%s", sys.Name, resource, action)
				}
			}
		}
	}
}

func TestNormalizeGrants(t *testing.T) {
	tests := []struct {
		name    string
		in      []Grant
		want    []Grant
		wantErr error
	}{
		{
			name: "merges duplicate resources",
			in: []Grant{
				{Resource: catalog.ResourceJobs, Actions: []string{catalog.ActionView}},
				{Resource: catalog.ResourceJobs, Actions: []string{catalog.ActionEdit, catalog.ActionView}},
			},
			want: []Grant{
				{Resource: catalog.ResourceJobs, Actions: []string{catalog.ActionView, catalog.ActionEdit}},
			},
		},
		{
			name: "drops empty entries",
			in: []Grant{
				{Resource: catalog.ResourceJobs},
				{Resource: catalog.ResourceReports, Actions: []string{catalog.ActionView}},
			},
			want: []Grant{
				{Resource: catalog.ResourceReports, Actions: []string{catalog.ActionView}},
			},
		},
		{
			name:    "unknown resource",
			in:      []Grant{{Resource: "payroll", Actions: []string{catalog.ActionView}}},
			wantErr: ErrInvalidPermission,
		},
		{
			name:    "unknown action",
			in:      []Grant{{Resource: catalog.ResourceJobs, Actions: []string{"approve"}}},
			wantErr: ErrInvalidPermission,
		},
		{
			name: "no grants is a valid role",
			in:   nil,
			want: []Grant{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeGrants(tt.in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d grants, got %d", len(tt.want), len(got))
			}
			for i := range got {
				if got[i].Resource != tt.want[i].Resource {
					t.Errorf("grant %d: resource %q, want %q", i, got[i].Resource, tt.want[i].Resource)
				}
				if len(got[i].Actions) != len(tt.want[i].Actions) {
					t.Errorf("grant %d: actions %v, want %v", i, got[i].Actions, tt.want[i].Actions)
					continue
				}
				for j := range got[i].Actions {
					if got[i].Actions[j] != tt.want[i].Actions[j] {
						t.Errorf("grant %d: actions %v, want %v", i, got[i].Actions, tt.want[i].Actions)
						break
					}
				}
			}
		})
	}
}

func TestSystemRoles_Definitions(t *testing.T) {
	roles := SystemRoles()
	if len(roles) != 6 {
		t.Fatalf("expected 6 system roles, got %d", len(roles))
	}

	seen := make(map[string]bool)
	for _, r := range roles {
		if !r.System {
			t.Errorf("%s: system roles must be flagged as system", r.Name)
		}
		if !r.Active {
			t.Errorf("%s: system roles must seed active", r.Name)
		}
		if seen[r.ID] {
			t.Errorf("%s: duplicate system role ID %s", r.Name, r.ID)
		}
		seen[r.ID] = true

		if r.Wildcard && r.Name != NameOwner {
			t.Errorf("%s: only Owner carries the wildcard", r.Name)
		}
		if _, err := NormalizeGrants(r.Grants); err != nil {
			t.Errorf("%s: grants outside the catalog: %v", r.Name, err)
		}
	}
}

func TestSystemRoles_EstimatorGrants(t *testing.T) {
	var estimator *Role
	for _, r := range SystemRoles() {
		if r.Name == NameEstimator {
			estimator = r
		}
	}
	if estimator == nil {
		t.Fatal("Estimator role missing")
	}

	allowed := [][2]string{
		{catalog.ResourceEstimates, catalog.ActionView},
		{catalog.ResourceEstimates, catalog.ActionDelete},
		{catalog.ResourceCustomers, catalog.ActionCreate},
		{catalog.ResourceJobs, catalog.ActionView},
	}
	denied := [][2]string{
		{catalog.ResourceJobs, catalog.ActionDelete},
		{catalog.ResourceInvoices, catalog.ActionView},
		{catalog.ResourceUsers, catalog.ActionManage},
	}

	for _, pair := range allowed {
		if !estimator.Allows(pair[0], pair[1]) {
			t.Errorf("Estimator should allow %s/%s", pair[0], pair[1])
		}
	}
	for _, pair := range denied {
		if estimator.Allows(pair[0], pair[1]) {
			t.Errorf("Estimator should deny %s/%s", pair[0], pair[1])
		}
	}
}
