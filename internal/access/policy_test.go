package access

import (
	"testing"

	"github.com/sakif/lesson-portal/internal/model"
)

func roles(rs ...model.Role) []model.Role { return rs }

func TestCanAccess(t *testing.T) {
	const (
		free   = model.RoleFree
		member = model.RoleMember
		master = model.RoleMaster
		both   = model.RoleBoth
		admin  = model.RoleAdmin
	)

	tests := []struct {
		name    string
		viewer  model.Role
		allowed []model.Role
		want    bool
	}{
		// admin sees everything, even items nobody else may see
		{"admin on master-only", admin, roles(master), true},
		{"admin on empty set", admin, roles(), true},

		// exact membership
		{"free on free", free, roles(free), true},
		{"free on member", free, roles(member), false},
		{"member on member", member, roles(member), true},
		{"member on master", member, roles(master), false},
		{"master on master", master, roles(master), true},
		{"master on member", master, roles(member), false},
		{"member on mixed", member, roles(free, member), true},

		// both is member and master combined, not free
		{"both on member", both, roles(member), true},
		{"both on master", both, roles(master), true},
		{"both on both", both, roles(both), true},
		{"both on free only", both, roles(free), false},

		// nobody but admin passes an empty set
		{"free on empty", free, roles(), false},
		{"member on nil", member, nil, false},

		// unknown viewer roles never pass
		{"unknown role", model.Role("guest"), roles(model.Role("guest")), false},
		{"empty role", model.Role(""), roles(free), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanAccess(tt.viewer, tt.allowed); got != tt.want {
				t.Errorf("CanAccess(%q, %v) = %v, want %v", tt.viewer, tt.allowed, got, tt.want)
			}
		})
	}
}

func TestCanAccess_AdminPassesEveryNonEmptySet(t *testing.T) {
	all := model.AllRoles()
	for i := range all {
		for j := i; j < len(all); j++ {
			set := all[i : j+1]
			if !CanAccess(model.RoleAdmin, set) {
				t.Errorf("admin denied on %v", set)
			}
		}
	}
}

func TestTestimonialPermissions(t *testing.T) {
	tm := model.Testimonial{ID: 1, UserID: 5, Content: "great"}

	tests := []struct {
		name         string
		viewer       Viewer
		wantEdit     bool
		wantModerate bool
	}{
		{"anonymous", Anonymous(), false, false},
		{"author", Viewer{UserID: 5, Role: model.RoleMember}, true, false},
		{"someone else", Viewer{UserID: 6, Role: model.RoleMaster}, false, false},
		{"admin", Viewer{UserID: 1, Role: model.RoleAdmin}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanEditTestimonial(tt.viewer, tm); got != tt.wantEdit {
				t.Errorf("CanEditTestimonial() = %v, want %v", got, tt.wantEdit)
			}
			if got := CanModerate(tt.viewer); got != tt.wantModerate {
				t.Errorf("CanModerate() = %v, want %v", got, tt.wantModerate)
			}
		})
	}
}

func TestAnonymous(t *testing.T) {
	v := Anonymous()
	if v.IsAuthenticated() {
		t.Error("anonymous viewer reports authenticated")
	}
	if v.Role != model.RoleFree {
		t.Errorf("anonymous role = %q, want free", v.Role)
	}
}
