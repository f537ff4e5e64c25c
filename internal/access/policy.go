// Package access decides who may see what.
//
// CanAccess is the whole policy. The rest of the package applies it to
// entities without ever removing anything: a denied item stays in the
// listing, marked Locked, with its body stripped and its metadata intact.
package access

import (
	"slices"

	"github.com/sakif/lesson-portal/internal/model"
)

// Viewer is whoever is looking at the portal right now. The zero value is
// not usable; call Anonymous for a signed-out visitor.
type Viewer struct {
	UserID int64      // 0 for anonymous visitors
	Role   model.Role // never empty
}

// Anonymous is the signed-out visitor: lowest tier, no identity.
func Anonymous() Viewer {
	return Viewer{Role: model.RoleFree}
}

func (v Viewer) IsAuthenticated() bool { return v.UserID != 0 }

func (v Viewer) IsAdmin() bool { return v.Role == model.RoleAdmin }

// CanAccess reports whether a viewer with the given role may see an item
// restricted to allowed.
//
//	admin                                  always
//	role listed in allowed                 yes
//	both, and allowed has member or master yes
//	anything else                          no
func CanAccess(viewer model.Role, allowed []model.Role) bool {
	switch viewer {
	case model.RoleAdmin:
		return true
	case model.RoleBoth:
		if slices.Contains(allowed, model.RoleMember) || slices.Contains(allowed, model.RoleMaster) {
			return true
		}
	case model.RoleFree, model.RoleMember, model.RoleMaster:
	default:
		// Unknown roles never reach here through ParseRole; treat them as no access.
		return false
	}
	return slices.Contains(allowed, viewer)
}

// CanEditTestimonial: only the author edits the text.
func CanEditTestimonial(v Viewer, t model.Testimonial) bool {
	return t.IsOwner(v.UserID)
}

// CanModerate covers hiding, showing and deleting testimonials.
func CanModerate(v Viewer) bool {
	return v.IsAdmin()
}
