// Package model defines the data structures used throughout the portal:
// users, the three content kinds, and the role enumeration that gates them.
//
// Every entity comes in three shapes:
//
//	Video       the stored record (has ID and CreatedAt)
//	VideoDraft  what a caller supplies to create one (no ID, no CreatedAt)
//	VideoPatch  the fields an update may touch (nil = leave alone)
//
// The stores never hand out their own records; Clone() produces the copy.
package model

import (
	"fmt"
	"slices"
	"strings"

	"github.com/sakif/lesson-portal/internal/apperror"
)

// Role is a membership tier. The set is closed: anything not listed below
// is rejected by ParseRole rather than quietly treated as "free".
type Role string

const (
	RoleFree   Role = "free"   // default tier, also used for anonymous viewers
	RoleMember Role = "member" // membership lessons
	RoleMaster Role = "master" // master-class lessons
	RoleBoth   Role = "both"   // entitled to member AND master content
	RoleAdmin  Role = "admin"  // sees everything, moderates, manages tiers
)

// allRoles is in tier order; dashboards rely on that for display.
var allRoles = []Role{RoleFree, RoleMember, RoleMaster, RoleBoth, RoleAdmin}

// AllRoles returns the five roles in tier order.
func AllRoles() []Role {
	return slices.Clone(allRoles)
}

// Valid reports whether r is one of the five known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleFree, RoleMember, RoleMaster, RoleBoth, RoleAdmin:
		return true
	}
	return false
}

// Label is the human-readable tier name shown next to a badge.
func (r Role) Label() string {
	switch r {
	case RoleFree:
		return "Free"
	case RoleMember:
		return "Member"
	case RoleMaster:
		return "Master"
	case RoleBoth:
		return "Member + Master"
	case RoleAdmin:
		return "Administrator"
	}
	return "Unknown"
}

// ParseRole converts user input into a Role. Case and surrounding spaces are ignored.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", apperror.InvalidInput("role", fmt.Sprintf("unknown role %q", s))
	}
	return r, nil
}

// Category partitions videos between the two listing pages.
type Category string

const (
	CategoryMembership Category = "membership"
	CategoryMaster     Category = "master"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryMembership, CategoryMaster:
		return true
	}
	return false
}

// ParseCategory converts a query value into a Category.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", apperror.InvalidInput("category", fmt.Sprintf("unknown category %q", s))
	}
	return c, nil
}

// cloneRoles copies an allowed-roles set, keeping empty (non-nil) slices non-nil
// so that JSON renders [] instead of null.
func cloneRoles(roles []Role) []Role {
	if roles == nil {
		return []Role{}
	}
	return slices.Clone(roles)
}

// dedupeRoles drops repeated roles while keeping the first-seen order.
func dedupeRoles(roles []Role) []Role {
	out := make([]Role, 0, len(roles))
	for _, r := range roles {
		if !slices.Contains(out, r) {
			out = append(out, r)
		}
	}
	return out
}
