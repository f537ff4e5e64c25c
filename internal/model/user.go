package model

import (
	"strings"
	"time"
)

// User is a portal account. Role is the only thing the admin dashboard changes;
// e-mail is the join key for GitHub sign-in.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

type UserDraft struct {
	Email string `json:"email" validate:"required,email"`
	Role  Role   `json:"role"  validate:"role"`
}

type UserPatch struct {
	Email *string `json:"email,omitempty" validate:"omitempty,email"`
	Role  *Role   `json:"role,omitempty"  validate:"omitempty,role"`
}

func (u User) Key() int64 { return u.ID }

func (u User) Clone() User { return u }

// Normalize lower-cases the e-mail so lookups are case-insensitive.
func (d UserDraft) Normalize() UserDraft {
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
	if d.Role == "" {
		d.Role = RoleFree
	}
	return d
}

func (d UserDraft) Build(id int64, createdAt time.Time) User {
	d = d.Normalize()
	return User{
		ID:        id,
		Email:     d.Email,
		Role:      d.Role,
		CreatedAt: createdAt,
	}
}

func (p UserPatch) Normalize() UserPatch {
	if p.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*p.Email))
		p.Email = &email
	}
	return p
}

func (u User) Apply(p UserPatch) User {
	p = p.Normalize()
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	return u
}
