package model

import (
	"strings"
	"time"
)

// MaxTestimonialLength is counted in characters, not bytes.
const MaxTestimonialLength = 500

// Testimonial is a learner's write-up. UserID is a copied reference: deleting
// the user leaves the testimonial in place.
type Testimonial struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Content   string    `json:"content"`
	IsHidden  bool      `json:"isHidden"`
	CreatedAt time.Time `json:"createdAt"`
}

type TestimonialDraft struct {
	UserID   int64  `json:"userId"   validate:"required,min=1"`
	Content  string `json:"content"  validate:"required,max=500"`
	IsHidden bool   `json:"isHidden"`
}

type TestimonialPatch struct {
	Content  *string `json:"content,omitempty"  validate:"omitempty,min=1,max=500"`
	IsHidden *bool   `json:"isHidden,omitempty"`
}

func (t Testimonial) Key() int64 { return t.ID }

func (t Testimonial) Clone() Testimonial { return t }

// IsOwner reports whether userID wrote t. Anonymous viewers (0) own nothing.
func (t Testimonial) IsOwner(userID int64) bool {
	return userID != 0 && t.UserID == userID
}

func (d TestimonialDraft) Normalize() TestimonialDraft {
	d.Content = strings.TrimSpace(d.Content)
	return d
}

func (d TestimonialDraft) Build(id int64, createdAt time.Time) Testimonial {
	d = d.Normalize()
	return Testimonial{
		ID:        id,
		UserID:    d.UserID,
		Content:   d.Content,
		IsHidden:  d.IsHidden,
		CreatedAt: createdAt,
	}
}

func (p TestimonialPatch) Normalize() TestimonialPatch {
	if p.Content != nil {
		content := strings.TrimSpace(*p.Content)
		p.Content = &content
	}
	return p
}

func (t Testimonial) Apply(p TestimonialPatch) Testimonial {
	p = p.Normalize()
	if p.Content != nil {
		t.Content = *p.Content
	}
	if p.IsHidden != nil {
		t.IsHidden = *p.IsHidden
	}
	return t
}
