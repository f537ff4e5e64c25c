package model

import (
	"strings"
	"time"
)

// ExcerptLength is how many characters of content become the default excerpt.
const ExcerptLength = 150

// BlogPost is an "insight" article.
type BlogPost struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	IsHTMLContent bool      `json:"isHtmlContent"`
	Excerpt       string    `json:"excerpt"`
	ThumbnailURL  string    `json:"thumbnailUrl"`
	AllowedRoles  []Role    `json:"allowedRoles"`
	CreatedAt     time.Time `json:"createdAt"`
}

type PostDraft struct {
	Title         string `json:"title"         validate:"required,max=200"`
	Content       string `json:"content"       validate:"required"`
	IsHTMLContent bool   `json:"isHtmlContent"`
	Excerpt       string `json:"excerpt"       validate:"max=500"`
	ThumbnailURL  string `json:"thumbnailUrl"  validate:"omitempty,url"`
	AllowedRoles  []Role `json:"allowedRoles"  validate:"required,min=1,dive,role"`
}

type PostPatch struct {
	Title         *string `json:"title,omitempty"         validate:"omitempty,min=1,max=200"`
	Content       *string `json:"content,omitempty"       validate:"omitempty,min=1"`
	IsHTMLContent *bool   `json:"isHtmlContent,omitempty"`
	Excerpt       *string `json:"excerpt,omitempty"       validate:"omitempty,max=500"`
	ThumbnailURL  *string `json:"thumbnailUrl,omitempty"  validate:"omitempty,optional_url"`
	AllowedRoles  []Role  `json:"allowedRoles,omitempty"  validate:"omitempty,dive,role"`
}

func (p BlogPost) Key() int64 { return p.ID }

func (p BlogPost) Clone() BlogPost {
	p.AllowedRoles = cloneRoles(p.AllowedRoles)
	return p
}

func (d PostDraft) Normalize() PostDraft {
	d.Title = strings.TrimSpace(d.Title)
	d.Excerpt = strings.TrimSpace(d.Excerpt)
	d.AllowedRoles = dedupeRoles(d.AllowedRoles)
	return d
}

func (d PostDraft) Build(id int64, createdAt time.Time) BlogPost {
	d = d.Normalize()
	excerpt := d.Excerpt
	if excerpt == "" {
		excerpt = DefaultExcerpt(d.Content)
	}
	return BlogPost{
		ID:            id,
		Title:         d.Title,
		Content:       d.Content,
		IsHTMLContent: d.IsHTMLContent,
		Excerpt:       excerpt,
		ThumbnailURL:  d.ThumbnailURL,
		AllowedRoles:  d.AllowedRoles,
		CreatedAt:     createdAt,
	}
}

func (p PostPatch) Normalize() PostPatch {
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		p.Title = &title
	}
	if p.Excerpt != nil {
		excerpt := strings.TrimSpace(*p.Excerpt)
		p.Excerpt = &excerpt
	}
	if p.AllowedRoles != nil {
		p.AllowedRoles = dedupeRoles(p.AllowedRoles)
	}
	return p
}

// Apply merges p over post. A blank excerpt after merging is re-derived from content.
func (post BlogPost) Apply(p PostPatch) BlogPost {
	p = p.Normalize()
	post = post.Clone()
	if p.Title != nil {
		post.Title = *p.Title
	}
	if p.Content != nil {
		post.Content = *p.Content
	}
	if p.IsHTMLContent != nil {
		post.IsHTMLContent = *p.IsHTMLContent
	}
	if p.Excerpt != nil {
		post.Excerpt = *p.Excerpt
	}
	if p.ThumbnailURL != nil {
		post.ThumbnailURL = *p.ThumbnailURL
	}
	if p.AllowedRoles != nil {
		post.AllowedRoles = cloneRoles(p.AllowedRoles)
	}
	if post.Excerpt == "" {
		post.Excerpt = DefaultExcerpt(post.Content)
	}
	return post
}

// DefaultExcerpt returns the first ExcerptLength characters of content.
// Characters are runes, so multi-byte text is never cut mid-character.
func DefaultExcerpt(content string) string {
	runes := []rune(content)
	if len(runes) <= ExcerptLength {
		return content
	}
	return string(runes[:ExcerptLength])
}
