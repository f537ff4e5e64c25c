package model

import (
	"regexp"
	"slices"
	"strings"
	"time"
)

// Video is a lesson series. CurriculumURLs is ordered: index 0 is lesson 1.
type Video struct {
	ID                int64     `json:"id"`
	Title             string    `json:"title"`
	Description       string    `json:"description"`
	IsHTMLDescription bool      `json:"isHtmlDescription"`
	ThumbnailURL      string    `json:"thumbnailUrl"`
	CurriculumURLs    []string  `json:"curriculumUrls"`
	AllowedRoles      []Role    `json:"allowedRoles"`
	IsPinned          bool      `json:"isPinned"`
	Category          Category  `json:"category"`
	CreatedAt         time.Time `json:"createdAt"`
}

type VideoDraft struct {
	Title             string   `json:"title"             validate:"required,max=200"`
	Description       string   `json:"description"`
	IsHTMLDescription bool     `json:"isHtmlDescription"`
	ThumbnailURL      string   `json:"thumbnailUrl"      validate:"omitempty,url"`
	CurriculumURLs    []string `json:"curriculumUrls"    validate:"dive,url"`
	AllowedRoles      []Role   `json:"allowedRoles"      validate:"required,min=1,dive,role"`
	IsPinned          bool     `json:"isPinned"`
	Category          Category `json:"category"          validate:"category"`
}

// VideoPatch lists every field an update may change. A nil pointer or nil
// slice means "not present"; the stored value is kept.
type VideoPatch struct {
	Title             *string   `json:"title,omitempty"             validate:"omitempty,min=1,max=200"`
	Description       *string   `json:"description,omitempty"`
	IsHTMLDescription *bool     `json:"isHtmlDescription,omitempty"`
	ThumbnailURL      *string   `json:"thumbnailUrl,omitempty"      validate:"omitempty,optional_url"`
	CurriculumURLs    []string  `json:"curriculumUrls,omitempty"    validate:"omitempty,dive,url"`
	AllowedRoles      []Role    `json:"allowedRoles,omitempty"      validate:"omitempty,dive,role"`
	IsPinned          *bool     `json:"isPinned,omitempty"`
	Category          *Category `json:"category,omitempty"          validate:"omitempty,category"`
}

func (v Video) Key() int64 { return v.ID }

func (v Video) Clone() Video {
	v.CurriculumURLs = cloneURLs(v.CurriculumURLs)
	v.AllowedRoles = cloneRoles(v.AllowedRoles)
	return v
}

func (d VideoDraft) Normalize() VideoDraft {
	d.Title = strings.TrimSpace(d.Title)
	d.CurriculumURLs = cleanURLs(d.CurriculumURLs)
	d.AllowedRoles = dedupeRoles(d.AllowedRoles)
	return d
}

func (d VideoDraft) Build(id int64, createdAt time.Time) Video {
	d = d.Normalize()
	return Video{
		ID:                id,
		Title:             d.Title,
		Description:       d.Description,
		IsHTMLDescription: d.IsHTMLDescription,
		ThumbnailURL:      d.ThumbnailURL,
		CurriculumURLs:    d.CurriculumURLs,
		AllowedRoles:      d.AllowedRoles,
		IsPinned:          d.IsPinned,
		Category:          d.Category,
		CreatedAt:         createdAt,
	}
}

func (p VideoPatch) Normalize() VideoPatch {
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		p.Title = &title
	}
	if p.CurriculumURLs != nil {
		p.CurriculumURLs = cleanURLs(p.CurriculumURLs)
	}
	if p.AllowedRoles != nil {
		p.AllowedRoles = dedupeRoles(p.AllowedRoles)
	}
	return p
}

// Apply merges p over v. ID and CreatedAt are not patchable.
func (v Video) Apply(p VideoPatch) Video {
	p = p.Normalize()
	v = v.Clone()
	if p.Title != nil {
		v.Title = *p.Title
	}
	if p.Description != nil {
		v.Description = *p.Description
	}
	if p.IsHTMLDescription != nil {
		v.IsHTMLDescription = *p.IsHTMLDescription
	}
	if p.ThumbnailURL != nil {
		v.ThumbnailURL = *p.ThumbnailURL
	}
	if p.CurriculumURLs != nil {
		v.CurriculumURLs = cloneURLs(p.CurriculumURLs)
	}
	if p.AllowedRoles != nil {
		v.AllowedRoles = cloneRoles(p.AllowedRoles)
	}
	if p.IsPinned != nil {
		v.IsPinned = *p.IsPinned
	}
	if p.Category != nil {
		v.Category = *p.Category
	}
	return v
}

// Lesson is one entry of a video's curriculum as the player sees it.
type Lesson struct {
	Number   int    `json:"number"` // 1-based
	URL      string `json:"url"`
	EmbedURL string `json:"embedUrl"`
}

// Playlist expands the curriculum into numbered lessons with player-ready URLs.
func (v Video) Playlist() []Lesson {
	lessons := make([]Lesson, 0, len(v.CurriculumURLs))
	for i, u := range v.CurriculumURLs {
		lessons = append(lessons, Lesson{
			Number:   i + 1,
			URL:      u,
			EmbedURL: EmbedURL(u),
		})
	}
	return lessons
}

var (
	youtubeRe = regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/)([^&\n?#]+)`)
	vimeoRe   = regexp.MustCompile(`vimeo\.com/(\d+)`)
)

// EmbedURL rewrites YouTube and Vimeo watch links into their embeddable form.
// Anything else is assumed to be embeddable already and returned unchanged.
func EmbedURL(u string) string {
	if m := youtubeRe.FindStringSubmatch(u); m != nil {
		return "https://www.youtube.com/embed/" + m[1]
	}
	if m := vimeoRe.FindStringSubmatch(u); m != nil {
		return "https://player.vimeo.com/video/" + m[1]
	}
	return u
}

// cleanURLs trims every entry and drops the blank ones, keeping order.
func cleanURLs(urls []string) []string {
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, u)
		}
	}
	return out
}

func cloneURLs(urls []string) []string {
	if urls == nil {
		return []string{}
	}
	return slices.Clone(urls)
}
