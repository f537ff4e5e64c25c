package sqlite

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sakif/lesson-portal/internal/model"
)

var videoColumns = columns[model.Video]{
	table: "videos",
	kind:  "video",
	names: []string{
		"title", "description", "is_html_description", "thumbnail_url",
		"curriculum_urls", "allowed_roles", "is_pinned", "category", "created_at",
	},
	values: func(v model.Video) ([]any, error) {
		curriculum, err := encodeList(v.CurriculumURLs)
		if err != nil {
			return nil, err
		}
		roles, err := encodeList(v.AllowedRoles)
		if err != nil {
			return nil, err
		}
		return []any{
			v.Title, v.Description, v.IsHTMLDescription, v.ThumbnailURL,
			curriculum, roles, v.IsPinned, string(v.Category), formatTime(v.CreatedAt),
		}, nil
	},
	scan: func(s scanner) (model.Video, error) {
		var (
			v                        model.Video
			category                 string
			curriculum, roles, stamp string
		)
		err := s.Scan(
			&v.ID, &v.Title, &v.Description, &v.IsHTMLDescription, &v.ThumbnailURL,
			&curriculum, &roles, &v.IsPinned, &category, &stamp,
		)
		if err != nil {
			return model.Video{}, err
		}
		v.Category = model.Category(category)
		if v.CurriculumURLs, err = decodeList[string](curriculum); err != nil {
			return model.Video{}, err
		}
		if v.AllowedRoles, err = decodeList[model.Role](roles); err != nil {
			return model.Video{}, err
		}
		if v.CreatedAt, err = parseTime(stamp); err != nil {
			return model.Video{}, err
		}
		return v, nil
	},
}

var postColumns = columns[model.BlogPost]{
	table: "posts",
	kind:  "post",
	names: []string{
		"title", "content", "is_html_content", "excerpt",
		"thumbnail_url", "allowed_roles", "created_at",
	},
	values: func(p model.BlogPost) ([]any, error) {
		roles, err := encodeList(p.AllowedRoles)
		if err != nil {
			return nil, err
		}
		return []any{
			p.Title, p.Content, p.IsHTMLContent, p.Excerpt,
			p.ThumbnailURL, roles, formatTime(p.CreatedAt),
		}, nil
	},
	scan: func(s scanner) (model.BlogPost, error) {
		var (
			p            model.BlogPost
			roles, stamp string
		)
		err := s.Scan(
			&p.ID, &p.Title, &p.Content, &p.IsHTMLContent, &p.Excerpt,
			&p.ThumbnailURL, &roles, &stamp,
		)
		if err != nil {
			return model.BlogPost{}, err
		}
		if p.AllowedRoles, err = decodeList[model.Role](roles); err != nil {
			return model.BlogPost{}, err
		}
		if p.CreatedAt, err = parseTime(stamp); err != nil {
			return model.BlogPost{}, err
		}
		return p, nil
	},
}

var testimonialColumns = columns[model.Testimonial]{
	table: "testimonials",
	kind:  "testimonial",
	names: []string{"user_id", "content", "is_hidden", "created_at"},
	values: func(t model.Testimonial) ([]any, error) {
		return []any{t.UserID, t.Content, t.IsHidden, formatTime(t.CreatedAt)}, nil
	},
	scan: func(s scanner) (model.Testimonial, error) {
		var (
			t     model.Testimonial
			stamp string
		)
		if err := s.Scan(&t.ID, &t.UserID, &t.Content, &t.IsHidden, &stamp); err != nil {
			return model.Testimonial{}, err
		}
		var err error
		if t.CreatedAt, err = parseTime(stamp); err != nil {
			return model.Testimonial{}, err
		}
		return t, nil
	},
}

var userColumns = columns[model.User]{
	table: "users",
	kind:  "user",
	names: []string{"email", "role", "created_at"},
	values: func(u model.User) ([]any, error) {
		return []any{u.Email, string(u.Role), formatTime(u.CreatedAt)}, nil
	},
	scan: func(s scanner) (model.User, error) {
		var (
			u           model.User
			role, stamp string
		)
		if err := s.Scan(&u.ID, &u.Email, &role, &stamp); err != nil {
			return model.User{}, err
		}
		u.Role = model.Role(role)
		var err error
		if u.CreatedAt, err = parseTime(stamp); err != nil {
			return model.User{}, err
		}
		return u, nil
	},
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing created_at %q: %w", s, err)
	}
	return t.UTC(), nil
}

// encodeList stores a slice as a JSON array. nil is stored as [].
func encodeList[T any](items []T) (string, error) {
	if items == nil {
		items = []T{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("encoding list: %w", err)
	}
	return string(b), nil
}

func decodeList[T any](s string) ([]T, error) {
	out := []T{}
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, fmt.Errorf("decoding list %q: %w", s, err)
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}
