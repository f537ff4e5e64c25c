// Package listing holds the ordering and filtering rules each page applies
// after fetching from a store. The stores keep insertion order; everything
// here works on copies and never changes the input slice.
package listing

import (
	"cmp"
	"slices"
	"strings"

	"github.com/sakif/lesson-portal/internal/model"
)

// VideosForCategory keeps one category and orders it with SortVideos.
func VideosForCategory(videos []model.Video, category model.Category) []model.Video {
	out := make([]model.Video, 0, len(videos))
	for _, v := range videos {
		if v.Category == category {
			out = append(out, v)
		}
	}
	return SortVideos(out)
}

// SortVideos orders pinned first, then newest first. Within the pinned group
// the newest also comes first.
func SortVideos(videos []model.Video) []model.Video {
	out := slices.Clone(videos)
	slices.SortStableFunc(out, func(a, b model.Video) int {
		if a.IsPinned != b.IsPinned {
			if a.IsPinned {
				return -1
			}
			return 1
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out
}

// SortPosts orders newest first.
func SortPosts(posts []model.BlogPost) []model.BlogPost {
	out := slices.Clone(posts)
	slices.SortStableFunc(out, func(a, b model.BlogPost) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out
}

// SortTestimonials puts every visible testimonial before every hidden one,
// newest first inside each group.
func SortTestimonials(ts []model.Testimonial) []model.Testimonial {
	out := slices.Clone(ts)
	slices.SortStableFunc(out, func(a, b model.Testimonial) int {
		if c := cmp.Compare(boolRank(a.IsHidden), boolRank(b.IsHidden)); c != 0 {
			return c
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out
}

// SearchVideos keeps videos whose title or description contains term,
// ignoring case. A blank term keeps everything. The description only counts
// for videos canRead allows, since a locked video's description is never
// shown; a nil canRead allows all.
func SearchVideos(videos []model.Video, term string, canRead func(model.Video) bool) []model.Video {
	return search(videos, term, func(v model.Video) []string {
		if canRead != nil && !canRead(v) {
			return []string{v.Title}
		}
		return []string{v.Title, v.Description}
	})
}

// SearchPosts is SearchVideos for posts. Title and excerpt always match;
// content only for posts canRead allows.
func SearchPosts(posts []model.BlogPost, term string, canRead func(model.BlogPost) bool) []model.BlogPost {
	return search(posts, term, func(p model.BlogPost) []string {
		if canRead != nil && !canRead(p) {
			return []string{p.Title, p.Excerpt}
		}
		return []string{p.Title, p.Excerpt, p.Content}
	})
}

// Related returns up to n posts other than excludeID, in the order given.
// A negative n is treated as zero.
func Related(posts []model.BlogPost, excludeID int64, n int) []model.BlogPost {
	n = max(n, 0)
	out := make([]model.BlogPost, 0, n)
	for _, p := range posts {
		if len(out) == n {
			break
		}
		if p.ID != excludeID {
			out = append(out, p)
		}
	}
	return out
}

// Latest returns the first n items (stores are already newest first).
func Latest[T any](items []T, n int) []T {
	if n < 0 {
		n = 0
	}
	if len(items) < n {
		n = len(items)
	}
	out := make([]T, n)
	copy(out, items)
	return out
}

func search[T any](items []T, term string, fields func(T) []string) []T {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return slices.Clone(items)
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		if slices.ContainsFunc(fields(item), func(f string) bool {
			return strings.Contains(strings.ToLower(f), term)
		}) {
			out = append(out, item)
		}
	}
	return out
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}
