package access

import "github.com/sakif/lesson-portal/internal/model"

// VideoView is a video as one particular viewer sees it.
type VideoView struct {
	model.Video
	Locked  bool           `json:"locked"`
	Lessons []model.Lesson `json:"lessons,omitempty"`
}

// PostView is a blog post as one particular viewer sees it.
type PostView struct {
	model.BlogPost
	Locked bool `json:"locked"`
}

// TestimonialView adds the per-viewer permissions the page needs.
type TestimonialView struct {
	model.Testimonial
	IsOwner     bool `json:"isOwner"`
	CanEdit     bool `json:"canEdit"`
	CanModerate bool `json:"canModerate"`
}

// GateVideo strips description and curriculum when the viewer may not watch.
// Title, thumbnail, category, pin and allowed roles stay visible.
func GateVideo(role model.Role, v model.Video) VideoView {
	if CanAccess(role, v.AllowedRoles) {
		return VideoView{Video: v, Lessons: v.Playlist()}
	}
	v.Description = ""
	v.IsHTMLDescription = false
	v.CurriculumURLs = []string{}
	return VideoView{Video: v, Locked: true}
}

func GateVideos(role model.Role, videos []model.Video) []VideoView {
	out := make([]VideoView, 0, len(videos))
	for _, v := range videos {
		view := GateVideo(role, v)
		// Listings never carry the lesson player data.
		view.Lessons = nil
		out = append(out, view)
	}
	return out
}

// GatePost strips the body. The excerpt is a teaser and stays visible.
func GatePost(role model.Role, p model.BlogPost) PostView {
	if CanAccess(role, p.AllowedRoles) {
		return PostView{BlogPost: p}
	}
	p.Content = ""
	p.IsHTMLContent = false
	return PostView{BlogPost: p, Locked: true}
}

func GatePosts(role model.Role, posts []model.BlogPost) []PostView {
	out := make([]PostView, 0, len(posts))
	for _, p := range posts {
		out = append(out, GatePost(role, p))
	}
	return out
}

func ViewTestimonials(v Viewer, ts []model.Testimonial) []TestimonialView {
	out := make([]TestimonialView, 0, len(ts))
	for _, t := range ts {
		out = append(out, TestimonialView{
			Testimonial: t,
			IsOwner:     t.IsOwner(v.UserID),
			CanEdit:     CanEditTestimonial(v, t),
			CanModerate: CanModerate(v),
		})
	}
	return out
}

// CountLocked is used for metrics.
func CountLocked[T interface{ IsLocked() bool }](views []T) int {
	n := 0
	for _, v := range views {
		if v.IsLocked() {
			n++
		}
	}
	return n
}

func (v VideoView) IsLocked() bool { return v.Locked }

func (p PostView) IsLocked() bool { return p.Locked }
