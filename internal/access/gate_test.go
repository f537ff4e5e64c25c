package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/lesson-portal/internal/model"
)

func masterVideo() model.Video {
	return model.Video{
		ID:                9,
		Title:             "Deep Work",
		Description:       "<p>secret</p>",
		IsHTMLDescription: true,
		ThumbnailURL:      "https://img.example.com/9.jpg",
		CurriculumURLs:    []string{"https://youtu.be/abc", "https://vimeo.com/42"},
		AllowedRoles:      []model.Role{model.RoleMaster},
		IsPinned:          true,
		Category:          model.CategoryMaster,
	}
}

func TestGateVideo_LockedKeepsMetadata(t *testing.T) {
	view := GateVideo(model.RoleMember, masterVideo())

	assert.True(t, view.Locked)
	assert.Empty(t, view.Description)
	assert.False(t, view.IsHTMLDescription)
	assert.Empty(t, view.CurriculumURLs)
	assert.Nil(t, view.Lessons)

	assert.Equal(t, "Deep Work", view.Title)
	assert.Equal(t, "https://img.example.com/9.jpg", view.ThumbnailURL)
	assert.Equal(t, []model.Role{model.RoleMaster}, view.AllowedRoles)
	assert.True(t, view.IsPinned)
}

func TestGateVideo_UnlockedHasLessons(t *testing.T) {
	view := GateVideo(model.RoleBoth, masterVideo())

	assert.False(t, view.Locked)
	assert.Equal(t, "<p>secret</p>", view.Description)
	require.Len(t, view.Lessons, 2)
	assert.Equal(t, model.Lesson{Number: 1, URL: "https://youtu.be/abc", EmbedURL: "https://www.youtube.com/embed/abc"}, view.Lessons[0])
	assert.Equal(t, "https://player.vimeo.com/video/42", view.Lessons[1].EmbedURL)
}

func TestGateVideo_DoesNotTouchInput(t *testing.T) {
	v := masterVideo()
	_ = GateVideo(model.RoleFree, v)

	assert.Equal(t, "<p>secret</p>", v.Description)
	assert.Len(t, v.CurriculumURLs, 2)
}

func TestGateVideos_KeepsEveryItem(t *testing.T) {
	free := model.Video{ID: 1, Title: "Open", AllowedRoles: []model.Role{model.RoleFree}, CurriculumURLs: []string{"https://youtu.be/x"}}
	views := GateVideos(model.RoleFree, []model.Video{masterVideo(), free})

	require.Len(t, views, 2)
	assert.True(t, views[0].Locked)
	assert.False(t, views[1].Locked)
	assert.Nil(t, views[1].Lessons, "listings carry no lesson data")
	assert.Equal(t, 1, CountLocked(views))
}

func TestGatePost(t *testing.T) {
	p := model.BlogPost{
		ID: 2, Title: "Members only", Content: "full text", Excerpt: "teaser",
		IsHTMLContent: true, AllowedRoles: []model.Role{model.RoleMember},
	}

	locked := GatePost(model.RoleFree, p)
	assert.True(t, locked.Locked)
	assert.Empty(t, locked.Content)
	assert.False(t, locked.IsHTMLContent)
	assert.Equal(t, "teaser", locked.Excerpt)

	open := GatePost(model.RoleMember, p)
	assert.False(t, open.Locked)
	assert.Equal(t, "full text", open.Content)

	assert.Equal(t, 1, CountLocked(GatePosts(model.RoleMaster, []model.BlogPost{p})))
}

func TestViewTestimonials(t *testing.T) {
	ts := []model.Testimonial{
		{ID: 1, UserID: 3, Content: "mine"},
		{ID: 2, UserID: 4, Content: "theirs"},
	}

	views := ViewTestimonials(Viewer{UserID: 3, Role: model.RoleMember}, ts)
	require.Len(t, views, 2)
	assert.True(t, views[0].IsOwner)
	assert.True(t, views[0].CanEdit)
	assert.False(t, views[1].IsOwner)
	assert.False(t, views[1].CanModerate)

	admin := ViewTestimonials(Viewer{UserID: 1, Role: model.RoleAdmin}, ts)
	assert.True(t, admin[0].CanModerate)
	assert.False(t, admin[0].CanEdit)
}
