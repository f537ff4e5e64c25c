package service

import (
	"context"
	"fmt"

	"github.com/sakif/lesson-portal/internal/listing"
	"github.com/sakif/lesson-portal/internal/model"
)

// HomeFeedSize is how many videos and posts the landing page shows.
const HomeFeedSize = 3

// Stats is the admin dashboard summary.
type Stats struct {
	TotalUsers        int                `json:"totalUsers"`
	TotalVideos       int                `json:"totalVideos"`
	TotalPosts        int                `json:"totalPosts"`
	TotalTestimonials int                `json:"totalTestimonials"`
	UsersByRole       map[model.Role]int `json:"usersByRole"`
}

// HomeFeed is the raw content for the landing page; callers gate it.
type HomeFeed struct {
	Videos []model.Video
	Posts  []model.BlogPost
}

// DashboardService reads across every facade. It never writes.
type DashboardService struct {
	users        *UserService
	videos       *VideoService
	posts        *PostService
	testimonials *TestimonialService
}

func NewDashboardService(users *UserService, videos *VideoService, posts *PostService, testimonials *TestimonialService) *DashboardService {
	return &DashboardService{
		users:        users,
		videos:       videos,
		posts:        posts,
		testimonials: testimonials,
	}
}

// Stats counts every collection and the users in each of the five tiers.
// Every role appears in UsersByRole, even with a zero count.
func (s *DashboardService) Stats(ctx context.Context) (Stats, error) {
	users, err := s.users.GetAll(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("dashboard stats: %w", err)
	}
	videos, err := s.videos.GetAll(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("dashboard stats: %w", err)
	}
	posts, err := s.posts.GetAll(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("dashboard stats: %w", err)
	}
	testimonials, err := s.testimonials.GetAll(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("dashboard stats: %w", err)
	}

	byRole := make(map[model.Role]int, len(model.AllRoles()))
	for _, r := range model.AllRoles() {
		byRole[r] = 0
	}
	for _, u := range users {
		byRole[u.Role]++
	}

	return Stats{
		TotalUsers:        len(users),
		TotalVideos:       len(videos),
		TotalPosts:        len(posts),
		TotalTestimonials: len(testimonials),
		UsersByRole:       byRole,
	}, nil
}

// Home returns the newest videos and posts in store order.
func (s *DashboardService) Home(ctx context.Context) (HomeFeed, error) {
	videos, err := s.videos.GetAll(ctx)
	if err != nil {
		return HomeFeed{}, fmt.Errorf("home feed: %w", err)
	}
	posts, err := s.posts.GetAll(ctx)
	if err != nil {
		return HomeFeed{}, fmt.Errorf("home feed: %w", err)
	}
	return HomeFeed{
		Videos: listing.Latest(videos, HomeFeedSize),
		Posts:  listing.Latest(posts, HomeFeedSize),
	}, nil
}
