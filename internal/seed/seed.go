// Package seed holds the fixed dataset every store starts from.
//
// The JSON files under data/ are compiled into the binary with go:embed, so
// a fresh process always boots with the same content and a restart of the
// in-memory backend resets to it.
package seed

import (
	"embed"
	"encoding/json"
	"fmt"

	"github.com/sakif/lesson-portal/internal/model"
)

//go:embed data/*.json
var files embed.FS

// Dataset is the initial content of every collection, in store order
// (newest first).
type Dataset struct {
	Videos       []model.Video
	Posts        []model.BlogPost
	Testimonials []model.Testimonial
	Users        []model.User
}

// Load decodes the embedded dataset.
func Load() (Dataset, error) {
	var d Dataset
	if err := decode("data/videos.json", &d.Videos); err != nil {
		return Dataset{}, err
	}
	if err := decode("data/posts.json", &d.Posts); err != nil {
		return Dataset{}, err
	}
	if err := decode("data/testimonials.json", &d.Testimonials); err != nil {
		return Dataset{}, err
	}
	if err := decode("data/users.json", &d.Users); err != nil {
		return Dataset{}, err
	}
	return d, nil
}

func decode(name string, dst any) error {
	raw, err := files.ReadFile(name)
	if err != nil {
		return fmt.Errorf("seed: reading %s: %w", name, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("seed: decoding %s: %w", name, err)
	}
	return nil
}
