// Command devtoken mints a viewer token signed with JWT_SECRET so the API can
// be exercised locally without going through GitHub:
//
//	go run ./cmd/devtoken -user 1 -role admin
//	curl -H "Authorization: Bearer $(go run ./cmd/devtoken -user 3 -role member)" localhost:8080/api/videos
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/sakif/lesson-portal/internal/access"
	"github.com/sakif/lesson-portal/internal/auth"
	"github.com/sakif/lesson-portal/internal/config"
	"github.com/sakif/lesson-portal/internal/model"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "devtoken:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("devtoken", flag.ContinueOnError)
	userID := fs.Int64("user", 1, "user id to put in the sub claim")
	role := fs.String("role", string(model.RoleAdmin), "free | member | master | both | admin")
	ttl := fs.Duration("ttl", time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if !cfg.Auth.Enabled() {
		return errors.New("JWT_SECRET is not set")
	}

	r, err := model.ParseRole(*role)
	if err != nil {
		return err
	}
	if *userID <= 0 {
		return fmt.Errorf("user id must be positive, got %d", *userID)
	}

	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.JWTTTL)
	if err != nil {
		return err
	}
	token, err := tokens.GenerateWithDuration(access.Viewer{UserID: *userID, Role: r}, *ttl)
	if err != nil {
		return err
	}

	fmt.Println(token)
	return nil
}
