// Command bootstrap-owner creates an owner in PostgreSQL and prints an access
// token for it, for seeding environments that run AUTH_MODE=system.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	"github.com/niolikon/taskboard/internal/auth"
	"github.com/niolikon/taskboard/internal/config"
	"github.com/niolikon/taskboard/internal/repository"
	"github.com/niolikon/taskboard/internal/service"
)

type output struct {
	OwnerID     string `json:"owner_id"`
	Username    string `json:"username"`
	Created     bool   `json:"created"`
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

func main() {
	_ = godotenv.Load()

	var (
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
		username    = flag.String("username", "admin", "Owner username")
		password    = flag.String("password", os.Getenv("BOOTSTRAP_PASSWORD"), "Owner password (or BOOTSTRAP_PASSWORD)")
		format      = flag.String("format", "plain", "Output format: plain or json")
	)
	flag.Parse()

	if *databaseURL == "" {
		fail("DATABASE_URL is required")
	}
	if *password == "" {
		fail("a password is required")
	}

	var jwtCfg config.JWTConfig
	if err := env.ParseWithOptions(&jwtCfg, env.Options{Prefix: "JWT_"}); err != nil {
		fail("parse JWT settings:", err)
	}
	tokens, err := auth.NewTokenFactory(jwtCfg.Options())
	if err != nil {
		fail("JWT:", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := repository.Migrate(ctx, *databaseURL); err != nil {
		fail("migrate database:", err)
	}
	db, err := repository.New(ctx, *databaseURL, repository.DefaultPoolOptions)
	if err != nil {
		fail("connect database:", err)
	}
	defer db.Close()

	users := repository.NewUserRepository(db)
	svc := service.NewSystemAuthService(users, tokens)

	created := true
	user, err := svc.Register(ctx, *username, *password)
	if errors.Is(err, service.ErrUsernameTaken) {
		created = false
		user, err = users.GetUserByUsername(ctx, *username)
	}
	if err != nil {
		fail("register owner:", err)
	}

	token, err := svc.Login(ctx, *username, *password)
	if err != nil {
		fail("owner exists with a different password:", err)
	}

	out := output{
		OwnerID:     user.ID,
		Username:    *username,
		Created:     created,
		AccessToken: token.AccessToken,
		ExpiresIn:   token.ExpiresIn,
	}

	switch strings.ToLower(*format) {
	case "plain":
		fmt.Println(out.AccessToken)
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
	default:
		fail("invalid format; use plain or json")
	}
}

func fail(args ...any) {
	fmt.Fprintln(os.Stderr, args...)
	os.Exit(1)
}
