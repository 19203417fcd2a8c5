package main

import (
	"abclisting/pkg/config"
	"abclisting/pkg/logger"
	"abclisting/pkg/middleware"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
)

const JobName = "token"

// token signs a session for local development and smoke tests. Deployed
// environments get their tokens from the identity provider, signed with the
// same JWT_SECRET. Only the token goes to stdout.
func main() {
	subject := flag.String("sub", "", "user id (required)")
	name := flag.String("name", "", "display name")
	avatar := flag.String("avatar", "", "avatar URL")
	email := flag.String("email", "", "contact email")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	_ = godotenv.Load()
	log := logger.New(logger.Config{Level: logger.INFO, Format: logger.TEXT, Output: os.Stderr, Service: JobName})

	secret := os.Getenv(config.EnvJWTSecret)
	if secret == "" {
		log.Fatal("JWT_SECRET is required to sign tokens")
	}
	if *subject == "" {
		log.Fatal("-sub is required")
	}

	token, err := middleware.IssueToken(secret, middleware.ViewerClaims{
		Name:             *name,
		Avatar:           *avatar,
		Contact:          *email,
		RegisteredClaims: jwt.RegisteredClaims{Subject: *subject},
	}, *ttl)
	if err != nil {
		log.Fatal("Failed to sign token", "error", err)
	}
	fmt.Println(token)
}
