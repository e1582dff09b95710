// Command devtoken mints an HS256 bearer token for calling a local server.
package main

import (
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"graph-engine/infrastructure/config"
	"graph-engine/pkg/auth"
)

func main() {
	userID := flag.String("user", "dev-user", "subject (user id) of the token")
	email := flag.String("email", "dev@example.com", "email claim")
	roles := flag.String("roles", "", "comma separated roles")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	generator, err := auth.NewJWTGenerator(auth.JWTGeneratorConfig{
		SecretKey:  cfg.JWTSecret,
		Issuer:     cfg.JWTIssuer,
		Audience:   cfg.JWTAudience,
		ExpiryTime: *ttl,
	})
	if err != nil {
		log.Fatalf("Failed to create token generator: %v", err)
	}

	var roleList []string
	if *roles != "" {
		roleList = strings.Split(*roles, ",")
	}

	token, err := generator.GenerateToken(*userID, *email, roleList)
	if err != nil {
		log.Fatalf("Failed to generate token: %v", err)
	}
	fmt.Println(token)
}
