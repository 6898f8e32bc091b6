// Package main prints bearer tokens for local testing against the API.
// Tokens are signed with the development key and will NOT work in production.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	jwttoken "credvault/internal/jwt_token"
	id "credvault/pkg/domain"
)

const (
	// Dev signing key - matches config.go when JWT_SIGNING_KEY is not set
	devSigningKey = "dev-secret-key-change-in-production"

	defaultIssuer   = "credvault"
	defaultTokenTTL = time.Hour
)

type tokenOutput struct {
	Token     string            `json:"token"`
	AccountID string            `json:"account_id"`
	Role      string            `json:"role"`
	ExpiresIn string            `json:"expires_in"`
	Usage     map[string]string `json:"usage"`
}

func main() {
	accountID := flag.String("account-id", "", "Account ID (UUID). Generated if empty.")
	role := flag.String("role", string(id.RoleIndividual), "individual, institution, employer or regulatory")
	ttl := flag.Duration("ttl", defaultTokenTTL, "Token time-to-live")
	key := flag.String("key", "", "Signing key. Defaults to JWT_SIGNING_KEY, then the dev key.")
	issuer := flag.String("issuer", defaultIssuer, "Token issuer")
	jsonOutput := flag.Bool("json", false, "Output as JSON")
	flag.Parse()

	parsedRole, ok := id.ParseRole(*role)
	if !ok {
		fmt.Fprintf(os.Stderr, "Invalid role: %s\n", *role)
		os.Exit(1)
	}

	signingKey := *key
	if signingKey == "" {
		signingKey = os.Getenv("JWT_SIGNING_KEY")
	}
	keyType := "custom"
	if signingKey == "" {
		signingKey = devSigningKey
		keyType = "dev"
	}

	uid := parseOrGenerateUUID(*accountID)
	svc := jwttoken.NewJWTService(signingKey, *issuer, *ttl)
	token, err := svc.IssueToken(context.Background(), id.AccountID(uid), parsedRole)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating token: %v\n", err)
		os.Exit(1)
	}

	if *jsonOutput {
		printJSON(tokenOutput{
			Token:     token,
			AccountID: uid.String(),
			Role:      string(parsedRole),
			ExpiresIn: ttl.String(),
			Usage: map[string]string{
				"header":      "Authorization: Bearer <token>",
				"signing_key": keyType,
			},
		})
		return
	}

	fmt.Println("Bearer Token (JWT)")
	fmt.Println("==================")
	fmt.Printf("Signing Key: %s\n", keyType)
	fmt.Printf("Expires In:  %s\n", ttl)
	fmt.Printf("Account ID:  %s\n", uid)
	fmt.Printf("Role:        %s\n", parsedRole)
	fmt.Println()
	fmt.Println("Token:")
	fmt.Println(token)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  curl -H \"Authorization: Bearer <token>\" http://localhost:8080/me")
	fmt.Println()
	fmt.Println("Note: /me answers 404 unless the account id exists in the running server.")
}

func parseOrGenerateUUID(input string) uuid.UUID {
	if input == "" {
		return uuid.New()
	}
	parsed, err := uuid.Parse(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid account-id UUID: %s\n", input)
		os.Exit(1)
	}
	return parsed
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}
}
