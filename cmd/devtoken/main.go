package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/forgo/accord/pkg/jwt"
)

func main() {
	// Flags for customization
	privateKeyPath := flag.String("key", "./keys/private.pem", "Path to JWT private key")
	userID := flag.String("user", "dev-user", "User ID for the token")
	partnershipID := flag.String("partnership", "", "Partnership the token acts for")
	admin := flag.Bool("admin", false, "Issue an admin token instead of a partnership token")
	issuer := flag.String("issuer", "accord.forgo.software", "JWT issuer")
	expMins := flag.Int("exp", 60*24*7, "Token expiration in minutes (default: 7 days)")
	generate := flag.Bool("generate-keys", false, "Write a new key pair to -key and -pub, then exit")
	publicKeyPath := flag.String("pub", "./keys/public.pem", "Path to JWT public key (with -generate-keys)")
	outputJSON := flag.Bool("json", false, "Output as JSON")

	flag.Parse()

	if *generate {
		if err := jwt.GenerateKeyPair(*privateKeyPath, *publicKeyPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error generating keys: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s and %s\n", *privateKeyPath, *publicKeyPath)
		return
	}

	role := jwt.RolePartnership
	if *admin {
		role = jwt.RoleAdmin
	} else if *partnershipID == "" {
		fmt.Fprintln(os.Stderr, "Either -partnership or -admin is required")
		os.Exit(2)
	}

	// Create JWT service with just the private key
	jwtService, err := jwt.NewService(jwt.Config{
		PrivateKeyPath: *privateKeyPath,
		Issuer:         *issuer,
		ExpirationMins: *expMins,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating JWT service: %v\n", err)
		fmt.Fprintf(os.Stderr, "\nGenerate keys first with: devtoken -generate-keys\n")
		os.Exit(1)
	}

	token, err := jwtService.Sign(jwt.Claims{
		UserID:           *userID,
		PartnershipID:    *partnershipID,
		Role:             role,
		RegisteredClaims: jwtlib.RegisteredClaims{Subject: *userID},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error signing token: %v\n", err)
		os.Exit(1)
	}

	if *outputJSON {
		output := map[string]any{
			"access_token":   token,
			"token_type":     "Bearer",
			"expires_in":     *expMins * 60,
			"user_id":        *userID,
			"partnership_id": *partnershipID,
			"role":           role,
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(output)
		return
	}

	expTime := time.Now().Add(time.Duration(*expMins) * time.Minute)
	fmt.Println("Dev Token Generated")
	fmt.Println("===================")
	fmt.Printf("User ID:      %s\n", *userID)
	if *partnershipID != "" {
		fmt.Printf("Partnership:  %s\n", *partnershipID)
	}
	fmt.Printf("Role:         %s\n", role)
	fmt.Printf("Expires:      %s\n", expTime.Format(time.RFC3339))
	fmt.Println()
	fmt.Println("Token:")
	fmt.Println(token)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Printf("  curl -H 'Authorization: Bearer %s' http://localhost:8080/v1/matches\n", token[:min(len(token), 50)]+"...")
}
