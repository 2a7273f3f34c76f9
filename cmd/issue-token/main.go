// Command issue-token signs an access token for local testing against the
// API. Production tokens come from the identity service.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"gig-escrow/internal/pkg/jwt"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func main() {
	user := flag.String("user", "", "user id (random when empty)")
	ttl := flag.Duration("ttl", 0, "token lifetime (defaults to JWT_ACCESS_EXPIRES_IN)")
	flag.Parse()

	_ = godotenv.Load()
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("JWT_ISSUER", "gig-escrow")
	v.SetDefault("JWT_ACCESS_EXPIRES_IN", time.Hour)

	secret := v.GetString("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	id := uuid.New()
	if *user != "" {
		parsed, err := uuid.Parse(*user)
		if err != nil {
			log.Fatalf("invalid -user: %v", err)
		}
		id = parsed
	}

	svc := jwt.NewHMACService(secret, v.GetString("JWT_ISSUER"), v.GetDuration("JWT_ACCESS_EXPIRES_IN"))
	if *ttl > 0 {
		svc = svc.WithTTL(*ttl)
	}
	tok, err := svc.GenerateAccessToken(id)
	if err != nil {
		log.Fatalf("sign token: %v", err)
	}

	fmt.Fprintf(os.Stderr, "user_id=%s\n", id)
	fmt.Println(tok)
}
