// Command devtoken mints a bearer token signed with JWT_SECRET so the
// owner seat status endpoint can be exercised locally.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/gommon/log"

	"github.com/iliyamo/venue-seatmap/internal/utils"
)

func main() {
	sub := flag.String("sub", "owner-1", "token subject (user id)")
	role := flag.String("role", "OWNER", "role claim: OWNER or CUSTOMER")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	_ = godotenv.Load()
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET is not set")
	}
	tok, err := utils.NewAccessToken(secret, *sub, *role, *ttl)
	if err != nil {
		log.Fatalf("sign token: %v", err)
	}
	fmt.Println(tok.Token)
}
