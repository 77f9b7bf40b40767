// Command tokengen mints signed handshake tokens for local development
// and testing. In production the account service issues tokens; this
// tool exists so a developer can connect a client to a local server
// without one.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/tradelink/server/auth"
)

// defaultSecret matches the server's TOKEN_SECRET fallback.
const defaultSecret = "dev-secret"

func main() {
	secret := flag.String("secret", os.Getenv("TOKEN_SECRET"), "HMAC secret the server verifies against")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	token, err := mint(*secret, *ttl)
	if err != nil {
		log.Fatalf("signing token: %v", err)
	}
	fmt.Println(token)
}

// mint signs a token, falling back to the server's default secret when
// none is given.
func mint(secret string, ttl time.Duration) (string, error) {
	if secret == "" {
		secret = defaultSecret
	}
	return auth.Sign(secret, ttl)
}
