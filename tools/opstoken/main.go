// Command opstoken mints an operator session token for local development and
// ops scripts, standing in for the admin panel's login flow.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mwestra/autoplein/libs/auth"
)

func main() {
	var (
		sub    = flag.String("sub", getenv("OPS_SUB", "local-operator"), "subject (operator id)")
		name   = flag.String("name", getenv("OPS_NAME", ""), "display name")
		role   = flag.String("role", getenv("OPS_ROLE", auth.RoleOperator), "operator or admin")
		ttl    = flag.Duration("ttl", 8*time.Hour, "token lifetime")
		secret = flag.String("secret", getenv("OPS_TOKEN_SECRET", ""), "shared signing secret")
	)
	flag.Parse()

	if strings.TrimSpace(*secret) == "" {
		fatal("OPS_TOKEN_SECRET is required")
	}
	if *role != auth.RoleOperator && *role != auth.RoleAdmin {
		fatal("role must be operator or admin")
	}

	now := time.Now()
	token, err := auth.SignHS256(auth.Claims{
		Sub:  *sub,
		Name: *name,
		Role: *role,
		Iat:  now.Unix(),
		Exp:  now.Add(*ttl).Unix(),
	}, *secret)
	if err != nil {
		fatal(err.Error())
	}
	fmt.Println(token)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, "opstoken: "+msg)
	os.Exit(1)
}
