// Command bilancio-token issues a signed bearer token for local development.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"bilancio/internal/cli"
	"bilancio/internal/middleware/auth"
)

func main() {
	owner := flag.String("owner", "", "owner id placed in the token subject")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	cli.LoadEnvFile()

	if *owner == "" {
		fmt.Fprintln(os.Stderr, "bilancio-token: -owner is required")
		flag.Usage()
		os.Exit(2)
	}
	if *ttl <= 0 {
		fmt.Fprintln(os.Stderr, "bilancio-token: -ttl must be positive")
		os.Exit(2)
	}

	a, err := auth.New(auth.ModeJWT, os.Getenv("JWT_SECRET"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "bilancio-token: %v\n", err)
		os.Exit(1)
	}
	tok, err := a.Sign(*owner, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bilancio-token: sign: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(tok)
}
