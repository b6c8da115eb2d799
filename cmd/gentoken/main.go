// Command gentoken issues a signed development JWT for a customer reference.
//
// Usage: gentoken [-secret s] [-ttl d] <customer-ref>
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"order-management-api/middleware"
)

func main() {
	secret := flag.String("secret", os.Getenv("JWT_SECRET"), "JWT signing secret")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: gentoken [-secret s] [-ttl d] <customer-ref>")
		os.Exit(1)
	}
	if *secret == "" {
		fmt.Fprintln(os.Stderr, "A signing secret is required (flag -secret or env JWT_SECRET)")
		os.Exit(1)
	}

	token, err := middleware.GenerateToken([]byte(*secret), flag.Arg(0), *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to sign token:", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
