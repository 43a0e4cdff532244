package main

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/nkiryanov/shopledger/internal/service/auth"
)

const SecretKeyBytesLen = 32

// Print account token for the presentation layer or manual testing
// Prints a fresh secret key first if none given
func main() {
	if err := run(os.Stdout, os.Getenv, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(out io.Writer, getenv func(string) string, args []string) error {
	fs := pflag.NewFlagSet("issuetoken", pflag.ContinueOnError)

	secret := fs.StringP("secret-key", "s", getenv("SECRET_KEY"), "Secret key to sign token with, generated if empty")
	accountID := fs.Int64P("account", "a", 0, "Account id to issue token for")
	ttl := fs.Duration("ttl", 24*time.Hour, "Token lifetime")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *accountID <= 0 {
		return errors.New("account id must be positive")
	}

	if *secret == "" {
		generated, err := generateSecret()
		if err != nil {
			return err
		}
		*secret = generated
		fmt.Fprintf(out, "SECRET_KEY=%s\n", generated)
	}

	tokens, err := auth.New(auth.Config{SecretKey: *secret, TTL: *ttl})
	if err != nil {
		return err
	}

	issued, err := tokens.Issue(*accountID)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "TOKEN=%s\n", issued.Value)
	fmt.Fprintf(out, "EXPIRES_AT=%s\n", issued.ExpiresAt.Format(time.RFC3339))
	return nil
}

func generateSecret() (string, error) {
	b := make([]byte, SecretKeyBytesLen)

	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("error while generating secret key: %w", err)
	}

	return hex.EncodeToString(b), nil
}
