package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"chamado.backend/pkg/crypto"
)

// Session keys are AES-256, so the session key is always 32 bytes.
const sessionKeyBytes = 32

var generateToken = crypto.GenerateRandomToken

func main() {
	jwtBytes := flag.Int("jwt-bytes", 32, "random bytes of the JWT secret")
	flag.Parse()

	if err := run(os.Stdout, *jwtBytes); err != nil {
		log.Fatal(err)
	}
}

func validateInputs(jwtBytes int) error {
	if jwtBytes < 16 {
		return fmt.Errorf("invalid jwt-bytes: %d (minimum 16)", jwtBytes)
	}
	return nil
}

func buildSecrets(jwtBytes int) (sessionKey, jwtSecret string, err error) {
	if err := validateInputs(jwtBytes); err != nil {
		return "", "", err
	}
	sessionKey, err = generateToken(sessionKeyBytes)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate session key: %w", err)
	}
	jwtSecret, err = generateToken(jwtBytes)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate jwt secret: %w", err)
	}
	return sessionKey, jwtSecret, nil
}

func run(w io.Writer, jwtBytes int) error {
	sessionKey, jwtSecret, err := buildSecrets(jwtBytes)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "Generated service secrets")
	fmt.Fprintf(w, "SESSION_ENCRYPTION_KEY=%s\n", sessionKey)
	fmt.Fprintf(w, "JWT_SECRET=%s\n", jwtSecret)
	return nil
}
