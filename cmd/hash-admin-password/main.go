// hash-admin-password generates the Argon2id hash for the administrative
// login credential.
//
// The password is read from stdin so it never appears in shell history:
//
//	echo -n 'your-password' | go run ./cmd/hash-admin-password
//
// Put the printed PHC string in MEDCAB_ADMIN_PASSWORD_HASH.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/medcab/medcab-core/internal/auth"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	reader := bufio.NewReader(os.Stdin)
	password, err := reader.ReadString('\n')
	if err != nil && password == "" {
		return fmt.Errorf("reading password from stdin: %w", err)
	}
	password = strings.TrimRight(password, "\r\n")

	if password == "" {
		return fmt.Errorf("password must not be empty")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	fmt.Println(hash)
	return nil
}
