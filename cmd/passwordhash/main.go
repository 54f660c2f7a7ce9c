// Command passwordhash prints a bcrypt hash suitable for ADMIN_PASSWORD_HASH.
//
// Usage:
//
//	passwordhash <password>
//	echo -n <password> | passwordhash
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/ecologia-integral/ecosite/internal/auth"
)

func main() {
	password, err := readPassword()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to hash password: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}

func readPassword() (string, error) {
	if len(os.Args) > 1 {
		return os.Args[1], nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		if err != nil {
			return "", fmt.Errorf("failed to read password from stdin: %w", err)
		}
		return "", fmt.Errorf("password must not be empty")
	}
	return line, nil
}
