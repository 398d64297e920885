package main

import (
	"fmt"
	"os"
	"strconv"

	"golang.org/x/crypto/bcrypt"

	"github.com/Hol1kgmg/Mythologia-ASB-Archive-sub000/internal/config"
)

// Generates the bcrypt hash for SEED_ADMIN_PASSWORD_HASH. The cost defaults
// to the server's BCRYPT_COST default and can be overridden as a second
// argument.
func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: go run scripts/hash-password.go <password> [cost]\n")
		os.Exit(1)
	}

	password := os.Args[1]
	cost := config.DefaultBcryptCost
	if len(os.Args) > 2 {
		parsed, err := strconv.Atoi(os.Args[2])
		if err != nil || parsed < bcrypt.MinCost || parsed > bcrypt.MaxCost {
			fmt.Fprintf(os.Stderr, "Invalid cost %q: must be %d-%d\n", os.Args[2], bcrypt.MinCost, bcrypt.MaxCost)
			os.Exit(1)
		}
		cost = parsed
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(string(hash))
}
