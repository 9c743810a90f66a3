package main

//// Small CLI tool used to provision the seed user accounts.
//// Reads a JSON file with plaintext passwords, hashes them with bcrypt,
//// and prints the base64 blob expected in the OPSPROXY_USER_ACCOUNTS env var.

import (
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/busfleet/opsproxy/internal/accounts"
	"github.com/busfleet/opsproxy/pkg"
)

type seedAccount struct {
	ID       int    `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Phone    string `json:"phone"`
}

func main() {
	inputPath := flag.String("in", "./accounts.json", "path to JSON file with seed accounts (plaintext passwords)")
	flag.Parse()

	jsonData, err := os.ReadFile(*inputPath)
	if err != nil {
		log.Fatalf("Failed to read file: %v\n", err)
	}

	var seeds []seedAccount
	if err := json.Unmarshal(jsonData, &seeds); err != nil {
		log.Fatalf("Failed to parse JSON: %v\n", err)
	}
	if len(seeds) == 0 {
		log.Fatalln("No accounts found in input file")
	}

	hashedAccounts := make([]accounts.Account, 0, len(seeds))
	for _, seed := range seeds {
		hash, err := pkg.HashPassword(seed.Password)
		if err != nil {
			log.Fatalf("Failed to hash password for [%s]: %v\n", seed.Email, err)
		}
		hashedAccounts = append(hashedAccounts, accounts.Account{
			ID:           seed.ID,
			Email:        seed.Email,
			Name:         seed.Name,
			PasswordHash: hash,
			Role:         accounts.Role(seed.Role),
			Phone:        seed.Phone,
		})
		log.Printf("+++ hashed account: %s [%s]", seed.Email, seed.Role)
	}

	accountsJSON, err := json.Marshal(hashedAccounts)
	if err != nil {
		log.Fatalf("Failed to marshal accounts: %v\n", err)
	}

	fmt.Println("export OPSPROXY_USER_ACCOUNTS=" + base64.StdEncoding.EncodeToString(accountsJSON))
}
