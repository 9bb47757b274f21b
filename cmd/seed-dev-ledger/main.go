// seed-dev-ledger loads a JSON ledger fixture into the ledger mirror tables of a dev database.
// Rows are upserted by id so the tool can be rerun after editing the fixture.
//
// Usage (from repo root):
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-dev-ledger -fixture ledger.json
//
// With -token-company the tool also prints a dev bearer token for that company (signed with API_SECRET, lifespan from TOKEN_HOUR_LIFESPAN).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"bitbucket.org/mmdatafocus/bank_recon_report/config"
	"bitbucket.org/mmdatafocus/bank_recon_report/models"
	"bitbucket.org/mmdatafocus/bank_recon_report/utils"
)

func main() {
	fixture := flag.String("fixture", "", "path to the JSON ledger fixture (required)")
	migrate := flag.Bool("migrate", true, "create or update the ledger mirror tables first")
	tokenCompany := flag.Int("token-company", 0, "print a dev bearer token for this company id")
	tokenUser := flag.String("token-user", "Seed", "user name carried by the dev token")
	flag.Parse()

	if *fixture == "" {
		fmt.Fprintln(os.Stderr, "-fixture is required")
		os.Exit(2)
	}

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	if *migrate {
		if err := models.MigrateTable(db); err != nil {
			fmt.Fprintf(os.Stderr, "failed to migrate ledger tables: %v\n", err)
			os.Exit(1)
		}
	}

	f, err := os.Open(*fixture)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open fixture: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	if err := models.SeedLedgerFixture(ctx, db, f); err != nil {
		fmt.Fprintf(os.Stderr, "failed to seed ledger: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Seeded ledger fixture %q\n", *fixture)

	if *tokenCompany > 0 {
		token, err := utils.JwtGenerate(1, *tokenUser, *tokenCompany)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to generate token: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Bearer %s\n", token)
	}
}
