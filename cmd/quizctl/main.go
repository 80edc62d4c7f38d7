// Command quizctl scores answer sets and checks quiz catalogs offline, and signs
// staff tokens for the admin API.
package main

import (
	"os"

	"mindspace-backend/internal/shared/telemetry"
)

func main() {
	defer telemetry.Sync()
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
