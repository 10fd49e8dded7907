package testutil

import (
	"os"
	"testing"
)

// RequireSQLite skips the test if the NETFLEET_SQLITE_TEST environment
// variable is not set. The sqlitestore backend needs cgo-free but still
// real disk I/O through modernc.org/sqlite; gating it keeps the default
// `go test ./...` run fast and hermetic.
func RequireSQLite(t *testing.T) {
	t.Helper()
	if os.Getenv("NETFLEET_SQLITE_TEST") == "" {
		t.Skip("skipping test: requires NETFLEET_SQLITE_TEST environment")
	}
}
