package testutil

import (
	"testing"

	"github.com/google/uuid"
)

// Fixed UUIDs for deterministic testing.
var (
	TestUserID1  = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	TestUserID2  = uuid.MustParse("00000000-0000-0000-0000-000000000002")
	TestAdminID  = uuid.MustParse("00000000-0000-0000-0000-0000000000ad")
	TestRecordID = uuid.MustParse("00000000-0000-0000-0000-000000000020")
)

// SkipIfShort skips container-backed tests under `go test -short`.
func SkipIfShort(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
}
