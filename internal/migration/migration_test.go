package migration

import (
	"fmt"
	"io/fs"
	"testing"

	billingdomain "github.com/Biniyam0911/HospitalManager-sub001/internal/billing/domain"
	"github.com/stretchr/testify/require"
)

// The schema default must stay a member of the bill status set so a row
// created without an explicit status is readable by the domain.
func TestInitialSchemaStatusDefault(t *testing.T) {
	data, err := fs.ReadFile(embeddedMigrations, migrationsDir+"/0001_init.up.sql")
	require.NoError(t, err)

	schema := string(data)
	require.Contains(t, schema, fmt.Sprintf("status TEXT NOT NULL DEFAULT '%s'", billingdomain.StatusPending))
}
