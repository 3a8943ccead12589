package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/rental-booking-backend/internal/auth"
)

func TestRootRegistersCommands(t *testing.T) {
	root := NewRoot()
	for _, name := range []string{"serve", "schema", "sweep", "token"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestSchemaPrint(t *testing.T) {
	root := NewRoot()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"schema", "--print"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "CREATE TABLE IF NOT EXISTS public.bookings")
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://unused")
	t.Setenv("JWT_SECRET", "cli-secret")

	root := NewRoot()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"token", "--user", "u-42", "--role", "admin"})
	require.NoError(t, root.Execute())

	claims, err := auth.NewJWTManager("cli-secret", 0).ParseAndValidate(string(bytes.TrimSpace(out.Bytes())))
	require.NoError(t, err)
	assert.Equal(t, "u-42", claims.UserID)
	assert.Equal(t, auth.RoleAdmin, claims.Role)
}

func TestTokenRejectsUnknownRole(t *testing.T) {
	root := NewRoot()
	root.SetArgs([]string{"token", "--role", "root"})
	assert.Error(t, root.Execute())
}
