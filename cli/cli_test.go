package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/orgmap/db"
	"github.com/harperreed/orgmap/docstore"
	"github.com/harperreed/orgmap/web"
)

const secret = "test-secret"

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("ORGMAP_STORE", "sqlite")
	t.Setenv("ORGMAP_DB_PATH", filepath.Join(dir, "orgmap.db"))
	t.Setenv("ORGMAP_BADGER_DIR", filepath.Join(dir, "badger"))
	t.Setenv("ORGMAP_JWT_SECRET", secret)
	t.Setenv("REDIS_URL", "")
	t.Setenv("LOG_LEVEL", "silent")
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd("test")
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeImport(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "import.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const consistentChart = `{
  "accounts": [{"id": "acct-1", "name": "Acme", "active": true}],
  "persons": [
    {"email": "ceo@x.io", "name": "Alice Chief", "accountId": "acct-1", "reportingTo": [], "reportees": ["mgr@x.io"]},
    {"email": "mgr@x.io", "name": "Bob Manager", "accountId": "acct-1", "reportingTo": ["ceo@x.io"], "reportees": ["ic@x.io"]},
    {"email": "ic@x.io", "name": "Carol Engineer", "accountId": "acct-1", "reportingTo": ["mgr@x.io"], "reportees": []}
  ]
}`

// ic reports to ceo but is still listed under mgr.
const brokenChart = `{
  "accounts": [{"id": "acct-1", "name": "Acme"}],
  "persons": [
    {"email": "ceo@x.io", "name": "Alice Chief", "accountId": "acct-1", "reportees": ["mgr@x.io"]},
    {"email": "mgr@x.io", "name": "Bob Manager", "accountId": "acct-1", "reportingTo": ["ceo@x.io"], "reportees": ["ic@x.io"]},
    {"email": "ic@x.io", "name": "Carol Engineer", "accountId": "acct-1", "reportingTo": ["ceo@x.io"]}
  ]
}`

func TestImportAndGraph(t *testing.T) {
	dir := setupEnv(t)

	out, err := run(t, "import", writeImport(t, dir, consistentChart))
	require.NoError(t, err)
	assert.Contains(t, out, "Account Acme (acct-1)")
	assert.Contains(t, out, "acct-1: 3 person(s) imported")

	out, err = run(t, "graph", "--account", "acct-1", "--focus", "bob")
	require.NoError(t, err)
	assert.Contains(t, out, "Bob Manager")
	assert.Contains(t, out, "Carol Engineer")

	dotPath := filepath.Join(dir, "chart.dot")
	_, err = run(t, "graph", "--account", "acct-1", "--output", dotPath)
	require.NoError(t, err)
	raw, err := os.ReadFile(dotPath)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Alice Chief")
}

func TestImportReportsIssues(t *testing.T) {
	dir := setupEnv(t)

	out, err := run(t, "import", writeImport(t, dir, brokenChart))
	require.Error(t, err)
	assert.Equal(t, exitIssues, ExitCode(err))
	assert.Contains(t, out, "3 person(s) imported")

	_, err = run(t, "check", "--account", "acct-1")
	assert.Equal(t, exitIssues, ExitCode(err))

	out, err = run(t, "check", "--fix")
	require.NoError(t, err)
	assert.Contains(t, out, "ORG CHART: acct-1")
	assert.Contains(t, out, "repaired 2 record(s)")

	_, err = run(t, "check")
	require.NoError(t, err)
}

func TestImportRejectsBadFile(t *testing.T) {
	dir := setupEnv(t)

	_, err := run(t, "import", writeImport(t, dir, `{"persons": [`))
	assert.Equal(t, exitUsage, ExitCode(err))

	_, err = run(t, "import", writeImport(t, dir, `{"persons": [{"email": "a@x.io"}]}`))
	assert.Equal(t, exitUsage, ExitCode(err))
}

func TestTokenCommand(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "token", "--subject", "alice", "--accounts", "acct-1,acct-2")
	require.NoError(t, err)

	claims, err := web.ParseToken([]byte(secret), strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, []string{"acct-1", "acct-2"}, claims.Accounts)

	t.Setenv("ORGMAP_JWT_SECRET", "")
	_, err = run(t, "token", "--subject", "alice")
	assert.Equal(t, exitUsage, ExitCode(err))
}

func TestMigrateToBadger(t *testing.T) {
	dir := setupEnv(t)

	_, err := run(t, "import", writeImport(t, dir, consistentChart))
	require.NoError(t, err)

	out, err := run(t, "migrate", "--to", "badger")
	require.NoError(t, err)
	assert.Contains(t, out, "Migrated 1 account(s) and 3 person(s) from sqlite to badger")

	store, err := docstore.OpenBadgerStore(filepath.Join(dir, "badger"))
	require.NoError(t, err)
	defer store.Close()

	persons, err := store.ListPersons(context.Background(), "acct-1")
	require.NoError(t, err)
	require.Len(t, persons, 3)
	assert.Equal(t, []string{"ic@x.io"}, persons[1].Reportees)

	_, err = run(t, "migrate", "--to", "sqlite")
	assert.Equal(t, exitUsage, ExitCode(err))
}

func TestInvalidConfig(t *testing.T) {
	setupEnv(t)
	t.Setenv("ORGMAP_STORE", "postgres")

	_, err := run(t, "check")
	assert.Equal(t, exitUsage, ExitCode(err))
}

func TestOpenStoreSQLite(t *testing.T) {
	setupEnv(t)
	cmd := NewRootCmd("test")
	cmd.SetArgs([]string{"check"})
	// check on an empty store succeeds with nothing to report
	require.NoError(t, cmd.Execute())

	store, err := db.OpenSQLiteStore(os.Getenv("ORGMAP_DB_PATH"))
	require.NoError(t, err)
	defer store.Close()
	accounts, err := store.ListAccounts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, accounts)
}
