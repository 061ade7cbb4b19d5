package main

import (
	"bytes"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/expensy/internal/api"
	"github.com/Veraticus/expensy/internal/api/apitest"
	"github.com/Veraticus/expensy/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPageSize = 5

// harness runs the root command against a fake backend with a session
// database of its own.
type harness struct {
	t      *testing.T
	server *apitest.Server
	config string
	dir    string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	cfg := filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf("session:\n  path: %s\ntable:\n  page_size: %d\nexport:\n  dir: %s\n",
		filepath.Join(dir, "session.db"), testPageSize, filepath.Join(dir, "exports"))
	require.NoError(t, os.WriteFile(cfg, []byte(content), 0o600))
	return &harness{t: t, server: apitest.NewServer(t), config: cfg, dir: dir}
}

func (h *harness) run(stdin string, args ...string) (string, error) {
	h.t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetArgs(append([]string{
		"--config", h.config,
		"--env-file", "",
		"--api-url", h.server.URL,
		"--log-level", "error",
	}, args...))
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&out)
	err := root.Execute()
	return out.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run("", args...)
	require.NoError(h.t, err, out)
	return out
}

func (h *harness) login() {
	h.t.Helper()
	h.mustRun("login", "--email", apitest.DefaultEmail, "--password", apitest.DefaultPassword)
}

func TestLoginAndWhoami(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("login", "--email", apitest.DefaultEmail, "--password", apitest.DefaultPassword)
	assert.Contains(t, out, "Signed in as "+apitest.DefaultEmail)

	out = h.mustRun("whoami")
	assert.Contains(t, out, apitest.DefaultEmail)
	assert.Contains(t, out, "Test User")
	assert.Contains(t, out, "Session expires")
	assert.Contains(t, out, "Session saved")
}

func TestLoginPromptsForMissingCredentials(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(apitest.DefaultEmail+"\n"+apitest.DefaultPassword+"\n", "login")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Signed in as "+apitest.DefaultEmail)
}

func TestLoginWrongPassword(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("", "login", "--email", apitest.DefaultEmail, "--password", "nope")
	require.Error(t, err)

	_, err = h.run("", "whoami")
	assert.ErrorIs(t, err, common.ErrNotLoggedIn)
}

func TestLogout(t *testing.T) {
	h := newHarness(t)
	h.login()

	out := h.mustRun("logout")
	assert.Contains(t, out, "Signed out")

	_, err := h.run("", "transactions", "list")
	assert.ErrorIs(t, err, common.ErrNotLoggedIn)
}

func TestCommandsRequireLogin(t *testing.T) {
	commands := [][]string{
		{"dashboard"},
		{"transactions", "list"},
		{"transactions", "sync"},
		{"recurring", "list"},
		{"categories"},
		{"history"},
		{"export", "ofx"},
	}
	for _, args := range commands {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			h := newHarness(t)
			_, err := h.run("", args...)
			assert.ErrorIs(t, err, common.ErrNotLoggedIn)
		})
	}
}

func TestTransactionsList(t *testing.T) {
	h := newHarness(t)
	h.login()
	total := len(h.server.Rows())
	pages := (total + testPageSize - 1) / testPageSize

	out := h.mustRun("transactions", "list")
	assert.Contains(t, out, fmt.Sprintf("Page 1 of %d", pages))
	assert.Contains(t, out, h.server.Rows()[0].ID)
	assert.NotContains(t, out, h.server.Rows()[testPageSize].ID)

	out = h.mustRun("transactions", "list", "--page", "2")
	assert.Contains(t, out, fmt.Sprintf("Page 2 of %d", pages))
	assert.Contains(t, out, h.server.Rows()[testPageSize].ID)
	assert.Contains(t, out, "page=2")

	// The view is remembered between runs.
	out = h.mustRun("transactions", "list")
	assert.Contains(t, out, fmt.Sprintf("Page 2 of %d", pages))
}

func TestTransactionsListFilters(t *testing.T) {
	h := newHarness(t)
	h.login()

	food := 0
	for _, row := range h.server.Rows() {
		if row.CategoryID != nil && *row.CategoryID == 1 {
			food++
		}
	}

	out := h.mustRun("transactions", "list", "--category", "Food", "--page", "1")
	assert.Contains(t, out, fmt.Sprintf("%d transactions", food))
	assert.Contains(t, out, "Filters: category: 1")
	assert.Contains(t, out, "filter=")

	out = h.mustRun("transactions", "list", "--sort", "transactionAmount:desc")
	assert.Contains(t, out, "Sort: transactionAmount - desc")
	assert.Contains(t, out, fmt.Sprintf("%d transactions", food))

	out = h.mustRun("transactions", "list", "--reset")
	assert.Contains(t, out, fmt.Sprintf("%d transactions", len(h.server.Rows())))
	assert.NotContains(t, out, "Filters:")
}

func TestTransactionsListRejectsBadFlags(t *testing.T) {
	h := newHarness(t)
	h.login()

	tests := [][]string{
		{"--sort", "nope"},
		{"--sort", "store:sideways"},
		{"--status", "maybe"},
		{"--from", "last week"},
		{"--category", "Nonexistent"},
		{"--query", "%zz"},
	}
	for _, flags := range tests {
		t.Run(strings.Join(flags, " "), func(t *testing.T) {
			_, err := h.run("", append([]string{"transactions", "list"}, flags...)...)
			assert.ErrorIs(t, err, common.ErrInvalidInput)
		})
	}
}

func TestTransactionsSync(t *testing.T) {
	h := newHarness(t)
	h.login()
	total := len(h.server.Rows())

	out := h.mustRun("transactions", "sync", "--window", "10")
	assert.Contains(t, out, fmt.Sprintf("Synced %d of %d transactions", total, total))
	assert.Equal(t, (total+9)/10, h.server.Calls("/api/transactions/list-transactions"))
}

func TestTransactionsEdit(t *testing.T) {
	h := newHarness(t)
	h.login()
	id := h.server.Rows()[0].ID

	_, err := h.run("", "transactions", "edit", id, "--amount", "12.5")
	require.ErrorIs(t, err, common.ErrNotFound)

	h.mustRun("transactions", "list")
	out := h.mustRun("transactions", "edit", id, "--amount", "12.5", "--merchant", "Corner Shop")
	assert.Contains(t, out, "Transaction "+id+" updated")

	body := string(h.server.LastBody("/api/transactions/update-transaction"))
	assert.Contains(t, body, `"transactionAmount":12.5`)
	assert.Contains(t, body, `"name":"Corner Shop"`)
}

func TestTransactionsDelete(t *testing.T) {
	h := newHarness(t)
	h.login()
	id := h.server.Rows()[0].ID
	h.mustRun("transactions", "list")

	out, err := h.run("n\n", "transactions", "delete", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing deleted")
	assert.Zero(t, h.server.Calls("/api/transactions/delete-transaction"))

	out = h.mustRun("transactions", "delete", id, "--yes")
	assert.Contains(t, out, "Transaction "+id+" deleted")
	assert.Equal(t, 1, h.server.Calls("/api/transactions/delete-transaction"))
}

func TestRecurring(t *testing.T) {
	h := newHarness(t)
	h.login()
	start := time.Now().AddDate(0, 1, 0).Format(time.DateOnly)

	out := h.mustRun("recurring", "create", "--name", "Rent", "--amount", "4500", "--category", "Food", "--start", start)
	assert.Contains(t, out, "Recurring transaction Rent created")
	require.Len(t, h.server.Recurring(), 1)
	id := h.server.Recurring()[0].ID

	out = h.mustRun("recurring", "list")
	assert.Contains(t, out, "Rent")
	assert.Contains(t, out, "1 months")

	out = h.mustRun("recurring", "update", fmt.Sprint(id), "--every", "2")
	assert.Contains(t, out, "Recurring transaction Rent updated")
	assert.Equal(t, 2, h.server.Recurring()[0].FrequencyValue)

	out = h.mustRun("recurring", "delete", fmt.Sprint(id), "--yes")
	assert.Contains(t, out, "Recurring transaction Rent deleted")
	assert.Empty(t, h.server.Recurring())
}

func TestRecurringCreateRejectsPastStart(t *testing.T) {
	h := newHarness(t)
	h.login()

	_, err := h.run("", "recurring", "create", "--name", "Rent", "--amount", "4500",
		"--category", "Food", "--start", "2001-01-01")
	require.ErrorIs(t, err, common.ErrInvalidInput)
	assert.Zero(t, h.server.Calls("/api/transactions/create-recurring-transaction"))
}

func TestRecurringUnknownID(t *testing.T) {
	h := newHarness(t)
	h.login()

	_, err := h.run("", "recurring", "delete", "99", "--yes")
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = h.run("", "recurring", "delete", "rent", "--yes")
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestCategoriesAndHistory(t *testing.T) {
	h := newHarness(t)
	h.login()

	out := h.mustRun("categories")
	for _, name := range []string{"Food", "Transport", "Bills"} {
		assert.Contains(t, out, name)
	}

	out = h.mustRun("history")
	assert.Contains(t, out, "Dec 2023")
	assert.Contains(t, out, "Jan 2024")
}

func TestDashboard(t *testing.T) {
	h := newHarness(t)
	h.login()

	out := h.mustRun("dashboard")
	assert.Contains(t, out, "Hello, Test User")
	assert.Contains(t, out, "Latest transactions")
	assert.Contains(t, out, h.server.Rows()[0].Merchant())
}

func TestDashboardShowsWhatLoaded(t *testing.T) {
	h := newHarness(t)
	h.login()

	h.server.Fail(api.PathMonthlySpendingHistory, http.StatusInternalServerError, "History is unavailable", nil)
	out := h.mustRun("dashboard")
	assert.Contains(t, out, "History is unavailable")
	assert.Contains(t, out, "Hello, Test User")
	assert.Contains(t, out, "Latest transactions")
	assert.Contains(t, out, h.server.Rows()[0].Merchant())
	assert.Equal(t, 1, h.server.Calls(api.PathMonthlySpendingHistory))
}

func TestSetupWizard(t *testing.T) {
	h := newHarness(t)
	out := h.mustRun("register", "--email", "new@example.com", "--password", "long-enough", "--invite-key", apitest.DefaultInviteKey)
	assert.Contains(t, out, "expensy setup")

	input := strings.Join([]string{
		"1000",
		// Over budget the first time round.
		"50", "50", "50", "50",
		"25", "25", "25", "25",
		"jane doe", "$",
		"card-user", apitest.BadCardPassword, "card-id",
		"y",
		"card-user", "secret", "card-id",
	}, "\n") + "\n"

	out, err := h.run(input, "setup")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Budget can't be over 100%")
	assert.Contains(t, out, "Credentials verified")
	assert.Contains(t, out, "Setup complete")

	out = h.mustRun("whoami")
	assert.Contains(t, out, "Jane Doe")
	assert.Contains(t, out, "true")

	out = h.mustRun("setup")
	assert.Contains(t, out, "already done")
}

func TestSetupResumesAfterInterruption(t *testing.T) {
	h := newHarness(t)
	h.mustRun("register", "--email", "new@example.com", "--password", "long-enough", "--invite-key", apitest.DefaultInviteKey)

	// Input ends after the budget step.
	_, err := h.run("1000\n", "setup")
	require.Error(t, err)

	out, err := h.run("25\n25\n25\n25\njane doe\n$\nu\np\nid\n", "setup")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Step 2 of 3")
	assert.NotContains(t, out, "Step 1 of 3")
	assert.Contains(t, out, "Setup complete")
}

func TestExportOFX(t *testing.T) {
	h := newHarness(t)
	h.login()
	dir := filepath.Join(h.dir, "statements")

	out := h.mustRun("export", "ofx", "--dir", dir)
	assert.Contains(t, out, fmt.Sprintf("Exported %d transactions", len(h.server.Rows())))

	files, err := filepath.Glob(filepath.Join(dir, "*.ofx"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	content, err := os.ReadFile(files[0]) //nolint:gosec // test file
	require.NoError(t, err)
	assert.Contains(t, string(content), "<OFX>")
}

func TestExportSheetsNeedsConfiguration(t *testing.T) {
	h := newHarness(t)
	h.login()
	for _, key := range []string{"GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH", "GOOGLE_SHEETS_CLIENT_ID", "GOOGLE_SHEETS_CLIENT_SECRET", "GOOGLE_SHEETS_REFRESH_TOKEN"} {
		t.Setenv(key, "")
	}

	_, err := h.run("", "export", "sheets")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no authentication method configured")
}

func TestVersion(t *testing.T) {
	h := newHarness(t)
	out := h.mustRun("version")
	assert.Equal(t, "expensy dev\n", out)
}

func TestExportCheck(t *testing.T) {
	h := newHarness(t)
	h.login()
	dir := filepath.Join(h.dir, "statements")
	h.mustRun("export", "ofx", "--dir", dir)
	files, err := filepath.Glob(filepath.Join(dir, "*.ofx"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	out := h.mustRun("export", "check", files[0])
	assert.Contains(t, out, fmt.Sprintf("All %d exported transactions match", len(h.server.Rows())))

	id := h.server.Rows()[0].ID
	h.mustRun("transactions", "list", "--reset")
	h.mustRun("transactions", "edit", id, "--amount", "99999")

	out = h.mustRun("export", "check", files[0])
	assert.Contains(t, out, id)
	assert.Contains(t, out, "99,999.00")
	assert.Contains(t, out, fmt.Sprintf("1 of %d exported transactions differ", len(h.server.Rows())))
}
