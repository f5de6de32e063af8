package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/DamianAcri/menulink-sub001/internal/auth"
	"github.com/DamianAcri/menulink-sub001/internal/config"
	"github.com/DamianAcri/menulink-sub001/internal/domain"
	"github.com/DamianAcri/menulink-sub001/internal/store"
	"github.com/DamianAcri/menulink-sub001/internal/testutil"
)

// runCLI executes the root command and returns stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func decodeResponse(t *testing.T, out string, data any) CLIResponse {
	t.Helper()
	var resp CLIResponse
	if data != nil {
		resp.Data = data
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	return resp
}

// seedDB creates a restaurant with one reservation, one due email and one
// future reminder.
func seedDB(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "menulink.db")

	st, err := store.Open(path)
	require.NoError(t, err)
	defer st.Close()

	now := time.Now().UTC().Truncate(time.Second)
	restaurant := domain.Restaurant{
		ID: "r1", Slug: "casa-pepe", Name: "Casa Pepe", Email: "owner@casapepe.test",
		Timezone: "Europe/Madrid", CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, st.CreateRestaurant(ctx, restaurant, domain.DefaultSettings("r1")))

	_, err = st.UpsertCustomer(ctx, domain.Customer{
		ID: "c1", RestaurantID: "r1", Email: "ana@example.com", Name: "Ana",
		CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)

	res := domain.Reservation{
		ID: "res-1", RestaurantID: "r1", CustomerID: "c1",
		CustomerName: "Ana", CustomerEmail: "ana@example.com",
		PartySize: 2, StartsAt: now.Add(4 * 24 * time.Hour), DurationMinutes: 90,
		Status: domain.StatusPending, CreatedAt: now, UpdatedAt: now,
	}
	email := func(id string, kind domain.EmailKind, at time.Time) domain.ScheduledEmail {
		return domain.ScheduledEmail{
			ID: id, RestaurantID: "r1", ReservationID: "res-1", Kind: kind,
			Recipient: "ana@example.com", ScheduledFor: at, Status: domain.EmailPending,
			CreatedAt: now, UpdatedAt: now,
		}
	}
	_, err = st.CreateReservation(ctx, res, []domain.ScheduledEmail{
		email("e-received", domain.EmailReservationReceived, now.Add(-time.Minute)),
		email("e-reminder", domain.EmailReservationReminder, res.StartsAt.Add(-24*time.Hour)),
	})
	require.NoError(t, err)
	return path
}

func TestInitCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "menulink.yaml")

	out, err := runCLI(t, "init", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Wrote "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultYAML, string(data))

	// The written file loads cleanly.
	_, err = config.Load(path)
	require.NoError(t, err)

	_, err = runCLI(t, "init", "--config", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestMigrateCommand(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "fresh.db")

	out, err := runCLI(t, "migrate", "--db", dbPath, "--format", "json")
	require.NoError(t, err)

	var data map[string]any
	resp := decodeResponse(t, out, &data)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, dbPath, data["database"])
	assert.EqualValues(t, 1, data["schema_version"])

	_, err = os.Stat(dbPath)
	require.NoError(t, err)
}

func TestMigrateCommand_BadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "menulink.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: 2\n"), 0o600))

	out, err := runCLI(t, "migrate", "--config", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E_CONFIG]")
}

func TestRestaurantCreate(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "menulink.db")

	out := &bytes.Buffer{}
	opts := &RestaurantCreateOptions{
		RootOptions: &RootOptions{Format: "json", Database: dbPath},
		Signer:      auth.Bcrypt{Cost: bcrypt.MinCost},
		IDs:         testutil.NewSequentialIDs("rest"),
	}
	cmd := newRestaurantCreateCommand(opts)
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--name", "  Casa   Pepe ", "--email", "Owner@CasaPepe.test", "--timezone", "Europe/Madrid"})
	require.NoError(t, cmd.Execute())

	var created restaurantCreated
	resp := decodeResponse(t, out.String(), &created)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "rest-0001", created.ID)
	assert.Equal(t, "casa-pepe", created.Slug)
	assert.True(t, strings.HasPrefix(created.APIKey, auth.KeyPrefix))

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	r, err := st.GetRestaurant(context.Background(), "rest-0001")
	require.NoError(t, err)
	assert.Equal(t, "Casa Pepe", r.Name)
	assert.Equal(t, "owner@casapepe.test", r.Email)
	assert.Equal(t, "Europe/Madrid", r.Timezone)
	require.NoError(t, auth.Bcrypt{}.Verify(r.APIKeyHash, created.APIKey))

	settings, err := st.GetSettings(context.Background(), "rest-0001")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSettings("rest-0001"), settings)
}

func TestRestaurantCreate_DuplicateSlug(t *testing.T) {
	dbPath := seedDB(t)

	out, err := runCLI(t, "restaurant", "create", "--db", dbPath,
		"--name", "Casa Pepe", "--email", "other@example.com")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, `slug "casa-pepe" is taken`)
}

func TestRestaurantCreate_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"bad timezone", []string{"--name", "Casa", "--email", "a@b.test", "--timezone", "Mars/Olympus"}},
		{"blank name", []string{"--name", "   ", "--email", "a@b.test"}},
		{"slug without letters", []string{"--name", "Casa", "--slug", "!!!", "--email", "a@b.test"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dbPath := filepath.Join(t.TempDir(), "menulink.db")
			args := append([]string{"restaurant", "create", "--db", dbPath}, tt.args...)
			out, err := runCLI(t, args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, out, "invalid restaurant")

			// Input is rejected before the database is touched.
			_, statErr := os.Stat(dbPath)
			assert.True(t, os.IsNotExist(statErr))
		})
	}
}

func TestRestaurantList(t *testing.T) {
	dbPath := seedDB(t)

	out, err := runCLI(t, "restaurant", "list", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "SLUG")
	assert.Contains(t, out, "casa-pepe")
	assert.Contains(t, out, "Casa Pepe")

	empty := filepath.Join(t.TempDir(), "empty.db")
	out, err = runCLI(t, "restaurant", "list", "--db", empty)
	require.NoError(t, err)
	assert.Equal(t, "No restaurants.\n", out)
}

func TestDispatchCommand(t *testing.T) {
	dbPath := seedDB(t)

	out, err := runCLI(t, "dispatch", "--db", dbPath, "--format", "json")
	require.NoError(t, err)

	var result map[string]int
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, result["scanned"])
	assert.Equal(t, 1, result["sent"])

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	sent, err := st.GetEmail(context.Background(), "e-received")
	require.NoError(t, err)
	assert.Equal(t, domain.EmailSent, sent.Status)
	assert.Equal(t, "log", sent.Provider)

	reminder, err := st.GetEmail(context.Background(), "e-reminder")
	require.NoError(t, err)
	assert.Equal(t, domain.EmailPending, reminder.Status)

	// Nothing left to send.
	out, err = runCLI(t, "dispatch", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Scanned 0 due email(s)")
}

func TestEmailsCommand(t *testing.T) {
	dbPath := seedDB(t)

	out, err := runCLI(t, "emails", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "pending 2, sent 0, failed 0, cancelled 0")
	assert.Contains(t, out, "e-received")
	assert.Contains(t, out, "e-reminder")

	out, err = runCLI(t, "emails", "--db", dbPath, "--status", "sent", "--format", "json")
	require.NoError(t, err)
	var summary emailsSummary
	decodeResponse(t, out, &summary)
	assert.Equal(t, 2, summary.Counts[domain.EmailPending])
	assert.Empty(t, summary.Emails)

	out, err = runCLI(t, "emails", "--db", dbPath, "--limit", "1", "--format", "json")
	require.NoError(t, err)
	summary = emailsSummary{}
	decodeResponse(t, out, &summary)
	require.Len(t, summary.Emails, 1)
	assert.Equal(t, "e-received", summary.Emails[0].ID)

	_, err = runCLI(t, "emails", "--db", dbPath, "--status", "bounced")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}

func TestServe_StopsOnCancel(t *testing.T) {
	dbPath := seedDB(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	opts := &ServeOptions{
		RootOptions: &RootOptions{Format: "text", Database: dbPath},
		listen: func(network, addr string) (net.Listener, error) {
			return ln, nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := &bytes.Buffer{}
	logs := &syncBuffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(out)
	cmd.SetErr(logs)
	cmd.SetContext(ctx)

	done := make(chan error, 1)
	go func() {
		done <- runServe(opts, cmd)
	}()

	url := "http://" + ln.Addr().String() + "/healthz"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop after cancel")
	}
	assert.Contains(t, out.String(), "MenuLink listening on "+ln.Addr().String())

	// Lifecycle lines go through the configured handler on the command's
	// stderr, at the level -v selects.
	logged := logs.String()
	assert.Contains(t, logged, "msg=\"server listening\"")
	assert.Contains(t, logged, "msg=\"server stopped gracefully\"")
	assert.NotContains(t, logged, "level=DEBUG")
}

func TestServe_VerboseLogsDebug(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "menulink.db")

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	opts := &ServeOptions{
		RootOptions:  &RootOptions{Format: "text", Database: dbPath, Verbose: true},
		NoDispatcher: true,
		listen: func(network, addr string) (net.Listener, error) {
			return ln, nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	logs := &syncBuffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(io.Discard)
	cmd.SetErr(logs)
	cmd.SetContext(ctx)

	require.NoError(t, runServe(opts, cmd))
	logged := logs.String()
	assert.Contains(t, logged, "level=DEBUG")
	assert.Contains(t, logged, "msg=\"server stopped gracefully\"")
}

// syncBuffer is a bytes.Buffer safe for the server's concurrent log writes.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
