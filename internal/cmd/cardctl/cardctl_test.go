package cardctl

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/louisbranch/cardtrainer/internal/services/trainer/auth"
	"github.com/louisbranch/cardtrainer/internal/services/trainer/storage/sqlite"
	"github.com/louisbranch/cardtrainer/internal/services/trainer/user"
)

func run(t *testing.T, env map[string]string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand(func(key string) (string, bool) {
		value, ok := env[key]
		return value, ok
	})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func tempDBEnv(t *testing.T) (map[string]string, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cardctl.db")
	return map[string]string{"CARDTRAINER_DB_PATH": path}, path
}

func openStore(t *testing.T, path string) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(context.Background(), path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestMigrate(t *testing.T) {
	env, path := tempDBEnv(t)
	out, err := run(t, env, "migrate")
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if !strings.Contains(out, "migrations applied (sqlite)") {
		t.Fatalf("output = %q", out)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected database file: %v", err)
	}
}

func TestDBPathFlagOverridesEnv(t *testing.T) {
	env, envPath := tempDBEnv(t)
	flagPath := filepath.Join(t.TempDir(), "flag.db")
	if _, err := run(t, env, "--db-path", flagPath, "migrate"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if _, err := os.Stat(flagPath); err != nil {
		t.Fatalf("expected flag database: %v", err)
	}
	if _, err := os.Stat(envPath); !os.IsNotExist(err) {
		t.Fatalf("env database should not exist, stat err = %v", err)
	}
}

func TestSeedAndList(t *testing.T) {
	env, _ := tempDBEnv(t)
	file := filepath.Join("..", "..", "services", "trainer", "catalog", "testdata", "cards.yaml")

	out, err := run(t, env, "seed", "--file", file)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if !strings.Contains(out, "seeded 3 cards (3 created, 0 updated)") {
		t.Fatalf("seed output = %q", out)
	}
	out, err = run(t, env, "seed", "-f", file)
	if err != nil {
		t.Fatalf("re-seed: %v", err)
	}
	if !strings.Contains(out, "(0 created, 3 updated)") {
		t.Fatalf("re-seed output = %q", out)
	}

	out, err = run(t, env, "cards", "list", "--filter", "elixir_cost >= 4")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "Hog Rider") || !strings.Contains(out, "Golem") || strings.Contains(out, "The Log") {
		t.Fatalf("list output = %q", out)
	}
}

func TestSeedReportsInvalidEntries(t *testing.T) {
	env, _ := tempDBEnv(t)
	file := filepath.Join(t.TempDir(), "bad.yaml")
	doc := "cards:\n  - name: X\n    name_en: X\n    elixir_cost: 42\n    type: troop\n    rarity: common\n"
	if err := os.WriteFile(file, []byte(doc), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	_, err := run(t, env, "seed", "--file", file)
	if err == nil || !strings.Contains(err.Error(), "cards[0].elixirCost") {
		t.Fatalf("expected field error, got %v", err)
	}
}

func TestCardsSync(t *testing.T) {
	var gotAuth string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Path != "/cards" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"items":[{"id":26000000,"name":"Knight","elixirCost":3,"rarity":"common"},{"id":28000000,"name":"Fireball","elixirCost":4,"rarity":"rare"}]}`))
	}))
	defer upstream.Close()

	env, path := tempDBEnv(t)
	env["CLASH_ROYALE_API_URL"] = upstream.URL
	env["CLASH_ROYALE_API_KEY"] = "secret"

	out, err := run(t, env, "cards", "sync")
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if !strings.Contains(out, "synced 2 cards (2 created, 0 updated)") {
		t.Fatalf("sync output = %q", out)
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("authorization = %q", gotAuth)
	}

	cards, err := openStore(t, path).ListCards(context.Background(), `type = "spell"`)
	if err != nil {
		t.Fatalf("list cards: %v", err)
	}
	if len(cards) != 1 || cards[0].NameEn != "Fireball" {
		t.Fatalf("spells = %+v", cards)
	}
}

func TestCardsSyncRequiresAPIKey(t *testing.T) {
	env, _ := tempDBEnv(t)
	_, err := run(t, env, "cards", "sync")
	if err == nil || !strings.Contains(err.Error(), "not configured") {
		t.Fatalf("expected not configured error, got %v", err)
	}
}

func TestUsersPromoteAndDemote(t *testing.T) {
	env, path := tempDBEnv(t)
	store := openStore(t, path)
	registered, err := auth.NewAccounts(store, nil, nil).Register(context.Background(), user.RegisterInput{Email: "ana@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	out, err := run(t, env, "users", "promote", "ana@example.com")
	if err != nil {
		t.Fatalf("promote: %v", err)
	}
	if !strings.Contains(out, "ana@example.com permission set to 10") {
		t.Fatalf("promote output = %q", out)
	}
	got, err := store.GetUser(context.Background(), registered.ID)
	if err != nil || !got.IsAdmin() {
		t.Fatalf("expected admin, got %+v (%v)", got, err)
	}

	if _, err := run(t, env, "users", "demote", "ana@example.com"); err != nil {
		t.Fatalf("demote: %v", err)
	}
	got, _ = store.GetUser(context.Background(), registered.ID)
	if got.IsAdmin() {
		t.Fatal("expected demoted user")
	}

	if _, err := run(t, env, "users", "promote", "ghost@example.com"); err == nil {
		t.Fatal("expected error for unknown email")
	}
	if _, err := run(t, env, "users", "promote"); err == nil {
		t.Fatal("expected error without email argument")
	}
}
