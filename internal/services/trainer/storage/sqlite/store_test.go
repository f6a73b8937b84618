package sqlite

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	apperrors "github.com/louisbranch/cardtrainer/internal/platform/errors"
	"github.com/louisbranch/cardtrainer/internal/services/trainer/card"
	"github.com/louisbranch/cardtrainer/internal/services/trainer/storage"
	"github.com/louisbranch/cardtrainer/internal/services/trainer/training"
	"github.com/louisbranch/cardtrainer/internal/services/trainer/user"
)

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

var baseTime = time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "trainer.db")
	for i := 0; i < 2; i++ {
		store, err := Open(context.Background(), path)
		if err != nil {
			t.Fatalf("open pass %d: %v", i, err)
		}
		if err := store.Ping(context.Background()); err != nil {
			t.Fatalf("ping: %v", err)
		}
		if err := store.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	}
}

func TestUserRoundTrip(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	input := user.User{
		ID:           "user-1",
		Email:        "Ana@Example.com",
		PasswordHash: "hash",
		FirstName:    strPtr("Ana"),
		Permission:   user.PermissionNormal,
		CreatedAt:    baseTime,
		UpdatedAt:    baseTime,
	}
	if err := store.PutUser(ctx, input); err != nil {
		t.Fatalf("put user: %v", err)
	}

	got, err := store.GetUserByEmail(ctx, " ana@example.COM ")
	if err != nil {
		t.Fatalf("get user by email: %v", err)
	}
	input.Email = "ana@example.com"
	if diff := cmp.Diff(input, got); diff != "" {
		t.Fatalf("user mismatch (-want +got):\n%s", diff)
	}

	byID, err := store.GetUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if byID.Email != "ana@example.com" {
		t.Fatalf("email = %q", byID.Email)
	}
}

func TestPutUserDuplicateEmail(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()
	putUser(t, store, "user-1", "dup@example.com")

	err := store.PutUser(ctx, user.User{ID: "user-2", Email: "DUP@example.com", PasswordHash: "x", Permission: user.PermissionNormal, CreatedAt: baseTime, UpdatedAt: baseTime})
	if !errors.Is(err, storage.ErrEmailTaken) {
		t.Fatalf("err = %v, want ErrEmailTaken", err)
	}
}

func TestGetUserNotFound(t *testing.T) {
	store := openTempStore(t)
	if _, err := store.GetUser(context.Background(), "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if _, err := store.GetUser(context.Background(), "  "); err == nil {
		t.Fatal("expected blank id error")
	}
}

func TestUpdateUserAndPermission(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()
	u := putUser(t, store, "user-1", "ana@example.com")

	u.LastName = strPtr("Souza")
	u.UpdatedAt = baseTime.Add(time.Hour)
	if err := store.UpdateUser(ctx, u); err != nil {
		t.Fatalf("update user: %v", err)
	}

	promoted, err := store.SetUserPermission(ctx, "user-1", user.PermissionAdmin, baseTime.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("set permission: %v", err)
	}
	if !promoted.IsAdmin() || promoted.LastName == nil || *promoted.LastName != "Souza" {
		t.Fatalf("promoted = %+v", promoted)
	}
	if !promoted.UpdatedAt.Equal(baseTime.Add(2 * time.Hour)) {
		t.Fatalf("updated at = %v", promoted.UpdatedAt)
	}

	if _, err := store.SetUserPermission(ctx, "missing", user.PermissionAdmin, baseTime); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if _, err := store.SetUserPermission(ctx, "user-1", user.Permission(3), baseTime); err == nil {
		t.Fatal("expected unknown permission error")
	}
	if err := store.UpdateUser(ctx, user.User{ID: "missing", Email: "x@example.com"}); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestListUsersPaginates(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		putUser(t, store, fmt.Sprintf("user-%d", i), fmt.Sprintf("u%d@example.com", i))
	}

	first, err := store.ListUsers(ctx, 2, "")
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(first.Users) != 2 || first.NextPageToken != "user-2" {
		t.Fatalf("first page = %+v", first)
	}

	second, err := store.ListUsers(ctx, 2, first.NextPageToken)
	if err != nil {
		t.Fatalf("list users page 2: %v", err)
	}
	if len(second.Users) != 1 || second.Users[0].ID != "user-3" || second.NextPageToken != "" {
		t.Fatalf("second page = %+v", second)
	}

	if _, err := store.ListUsers(ctx, 0, ""); err == nil {
		t.Fatal("expected page size error")
	}
}

func TestCardCRUD(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	c := testCard("card-1", "Bola de Fogo", "Fireball", 4, card.TypeSpell, card.RarityRare)
	c.Damage = intPtr(572)
	c.ImageURL = strPtr("https://cdn.example.com/fireball.png")
	if err := store.PutCard(ctx, c); err != nil {
		t.Fatalf("put card: %v", err)
	}

	got, err := store.GetCard(ctx, "card-1")
	if err != nil {
		t.Fatalf("get card: %v", err)
	}
	if diff := cmp.Diff(c, got); diff != "" {
		t.Fatalf("card mismatch (-want +got):\n%s", diff)
	}

	c.ElixirCost = 5
	c.Damage = nil
	c.UpdatedAt = baseTime.Add(time.Hour)
	if err := store.UpdateCard(ctx, c); err != nil {
		t.Fatalf("update card: %v", err)
	}
	got, err = store.GetCard(ctx, "card-1")
	if err != nil {
		t.Fatalf("get card: %v", err)
	}
	if diff := cmp.Diff(c, got); diff != "" {
		t.Fatalf("updated card mismatch (-want +got):\n%s", diff)
	}

	if err := store.DeleteCard(ctx, "card-1"); err != nil {
		t.Fatalf("delete card: %v", err)
	}
	if err := store.DeleteCard(ctx, "card-1"); err != nil {
		t.Fatalf("delete missing card: %v", err)
	}
	if _, err := store.GetCard(ctx, "card-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if err := store.UpdateCard(ctx, c); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("update missing err = %v", err)
	}
}

func TestListCardsOrderedAndFiltered(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()
	for _, c := range []card.Card{
		testCard("c1", "Tronco", "The Log", 2, card.TypeSpell, card.RarityLegendary),
		testCard("c2", "Corredor", "Hog Rider", 4, card.TypeTroop, card.RarityRare),
		testCard("c3", "Golem", "Golem", 8, card.TypeTroop, card.RarityEpic),
	} {
		if err := store.PutCard(ctx, c); err != nil {
			t.Fatalf("put card %s: %v", c.ID, err)
		}
	}

	all, err := store.ListCards(ctx, "")
	if err != nil {
		t.Fatalf("list cards: %v", err)
	}
	if diff := cmp.Diff([]string{"c2", "c3", "c1"}, cardIDs(all)); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}

	troops, err := store.ListCards(ctx, `type = "troop" AND elixir_cost < 5`)
	if err != nil {
		t.Fatalf("list filtered cards: %v", err)
	}
	if diff := cmp.Diff([]string{"c2"}, cardIDs(troops)); diff != "" {
		t.Fatalf("filter mismatch (-want +got):\n%s", diff)
	}

	_, err = store.ListCards(ctx, `image_url = "x"`)
	if apperrors.GetCode(err) != apperrors.CodeInvalidFilter {
		t.Fatalf("err = %v, want invalid filter", err)
	}
}

func TestListCardsEmptyIsNotNil(t *testing.T) {
	store := openTempStore(t)
	cards, err := store.ListCards(context.Background(), "")
	if err != nil {
		t.Fatalf("list cards: %v", err)
	}
	if cards == nil || len(cards) != 0 {
		t.Fatalf("cards = %#v, want empty slice", cards)
	}
}

func TestUpsertCardByNameEn(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	original := testCard("c1", "Corredor", "Hog Rider", 4, card.TypeTroop, card.RarityRare)
	got, created, err := store.UpsertCardByNameEn(ctx, original)
	if err != nil || !created {
		t.Fatalf("first upsert = %v, created %v", err, created)
	}
	if got.ID != "c1" {
		t.Fatalf("id = %q", got.ID)
	}

	replacement := testCard("ignored", "Corredor", "Hog Rider", 5, card.TypeTroop, card.RarityRare)
	replacement.CreatedAt = baseTime.Add(time.Hour)
	replacement.UpdatedAt = baseTime.Add(time.Hour)
	got, created, err = store.UpsertCardByNameEn(ctx, replacement)
	if err != nil || created {
		t.Fatalf("second upsert = %v, created %v", err, created)
	}
	if got.ID != "c1" || !got.CreatedAt.Equal(baseTime) || got.ElixirCost != 5 {
		t.Fatalf("upserted = %+v", got)
	}

	stored, err := store.GetCard(ctx, "c1")
	if err != nil {
		t.Fatalf("get card: %v", err)
	}
	if stored.ElixirCost != 5 || !stored.UpdatedAt.Equal(baseTime.Add(time.Hour)) {
		t.Fatalf("stored = %+v", stored)
	}
}

func TestUpsertCardByNameEnIgnoresCase(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	if _, _, err := store.UpsertCardByNameEn(ctx, testCard("c1", "Cavaleiro", "Knight", 3, card.TypeTroop, card.RarityCommon)); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	got, created, err := store.UpsertCardByNameEn(ctx, testCard("c2", "Cavaleiro", " knight ", 4, card.TypeTroop, card.RarityCommon))
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if created || got.ID != "c1" {
		t.Fatalf("upsert created %v, id %q", created, got.ID)
	}

	cards, err := store.ListCards(ctx, "")
	if err != nil {
		t.Fatalf("list cards: %v", err)
	}
	if len(cards) != 1 || cards[0].ElixirCost != 4 {
		t.Fatalf("cards = %+v", cards)
	}
}

func TestTrainingSessionsAndLeaderboard(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()
	ana := putUser(t, store, "user-1", "ana@example.com")
	putUser(t, store, "user-2", "bia@example.com")
	putUser(t, store, "user-3", "caio@example.com")

	sessions := []training.Session{
		{ID: "s1", UserID: "user-1", Mode: training.ModeGrid, Score: 30, CorrectAnswers: 3, TotalQuestions: 5, CreatedAt: baseTime},
		{ID: "s2", UserID: "user-1", Mode: training.ModeGrid, Score: 50, CorrectAnswers: 5, TotalQuestions: 5, TimeElapsed: intPtr(40), CreatedAt: baseTime.Add(time.Minute)},
		{ID: "s3", UserID: "user-2", Mode: training.ModeGrid, Score: 40, CorrectAnswers: 4, TotalQuestions: 5, CreatedAt: baseTime},
		{ID: "s4", UserID: "user-3", Mode: training.ModeSimulation, Score: 90, CorrectAnswers: 9, TotalQuestions: 10, CreatedAt: baseTime},
	}
	for _, s := range sessions {
		if err := store.PutTrainingSession(ctx, s); err != nil {
			t.Fatalf("put session %s: %v", s.ID, err)
		}
	}

	history, err := store.ListTrainingSessions(ctx, "user-1")
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if diff := cmp.Diff([]training.Session{sessions[1], sessions[0]}, history); diff != "" {
		t.Fatalf("history mismatch (-want +got):\n%s", diff)
	}

	board, err := store.TopScores(ctx, training.ModeGrid, 10)
	if err != nil {
		t.Fatalf("top scores: %v", err)
	}
	want := []training.LeaderboardEntry{
		{UserID: "user-1", FirstName: ana.FirstName, Score: 50},
		{UserID: "user-2", FirstName: strPtr("Test"), Score: 40},
	}
	if diff := cmp.Diff(want, board); diff != "" {
		t.Fatalf("leaderboard mismatch (-want +got):\n%s", diff)
	}

	limited, err := store.TopScores(ctx, training.ModeGrid, 1)
	if err != nil {
		t.Fatalf("top scores limited: %v", err)
	}
	if len(limited) != 1 || limited[0].UserID != "user-1" {
		t.Fatalf("limited = %+v", limited)
	}
}

func TestPutTrainingSessionRequiresKnownUser(t *testing.T) {
	store := openTempStore(t)
	err := store.PutTrainingSession(context.Background(), training.Session{ID: "s1", UserID: "ghost", Mode: training.ModeGrid, CreatedAt: baseTime})
	if err == nil {
		t.Fatal("expected foreign key violation")
	}
}

func TestSessions(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()
	putUser(t, store, "user-1", "ana@example.com")

	live := storage.Session{ID: "sid-live", UserID: "user-1", CreatedAt: baseTime, ExpiresAt: baseTime.Add(7 * 24 * time.Hour)}
	stale := storage.Session{ID: "sid-stale", UserID: "user-1", CreatedAt: baseTime, ExpiresAt: baseTime.Add(time.Hour)}
	for _, s := range []storage.Session{live, stale} {
		if err := store.PutSession(ctx, s); err != nil {
			t.Fatalf("put session: %v", err)
		}
	}

	got, err := store.GetSession(ctx, "sid-live")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if diff := cmp.Diff(live, got); diff != "" {
		t.Fatalf("session mismatch (-want +got):\n%s", diff)
	}

	removed, err := store.DeleteExpiredSessions(ctx, baseTime.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d", removed)
	}
	if _, err := store.GetSession(ctx, "sid-stale"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	if err := store.DeleteSession(ctx, "sid-live"); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if _, err := store.GetSession(ctx, "sid-live"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestStoreRespectsCanceledContext(t *testing.T) {
	store := openTempStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.ListCards(ctx, ""); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if isUniqueViolation(nil) {
		t.Fatal("nil is not a unique violation")
	}
	if !isUniqueViolation(errors.New("constraint failed: UNIQUE constraint failed: users.email")) {
		t.Fatal("expected message fallback to match")
	}
}

func putUser(t *testing.T, store *Store, id, email string) user.User {
	t.Helper()
	u := user.User{
		ID:           id,
		Email:        email,
		PasswordHash: "hash",
		FirstName:    strPtr("Test"),
		Permission:   user.PermissionNormal,
		CreatedAt:    baseTime,
		UpdatedAt:    baseTime,
	}
	if err := store.PutUser(context.Background(), u); err != nil {
		t.Fatalf("put user %s: %v", id, err)
	}
	return u
}

func testCard(id, name, nameEn string, cost int, cardType card.Type, rarity card.Rarity) card.Card {
	return card.Card{
		ID:         id,
		Name:       name,
		NameEn:     nameEn,
		ElixirCost: cost,
		Type:       cardType,
		Rarity:     rarity,
		CreatedAt:  baseTime,
		UpdatedAt:  baseTime,
	}
}

func cardIDs(cards []card.Card) []string {
	ids := make([]string, 0, len(cards))
	for _, c := range cards {
		ids = append(ids, c.ID)
	}
	return ids
}

func openTempStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trainer.db")
	store, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}
