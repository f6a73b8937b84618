package clashroyale

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	apperrors "github.com/louisbranch/cardtrainer/internal/platform/errors"
)

type recordedRequest struct {
	path  string
	query string
	auth  string
}

func newUpstream(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *[]recordedRequest) {
	t.Helper()
	var mu sync.Mutex
	var requests []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requests = append(requests, recordedRequest{
			path:  r.URL.EscapedPath(),
			query: r.URL.RawQuery,
			auth:  r.Header.Get("Authorization"),
		})
		mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &requests
}

func okJSON(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func TestNotConfigured(t *testing.T) {
	client := New(Config{})
	if client.Configured() {
		t.Fatal("expected client without key to be unconfigured")
	}
	_, err := client.Player(context.Background(), "#ABC")
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if got := apperrors.GetCode(err).HTTPStatus(); got != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", got)
	}
	if _, err := client.Cards(context.Background()); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("cards: expected ErrNotConfigured, got %v", err)
	}
}

func TestNormalizeTag(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"#abc123", "%23ABC123"},
		{"abc123", "%23ABC123"},
		{"  #2PP ", "%232PP"},
	}
	for _, tc := range tests {
		got, err := NormalizeTag(tc.in)
		if err != nil {
			t.Fatalf("NormalizeTag(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("NormalizeTag(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
	if _, err := NormalizeTag(" # "); apperrors.GetCode(err) != apperrors.CodeInvalidRequest {
		t.Fatalf("expected invalid request for blank tag, got %v", err)
	}
}

func TestRoutesAndAuthorization(t *testing.T) {
	srv, requests := newUpstream(t, okJSON(`{"ok":true}`))
	client := New(Config{BaseURL: srv.URL + "/", APIKey: "secret"})
	ctx := context.Background()

	calls := []struct {
		name string
		call func() error
		path string
	}{
		{"clan", func() error { _, err := client.Clan(ctx, "abc"); return err }, "/clans/%23ABC"},
		{"members", func() error { _, err := client.ClanMembers(ctx, "abc"); return err }, "/clans/%23ABC/members"},
		{"riverrace", func() error { _, err := client.ClanRiverRaceLog(ctx, "abc"); return err }, "/clans/%23ABC/riverracelog"},
		{"player", func() error { _, err := client.Player(ctx, "#p1"); return err }, "/players/%23P1"},
		{"battlelog", func() error { _, err := client.PlayerBattleLog(ctx, "#p1"); return err }, "/players/%23P1/battlelog"},
		{"chests", func() error { _, err := client.PlayerUpcomingChests(ctx, "#p1"); return err }, "/players/%23P1/upcomingchests"},
		{"tournament", func() error { _, err := client.Tournament(ctx, "t9"); return err }, "/tournaments/%23T9"},
		{"cards", func() error { _, err := client.Cards(ctx); return err }, "/cards"},
	}
	for i, tc := range calls {
		if err := tc.call(); err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		got := (*requests)[i]
		if got.path != tc.path {
			t.Fatalf("%s: path = %q, want %q", tc.name, got.path, tc.path)
		}
		if got.auth != "Bearer secret" {
			t.Fatalf("%s: authorization = %q", tc.name, got.auth)
		}
	}
}

func TestSearchClans(t *testing.T) {
	srv, requests := newUpstream(t, okJSON(`{"items":[]}`))
	client := New(Config{BaseURL: srv.URL, APIKey: "secret"})

	body, err := client.SearchClans(context.Background(), ClanSearch{Name: "royals", MinMembers: "10"})
	if err != nil {
		t.Fatalf("search clans: %v", err)
	}
	if string(body) != `{"items":[]}` {
		t.Fatalf("body = %s", body)
	}
	if got := (*requests)[0]; got.path != "/clans" || got.query != "minMembers=10&name=royals" {
		t.Fatalf("request = %+v", got)
	}
}

func TestSearchClansValidation(t *testing.T) {
	client := New(Config{APIKey: "secret", BaseURL: "http://127.0.0.1:1"})

	_, err := client.SearchClans(context.Background(), ClanSearch{})
	if apperrors.GetCode(err) != apperrors.CodeInvalidRequest {
		t.Fatalf("expected invalid request for empty search, got %v", err)
	}

	_, err = client.SearchClans(context.Background(), ClanSearch{Name: "ab", MinScore: "x"})
	if apperrors.GetCode(err) != apperrors.CodeInvalidRequest {
		t.Fatalf("expected invalid request, got %v", err)
	}
	if fields := apperrors.FieldErrors(err); len(fields) != 2 {
		t.Fatalf("expected 2 field errors, got %v", fields)
	}
}

func TestSearchTournaments(t *testing.T) {
	srv, requests := newUpstream(t, okJSON(`{"items":[]}`))
	client := New(Config{BaseURL: srv.URL, APIKey: "secret"})
	if _, err := client.SearchTournaments(context.Background(), "spring cup"); err != nil {
		t.Fatalf("search tournaments: %v", err)
	}
	if got := (*requests)[0]; got.path != "/tournaments" || got.query != "name=spring+cup" {
		t.Fatalf("request = %+v", got)
	}
}

func TestUpstreamErrorPassesStatus(t *testing.T) {
	srv, _ := newUpstream(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"reason":"notFound","message":"no such player"}`))
	})
	client := New(Config{BaseURL: srv.URL, APIKey: "secret"})

	_, err := client.Player(context.Background(), "#nope")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T %v", err, err)
	}
	if apiErr.Status != http.StatusNotFound || apiErr.Reason != "notFound" || apiErr.Message != "no such player" {
		t.Fatalf("unexpected api error: %+v", apiErr)
	}
	if apiErr.Error() != "Clash Royale API error: 404" {
		t.Fatalf("error = %q", apiErr.Error())
	}
	if apiErr.Detail() != "Clash Royale API error: 404 (notFound: no such player)" {
		t.Fatalf("detail = %q", apiErr.Detail())
	}
}

func TestUpstreamErrorWithoutJSONBody(t *testing.T) {
	srv, _ := newUpstream(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("maintenance"))
	})
	client := New(Config{BaseURL: srv.URL, APIKey: "secret"})

	_, err := client.Cards(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusServiceUnavailable || apiErr.Reason != "" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestInvalidJSONIsUpstreamFailure(t *testing.T) {
	srv, _ := newUpstream(t, okJSON(`{not json`))
	client := New(Config{BaseURL: srv.URL, APIKey: "secret"})
	_, err := client.Cards(context.Background())
	if apperrors.GetCode(err) != apperrors.CodeUpstreamFailed {
		t.Fatalf("expected upstream failure, got %v", err)
	}
}

func TestResponsesAreCached(t *testing.T) {
	srv, requests := newUpstream(t, okJSON(`{"items":[{"name":"Hog Rider"}]}`))
	client := New(Config{BaseURL: srv.URL, APIKey: "secret"})

	for i := 0; i < 3; i++ {
		if _, err := client.Cards(context.Background()); err != nil {
			t.Fatalf("cards: %v", err)
		}
		if _, err := client.Player(context.Background(), "#abc"); err != nil {
			t.Fatalf("player: %v", err)
		}
	}
	if len(*requests) != 2 {
		t.Fatalf("expected 2 upstream requests, got %d", len(*requests))
	}
}

func TestErrorsAreNotCached(t *testing.T) {
	var calls atomic.Int32
	srv, _ := newUpstream(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		okJSON(`{}`)(w, nil)
	})
	client := New(Config{BaseURL: srv.URL, APIKey: "secret"})

	if _, err := client.Cards(context.Background()); err == nil {
		t.Fatal("expected first call to fail")
	}
	if _, err := client.Cards(context.Background()); err != nil {
		t.Fatalf("second call: %v", err)
	}
}

func TestConcurrentCallsShareOneFetch(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	srv, _ := newUpstream(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		<-release
		okJSON(`{"items":[]}`)(w, nil)
	})
	client := New(Config{BaseURL: srv.URL, APIKey: "secret"})

	const callers = 5
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := client.Cards(context.Background())
			errs <- err
		}()
	}
	// Let every caller join the in-flight fetch before it completes.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("cards: %v", err)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected 1 upstream call, got %d", got)
	}
}

func TestCallerCancellation(t *testing.T) {
	release := make(chan struct{})
	srv, _ := newUpstream(t, func(w http.ResponseWriter, _ *http.Request) {
		<-release
		okJSON(`{}`)(w, nil)
	})
	t.Cleanup(func() { close(release) })
	client := New(Config{BaseURL: srv.URL, APIKey: "secret"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := client.Cards(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
