package i18n

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/text/language"
)

func TestParseTag(t *testing.T) {
	tests := []struct {
		in   string
		want language.Tag
		ok   bool
	}{
		{in: "pt-BR", want: language.BrazilianPortuguese, ok: true},
		{in: "pt", want: language.BrazilianPortuguese, ok: true},
		{in: "en", want: language.AmericanEnglish, ok: true},
		{in: "en-GB", want: language.AmericanEnglish, ok: true},
		{in: "", want: language.AmericanEnglish, ok: false},
		{in: "!!", want: language.AmericanEnglish, ok: false},
	}
	for _, tc := range tests {
		got, ok := ParseTag(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("ParseTag(%q) = %v, %v; want %v, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestResolveTagPrecedence(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/cards?lang=pt-BR", nil)
	req.Header.Set("Accept-Language", "en-US")
	tag, persist := ResolveTag(req)
	if tag != language.BrazilianPortuguese || !persist {
		t.Fatalf("query param: got %v persist=%v", tag, persist)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/cards", nil)
	req.AddCookie(&http.Cookie{Name: LangCookieName, Value: "pt-BR"})
	req.Header.Set("Accept-Language", "en-US")
	tag, persist = ResolveTag(req)
	if tag != language.BrazilianPortuguese || persist {
		t.Fatalf("cookie: got %v persist=%v", tag, persist)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/cards", nil)
	req.Header.Set("Accept-Language", "pt-BR,pt;q=0.9,en;q=0.8")
	tag, _ = ResolveTag(req)
	if tag != language.BrazilianPortuguese {
		t.Fatalf("accept-language: got %v", tag)
	}

	tag, _ = ResolveTag(nil)
	if tag != DefaultTag() {
		t.Fatalf("nil request: got %v", tag)
	}
}

func TestSetLanguageCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	SetLanguageCookie(rec, language.BrazilianPortuguese)
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != LangCookieName || cookies[0].Value != "pt-BR" {
		t.Fatalf("unexpected cookies %+v", cookies)
	}
}

func TestSprintf(t *testing.T) {
	if got := Sprintf("pt-BR", "simulator.incorrect", 4); got != "Errado! A resposta era 4" {
		t.Fatalf("unexpected message %q", got)
	}
	if got := Sprintf("", "simulator.correct", 10); got != "Correct! +10 points" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestIsPortuguese(t *testing.T) {
	if !IsPortuguese("pt-BR") || IsPortuguese("en-US") || IsPortuguese("") {
		t.Fatal("unexpected IsPortuguese result")
	}
}
