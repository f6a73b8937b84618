package card

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	apperrors "github.com/louisbranch/cardtrainer/internal/platform/errors"
)

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func fixedNow() time.Time {
	return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func validInput() CreateInput {
	return CreateInput{
		Name:       "Bola de Fogo",
		NameEn:     "Fireball",
		ElixirCost: intPtr(4),
		Type:       TypeSpell,
		Rarity:     RarityRare,
		ImageURL:   strPtr("https://cdn.example.com/fireball.png"),
		Damage:     intPtr(572),
	}
}

func TestNewBuildsCard(t *testing.T) {
	got, err := New(validInput(), fixedNow, func() (string, error) { return "card-1", nil })
	if err != nil {
		t.Fatalf("new card: %v", err)
	}
	want := Card{
		ID:         "card-1",
		Name:       "Bola de Fogo",
		NameEn:     "Fireball",
		ElixirCost: 4,
		Type:       TypeSpell,
		Rarity:     RarityRare,
		ImageURL:   strPtr("https://cdn.example.com/fireball.png"),
		Damage:     intPtr(572),
		CreatedAt:  fixedNow(),
		UpdatedAt:  fixedNow(),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("card mismatch (-want +got):\n%s", diff)
	}
}

func TestNewPropagatesIDError(t *testing.T) {
	_, err := New(validInput(), fixedNow, func() (string, error) { return "", errors.New("boom") })
	if err == nil {
		t.Fatal("expected id generator error")
	}
}

func TestValidateCollectsEveryFieldError(t *testing.T) {
	input := CreateInput{
		Name:       " ",
		ElixirCost: intPtr(11),
		Type:       "hero",
		ImageURL:   strPtr("ftp://example.com/x.png"),
		Hitpoints:  intPtr(-1),
	}
	err := input.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if code := apperrors.GetCode(err); code != apperrors.CodeInvalidCardData {
		t.Fatalf("code = %s, want %s", code, apperrors.CodeInvalidCardData)
	}

	var paths []string
	for _, field := range apperrors.FieldErrors(err) {
		paths = append(paths, field.Path)
	}
	want := []string{"name", "nameEn", "elixirCost", "type", "rarity", "imageUrl", "hitpoints"}
	if diff := cmp.Diff(want, paths); diff != "" {
		t.Fatalf("field paths mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateElixirBounds(t *testing.T) {
	for _, cost := range []int{0, 10} {
		input := validInput()
		input.ElixirCost = intPtr(cost)
		if err := input.Validate(); err != nil {
			t.Fatalf("cost %d: unexpected error %v", cost, err)
		}
	}
	for _, cost := range []int{-1, 11} {
		input := validInput()
		input.ElixirCost = intPtr(cost)
		if err := input.Validate(); err == nil {
			t.Fatalf("cost %d: expected error", cost)
		}
	}
}

func TestValidateRequiresElixirCost(t *testing.T) {
	input := validInput()
	input.ElixirCost = nil
	fields := apperrors.FieldErrors(input.Validate())
	if len(fields) != 1 || fields[0].Path != "elixirCost" {
		t.Fatalf("fields = %+v, want elixirCost only", fields)
	}
}

func TestNewMapsBlankImageURLToNil(t *testing.T) {
	input := validInput()
	input.ImageURL = strPtr("   ")
	got, err := New(input, fixedNow, func() (string, error) { return "card-1", nil })
	if err != nil {
		t.Fatalf("new card: %v", err)
	}
	if got.ImageURL != nil {
		t.Fatalf("image url = %q, want nil", *got.ImageURL)
	}
}

func TestDescriptionsAreTrimmed(t *testing.T) {
	input := validInput()
	input.Description = strPtr("  ")
	input.DescriptionEn = strPtr("  Area damage spell. ")
	got, err := New(input, fixedNow, func() (string, error) { return "card-1", nil })
	if err != nil {
		t.Fatalf("new card: %v", err)
	}
	if got.Description != nil {
		t.Fatalf("description = %q, want nil", *got.Description)
	}
	if got.DescriptionEn == nil || *got.DescriptionEn != "Area damage spell." {
		t.Fatalf("english description = %v", got.DescriptionEn)
	}

	got, err = Apply(got, Patch{Description: strPtr(" Feitiço de área "), DescriptionEn: strPtr("")}, fixedNow)
	if err != nil {
		t.Fatalf("apply patch: %v", err)
	}
	if got.Description == nil || *got.Description != "Feitiço de área" {
		t.Fatalf("patched description = %v", got.Description)
	}
	if got.DescriptionEn != nil {
		t.Fatalf("patched english description = %q, want nil", *got.DescriptionEn)
	}
}

func TestApplyPatch(t *testing.T) {
	base, err := New(validInput(), fixedNow, func() (string, error) { return "card-1", nil })
	if err != nil {
		t.Fatalf("new card: %v", err)
	}
	later := fixedNow().Add(time.Hour)
	legendary := RarityLegendary

	got, err := Apply(base, Patch{ElixirCost: intPtr(5), Rarity: &legendary}, func() time.Time { return later })
	if err != nil {
		t.Fatalf("apply patch: %v", err)
	}
	if got.ElixirCost != 5 || got.Rarity != RarityLegendary {
		t.Fatalf("patched card = %+v", got)
	}
	if got.Name != base.Name || got.Type != base.Type {
		t.Fatalf("untouched fields changed: %+v", got)
	}
	if !got.UpdatedAt.Equal(later) || !got.CreatedAt.Equal(base.CreatedAt) {
		t.Fatalf("timestamps = %v / %v", got.CreatedAt, got.UpdatedAt)
	}
}

func TestApplyEmptyPatchOnlyBumpsUpdatedAt(t *testing.T) {
	base, err := New(validInput(), fixedNow, func() (string, error) { return "card-1", nil })
	if err != nil {
		t.Fatalf("new card: %v", err)
	}
	later := fixedNow().Add(time.Minute)
	got, err := Apply(base, Patch{}, func() time.Time { return later })
	if err != nil {
		t.Fatalf("apply empty patch: %v", err)
	}
	base.UpdatedAt = later
	if diff := cmp.Diff(base, got); diff != "" {
		t.Fatalf("card mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyRejectsInvalidPatch(t *testing.T) {
	bad := Type("hero")
	_, err := Apply(Card{}, Patch{Name: strPtr(""), Type: &bad}, fixedNow)
	if len(apperrors.FieldErrors(err)) != 2 {
		t.Fatalf("expected two field errors, got %v", err)
	}
}

func TestLocalizedName(t *testing.T) {
	c := Card{Name: "Corredor", NameEn: "Hog Rider"}
	if got := c.LocalizedName("pt-BR"); got != "Corredor" {
		t.Fatalf("pt-BR name = %q", got)
	}
	if got := c.LocalizedName("en-US"); got != "Hog Rider" {
		t.Fatalf("en-US name = %q", got)
	}
	if got := c.LocalizedName(""); got != "Hog Rider" {
		t.Fatalf("default name = %q", got)
	}
}
