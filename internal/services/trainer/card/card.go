// Package card models the card catalog used by the trainer.
package card

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	apperrors "github.com/louisbranch/cardtrainer/internal/platform/errors"
	platformi18n "github.com/louisbranch/cardtrainer/internal/platform/i18n"
	"github.com/louisbranch/cardtrainer/internal/platform/id"
)

// MaxElixirCost is the highest cost any card may have.
const MaxElixirCost = 10

// Type classifies how a card is played.
type Type string

const (
	TypeSpell    Type = "spell"
	TypeTroop    Type = "troop"
	TypeBuilding Type = "building"
)

// Valid reports whether t is a known card type.
func (t Type) Valid() bool {
	switch t {
	case TypeSpell, TypeTroop, TypeBuilding:
		return true
	}
	return false
}

// Rarity is the card's rarity tier.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
	RarityChampion  Rarity = "champion"
)

// Valid reports whether r is a known rarity.
func (r Rarity) Valid() bool {
	switch r {
	case RarityCommon, RarityRare, RarityEpic, RarityLegendary, RarityChampion:
		return true
	}
	return false
}

// Card is one catalog entry. Name holds the Portuguese name and NameEn the
// English one.
type Card struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	NameEn        string    `json:"nameEn"`
	ElixirCost    int       `json:"elixirCost"`
	Type          Type      `json:"type"`
	Rarity        Rarity    `json:"rarity"`
	ImageURL      *string   `json:"imageUrl"`
	Description   *string   `json:"description"`
	DescriptionEn *string   `json:"descriptionEn"`
	Hitpoints     *int      `json:"hitpoints"`
	Damage        *int      `json:"damage"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// LocalizedName returns the card name for locale.
func (c Card) LocalizedName(locale string) string {
	if platformi18n.IsPortuguese(locale) {
		return c.Name
	}
	return c.NameEn
}

// CreateInput is the payload accepted when adding a card.
type CreateInput struct {
	Name          string  `json:"name"`
	NameEn        string  `json:"nameEn"`
	ElixirCost    *int    `json:"elixirCost"`
	Type          Type    `json:"type"`
	Rarity        Rarity  `json:"rarity"`
	ImageURL      *string `json:"imageUrl"`
	Description   *string `json:"description"`
	DescriptionEn *string `json:"descriptionEn"`
	Hitpoints     *int    `json:"hitpoints"`
	Damage        *int    `json:"damage"`
}

// Validate reports every invalid field of the input.
func (in CreateInput) Validate() error {
	var merr *multierror.Error
	if strings.TrimSpace(in.Name) == "" {
		merr = multierror.Append(merr, apperrors.Field("name", "name is required"))
	}
	if strings.TrimSpace(in.NameEn) == "" {
		merr = multierror.Append(merr, apperrors.Field("nameEn", "nameEn is required"))
	}
	if in.ElixirCost == nil {
		merr = multierror.Append(merr, apperrors.Field("elixirCost", "elixirCost is required"))
	} else {
		merr = validateCost(merr, *in.ElixirCost)
	}
	if in.Type == "" {
		merr = multierror.Append(merr, apperrors.Field("type", "type is required"))
	} else if !in.Type.Valid() {
		merr = multierror.Append(merr, apperrors.Field("type", fmt.Sprintf("unknown card type %q", in.Type)))
	}
	if in.Rarity == "" {
		merr = multierror.Append(merr, apperrors.Field("rarity", "rarity is required"))
	} else if !in.Rarity.Valid() {
		merr = multierror.Append(merr, apperrors.Field("rarity", fmt.Sprintf("unknown rarity %q", in.Rarity)))
	}
	merr = validateOptional(merr, in.ImageURL, in.Hitpoints, in.Damage)
	return apperrors.Invalid(apperrors.CodeInvalidCardData, "invalid card data", merr)
}

// New validates input and builds a card with a fresh id.
func New(input CreateInput, now func() time.Time, idGenerator func() (string, error)) (Card, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}
	if err := input.Validate(); err != nil {
		return Card{}, err
	}
	cardID, err := idGenerator()
	if err != nil {
		return Card{}, fmt.Errorf("generate card id: %w", err)
	}
	createdAt := now().UTC()
	return Card{
		ID:            cardID,
		Name:          strings.TrimSpace(input.Name),
		NameEn:        strings.TrimSpace(input.NameEn),
		ElixirCost:    *input.ElixirCost,
		Type:          input.Type,
		Rarity:        input.Rarity,
		ImageURL:      trimOptional(input.ImageURL),
		Description:   trimOptional(input.Description),
		DescriptionEn: trimOptional(input.DescriptionEn),
		Hitpoints:     input.Hitpoints,
		Damage:        input.Damage,
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}, nil
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Name          *string `json:"name"`
	NameEn        *string `json:"nameEn"`
	ElixirCost    *int    `json:"elixirCost"`
	Type          *Type   `json:"type"`
	Rarity        *Rarity `json:"rarity"`
	ImageURL      *string `json:"imageUrl"`
	Description   *string `json:"description"`
	DescriptionEn *string `json:"descriptionEn"`
	Hitpoints     *int    `json:"hitpoints"`
	Damage        *int    `json:"damage"`
}

// Validate checks only the fields present in the patch.
func (p Patch) Validate() error {
	var merr *multierror.Error
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		merr = multierror.Append(merr, apperrors.Field("name", "name must not be blank"))
	}
	if p.NameEn != nil && strings.TrimSpace(*p.NameEn) == "" {
		merr = multierror.Append(merr, apperrors.Field("nameEn", "nameEn must not be blank"))
	}
	if p.ElixirCost != nil {
		merr = validateCost(merr, *p.ElixirCost)
	}
	if p.Type != nil && !p.Type.Valid() {
		merr = multierror.Append(merr, apperrors.Field("type", fmt.Sprintf("unknown card type %q", *p.Type)))
	}
	if p.Rarity != nil && !p.Rarity.Valid() {
		merr = multierror.Append(merr, apperrors.Field("rarity", fmt.Sprintf("unknown rarity %q", *p.Rarity)))
	}
	merr = validateOptional(merr, p.ImageURL, p.Hitpoints, p.Damage)
	return apperrors.Invalid(apperrors.CodeInvalidCardData, "invalid card data", merr)
}

// Apply validates the patch and returns the updated card.
func Apply(c Card, p Patch, now func() time.Time) (Card, error) {
	if now == nil {
		now = time.Now
	}
	if err := p.Validate(); err != nil {
		return Card{}, err
	}
	if p.Name != nil {
		c.Name = strings.TrimSpace(*p.Name)
	}
	if p.NameEn != nil {
		c.NameEn = strings.TrimSpace(*p.NameEn)
	}
	if p.ElixirCost != nil {
		c.ElixirCost = *p.ElixirCost
	}
	if p.Type != nil {
		c.Type = *p.Type
	}
	if p.Rarity != nil {
		c.Rarity = *p.Rarity
	}
	if p.ImageURL != nil {
		c.ImageURL = trimOptional(p.ImageURL)
	}
	if p.Description != nil {
		c.Description = trimOptional(p.Description)
	}
	if p.DescriptionEn != nil {
		c.DescriptionEn = trimOptional(p.DescriptionEn)
	}
	if p.Hitpoints != nil {
		c.Hitpoints = p.Hitpoints
	}
	if p.Damage != nil {
		c.Damage = p.Damage
	}
	c.UpdatedAt = now().UTC()
	return c, nil
}

func validateCost(merr *multierror.Error, cost int) *multierror.Error {
	if cost < 0 || cost > MaxElixirCost {
		return multierror.Append(merr, apperrors.Field("elixirCost", fmt.Sprintf("elixirCost must be between 0 and %d", MaxElixirCost)))
	}
	return merr
}

func validateOptional(merr *multierror.Error, imageURL *string, hitpoints, damage *int) *multierror.Error {
	if imageURL != nil && strings.TrimSpace(*imageURL) != "" && !isHTTPURL(*imageURL) {
		merr = multierror.Append(merr, apperrors.Field("imageUrl", "imageUrl must be an absolute http(s) URL"))
	}
	if hitpoints != nil && *hitpoints < 0 {
		merr = multierror.Append(merr, apperrors.Field("hitpoints", "hitpoints must not be negative"))
	}
	if damage != nil && *damage < 0 {
		merr = multierror.Append(merr, apperrors.Field("damage", "damage must not be negative"))
	}
	return merr
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// trimOptional maps blank strings to nil.
func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
