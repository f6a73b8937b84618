package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/louisbranch/cardtrainer/internal/services/trainer/card"
	"github.com/tidwall/gjson"
)

// Upstream card ids encode the kind in their leading digits.
const (
	troopIDPrefix    = 26
	buildingIDPrefix = 27
	spellIDPrefix    = 28
)

// UpstreamCard is the subset of an upstream /cards item the catalog uses.
type UpstreamCard struct {
	ID         int64
	Name       string
	ElixirCost int
	Rarity     card.Rarity
	Type       card.Type
	IconURL    string
}

// ParseUpstream extracts the usable cards from an upstream /cards body.
// Items without an elixir cost (such as tower troops) or with an unknown
// rarity or id range are skipped.
func ParseUpstream(body json.RawMessage) ([]UpstreamCard, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("upstream cards: invalid json")
	}
	items := gjson.GetBytes(body, "items")
	if !items.IsArray() {
		return nil, fmt.Errorf("upstream cards: missing items array")
	}
	var out []UpstreamCard
	items.ForEach(func(_, item gjson.Result) bool {
		cost := item.Get("elixirCost")
		if !cost.Exists() {
			return true
		}
		c := UpstreamCard{
			ID:         item.Get("id").Int(),
			Name:       strings.TrimSpace(item.Get("name").String()),
			ElixirCost: int(cost.Int()),
			Rarity:     card.Rarity(strings.ToLower(item.Get("rarity").String())),
			Type:       typeFromID(item.Get("id").Int()),
			IconURL:    item.Get("iconUrls.medium").String(),
		}
		if c.Name == "" || c.Type == "" || !c.Rarity.Valid() {
			return true
		}
		out = append(out, c)
		return true
	})
	return out, nil
}

func typeFromID(id int64) card.Type {
	for id >= 100 {
		id /= 10
	}
	switch id {
	case troopIDPrefix:
		return card.TypeTroop
	case buildingIDPrefix:
		return card.TypeBuilding
	case spellIDPrefix:
		return card.TypeSpell
	default:
		return ""
	}
}

// Sync upserts the upstream cards. Existing cards keep their localized name,
// descriptions and stats; cost, rarity, type and image follow upstream.
func (im *Importer) Sync(ctx context.Context, upstream []UpstreamCard) (Result, error) {
	existing, err := im.store.ListCards(ctx, "")
	if err != nil {
		return Result{}, fmt.Errorf("list cards: %w", err)
	}
	byNameEn := make(map[string]card.Card, len(existing))
	for _, c := range existing {
		byNameEn[strings.ToLower(c.NameEn)] = c
	}

	inputs := make([]card.CreateInput, 0, len(upstream))
	for _, u := range upstream {
		cost := u.ElixirCost
		input := card.CreateInput{
			Name:       u.Name,
			NameEn:     u.Name,
			ElixirCost: &cost,
			Type:       u.Type,
			Rarity:     u.Rarity,
		}
		if u.IconURL != "" {
			icon := u.IconURL
			input.ImageURL = &icon
		}
		if current, ok := byNameEn[strings.ToLower(u.Name)]; ok {
			input.Name = current.Name
			input.NameEn = current.NameEn
			input.Description = current.Description
			input.DescriptionEn = current.DescriptionEn
			input.Hitpoints = current.Hitpoints
			input.Damage = current.Damage
			if input.ImageURL == nil {
				input.ImageURL = current.ImageURL
			}
		}
		inputs = append(inputs, input)
	}
	return im.Import(ctx, inputs)
}
