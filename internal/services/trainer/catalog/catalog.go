// Package catalog imports cards into the store, from a YAML file or from the
// upstream Clash Royale card list.
package catalog

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	apperrors "github.com/louisbranch/cardtrainer/internal/platform/errors"
	"github.com/louisbranch/cardtrainer/internal/services/trainer/card"
	"github.com/louisbranch/cardtrainer/internal/services/trainer/storage"
	"gopkg.in/yaml.v3"
)

// Entry is one card in a catalog file.
type Entry struct {
	Name          string  `yaml:"name"`
	NameEn        string  `yaml:"name_en"`
	ElixirCost    *int    `yaml:"elixir_cost"`
	Type          string  `yaml:"type"`
	Rarity        string  `yaml:"rarity"`
	ImageURL      *string `yaml:"image_url"`
	Description   *string `yaml:"description"`
	DescriptionEn *string `yaml:"description_en"`
	Hitpoints     *int    `yaml:"hitpoints"`
	Damage        *int    `yaml:"damage"`
}

// File is the catalog document.
type File struct {
	Cards []Entry `yaml:"cards"`
}

// Input converts the entry into card input.
func (e Entry) Input() card.CreateInput {
	return card.CreateInput{
		Name:          e.Name,
		NameEn:        e.NameEn,
		ElixirCost:    e.ElixirCost,
		Type:          card.Type(strings.ToLower(strings.TrimSpace(e.Type))),
		Rarity:        card.Rarity(strings.ToLower(strings.TrimSpace(e.Rarity))),
		ImageURL:      e.ImageURL,
		Description:   e.Description,
		DescriptionEn: e.DescriptionEn,
		Hitpoints:     e.Hitpoints,
		Damage:        e.Damage,
	}
}

// Parse decodes and validates a catalog. Every invalid entry is reported,
// with field paths prefixed by the entry index.
func Parse(r io.Reader) ([]card.CreateInput, error) {
	var file File
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	var merr *multierror.Error
	seen := make(map[string]int, len(file.Cards))
	inputs := make([]card.CreateInput, 0, len(file.Cards))
	for idx, entry := range file.Cards {
		input := entry.Input()
		prefix := fmt.Sprintf("cards[%d]", idx)
		if err := input.Validate(); err != nil {
			for _, fe := range apperrors.FieldErrors(err) {
				merr = multierror.Append(merr, apperrors.Field(prefix+"."+fe.Path, fe.Message))
			}
			continue
		}
		key := strings.ToLower(strings.TrimSpace(input.NameEn))
		if first, dup := seen[key]; dup {
			merr = multierror.Append(merr, apperrors.Field(prefix+".name_en", fmt.Sprintf("duplicates cards[%d]", first)))
			continue
		}
		seen[key] = idx
		inputs = append(inputs, input)
	}
	if err := apperrors.Invalid(apperrors.CodeInvalidCardData, "invalid catalog", merr); err != nil {
		return nil, err
	}
	return inputs, nil
}

// Result counts the rows an import touched.
type Result struct {
	Created int
	Updated int
}

// Importer writes card inputs to a store.
type Importer struct {
	store       storage.CardStore
	now         func() time.Time
	idGenerator func() (string, error)
}

// NewImporter builds an importer. A nil clock or id generator selects the
// defaults.
func NewImporter(store storage.CardStore, now func() time.Time, idGenerator func() (string, error)) *Importer {
	if now == nil {
		now = time.Now
	}
	return &Importer{store: store, now: now, idGenerator: idGenerator}
}

// Import upserts each input by English name.
func (im *Importer) Import(ctx context.Context, inputs []card.CreateInput) (Result, error) {
	var result Result
	for _, input := range inputs {
		c, err := card.New(input, im.now, im.idGenerator)
		if err != nil {
			return result, fmt.Errorf("build card %q: %w", input.NameEn, err)
		}
		_, created, err := im.store.UpsertCardByNameEn(ctx, c)
		if err != nil {
			return result, fmt.Errorf("upsert card %q: %w", input.NameEn, err)
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}
	}
	return result, nil
}
