package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/cardtrainer/internal/services/trainer/card"
	"github.com/louisbranch/cardtrainer/internal/services/trainer/storage"
	"github.com/louisbranch/cardtrainer/internal/services/trainer/storage/filter"
)

const cardColumns = `id, name, name_en, elixir_cost, type, rarity, image_url, description, description_en, hitpoints, damage, created_at, updated_at`

func scanCard(row rowScanner) (card.Card, error) {
	var (
		c                              card.Card
		cost                           int64
		cardType, rarity               string
		imageURL, description, descrEn sql.NullString
		hitpoints, damage              sql.NullInt64
		createdAt, updatedAt           dbTime
	)
	if err := row.Scan(&c.ID, &c.Name, &c.NameEn, &cost, &cardType, &rarity, &imageURL, &description, &descrEn, &hitpoints, &damage, &createdAt, &updatedAt); err != nil {
		return card.Card{}, err
	}
	c.ElixirCost = int(cost)
	c.Type = card.Type(cardType)
	c.Rarity = card.Rarity(rarity)
	c.ImageURL = stringPtr(imageURL)
	c.Description = stringPtr(description)
	c.DescriptionEn = stringPtr(descrEn)
	c.Hitpoints = intPtr(hitpoints)
	c.Damage = intPtr(damage)
	c.CreatedAt = createdAt.Time
	c.UpdatedAt = updatedAt.Time
	return c, nil
}

func (s *Store) cardArgs(c card.Card) []any {
	return []any{
		c.Name, c.NameEn, int64(c.ElixirCost), string(c.Type), string(c.Rarity),
		nullString(c.ImageURL), nullString(c.Description), nullString(c.DescriptionEn),
		nullInt(c.Hitpoints), nullInt(c.Damage),
	}
}

// ListCards returns cards ordered by name, narrowed by an AIP-160 filter.
func (s *Store) ListCards(ctx context.Context, filterStr string) ([]card.Card, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	cond, err := filter.ParseCardFilter(filterStr, filter.Question)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + cardColumns + ` FROM cards`
	if !cond.Empty() {
		query += ` WHERE ` + cond.Clause
	}
	query += ` ORDER BY name, id`

	rows, err := s.sqlDB.QueryContext(ctx, s.bind(query), cond.Params...)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	cards := make([]card.Card, 0)
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	return cards, nil
}

// GetCard fetches a card by ID.
func (s *Store) GetCard(ctx context.Context, cardID string) (card.Card, error) {
	if err := s.ready(ctx); err != nil {
		return card.Card{}, err
	}
	cardID = strings.TrimSpace(cardID)
	if cardID == "" {
		return card.Card{}, fmt.Errorf("card id is required")
	}
	return s.getCard(ctx, s.sqlDB, "id = ?", cardID)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// getCard loads the first card matching where, which holds one placeholder.
func (s *Store) getCard(ctx context.Context, q queryRower, where, value string) (card.Card, error) {
	c, err := scanCard(q.QueryRowContext(ctx, s.bind(`SELECT `+cardColumns+` FROM cards WHERE `+where+` ORDER BY created_at, id LIMIT 1`), value))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return card.Card{}, storage.ErrNotFound
		}
		return card.Card{}, fmt.Errorf("get card: %w", err)
	}
	return c, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// PutCard inserts a new card.
func (s *Store) PutCard(ctx context.Context, c card.Card) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("card id is required")
	}
	return s.insertCard(ctx, s.sqlDB, c)
}

func (s *Store) insertCard(ctx context.Context, x execer, c card.Card) error {
	args := append([]any{c.ID}, s.cardArgs(c)...)
	args = append(args, s.encodeTime(c.CreatedAt), s.encodeTime(c.UpdatedAt))
	if _, err := x.ExecContext(ctx, s.bind(`
INSERT INTO cards (`+cardColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`), args...); err != nil {
		return fmt.Errorf("put card: %w", err)
	}
	return nil
}

// UpdateCard overwrites an existing card.
func (s *Store) UpdateCard(ctx context.Context, c card.Card) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("card id is required")
	}
	return s.updateCard(ctx, s.sqlDB, c)
}

func (s *Store) updateCard(ctx context.Context, x execer, c card.Card) error {
	args := append(s.cardArgs(c), s.encodeTime(c.UpdatedAt), c.ID)
	result, err := x.ExecContext(ctx, s.bind(`
UPDATE cards
SET name = ?, name_en = ?, elixir_cost = ?, type = ?, rarity = ?, image_url = ?,
    description = ?, description_en = ?, hitpoints = ?, damage = ?, updated_at = ?
WHERE id = ?`), args...)
	if err != nil {
		return fmt.Errorf("update card: %w", err)
	}
	return requireAffected(result, "update card")
}

// DeleteCard removes a card; deleting a missing card is not an error.
func (s *Store) DeleteCard(ctx context.Context, cardID string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	cardID = strings.TrimSpace(cardID)
	if cardID == "" {
		return fmt.Errorf("card id is required")
	}
	if _, err := s.sqlDB.ExecContext(ctx, s.bind(`DELETE FROM cards WHERE id = ?`), cardID); err != nil {
		return fmt.Errorf("delete card: %w", err)
	}
	return nil
}

// UpsertCardByNameEn inserts c, or updates the card with the same English
// name, compared case-insensitively, while keeping its id and creation time.
func (s *Store) UpsertCardByNameEn(ctx context.Context, c card.Card) (card.Card, bool, error) {
	if err := s.ready(ctx); err != nil {
		return card.Card{}, false, err
	}
	if strings.TrimSpace(c.NameEn) == "" {
		return card.Card{}, false, fmt.Errorf("card english name is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return card.Card{}, false, fmt.Errorf("start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	existing, err := s.getCard(ctx, tx, "LOWER(name_en) = LOWER(?)", strings.TrimSpace(c.NameEn))
	created := false
	switch {
	case errors.Is(err, storage.ErrNotFound):
		if strings.TrimSpace(c.ID) == "" {
			return card.Card{}, false, fmt.Errorf("card id is required")
		}
		if err := s.insertCard(ctx, tx, c); err != nil {
			return card.Card{}, false, err
		}
		created = true
	case err != nil:
		return card.Card{}, false, err
	default:
		c.ID = existing.ID
		c.CreatedAt = existing.CreatedAt
		if err := s.updateCard(ctx, tx, c); err != nil {
			return card.Card{}, false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return card.Card{}, false, fmt.Errorf("commit card upsert: %w", err)
	}
	return c, created, nil
}
