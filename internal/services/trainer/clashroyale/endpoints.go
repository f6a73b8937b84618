package clashroyale

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
	apperrors "github.com/louisbranch/cardtrainer/internal/platform/errors"
)

// minClanNameLength mirrors the upstream API's constraint on name searches.
const minClanNameLength = 3

// NormalizeTag upper-cases tag, prefixes "#" when missing, and path-escapes
// it so "#" becomes "%23".
func NormalizeTag(tag string) (string, error) {
	value := strings.ToUpper(strings.TrimSpace(tag))
	value = strings.TrimPrefix(value, "#")
	if value == "" {
		return "", apperrors.New(apperrors.CodeInvalidRequest, "tag is required")
	}
	return url.PathEscape("#" + value), nil
}

// ClanSearch holds the clan search criteria; numeric fields are raw query
// values.
type ClanSearch struct {
	Name       string
	LocationID string
	MinMembers string
	MaxMembers string
	MinScore   string
}

// Query validates the criteria and encodes them. At least one criterion is
// required.
func (s ClanSearch) Query() (url.Values, error) {
	query := url.Values{}
	var merr *multierror.Error

	if name := strings.TrimSpace(s.Name); name != "" {
		if len([]rune(name)) < minClanNameLength {
			merr = multierror.Append(merr, apperrors.Field("name", "name must be at least 3 characters"))
		}
		query.Set("name", name)
	}
	for _, field := range []struct {
		param string
		value string
	}{
		{"locationId", s.LocationID},
		{"minMembers", s.MinMembers},
		{"maxMembers", s.MaxMembers},
		{"minScore", s.MinScore},
	} {
		value := strings.TrimSpace(field.value)
		if value == "" {
			continue
		}
		if n, err := strconv.Atoi(value); err != nil || n < 0 {
			merr = multierror.Append(merr, apperrors.Field(field.param, field.param+" must be a non-negative integer"))
			continue
		}
		query.Set(field.param, value)
	}

	if err := apperrors.Invalid(apperrors.CodeInvalidRequest, "invalid clan search", merr); err != nil {
		return nil, err
	}
	if len(query) == 0 {
		return nil, apperrors.New(apperrors.CodeInvalidRequest, "at least one search criterion is required")
	}
	return query, nil
}

// SearchClans searches clans by the given criteria.
func (c *Client) SearchClans(ctx context.Context, search ClanSearch) (json.RawMessage, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	query, err := search.Query()
	if err != nil {
		return nil, err
	}
	return c.get(ctx, "/clans", query)
}

// Clan returns a clan by tag.
func (c *Client) Clan(ctx context.Context, tag string) (json.RawMessage, error) {
	return c.byTag(ctx, "/clans/", tag, "")
}

// ClanMembers returns a clan's member list.
func (c *Client) ClanMembers(ctx context.Context, tag string) (json.RawMessage, error) {
	return c.byTag(ctx, "/clans/", tag, "/members")
}

// ClanRiverRaceLog returns a clan's river race history, which replaced the
// war log upstream.
func (c *Client) ClanRiverRaceLog(ctx context.Context, tag string) (json.RawMessage, error) {
	return c.byTag(ctx, "/clans/", tag, "/riverracelog")
}

// Player returns a player profile.
func (c *Client) Player(ctx context.Context, tag string) (json.RawMessage, error) {
	return c.byTag(ctx, "/players/", tag, "")
}

// PlayerBattleLog returns a player's recent battles.
func (c *Client) PlayerBattleLog(ctx context.Context, tag string) (json.RawMessage, error) {
	return c.byTag(ctx, "/players/", tag, "/battlelog")
}

// PlayerUpcomingChests returns a player's chest cycle.
func (c *Client) PlayerUpcomingChests(ctx context.Context, tag string) (json.RawMessage, error) {
	return c.byTag(ctx, "/players/", tag, "/upcomingchests")
}

// SearchTournaments searches tournaments by name.
func (c *Client) SearchTournaments(ctx context.Context, name string) (json.RawMessage, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	query := url.Values{}
	if name = strings.TrimSpace(name); name != "" {
		query.Set("name", name)
	}
	return c.get(ctx, "/tournaments", query)
}

// Tournament returns a tournament by tag.
func (c *Client) Tournament(ctx context.Context, tag string) (json.RawMessage, error) {
	return c.byTag(ctx, "/tournaments/", tag, "")
}

// Cards returns the full card list.
func (c *Client) Cards(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, "/cards", nil)
}

func (c *Client) byTag(ctx context.Context, prefix, tag, suffix string) (json.RawMessage, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	escaped, err := NormalizeTag(tag)
	if err != nil {
		return nil, err
	}
	return c.get(ctx, prefix+escaped+suffix, nil)
}
