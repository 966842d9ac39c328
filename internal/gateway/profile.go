package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"nimbustalk.org/internal/validate"
)

// ProfileGateway reads and writes the users table through the backend's
// query-filter REST API.
type ProfileGateway struct {
	client *Client
	table  string
}

// NewProfileGateway wraps the shared client for the configured table.
func NewProfileGateway(client *Client) *ProfileGateway {
	table := client.cfg.UsersTable
	if table == "" {
		table = "users"
	}
	return &ProfileGateway{client: client, table: table}
}

func (g *ProfileGateway) tablePath() string {
	return "/rest/v1/" + g.table
}

func parseProfiles(data []byte) ([]Profile, error) {
	var rows []Profile
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("gateway: decode table response: %w", err)
	}
	return rows, nil
}

// CheckUsernameAvailability reports whether the username is unclaimed:
// available iff the exact-match query returns zero rows. Failures are
// returned as errors, never as "taken".
func (g *ProfileGateway) CheckUsernameAvailability(ctx context.Context, username string) (bool, error) {
	query := url.Values{
		"select":   {"username"},
		"username": {tableFilter(validate.SanitizeUsername(username))},
	}
	data, err := g.client.get(ctx, "profile.check_username", g.tablePath(), query, "")
	if err != nil {
		return false, err
	}
	rows, err := parseProfiles(data)
	if err != nil {
		return false, err
	}
	return len(rows) == 0, nil
}

// GetUserProfile fetches the profile row by user id. Zero rows map to a
// NotFound error distinct from other failures.
func (g *ProfileGateway) GetUserProfile(ctx context.Context, userID, accessToken string) (Profile, error) {
	query := url.Values{
		"select": {"*"},
		"id":     {tableFilter(userID)},
	}
	data, err := g.client.get(ctx, "profile.get", g.tablePath(), query, accessToken)
	if err != nil {
		return Profile{}, err
	}
	rows, err := parseProfiles(data)
	if err != nil {
		return Profile{}, err
	}
	if len(rows) == 0 {
		return Profile{}, &Error{Kind: KindNotFound, Status: 404, Raw: "user not found"}
	}
	return rows[0], nil
}

// GetUserByUsername fetches the profile row by exact username.
func (g *ProfileGateway) GetUserByUsername(ctx context.Context, username, accessToken string) (Profile, error) {
	query := url.Values{
		"select":   {"*"},
		"username": {tableFilter(validate.SanitizeUsername(username))},
	}
	data, err := g.client.get(ctx, "profile.get_by_username", g.tablePath(), query, accessToken)
	if err != nil {
		return Profile{}, err
	}
	rows, err := parseProfiles(data)
	if err != nil {
		return Profile{}, err
	}
	if len(rows) == 0 {
		return Profile{}, &Error{Kind: KindNotFound, Status: 404, Raw: "user not found"}
	}
	return rows[0], nil
}

// SearchUsers runs the backend's search function over usernames and
// display names.
func (g *ProfileGateway) SearchUsers(ctx context.Context, term, accessToken string) ([]Profile, error) {
	body := map[string]string{"search_term": validate.Clean(term)}
	data, err := g.client.post(ctx, "profile.search", "/rest/v1/rpc/search_users", nil, body, accessToken)
	if err != nil {
		return nil, err
	}
	return parseProfiles(data)
}

// UpdateUserProfile applies a partial update to the caller's own row.
func (g *ProfileGateway) UpdateUserProfile(ctx context.Context, userID, accessToken string, updates map[string]any) (Profile, error) {
	query := url.Values{"id": {tableFilter(userID)}}
	data, err := g.client.patch(ctx, "profile.update", g.tablePath(), query, updates, accessToken)
	if err != nil {
		return Profile{}, err
	}
	rows, err := parseProfiles(data)
	if err != nil {
		return Profile{}, err
	}
	if len(rows) == 0 {
		return Profile{}, &Error{Kind: KindNotFound, Status: 404, Raw: "user not found"}
	}
	return rows[0], nil
}
