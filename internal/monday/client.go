// Package monday integrates with the Monday.com platform. This file
// implements a minimal GraphQL API client covering the calls the backend
// needs: writing a batch code into an item column, reading an item back for
// diagnostics, and probing the credential.
//
// Error semantics:
//   - Transport failures propagate as-is.
//   - Non-2xx HTTP responses and application-level GraphQL errors surface as
//     *APIError so callers can branch on the remote failure without string
//     matching.
//   - TestConnection deliberately downgrades every failure to false; it is a
//     diagnostics probe, not a health dependency.
package monday

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://api.monday.com/v2"
	apiVersion     = "2023-10"
)

// APIError describes a failed Monday.com API call: a non-success HTTP status
// or an errors array in the GraphQL response body.
type APIError struct {
	Status  int
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("monday api error (status %d): %s", e.Status, e.Message)
}

// Item is a read-only snapshot of a Monday.com item, as returned by GetItem.
type Item struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Board struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"board"`
	Group struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	} `json:"group"`
	ColumnValues []ColumnValue `json:"column_values"`
}

// ColumnValue is one column cell on an item.
type ColumnValue struct {
	ID    string          `json:"id"`
	Text  string          `json:"text,omitempty"`
	Value json.RawMessage `json:"value,omitempty"`
}

// Client is a Monday.com GraphQL API client. The zero value is not usable;
// construct with NewClient. BaseURL and HTTPClient may be overridden after
// construction (tests point BaseURL at an httptest server).
type Client struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient returns a Client authenticated with apiKey, talking to the
// production API endpoint with a bounded request timeout.
func NewClient(apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		APIKey:     apiKey,
		BaseURL:    defaultBaseURL,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// graphqlRequest is the wire shape of an outbound GraphQL call.
type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// graphqlResponse is the wire shape of a GraphQL response envelope.
type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// execute posts one GraphQL document and returns the raw data payload.
func (c *Client) execute(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error) {
	body, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("API-Version", apiVersion)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
	}

	var out graphqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if len(out.Errors) > 0 {
		msgs := make([]string, 0, len(out.Errors))
		for _, e := range out.Errors {
			msgs = append(msgs, e.Message)
		}
		return nil, &APIError{Status: resp.StatusCode, Message: strings.Join(msgs, "; ")}
	}
	return out.Data, nil
}

// UpdateItemColumn writes value into one column of one item via the
// change_column_value mutation. The value is JSON-encoded the way the
// Monday.com API expects for text columns.
func (c *Client) UpdateItemColumn(ctx context.Context, boardID, itemID, columnID, value string) error {
	const mutation = `
		mutation ($boardId: ID!, $itemId: ID!, $columnId: String!, $value: JSON!) {
			change_column_value (
				board_id: $boardId,
				item_id: $itemId,
				column_id: $columnId,
				value: $value
			) {
				id
			}
		}`

	encoded, err := json.Marshal(value)
	if err != nil {
		return err
	}
	_, err = c.execute(ctx, mutation, map[string]any{
		"boardId":  boardID,
		"itemId":   itemID,
		"columnId": columnID,
		"value":    string(encoded),
	})
	return err
}

// GetItem fetches an item snapshot including its current column values.
// Used for diagnostics and manual verification, not on the webhook hot path.
func (c *Client) GetItem(ctx context.Context, itemID string) (*Item, error) {
	const query = `
		query ($itemId: [ID!]!) {
			items (ids: $itemId) {
				id
				name
				board { id name }
				group { id title }
				column_values { id text value }
			}
		}`

	data, err := c.execute(ctx, query, map[string]any{"itemId": []string{itemID}})
	if err != nil {
		return nil, err
	}

	var out struct {
		Items []Item `json:"items"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, &APIError{Status: http.StatusNotFound, Message: "item not found: " + itemID}
	}
	return &out.Items[0], nil
}

// TestConnection runs a lightweight identity probe (`me` query) and reports
// whether the credential works. Any failure is reported as false rather than
// an error; the probe is used only for diagnostics (e.g. the health endpoint).
func (c *Client) TestConnection(ctx context.Context) bool {
	const query = `query { me { id name } }`
	_, err := c.execute(ctx, query, nil)
	return err == nil
}
