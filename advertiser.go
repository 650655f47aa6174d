package tune

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// Advertiser is the account that owns the reports.
type Advertiser struct {
	// ID is the advertiser identifier.
	ID string `json:"id"`
	// Name is the human-readable advertiser name, when the API returns it.
	Name string `json:"name,omitempty"`
	// Status is the account status, e.g. "active".
	Status string `json:"status,omitempty"`
}

// AdvertiserID looks up the advertiser that owns the client's credential.
// It fails with a remote error when the API returns no advertiser.
func (c *Client) AdvertiserID(ctx context.Context) (*Response[string], error) {
	const label = "advertiser/find"

	q := url.Values{}
	q.Set("source", "multiverse")

	resp, err := execute(ctx, c, label, apiPath("advertiser", "find"), q, decodeAdvertisers)
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 || resp.Data[0].ID == "" {
		c.logger.Error("advertiser lookup returned no advertiser", "request_id", resp.RequestID)
		return nil, &APIError{
			Label:      label,
			HTTPStatus: resp.HTTPCode,
			Message:    "no advertiser found for credential",
			RequestID:  resp.RequestID,
		}
	}

	id := resp.Data[0].ID
	c.logger.Info("advertiser found", "advertiser_id", id)
	return &Response[string]{
		Data:       id,
		HTTPCode:   resp.HTTPCode,
		Errors:     resp.Errors,
		RequestURL: resp.RequestURL,
		RequestID:  resp.RequestID,
	}, nil
}

// decodeAdvertisers accepts numeric or string IDs.
func decodeAdvertisers(raw json.RawMessage) ([]Advertiser, error) {
	var items []struct {
		ID     json.RawMessage `json:"id"`
		Name   string          `json:"name"`
		Status string          `json:"status"`
	}
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("advertiser data is not a list: %w", err)
		}
	}

	out := make([]Advertiser, 0, len(items))
	for _, item := range items {
		out = append(out, Advertiser{
			ID:     scalarString(item.ID),
			Name:   item.Name,
			Status: item.Status,
		})
	}
	return out, nil
}
