package tune

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/joshuawatkins04/tune_sdk/internal/transport"
)

// Response is the result of every API call.
type Response[T any] struct {
	// Data is the operation's payload: an int for Count, records for Find,
	// an export handle for Export.
	Data T `json:"data"`
	// HTTPCode is the transport status code.
	HTTPCode int `json:"http_code"`
	// Errors holds the envelope's error entries. It is empty on success.
	Errors []ErrorDetail `json:"errors"`
	// RequestURL is the called URL with credentials redacted.
	RequestURL string `json:"request_url"`
	// RequestID is the X-Request-ID of the call.
	RequestID string `json:"request_id"`
}

// envelope is the JSON wrapper around every API payload.
type envelope struct {
	StatusCode   *int            `json:"status_code"`
	ResponseSize json.RawMessage `json:"response_size,omitempty"`
	Data         json.RawMessage `json:"data"`
	Errors       json.RawMessage `json:"errors"`
}

// decodeResponse validates the HTTP status and the JSON envelope, then decodes data.
func decodeResponse[T any](label string, resp *transport.Response, decode func(json.RawMessage) (T, error)) (*Response[T], error) {
	env, envErr := parseEnvelope(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{
			Label:      label,
			HTTPStatus: resp.StatusCode,
			Message:    fmt.Sprintf("request failed with HTTP %d", resp.StatusCode),
			RequestID:  resp.RequestID,
		}
		if envErr == nil {
			apiErr.StatusCode = *env.StatusCode
			apiErr.Errors = decodeErrorDetails(env.Errors)
		}
		return nil, apiErr
	}

	if envErr != nil {
		return nil, &APIError{
			Label:      label,
			HTTPStatus: resp.StatusCode,
			Message:    envErr.Error(),
			RequestID:  resp.RequestID,
			Err:        ErrMalformedEnvelope,
		}
	}

	details := decodeErrorDetails(env.Errors)
	status := *env.StatusCode
	if status < 200 || status > 299 || len(details) > 0 {
		return nil, &APIError{
			Label:      label,
			HTTPStatus: resp.StatusCode,
			StatusCode: status,
			Message:    fmt.Sprintf("request failed with status_code %d", status),
			Errors:     details,
			RequestID:  resp.RequestID,
		}
	}

	data, err := decode(env.Data)
	if err != nil {
		return nil, &APIError{
			Label:      label,
			HTTPStatus: resp.StatusCode,
			StatusCode: status,
			Message:    err.Error(),
			RequestID:  resp.RequestID,
			Err:        ErrMalformedEnvelope,
		}
	}

	return &Response[T]{
		Data:       data,
		HTTPCode:   resp.StatusCode,
		Errors:     []ErrorDetail{},
		RequestURL: resp.URL,
		RequestID:  resp.RequestID,
	}, nil
}

func parseEnvelope(body []byte) (*envelope, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, fmt.Errorf("empty response body")
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("invalid JSON response: %w", err)
	}
	if env.StatusCode == nil {
		return nil, fmt.Errorf("response is missing status_code")
	}
	return &env, nil
}

// decodeErrorDetails accepts the shapes the API uses for "errors": null, an object,
// an array of objects, or an array of strings.
func decodeErrorDetails(raw json.RawMessage) []ErrorDetail {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}

	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err != nil {
		list = []json.RawMessage{raw}
	}

	var details []ErrorDetail
	for _, item := range list {
		var text string
		if err := json.Unmarshal(item, &text); err == nil {
			if text != "" {
				details = append(details, ErrorDetail{Message: text})
			}
			continue
		}
		var d ErrorDetail
		if err := json.Unmarshal(item, &d); err == nil && d.Message != "" {
			details = append(details, d)
			continue
		}
		if s := string(bytes.TrimSpace(item)); s != "{}" && s != "" {
			details = append(details, ErrorDetail{Message: s})
		}
	}
	return details
}

func decodeCount(raw json.RawMessage) (int, error) {
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, fmt.Errorf("count data is not a number: %s", string(raw))
		}
		n = json.Number(s)
	}
	v, err := n.Int64()
	if err != nil || v < 0 {
		return 0, fmt.Errorf("count data is not a non-negative integer: %s", n)
	}
	return int(v), nil
}

func decodeRecords(raw json.RawMessage) ([]Record, error) {
	records := []Record{}
	if len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return records, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("find data is not a list of records: %w", err)
	}
	return records, nil
}
