package tune

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuawatkins04/tune_sdk/internal/transport"
)

func TestDecodeResponse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		httpStatus    int
		body          string
		wantData      int
		wantErr       bool
		wantMalformed bool
		wantStatus    int
		wantDetails   []ErrorDetail
	}{
		{
			name:       "success",
			httpStatus: http.StatusOK,
			body:       `{"status_code":200,"response_size":"12","data":12,"errors":[]}`,
			wantData:   12,
		},
		{
			name:       "success with null errors",
			httpStatus: http.StatusOK,
			body:       `{"status_code":200,"data":"3","errors":null}`,
			wantData:   3,
		},
		{
			name:        "http failure with envelope",
			httpStatus:  http.StatusUnauthorized,
			body:        `{"status_code":401,"data":null,"errors":[{"message":"Invalid api_key"}]}`,
			wantErr:     true,
			wantStatus:  401,
			wantDetails: []ErrorDetail{{Message: "Invalid api_key"}},
		},
		{
			name:       "http failure with html body",
			httpStatus: http.StatusBadGateway,
			body:       `<html>bad gateway</html>`,
			wantErr:    true,
		},
		{
			name:          "empty body",
			httpStatus:    http.StatusOK,
			body:          "",
			wantErr:       true,
			wantMalformed: true,
		},
		{
			name:          "not json",
			httpStatus:    http.StatusOK,
			body:          `OK`,
			wantErr:       true,
			wantMalformed: true,
		},
		{
			name:          "missing status code",
			httpStatus:    http.StatusOK,
			body:          `{"data":1}`,
			wantErr:       true,
			wantMalformed: true,
		},
		{
			name:        "envelope failure status",
			httpStatus:  http.StatusOK,
			body:        `{"status_code":400,"data":null,"errors":{"message":"Invalid filter"}}`,
			wantErr:     true,
			wantStatus:  400,
			wantDetails: []ErrorDetail{{Message: "Invalid filter"}},
		},
		{
			name:        "envelope success status with errors",
			httpStatus:  http.StatusOK,
			body:        `{"status_code":200,"data":5,"errors":["partial result"]}`,
			wantErr:     true,
			wantStatus:  200,
			wantDetails: []ErrorDetail{{Message: "partial result"}},
		},
		{
			name:          "data of wrong type",
			httpStatus:    http.StatusOK,
			body:          `{"status_code":200,"data":{"count":1},"errors":[]}`,
			wantErr:       true,
			wantMalformed: true,
			wantStatus:    200,
		},
		{
			name:          "negative count",
			httpStatus:    http.StatusOK,
			body:          `{"status_code":200,"data":-1,"errors":[]}`,
			wantErr:       true,
			wantMalformed: true,
			wantStatus:    200,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			resp, err := decodeResponse("advertiser/stats/installs/count", &transport.Response{
				StatusCode: tt.httpStatus,
				Body:       []byte(tt.body),
				RequestID:  "req-1",
				URL:        "https://api.example.test/v2/advertiser/stats/installs/count.json?api_key=REDACTED",
			}, decodeCount)

			if !tt.wantErr {
				require.NoError(t, err)
				assert.Equal(t, tt.wantData, resp.Data)
				assert.Equal(t, tt.httpStatus, resp.HTTPCode)
				assert.Equal(t, []ErrorDetail{}, resp.Errors)
				assert.Equal(t, "req-1", resp.RequestID)
				assert.Contains(t, resp.RequestURL, "api_key=REDACTED")
				return
			}

			require.Error(t, err)
			assert.Nil(t, resp)
			assert.True(t, IsRemoteError(err))
			assert.False(t, IsValidationError(err))
			assert.Equal(t, tt.wantMalformed, errors.Is(err, ErrMalformedEnvelope))

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.httpStatus, apiErr.HTTPStatus)
			assert.Equal(t, tt.wantStatus, apiErr.StatusCode)
			assert.Equal(t, "req-1", apiErr.RequestID)
			if tt.wantDetails != nil {
				assert.Equal(t, tt.wantDetails, apiErr.Errors)
			}
		})
	}
}

func TestDecodeErrorDetails(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want []ErrorDetail
	}{
		{name: "absent", raw: ``, want: nil},
		{name: "null", raw: `null`, want: nil},
		{name: "empty list", raw: `[]`, want: nil},
		{name: "object", raw: `{"message":"bad"}`, want: []ErrorDetail{{Message: "bad"}}},
		{name: "strings", raw: `["a","b"]`, want: []ErrorDetail{{Message: "a"}, {Message: "b"}}},
		{name: "objects", raw: `[{"message":"a"},{"message":"b"}]`, want: []ErrorDetail{{Message: "a"}, {Message: "b"}}},
		{name: "unknown object kept raw", raw: `[{"code":7}]`, want: []ErrorDetail{{Message: `{"code":7}`}}},
		{name: "empty object dropped", raw: `{}`, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, decodeErrorDetails([]byte(tt.raw)))
		})
	}
}

func TestDecodeRecords_PreservesNumbers(t *testing.T) {
	t.Parallel()

	records, err := decodeRecords([]byte(`[{"id":12345678901234567,"payout":"1.50"}]`))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "12345678901234567", records[0]["id"].(interface{ String() string }).String())

	_, err = decodeRecords([]byte(`{"id":1}`))
	assert.Error(t, err)
}
