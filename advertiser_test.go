package tune

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_AdvertiserID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    string
		status  int
		want    string
		wantErr bool
	}{
		{name: "numeric id", data: `[{"id":877,"name":"Acme"}]`, status: 200, want: "877"},
		{name: "string id", data: `[{"id":"877"},{"id":"900"}]`, status: 200, want: "877"},
		{name: "empty data", data: `[]`, status: 200, wantErr: true},
		{name: "null data", data: `null`, status: 200, wantErr: true},
		{name: "unsuccessful envelope", data: `null`, status: 403, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
				writeEnvelope(w, tt.status, tt.data)
			})
			client := newTestClient(t, server.URL)

			resp, err := client.AdvertiserID(context.Background())

			req := server.last()
			require.NotNil(t, req)
			assert.Equal(t, "/v2/advertiser/find.json", req.URL.Path)
			assert.Equal(t, "multiverse", req.URL.Query().Get("source"))

			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsRemoteError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.Data)
			assert.Empty(t, resp.Errors)
		})
	}
}
