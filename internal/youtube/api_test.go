package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

func TestNewDataAPI(t *testing.T) {
	tests := []struct {
		name    string
		apiKey  string
		wantErr bool
	}{
		{"empty key", "", true},
		{"valid key", "test-api-key-12345", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api, err := NewDataAPI(context.Background(), tt.apiKey, 0)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, api)
		})
	}
}

func TestIsQuotaError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"sentinel", ErrQuotaExceeded, true},
		{"wrapped sentinel", fmt.Errorf("page 3: %w", ErrQuotaExceeded), true},
		{"googleapi 403", &googleapi.Error{Code: http.StatusForbidden}, true},
		{"wrapped googleapi 403", &APIError{Call: "search.list", Ref: "UC", Err: &googleapi.Error{Code: 403}}, true},
		{"googleapi 500", &googleapi.Error{Code: http.StatusInternalServerError}, false},
		{"googleapi 404", &googleapi.Error{Code: http.StatusNotFound}, false},
		{"plain", errors.New("connection reset"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsQuotaError(tt.err))
		})
	}
}

func TestAPIErrorUnwrap(t *testing.T) {
	err := &APIError{Call: "channels.list", Ref: "UCx", Err: ErrChannelNotFound}
	assert.True(t, errors.Is(err, ErrChannelNotFound))
	assert.Contains(t, err.Error(), "channels.list")
}

func newTestAPI(t *testing.T, handler http.HandlerFunc) *DataAPI {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	api, err := NewDataAPI(context.Background(), "test-key", 0,
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return api
}

func TestDataAPIPlaylistPage(t *testing.T) {
	var gotToken string
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/playlistItems"), r.URL.Path)
		gotToken = r.URL.Query().Get("pageToken")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"nextPageToken": "next-1",
			"items": [
				{"contentDetails": {"videoId": "vid-a"}},
				{"contentDetails": {}},
				{"contentDetails": {"videoId": "vid-b"}}
			]
		}`)
	})

	page, err := api.PlaylistPage(context.Background(), "UUabc", "tok-0")
	require.NoError(t, err)
	assert.Equal(t, "tok-0", gotToken)
	assert.Equal(t, []string{"vid-a", "vid-b"}, page.VideoIDs)
	assert.Equal(t, "next-1", page.NextPageToken)
}

func TestDataAPISearchPageQuota(t *testing.T) {
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error": {"code": 403, "message": "quota", "errors": [{"reason": "quotaExceeded"}]}}`)
	})

	_, err := api.SearchPage(context.Background(), SearchQuery{ChannelID: "UCabc", Order: OrderDate}, "")
	require.Error(t, err)
	assert.True(t, IsQuotaError(err))
}

func TestDataAPIVideoDetailsTooMany(t *testing.T) {
	api, err := NewDataAPI(context.Background(), "k", 0)
	require.NoError(t, err)

	ids := make([]string, PageSize+1)
	_, err = api.VideoDetails(context.Background(), ids)
	assert.ErrorIs(t, err, ErrTooManyIDs)

	items, err := api.VideoDetails(context.Background(), nil)
	assert.NoError(t, err)
	assert.Nil(t, items)
}
