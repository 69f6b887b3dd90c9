package storeapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtraInfo(t *testing.T) {
	tests := map[string]struct {
		status  int
		body    string
		want    string
		wantErr error
		anyErr  bool
	}{
		"bzr-url present": {
			status: http.StatusOK,
			body:   `{"bzr-url": "lp:~bob/charms/trusty/foo/trunk"}`,
			want:   "lp:~bob/charms/trusty/foo/trunk",
		},
		"bzr-url absent": {
			status: http.StatusOK,
			body:   `{"other": "value"}`,
		},
		"not found": {
			status:  http.StatusNotFound,
			body:    `{"Message": "no matching charm or bundle", "Code": "not found"}`,
			wantErr: ErrNotFound,
		},
		"server error": {
			status: http.StatusInternalServerError,
			body:   `{}`,
			anyErr: true,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			var gotPath string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			c := New(srv.URL+"/v5/", srv.Client())
			info, err := c.ExtraInfo(context.Background(), "~bob/trusty/foo")

			assert.Equal(t, "/v5/~bob/trusty/foo/meta/extra-info", gotPath)
			switch {
			case tc.wantErr != nil:
				assert.ErrorIs(t, err, tc.wantErr)
			case tc.anyErr:
				assert.Error(t, err)
			default:
				require.NoError(t, err)
				assert.Equal(t, tc.want, info.BzrURL)
			}
		})
	}
}

func TestArchiveURL(t *testing.T) {
	c := New("https://api.jujucharms.com/charmstore/v5", nil)
	assert.Equal(t, "https://api.jujucharms.com/charmstore/v5/trusty/mysql/archive", c.ArchiveURL("trusty/mysql"))
}
