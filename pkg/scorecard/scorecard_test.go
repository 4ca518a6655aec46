package scorecard_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pubjobs/scheduler/pkg/scorecard"
)

func TestHTTPUpdater_PostsPackageAndVersion(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	u := scorecard.NewHTTPUpdater(srv.URL)
	require.NoError(t, u.UpdateScoreCard(context.Background(), "p", "1.0.0"))
	require.Equal(t, "p", got["package"])
	require.Equal(t, "1.0.0", got["version"])
}

func TestHTTPUpdater_NonOKStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	u := scorecard.NewHTTPUpdater(srv.URL)
	require.Error(t, u.UpdateScoreCard(context.Background(), "p", "1.0.0"))
}

func TestNoop(t *testing.T) {
	require.NoError(t, scorecard.Noop{}.UpdateScoreCard(context.Background(), "p", "1.0.0"))
}
