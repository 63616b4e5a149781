package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordTileRequest(t *testing.T) {
	before := testutil.ToFloat64(TileRequests.WithLabelValues("400"))
	RecordTileRequest(400)
	RecordTileRequest(400)
	assert.Equal(t, before+2, testutil.ToFloat64(TileRequests.WithLabelValues("400")))
}

func TestHandlerExposesCollectors(t *testing.T) {
	ObserveProduction(20 * time.Millisecond)

	srv := httptest.NewServer(Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "heattile_tile_production_seconds_bucket")
}
