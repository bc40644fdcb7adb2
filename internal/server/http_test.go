package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MaciejGrzybacz/DistributedSystems/internal/codec"
	"github.com/MaciejGrzybacz/DistributedSystems/internal/config"
	"github.com/MaciejGrzybacz/DistributedSystems/internal/dispatch"
	"github.com/MaciejGrzybacz/DistributedSystems/internal/journal"
	"github.com/MaciejGrzybacz/DistributedSystems/internal/metrics"
)

func newTestHTTPServer(t *testing.T) (*HTTPServer, *UDPServer, *metrics.Metrics) {
	t.Helper()

	reg := prometheus.NewRegistry()
	m := metrics.NewMetricsWith(reg)

	j, err := journal.Open(filepath.Join(t.TempDir(), "messages.txt"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })

	udp := newTestServer(t, codec.DefaultEncoding, WithMetrics(m), WithJournal(j))

	classifier, err := dispatch.NewClassifier(nil)
	require.NoError(t, err)

	h := NewHTTPServer(HTTPServerConfig{Address: "127.0.0.1", Port: 0, Gatherer: reg},
		testLogger(), config.Default(), udp, classifier, j, m)
	return h, udp, m
}

func getJSON(t *testing.T, h http.Handler, path string) (int, map[string]interface{}) {
	t.Helper()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]interface{}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec.Code, body
}

func TestHTTPHealth(t *testing.T) {
	h, udp, _ := newTestHTTPServer(t)

	code, body := getJSON(t, h.Handler(), "/health")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", body["status"])

	components := body["components"].(map[string]interface{})
	udpStatus := components["udp_server"].(map[string]interface{})
	assert.Equal(t, udp.Addr().String(), udpStatus["address"])
	assert.Contains(t, components, "journal")
}

func TestHTTPStatsReflectTraffic(t *testing.T) {
	h, udp, _ := newTestHTTPServer(t)
	conn := dialServer(t, udp)

	_, ok := exchange(t, conn, []byte("Ping Python"))
	require.True(t, ok)
	_, ok = exchange(t, conn, []byte("nothing to see"))
	require.False(t, ok)

	code, body := getJSON(t, h.Handler(), "/stats")
	require.Equal(t, http.StatusOK, code)

	stats := body["udp"].(map[string]interface{})
	assert.Equal(t, 2.0, stats["datagrams_received"])
	assert.Equal(t, 1.0, stats["dropped"])
}

func TestHTTPConfigListsRules(t *testing.T) {
	h, _, _ := newTestHTTPServer(t)

	code, body := getJSON(t, h.Handler(), "/config")
	require.Equal(t, http.StatusOK, code)

	codecSection := body["codec"].(map[string]interface{})
	assert.Equal(t, "windows-1250", codecSection["encoding"])

	rules := body["dispatch"].(map[string]interface{})["rules"].([]interface{})
	require.Len(t, rules, 2)
	assert.Equal(t, "python", rules[0].(map[string]interface{})["keyword"])
	assert.Equal(t, "Pong Java", rules[1].(map[string]interface{})["reply"])
}

func TestHTTPRootAndNotFound(t *testing.T) {
	h, _, m := newTestHTTPServer(t)

	code, body := getJSON(t, h.Handler(), "/")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, ServiceName, body["service"])

	code, _ = getJSON(t, h.Handler(), "/nope")
	assert.Equal(t, http.StatusNotFound, code)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPErrors.WithLabelValues(http.MethodGet, "/", "client_error")))
}

func TestHTTPMethodNotAllowed(t *testing.T) {
	h, _, _ := newTestHTTPServer(t)

	rec := httptest.NewRecorder()
	h.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/stats", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHTTPMetricsEndpoint(t *testing.T) {
	h, udp, _ := newTestHTTPServer(t)
	conn := dialServer(t, udp)

	_, ok := exchange(t, conn, []byte("Ping Java"))
	require.True(t, ok)

	rec := httptest.NewRecorder()
	h.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pingpong_datagrams_received_total 1")
}
