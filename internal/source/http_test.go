package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/rollstitch/backend/internal/contracts"
	"github.com/wonny/rollstitch/backend/internal/dates"
	"github.com/wonny/rollstitch/backend/pkg/config"
	"github.com/wonny/rollstitch/backend/pkg/httputil"
)

func newMirror(t *testing.T, files map[string]string) *HTTPSource {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	client := httputil.New(&config.Config{HTTP: config.HTTPConfig{Timeout: 5 * time.Second}}, nil)
	return NewHTTPSource(server.URL+"/futures/", client, nil)
}

func TestHTTPSource_LoadContractPrices(t *testing.T) {
	src := newMirror(t, map[string]string{
		"/futures/instruments.json":      `["NQ","ES"]`,
		"/futures/ES/contracts.json":     `["20240300","20240600","20240900","bogus"]`,
		"/futures/ES/20240300.csv":       "DATETIME,CLOSE,VOLUME\n2024-03-10,100,10\n2024-03-11,100,5\n",
		"/futures/ES/20240600.csv":       "DATE,CLOSE\n2024-03-11,103\n2024-03-12,104\n",
		"/futures/NQ/contracts.json":     `[]`,
		"/futures/broken/contracts.json": `{"not":"a list"}`,
	})
	ctx := context.Background()

	codes, err := src.ListInstruments(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"ES", "NQ"}, codes)

	// 20240900은 목록에만 있고 파일이 없음 → 건너뜀
	prices, err := src.LoadContractPrices(ctx, "ES")
	require.NoError(t, err)
	require.Len(t, prices, 2)

	jun := prices[contracts.MustParseContractID("20240600")]
	require.NotNil(t, jun)
	assert.True(t, jun.HasDate(dates.Day(2024, 3, 12)))

	empty, err := src.LoadContractPrices(ctx, "NQ")
	require.NoError(t, err)
	assert.Empty(t, empty)

	missing, err := src.LoadContractPrices(ctx, "CL")
	require.NoError(t, err)
	assert.Empty(t, missing)

	_, err = src.LoadContractPrices(ctx, "broken")
	assert.Error(t, err)
}

func TestHTTPSource_BadCSV(t *testing.T) {
	src := newMirror(t, map[string]string{
		"/futures/ES/contracts.json": `["20240300"]`,
		"/futures/ES/20240300.csv":   "DATETIME,OPEN\n2024-03-11,1\n",
	})

	_, err := src.LoadContractPrices(context.Background(), "ES")
	assert.Error(t, err)
}
