package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/wonny/rollstitch/backend/internal/contracts"
	"github.com/wonny/rollstitch/backend/pkg/httputil"
	"github.com/wonny/rollstitch/backend/pkg/logger"
)

// HTTPSource reads per-contract bars from a static HTTP mirror of the CSV
// layout:
//
//	GET <base>/instruments.json             → ["ES", "NQ"]
//	GET <base>/<instrument>/contracts.json  → ["20240300", "20240600"]
//	GET <base>/<instrument>/<YYYYMM00>.csv  → bar CSV (see ReadBars)
//
// ⭐ SSOT: S0 HTTP 월물 가격 로드
type HTTPSource struct {
	base   string
	client *httputil.Client
	log    *logger.Logger
}

var _ contracts.ContractPriceSource = (*HTTPSource)(nil)

// NewHTTPSource creates a new HTTP contract price source
func NewHTTPSource(base string, client *httputil.Client, log *logger.Logger) *HTTPSource {
	if log == nil {
		log = logger.Nop()
	}
	return &HTTPSource{
		base:   strings.TrimRight(base, "/"),
		client: client,
		log:    log,
	}
}

// ListInstruments returns the instruments published by the mirror
func (s *HTTPSource) ListInstruments(ctx context.Context) ([]string, error) {
	var codes []string
	if err := s.client.GetJSON(ctx, s.base+"/instruments.json", &codes); err != nil {
		return nil, fmt.Errorf("list instruments: %w", err)
	}
	sort.Strings(codes)
	return codes, nil
}

// LoadContractPrices downloads every contract of instrument. An instrument
// the mirror does not know yields an empty map and no error.
func (s *HTTPSource) LoadContractPrices(ctx context.Context, instrument string) (contracts.ContractPrices, error) {
	prefix := s.base + "/" + url.PathEscape(instrument)

	var ids []string
	err := s.client.GetJSON(ctx, prefix+"/contracts.json", &ids)
	if errors.Is(err, httputil.ErrNotFound) {
		return contracts.ContractPrices{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list contracts: %w", err)
	}

	prices := make(contracts.ContractPrices, len(ids))
	sanitized := 0
	for _, raw := range ids {
		id, err := contracts.ParseContractID(raw)
		if err != nil {
			s.log.WithField("contract", raw).Debug("Skipping invalid contract id")
			continue
		}

		body, err := s.client.GetBody(ctx, prefix+"/"+id.String()+".csv")
		if errors.Is(err, httputil.ErrNotFound) {
			s.log.WithInstrument(instrument).WithField("contract", id.String()).Warn("Listed contract has no file")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load %s/%s: %w", instrument, id, err)
		}

		bars, err := ReadBars(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("load %s/%s: %w", instrument, id, err)
		}
		series, err := contracts.NewContractPriceSeries(id, bars)
		if err != nil {
			return nil, fmt.Errorf("load %s/%s: %w", instrument, id, err)
		}
		sanitized += series.Sanitize()
		prices[id] = series
	}

	s.log.WithFields(map[string]interface{}{
		"instrument": instrument,
		"contracts":  len(prices),
		"sanitized":  sanitized,
	}).Debug("Contract prices downloaded")

	return prices, nil
}
