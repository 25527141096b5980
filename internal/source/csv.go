package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/rollstitch/backend/internal/contracts"
	"github.com/wonny/rollstitch/backend/internal/dates"
	"github.com/wonny/rollstitch/backend/pkg/logger"
)

// CSVSource reads per-contract bars from <dir>/<instrument>/<YYYYMM00>.csv
// ⭐ SSOT: S0 CSV 월물 가격 로드
type CSVSource struct {
	dir string
	log *logger.Logger
}

var _ contracts.ContractPriceSource = (*CSVSource)(nil)

// NewCSVSource creates a new CSV contract price source
func NewCSVSource(dir string, log *logger.Logger) *CSVSource {
	if log == nil {
		log = logger.Nop()
	}
	return &CSVSource{dir: dir, log: log}
}

// ListInstruments returns the instrument directories under dir
func (s *CSVSource) ListInstruments(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read price dir: %w", err)
	}

	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

// LoadContractPrices reads every contract file of instrument. A missing
// instrument directory yields an empty map and no error.
func (s *CSVSource) LoadContractPrices(ctx context.Context, instrument string) (contracts.ContractPrices, error) {
	dir := filepath.Join(s.dir, instrument)
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return contracts.ContractPrices{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read instrument dir: %w", err)
	}

	prices := make(contracts.ContractPrices)
	sanitized := 0
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}

		id, err := contracts.ParseContractID(strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())))
		if err != nil {
			s.log.WithField("file", e.Name()).Debug("Skipping non-contract file")
			continue
		}

		series, err := s.readFile(filepath.Join(dir, e.Name()), id)
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
	}).Debug("Contract prices loaded")

	return prices, nil
}

func (s *CSVSource) readFile(path string, id contracts.ContractID) (*contracts.ContractPriceSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	bars, err := ReadBars(f)
	if err != nil {
		return nil, err
	}
	return contracts.NewContractPriceSeries(id, bars)
}

// ReadBars parses a bar CSV with a header row. The date column may be named
// DATETIME, DATE or INDEX; OPEN/HIGH/LOW default to CLOSE and VOLUME to 0
// when absent. Rows with an empty CLOSE are skipped.
func ReadBars(r io.Reader) ([]contracts.Bar, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToUpper(strings.TrimSpace(h))] = i
	}

	dateCol := -1
	for _, name := range []string{"DATETIME", "DATE", "INDEX"} {
		if i, ok := cols[name]; ok {
			dateCol = i
			break
		}
	}
	closeCol, ok := cols["CLOSE"]
	if dateCol < 0 || !ok {
		return nil, fmt.Errorf("header must contain a date column and CLOSE, got %v", header)
	}

	bars := make([]contracts.Bar, 0)
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		if strings.TrimSpace(record[closeCol]) == "" {
			continue
		}

		date, err := parseDate(record[dateCol])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		closePrice, err := strconv.ParseFloat(strings.TrimSpace(record[closeCol]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: close: %w", line, err)
		}

		bar := contracts.Bar{Date: date, Open: closePrice, High: closePrice, Low: closePrice, Close: closePrice}
		for name, dst := range map[string]*float64{"OPEN": &bar.Open, "HIGH": &bar.High, "LOW": &bar.Low, "VOLUME": &bar.Volume} {
			i, ok := cols[name]
			if !ok || strings.TrimSpace(record[i]) == "" {
				continue
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(record[i]), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: %s: %w", line, strings.ToLower(name), err)
			}
			*dst = v
		}

		bars = append(bars, bar)
	}

	return bars, nil
}

var dateLayouts = []string{dates.Layout, "2006-01-02 15:04:05", time.RFC3339, "20060102"}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return dates.Normalize(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}
