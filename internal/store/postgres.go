package store

import (
	"context"
	"fmt"
	"math"

	"github.com/jackc/pgx/v5"

	"github.com/wonny/rollstitch/backend/internal/contracts"
	"github.com/wonny/rollstitch/backend/internal/dates"
	"github.com/wonny/rollstitch/backend/pkg/database"
)

// PostgresStore implements the contract price repository and the series
// store on PostgreSQL. Saves replace an instrument's rows in one transaction.
// ⭐ SSOT: 선물 시계열 DB 저장소는 여기서만
type PostgresStore struct {
	db *database.DB
}

var (
	_ contracts.ContractPriceRepository = (*PostgresStore)(nil)
	_ contracts.SeriesStore             = (*PostgresStore)(nil)
)

// NewPostgresStore creates a new PostgreSQL store
func NewPostgresStore(db *database.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// ListInstruments returns every instrument with stored contract prices
func (s *PostgresStore) ListInstruments(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT instrument
		FROM futures.contract_prices
		ORDER BY instrument
	`

	rows, err := s.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list instruments: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		out = append(out, code)
	}
	return out, rows.Err()
}

// LoadContractPrices reads all contract bars of an instrument
func (s *PostgresStore) LoadContractPrices(ctx context.Context, instrument string) (contracts.ContractPrices, error) {
	query := `
		SELECT contract, trade_date, open_price, high_price, low_price, close_price, volume
		FROM futures.contract_prices
		WHERE instrument = $1
		ORDER BY contract, trade_date
	`

	rows, err := s.db.Pool.Query(ctx, query, instrument)
	if err != nil {
		return nil, fmt.Errorf("load contract prices %s: %w", instrument, err)
	}
	defer rows.Close()

	bars := make(map[contracts.ContractID][]contracts.Bar)
	for rows.Next() {
		var (
			code string
			b    contracts.Bar
		)
		if err := rows.Scan(&code, &b.Date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, err
		}
		id, err := contracts.ParseContractID(code)
		if err != nil {
			return nil, fmt.Errorf("instrument %s: %w", instrument, err)
		}
		bars[id] = append(bars[id], b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	prices := make(contracts.ContractPrices, len(bars))
	for id, bs := range bars {
		series, err := contracts.NewContractPriceSeries(id, bs)
		if err != nil {
			return nil, err
		}
		series.Sanitize()
		prices[id] = series
	}
	return prices, nil
}

// SaveContractPrices upserts the bars of one contract
func (s *PostgresStore) SaveContractPrices(ctx context.Context, instrument string, series *contracts.ContractPriceSeries) error {
	if series.Empty() {
		return nil
	}

	query := `
		INSERT INTO futures.contract_prices
			(instrument, contract, trade_date, open_price, high_price, low_price, close_price, volume)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (instrument, contract, trade_date) DO UPDATE SET
			open_price = EXCLUDED.open_price,
			high_price = EXCLUDED.high_price,
			low_price = EXCLUDED.low_price,
			close_price = EXCLUDED.close_price,
			volume = EXCLUDED.volume`

	batch := &pgx.Batch{}
	contract := series.Contract.String()
	for _, b := range series.Bars {
		batch.Queue(query, instrument, contract, b.Date, b.Open, b.High, b.Low, b.Close, b.Volume)
	}
	return s.sendBatch(ctx, s.db.Pool, batch)
}

// GetRollCalendar reads the stored roll schedule (empty when none)
func (s *PostgresStore) GetRollCalendar(ctx context.Context, instrument string) (*contracts.RollSchedule, error) {
	query := `
		SELECT roll_date, current_contract, next_contract, carry_contract
		FROM futures.roll_calendars
		WHERE instrument = $1
		ORDER BY roll_date
	`

	rows, err := s.db.Pool.Query(ctx, query, instrument)
	if err != nil {
		return nil, fmt.Errorf("get roll calendar %s: %w", instrument, err)
	}
	defer rows.Close()

	schedule := &contracts.RollSchedule{Events: []contracts.RollEvent{}}
	for rows.Next() {
		var e contracts.RollEvent
		var current, next, carry string
		if err := rows.Scan(&e.RollDate, &current, &next, &carry); err != nil {
			return nil, err
		}
		e.RollDate = dates.Normalize(e.RollDate)
		if e.Current, err = contracts.ParseContractID(current); err != nil {
			return nil, err
		}
		if e.Next, err = contracts.ParseContractID(next); err != nil {
			return nil, err
		}
		if e.Carry, err = contracts.ParseContractID(carry); err != nil {
			return nil, err
		}
		schedule.Events = append(schedule.Events, e)
	}
	return schedule, rows.Err()
}

// SaveRollCalendar replaces the stored roll schedule
func (s *PostgresStore) SaveRollCalendar(ctx context.Context, instrument string, schedule *contracts.RollSchedule) error {
	return s.db.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM futures.roll_calendars WHERE instrument = $1`, instrument); err != nil {
			return fmt.Errorf("clear roll calendar %s: %w", instrument, err)
		}

		query := `
			INSERT INTO futures.roll_calendars
				(instrument, roll_date, current_contract, next_contract, carry_contract)
			VALUES ($1, $2, $3, $4, $5)`

		batch := &pgx.Batch{}
		for _, e := range schedule.Events {
			batch.Queue(query, instrument, e.RollDate, e.Current.String(), e.Next.String(), e.Carry.String())
		}
		return s.sendBatch(ctx, tx, batch)
	})
}

// GetMultiplePrices reads the stored multiple price series (empty when none)
func (s *PostgresStore) GetMultiplePrices(ctx context.Context, instrument string) (*contracts.MultiplePriceSeries, error) {
	query := `
		SELECT trade_date, price, price_contract, forward, forward_contract, carry, carry_contract
		FROM futures.multiple_prices
		WHERE instrument = $1
		ORDER BY trade_date
	`

	rows, err := s.db.Pool.Query(ctx, query, instrument)
	if err != nil {
		return nil, fmt.Errorf("get multiple prices %s: %w", instrument, err)
	}
	defer rows.Close()

	series := &contracts.MultiplePriceSeries{Rows: []contracts.MultiplePriceRow{}}
	for rows.Next() {
		var (
			r                              contracts.MultiplePriceRow
			priceContract                  string
			forward, carry                 *float64
			forwardContract, carryContract *string
		)
		if err := rows.Scan(&r.Date, &r.Price, &priceContract, &forward, &forwardContract, &carry, &carryContract); err != nil {
			return nil, err
		}
		if r.PriceContract, err = contracts.ParseContractID(priceContract); err != nil {
			return nil, err
		}
		if r.ForwardContract, err = parseNullContract(forwardContract); err != nil {
			return nil, err
		}
		if r.CarryContract, err = parseNullContract(carryContract); err != nil {
			return nil, err
		}
		r.Date = dates.Normalize(r.Date)
		r.Forward = nullFloat(forward)
		r.Carry = nullFloat(carry)
		series.Rows = append(series.Rows, r)
	}
	return series, rows.Err()
}

// SaveMultiplePrices replaces the stored multiple price series
func (s *PostgresStore) SaveMultiplePrices(ctx context.Context, instrument string, series *contracts.MultiplePriceSeries) error {
	return s.db.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM futures.multiple_prices WHERE instrument = $1`, instrument); err != nil {
			return fmt.Errorf("clear multiple prices %s: %w", instrument, err)
		}

		query := `
			INSERT INTO futures.multiple_prices
				(instrument, trade_date, price, price_contract, forward, forward_contract, carry, carry_contract)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

		batch := &pgx.Batch{}
		for _, r := range series.Rows {
			batch.Queue(query, instrument, r.Date, r.Price, r.PriceContract.String(),
				floatOrNull(r.Forward), contractOrNull(r.ForwardContract),
				floatOrNull(r.Carry), contractOrNull(r.CarryContract))
		}
		return s.sendBatch(ctx, tx, batch)
	})
}

// GetAdjustedPrices reads the stored adjusted series (empty when none)
func (s *PostgresStore) GetAdjustedPrices(ctx context.Context, instrument string) (*contracts.AdjustedPriceSeries, error) {
	query := `
		SELECT trade_date, price
		FROM futures.adjusted_prices
		WHERE instrument = $1
		ORDER BY trade_date
	`

	rows, err := s.db.Pool.Query(ctx, query, instrument)
	if err != nil {
		return nil, fmt.Errorf("get adjusted prices %s: %w", instrument, err)
	}
	defer rows.Close()

	series := &contracts.AdjustedPriceSeries{Points: []contracts.AdjustedPoint{}}
	for rows.Next() {
		var p contracts.AdjustedPoint
		if err := rows.Scan(&p.Date, &p.Price); err != nil {
			return nil, err
		}
		p.Date = dates.Normalize(p.Date)
		series.Points = append(series.Points, p)
	}
	return series, rows.Err()
}

// SaveAdjustedPrices replaces the stored adjusted series
func (s *PostgresStore) SaveAdjustedPrices(ctx context.Context, instrument string, series *contracts.AdjustedPriceSeries) error {
	return s.db.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM futures.adjusted_prices WHERE instrument = $1`, instrument); err != nil {
			return fmt.Errorf("clear adjusted prices %s: %w", instrument, err)
		}

		query := `
			INSERT INTO futures.adjusted_prices (instrument, trade_date, price)
			VALUES ($1, $2, $3)`

		batch := &pgx.Batch{}
		for _, p := range series.Points {
			batch.Queue(query, instrument, p.Date, p.Price)
		}
		return s.sendBatch(ctx, tx, batch)
	})
}

// batchSender is satisfied by both the pool and a transaction
type batchSender interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

func (s *PostgresStore) sendBatch(ctx context.Context, sender batchSender, batch *pgx.Batch) error {
	if batch.Len() == 0 {
		return nil
	}

	br := sender.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// NULL 처리 헬퍼 (NaN <-> NULL, zero contract <-> NULL)

func floatOrNull(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func nullFloat(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

func contractOrNull(c contracts.ContractID) *string {
	if c.IsZero() {
		return nil
	}
	s := c.String()
	return &s
}

func parseNullContract(s *string) (contracts.ContractID, error) {
	if s == nil || *s == "" {
		return contracts.ContractID{}, nil
	}
	return contracts.ParseContractID(*s)
}
