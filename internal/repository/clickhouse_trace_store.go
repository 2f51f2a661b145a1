package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"TradeForge/internal/domain/models"
	"TradeForge/internal/domain/repository"
)

const (
	traceTable = "decision_traces"
	tradeTable = "paper_trades"
)

var traceSchema = []string{
	`CREATE TABLE IF NOT EXISTS ` + traceTable + ` (
		decision_id String,
		symbol LowCardinality(String),
		observed_price Float64,
		direction LowCardinality(String),
		confidence Float64,
		rationale String,
		policy LowCardinality(String),
		votes String,
		executed UInt8,
		reason String,
		threshold Float64,
		trade_id String,
		cycle_id String,
		computed_at DateTime64(3)
	) ENGINE = MergeTree()
	ORDER BY (symbol, computed_at)`,
	`CREATE TABLE IF NOT EXISTS ` + tradeTable + ` (
		trade_id String,
		decision_id String,
		symbol LowCardinality(String),
		action LowCardinality(String),
		amount String,
		price String,
		gross_value String,
		fee String,
		net_value String,
		realized_pnl String,
		closed UInt8,
		reason String,
		executed_at DateTime64(3)
	) ENGINE = MergeTree()
	ORDER BY (symbol, executed_at)`,
}

// ClickHouseTraceStore persists decision traces and trade records to
// ClickHouse. Monetary fields round-trip through String columns so decimal
// amounts come back exactly as written. Votes are stored as a JSON blob;
// stats and agreement queries decode them and fold in-process.
type ClickHouseTraceStore struct {
	db *sql.DB
}

func NewClickHouseTraceStore(db *sql.DB) *ClickHouseTraceStore {
	return &ClickHouseTraceStore{db: db}
}

func (s *ClickHouseTraceStore) Init(ctx context.Context) error {
	for _, stmt := range traceSchema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("trace schema: %w", err)
		}
	}
	return nil
}

func (s *ClickHouseTraceStore) AppendTrace(ctx context.Context, tr *models.DecisionTrace) error {
	votes, err := json.Marshal(tr.Decision.Votes)
	if err != nil {
		return fmt.Errorf("encode votes: %w", err)
	}
	q := `INSERT INTO ` + traceTable + ` (decision_id, symbol, observed_price, direction, confidence, rationale, policy, votes, executed, reason, threshold, trade_id, cycle_id, computed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = s.db.ExecContext(ctx, q,
		tr.Decision.ID,
		tr.Decision.Symbol,
		tr.Decision.ObservedPrice,
		string(tr.Decision.Direction),
		tr.Decision.Confidence,
		tr.Decision.Rationale,
		string(tr.Decision.Policy),
		string(votes),
		boolToUInt8(tr.Executed),
		tr.Reason,
		tr.Threshold,
		tr.TradeID,
		tr.CycleID,
		tr.Decision.ComputedAt,
	)
	return err
}

func (s *ClickHouseTraceStore) AppendTrade(ctx context.Context, rec *models.TradeRecord) error {
	var n uint64
	row := s.db.QueryRowContext(ctx,
		`SELECT count() FROM `+traceTable+` WHERE decision_id = ?`, rec.DecisionID)
	if err := row.Scan(&n); err != nil {
		return fmt.Errorf("check decision reference: %w", err)
	}
	if n == 0 {
		return &models.ReferentialIntegrityError{DecisionID: rec.DecisionID, TradeID: rec.ID}
	}

	q := `INSERT INTO ` + tradeTable + ` (trade_id, decision_id, symbol, action, amount, price, gross_value, fee, net_value, realized_pnl, closed, reason, executed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, q,
		rec.ID,
		rec.DecisionID,
		rec.Symbol,
		string(rec.Action),
		rec.Amount.String(),
		rec.Price.String(),
		rec.GrossValue.String(),
		rec.Fee.String(),
		rec.NetValue.String(),
		rec.RealizedPnL.String(),
		boolToUInt8(rec.Closed),
		rec.Reason,
		rec.ExecutedAt,
	)
	return err
}

const traceColumns = `decision_id, symbol, observed_price, direction, confidence, rationale, policy, votes, executed, reason, threshold, trade_id, cycle_id, computed_at`

func (s *ClickHouseTraceStore) LatestDecision(ctx context.Context, symbol string) (*models.DecisionTrace, error) {
	q := `SELECT ` + traceColumns + ` FROM ` + traceTable + ` WHERE symbol = ? ORDER BY computed_at DESC LIMIT 1`
	rows, err := s.db.QueryContext(ctx, q, symbol)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, repository.ErrNotFound
	}
	tr, err := scanTrace(rows)
	if err != nil {
		return nil, err
	}
	return &tr, nil
}

func (s *ClickHouseTraceStore) History(ctx context.Context, symbol string, from, to time.Time, limit int) ([]models.DecisionTrace, error) {
	if limit <= 0 {
		limit = 100
	}
	if to.IsZero() {
		to = time.Now().UTC()
	}
	q := `SELECT ` + traceColumns + ` FROM ` + traceTable + ` WHERE symbol = ? AND computed_at >= ? AND computed_at <= ? ORDER BY computed_at DESC LIMIT ?`
	rows, err := s.db.QueryContext(ctx, q, symbol, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.DecisionTrace
	for rows.Next() {
		tr, err := scanTrace(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tr)
	}
	return out, rows.Err()
}

func (s *ClickHouseTraceStore) Trades(ctx context.Context, symbol string, limit int) ([]models.TradeRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	q := `SELECT trade_id, decision_id, symbol, action, amount, price, gross_value, fee, net_value, realized_pnl, closed, reason, executed_at FROM ` + tradeTable
	args := []interface{}{}
	if symbol != "" {
		q += ` WHERE symbol = ?`
		args = append(args, symbol)
	}
	q += ` ORDER BY executed_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.TradeRecord
	for rows.Next() {
		var (
			rec                                         models.TradeRecord
			action                                      string
			amount, price, gross, fee, net, realizedPnL string
			closed                                      uint8
		)
		if err := rows.Scan(&rec.ID, &rec.DecisionID, &rec.Symbol, &action,
			&amount, &price, &gross, &fee, &net, &realizedPnL,
			&closed, &rec.Reason, &rec.ExecutedAt); err != nil {
			return nil, err
		}
		rec.Action = models.Direction(action)
		rec.Closed = closed != 0
		if rec.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("decode amount: %w", err)
		}
		if rec.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("decode price: %w", err)
		}
		if rec.GrossValue, err = decimal.NewFromString(gross); err != nil {
			return nil, fmt.Errorf("decode gross value: %w", err)
		}
		if rec.Fee, err = decimal.NewFromString(fee); err != nil {
			return nil, fmt.Errorf("decode fee: %w", err)
		}
		if rec.NetValue, err = decimal.NewFromString(net); err != nil {
			return nil, fmt.Errorf("decode net value: %w", err)
		}
		if rec.RealizedPnL, err = decimal.NewFromString(realizedPnL); err != nil {
			return nil, fmt.Errorf("decode realized pnl: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *ClickHouseTraceStore) StrategyStats(ctx context.Context, lookback time.Duration) (map[string]models.StrategyStats, error) {
	traces, err := s.loadWindow(ctx, lookback)
	if err != nil {
		return nil, err
	}
	return computeStrategyStats(traces), nil
}

func (s *ClickHouseTraceStore) Agreement(ctx context.Context, lookback time.Duration) (models.AgreementMatrix, error) {
	traces, err := s.loadWindow(ctx, lookback)
	if err != nil {
		return nil, err
	}
	return computeAgreement(traces), nil
}

func (s *ClickHouseTraceStore) loadWindow(ctx context.Context, lookback time.Duration) ([]models.DecisionTrace, error) {
	if lookback <= 0 {
		lookback = 24 * time.Hour
	}
	cutoff := time.Now().UTC().Add(-lookback)
	q := `SELECT ` + traceColumns + ` FROM ` + traceTable + ` WHERE computed_at >= ? ORDER BY computed_at DESC LIMIT 10000`
	rows, err := s.db.QueryContext(ctx, q, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.DecisionTrace
	for rows.Next() {
		tr, err := scanTrace(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tr)
	}
	return out, rows.Err()
}

func scanTrace(rows *sql.Rows) (models.DecisionTrace, error) {
	var (
		tr                          models.DecisionTrace
		direction, policy, rawVotes string
		executed                    uint8
	)
	if err := rows.Scan(
		&tr.Decision.ID,
		&tr.Decision.Symbol,
		&tr.Decision.ObservedPrice,
		&direction,
		&tr.Decision.Confidence,
		&tr.Decision.Rationale,
		&policy,
		&rawVotes,
		&executed,
		&tr.Reason,
		&tr.Threshold,
		&tr.TradeID,
		&tr.CycleID,
		&tr.Decision.ComputedAt,
	); err != nil {
		return tr, err
	}
	tr.Decision.Direction = models.Direction(direction)
	tr.Decision.Policy = models.Policy(policy)
	tr.Executed = executed != 0
	if rawVotes != "" && rawVotes != "null" {
		if err := json.Unmarshal([]byte(rawVotes), &tr.Decision.Votes); err != nil {
			return tr, fmt.Errorf("decode votes: %w", err)
		}
	}
	return tr, nil
}

func (s *ClickHouseTraceStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close is a no-op; the connection pool is owned by pkg/clickhouse.
func (s *ClickHouseTraceStore) Close() error { return nil }

func boolToUInt8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
