package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/paseospeludos/backend/internal/models"
)

const paymentColumns = `id, walk_request_id, client_id, walker_id, method, status, amount, currency,
	distribution, is_promo, proof_url, proof_note, settled_at, version, created_at, updated_at`

const walkRequestColumns = `id, client_id, dog_ids, type, start_at, duration_mins, origin, notes,
	payment_method, is_promo, amount, pricing_snapshot, payment_id, status, created_at, updated_at`

const clarificationColumns = `id, walk_request_id, payment_id, client_id, walker_id, category, status,
	description, evidence_urls, created_by, resolved_at, created_at, updated_at`

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// queryer is satisfied by both *sql.DB and *sql.Tx
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) GetCashHours(ctx context.Context, clientID, weekStart string) (float64, error) {
	var hours float64
	err := s.db.QueryRowContext(ctx,
		`SELECT hours_booked_cash FROM weekly_cash_usage WHERE client_id = $1 AND week_start = $2`,
		clientID, weekStart,
	).Scan(&hours)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read cash usage: %w", err)
	}
	return hours, nil
}

func (s *PostgresStore) AddCashHours(ctx context.Context, clientID, weekStart string, hours float64) (float64, error) {
	var total float64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO weekly_cash_usage (client_id, week_start, hours_booked_cash, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (client_id, week_start) DO UPDATE
		SET hours_booked_cash = weekly_cash_usage.hours_booked_cash + EXCLUDED.hours_booked_cash,
			updated_at = NOW()
		RETURNING hours_booked_cash`,
		clientID, weekStart, hours,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to increment cash usage: %w", err)
	}
	return total, nil
}

// reserveCashHours increments usage only while the new total stays within
// the hold's limit. No returned row means the limit would be crossed.
func reserveCashHours(ctx context.Context, q queryer, hold models.CashHold) (float64, error) {
	if hold.Hours > hold.Limit {
		return 0, ErrCashLimitExceeded
	}

	var total float64
	err := q.QueryRowContext(ctx,
		`INSERT INTO weekly_cash_usage (client_id, week_start, hours_booked_cash, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (client_id, week_start) DO UPDATE
		SET hours_booked_cash = weekly_cash_usage.hours_booked_cash + EXCLUDED.hours_booked_cash,
			updated_at = NOW()
		WHERE weekly_cash_usage.hours_booked_cash + EXCLUDED.hours_booked_cash <= $4
		RETURNING hours_booked_cash`,
		hold.ClientID, hold.WeekStart, hold.Hours, hold.Limit,
	).Scan(&total)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrCashLimitExceeded
	}
	if err != nil {
		return 0, fmt.Errorf("failed to reserve cash hours: %w", err)
	}
	return total, nil
}

func (s *PostgresStore) CreateBooking(ctx context.Context, w BookingWrite) (float64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin booking transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertWalkRequest(ctx, tx, w.WalkRequest); err != nil {
		return 0, err
	}
	if err := insertPayment(ctx, tx, w.Payment); err != nil {
		return 0, err
	}

	var total float64
	if w.CashHold != nil {
		if total, err = reserveCashHours(ctx, tx, *w.CashHold); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit booking: %w", err)
	}
	return total, nil
}

func insertWalkRequest(ctx context.Context, q queryer, wr *models.WalkRequest) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO walk_requests (`+walkRequestColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		wr.ID, wr.ClientID, pq.Array(wr.DogIDs), wr.Type, wr.When.StartAt, wr.When.DurationMins,
		wr.Origin, wr.Notes, wr.PaymentMethod, wr.IsPromo, wr.Amount, wr.PricingSnapshot,
		wr.PaymentID, wr.Status, wr.CreatedAt, wr.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("walk request %s: %w", wr.ID, ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("failed to insert walk request: %w", err)
	}
	return nil
}

func insertPayment(ctx context.Context, q queryer, p *models.Payment) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO payments (`+paymentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		p.ID, p.WalkRequestID, p.ClientID, p.WalkerID, p.Method, p.Status, p.Amount, p.Currency,
		p.Distribution, p.IsPromo, p.ProofURL, p.ProofNote, p.SettledAt, p.Version, p.CreatedAt, p.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("payment %s: %w", p.ID, ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreatePayment(ctx context.Context, p *models.Payment) error {
	return insertPayment(ctx, s.db, p)
}

func (s *PostgresStore) GetPayment(ctx context.Context, id string) (*models.Payment, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id)
	p, err := scanPayment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) UpdatePayment(ctx context.Context, p *models.Payment, expectedVersion int) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE payments SET status = $1, walker_id = $2, proof_url = $3, proof_note = $4, settled_at = $5,
			version = version + 1, updated_at = $6
		WHERE id = $7 AND version = $8`,
		p.Status, p.WalkerID, p.ProofURL, p.ProofNote, p.SettledAt, p.UpdatedAt, p.ID, expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("payment %s: %w", p.ID, ErrVersionConflict)
	}

	p.Version = expectedVersion + 1
	return nil
}

func (s *PostgresStore) ListPayments(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, error) {
	var conditions []string
	var args []any
	if filter.Method != nil {
		args = append(args, *filter.Method)
		conditions = append(conditions, fmt.Sprintf("method = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	query := `SELECT ` + paymentColumns + ` FROM payments`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	payments := []models.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}

func scanPayment(row rowScanner) (*models.Payment, error) {
	var p models.Payment
	var walkRequestID, walkerID, proofURL, proofNote sql.NullString
	var settledAt sql.NullTime

	err := row.Scan(&p.ID, &walkRequestID, &p.ClientID, &walkerID, &p.Method, &p.Status, &p.Amount,
		&p.Currency, &p.Distribution, &p.IsPromo, &proofURL, &proofNote, &settledAt, &p.Version,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	p.WalkRequestID = nullableString(walkRequestID)
	p.WalkerID = nullableString(walkerID)
	p.ProofURL = nullableString(proofURL)
	p.ProofNote = nullableString(proofNote)
	if settledAt.Valid {
		p.SettledAt = &settledAt.Time
	}
	return &p, nil
}

func (s *PostgresStore) GetWalkRequest(ctx context.Context, id string) (*models.WalkRequest, error) {
	var wr models.WalkRequest
	var origin []byte

	err := s.db.QueryRowContext(ctx, `SELECT `+walkRequestColumns+` FROM walk_requests WHERE id = $1`, id).Scan(
		&wr.ID, &wr.ClientID, pq.Array(&wr.DogIDs), &wr.Type, &wr.When.StartAt, &wr.When.DurationMins,
		&origin, &wr.Notes, &wr.PaymentMethod, &wr.IsPromo, &wr.Amount, &wr.PricingSnapshot,
		&wr.PaymentID, &wr.Status, &wr.CreatedAt, &wr.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get walk request: %w", err)
	}

	if origin != nil {
		wr.Origin = &models.Origin{}
		if err := json.Unmarshal(origin, wr.Origin); err != nil {
			return nil, fmt.Errorf("failed to decode walk origin: %w", err)
		}
	}
	return &wr, nil
}

func (s *PostgresStore) CreateClarification(ctx context.Context, c *models.Clarification) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO clarifications (`+clarificationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		c.ID, c.WalkRequestID, c.PaymentID, c.ClientID, c.WalkerID, c.Category, c.Status,
		c.Description, pq.Array(c.EvidenceURLs), c.CreatedBy, c.ResolvedAt, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert clarification: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetClarification(ctx context.Context, id string) (*models.Clarification, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+clarificationColumns+` FROM clarifications WHERE id = $1`, id)
	c, err := scanClarification(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get clarification: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) ListClarifications(ctx context.Context, statuses []models.ClarificationStatus, limit int) ([]models.Clarification, error) {
	values := make([]string, len(statuses))
	for i, st := range statuses {
		values[i] = string(st)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+clarificationColumns+` FROM clarifications
		WHERE status = ANY($1) ORDER BY created_at DESC LIMIT $2`,
		pq.Array(values), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list clarifications: %w", err)
	}
	defer rows.Close()

	clarifications := []models.Clarification{}
	for rows.Next() {
		c, err := scanClarification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan clarification: %w", err)
		}
		clarifications = append(clarifications, *c)
	}
	return clarifications, rows.Err()
}

func (s *PostgresStore) UpdateClarificationStatus(ctx context.Context, id string, status models.ClarificationStatus, resolvedAt *time.Time, updatedAt time.Time) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE clarifications SET status = $1, resolved_at = $2, updated_at = $3 WHERE id = $4`,
		status, resolvedAt, updatedAt, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update clarification: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update clarification: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func scanClarification(row rowScanner) (*models.Clarification, error) {
	var c models.Clarification
	var walkRequestID, paymentID sql.NullString
	var resolvedAt sql.NullTime

	err := row.Scan(&c.ID, &walkRequestID, &paymentID, &c.ClientID, &c.WalkerID, &c.Category, &c.Status,
		&c.Description, pq.Array(&c.EvidenceURLs), &c.CreatedBy, &resolvedAt, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}

	c.WalkRequestID = nullableString(walkRequestID)
	c.PaymentID = nullableString(paymentID)
	if resolvedAt.Valid {
		c.ResolvedAt = &resolvedAt.Time
	}
	return &c, nil
}

func nullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}
