package store

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/iwvelando/loan-compare/internal/config"
)

// PostgresStore persists offers in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresStore.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	s := &PostgresStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS offers (
			name                TEXT PRIMARY KEY,
			rate                DOUBLE PRECISION NOT NULL,
			borrowed_share      DOUBLE PRECISION NOT NULL,
			loan_duration       INTEGER          NOT NULL,
			yearly_fees         DOUBLE PRECISION NOT NULL DEFAULT 0,
			with_fixed_rate     BOOLEAN          NOT NULL DEFAULT FALSE,
			fixed_rate          DOUBLE PRECISION,
			fixed_rate_duration INTEGER,
			with_offset_account BOOLEAN          NOT NULL DEFAULT FALSE,
			position            SERIAL
		);
	`)
	return err
}

// Put upserts an offer by name.
func (s *PostgresStore) Put(offer config.Offer) error {
	_, err := s.db.Exec(`
		INSERT INTO offers (name, rate, borrowed_share, loan_duration, yearly_fees,
			with_fixed_rate, fixed_rate, fixed_rate_duration, with_offset_account)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (name) DO UPDATE SET
			rate = EXCLUDED.rate,
			borrowed_share = EXCLUDED.borrowed_share,
			loan_duration = EXCLUDED.loan_duration,
			yearly_fees = EXCLUDED.yearly_fees,
			with_fixed_rate = EXCLUDED.with_fixed_rate,
			fixed_rate = EXCLUDED.fixed_rate,
			fixed_rate_duration = EXCLUDED.fixed_rate_duration,
			with_offset_account = EXCLUDED.with_offset_account
	`, offer.Name, offer.Rate, offer.BorrowedShare, offer.LoanDuration, offer.YearlyFees,
		offer.WithFixedRate, offer.FixedRate, offer.FixedRateDuration, offer.WithOffsetAccount)
	if err != nil {
		return fmt.Errorf("postgres: put offer %s: %w", offer.Name, err)
	}
	return nil
}

// Get returns the offer stored under name.
func (s *PostgresStore) Get(name string) (config.Offer, error) {
	row := s.db.QueryRow(`
		SELECT name, rate, borrowed_share, loan_duration, yearly_fees,
			with_fixed_rate, fixed_rate, fixed_rate_duration, with_offset_account
		FROM offers WHERE name = $1
	`, name)
	offer, err := scanOffer(row)
	if err == sql.ErrNoRows {
		return config.Offer{}, ErrNotFound
	}
	if err != nil {
		return config.Offer{}, fmt.Errorf("postgres: get offer %s: %w", name, err)
	}
	return offer, nil
}

// Delete removes the offer stored under name.
func (s *PostgresStore) Delete(name string) error {
	result, err := s.db.Exec(`DELETE FROM offers WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("postgres: delete offer %s: %w", name, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("postgres: delete offer %s: %w", name, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns all offers in insertion order.
func (s *PostgresStore) List() ([]config.Offer, error) {
	rows, err := s.db.Query(`
		SELECT name, rate, borrowed_share, loan_duration, yearly_fees,
			with_fixed_rate, fixed_rate, fixed_rate_duration, with_offset_account
		FROM offers ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list offers: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var offers []config.Offer
	for rows.Next() {
		offer, err := scanOffer(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan offer: %w", err)
		}
		offers = append(offers, offer)
	}
	return offers, rows.Err()
}

// Close closes the underlying database handle.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOffer(row rowScanner) (config.Offer, error) {
	var offer config.Offer
	err := row.Scan(&offer.Name, &offer.Rate, &offer.BorrowedShare, &offer.LoanDuration,
		&offer.YearlyFees, &offer.WithFixedRate, &offer.FixedRate, &offer.FixedRateDuration,
		&offer.WithOffsetAccount)
	return offer, err
}
