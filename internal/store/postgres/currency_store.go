package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/glynfinck/trading/internal/domain"
)

// CurrencyStore implements domain.CurrencyStore using PostgreSQL.
type CurrencyStore struct {
	pool *pgxpool.Pool
}

// NewCurrencyStore creates a CurrencyStore backed by the given pool.
func NewCurrencyStore(pool *pgxpool.Pool) *CurrencyStore {
	return &CurrencyStore{pool: pool}
}

// List returns every currency record, ordered by id.
func (s *CurrencyStore) List(ctx context.Context) ([]domain.CurrencyRecord, error) {
	const query = `
		SELECT currency, name, altname, bname
		FROM currencies
		ORDER BY currency`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: list currencies: %w", err)
	}
	defer rows.Close()

	var records []domain.CurrencyRecord
	for rows.Next() {
		var rec domain.CurrencyRecord
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.AltName, &rec.DisplayName); err != nil {
			return nil, fmt.Errorf("postgres: scan currency: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate currencies: %w", err)
	}
	return records, nil
}
