package payroll

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the pgx-backed StoreAPI implementation.
type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

var _ StoreAPI = (*Store)(nil)

func periodArg(p Period) string {
	return p.String()
}

func periodPtrArg(p *Period) any {
	if p == nil {
		return nil
	}
	return p.String()
}

func scanPeriod(value string) (Period, error) {
	return ParsePeriod(value)
}

func scanPeriodPtr(value *string) (*Period, error) {
	if value == nil {
		return nil, nil
	}
	p, err := ParsePeriod(*value)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
