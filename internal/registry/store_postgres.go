package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"domus/pkg/domain"
	"domus/pkg/platform/sentinel"
)

// Postgres persists apartment records in PostgreSQL. Execute uses a
// transaction with SELECT ... FOR UPDATE so the validate-then-mutate window
// is serialized per apartment by the database row lock, matching the
// in-memory store's per-record mutex.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// EnsureSchema creates the apartments table when it does not exist yet.
// Deployments with managed migrations can skip this.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS apartments (
			number          BIGINT PRIMARY KEY,
			owner_account   TEXT NOT NULL,
			for_rent        BOOLEAN NOT NULL DEFAULT FALSE,
			for_sale        BOOLEAN NOT NULL DEFAULT FALSE,
			rent_price      NUMERIC(20,0) NOT NULL DEFAULT 0,
			sale_price      NUMERIC(20,0) NOT NULL DEFAULT 0,
			tenant_account  TEXT NOT NULL DEFAULT '',
			rent_balance    NUMERIC(20,0) NOT NULL DEFAULT 0,
			rent_started_at TIMESTAMPTZ,
			created_at      TIMESTAMPTZ NOT NULL,
			updated_at      TIMESTAMPTZ NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("ensure apartments schema: %w", err)
	}
	return nil
}

const apartmentColumns = `number, owner_account, for_rent, for_sale, rent_price, sale_price,
	tenant_account, rent_balance, rent_started_at, created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, apartment *Apartment) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO apartments (`+apartmentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (number) DO NOTHING`,
		scanArgs(apartment)...)
	if err != nil {
		return fmt.Errorf("insert apartment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert apartment: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("apartment %s: %w", apartment.Number, sentinel.ErrConflict)
	}
	return nil
}

func (s *Postgres) FindByNumber(ctx context.Context, number domain.ApartmentNumber) (*Apartment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+apartmentColumns+` FROM apartments WHERE number = $1`, int64(number))
	return scanApartment(row, number)
}

func (s *Postgres) Execute(
	ctx context.Context,
	number domain.ApartmentNumber,
	validate func(*Apartment) error,
	mutate func(*Apartment),
) (*Apartment, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin apartment tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	row := tx.QueryRowContext(ctx,
		`SELECT `+apartmentColumns+` FROM apartments WHERE number = $1 FOR UPDATE`, int64(number))
	apartment, err := scanApartment(row, number)
	if err != nil {
		return nil, err
	}

	if err := validate(apartment); err != nil {
		return nil, err
	}
	mutate(apartment)
	if err := apartment.CheckInvariants(); err != nil {
		return nil, err
	}

	args := scanArgs(apartment)
	_, err = tx.ExecContext(ctx, `
		UPDATE apartments SET
			owner_account = $2, for_rent = $3, for_sale = $4, rent_price = $5,
			sale_price = $6, tenant_account = $7, rent_balance = $8,
			rent_started_at = $9, created_at = $10, updated_at = $11
		WHERE number = $1`, args...)
	if err != nil {
		return nil, fmt.Errorf("update apartment: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit apartment tx: %w", err)
	}
	return apartment, nil
}

// scanArgs flattens a record into column order, folding the optional
// agreement into the tenant/balance/started columns. Amounts travel as
// decimal strings into NUMERIC(20,0) columns: the full uint64 range does
// not fit a signed BIGINT.
func scanArgs(a *Apartment) []any {
	var (
		balance   domain.Amount
		startedAt sql.NullTime
	)
	if a.Agreement != nil {
		balance = a.Agreement.Balance
		startedAt = sql.NullTime{Time: a.Agreement.StartedAt, Valid: true}
	}
	return []any{
		int64(a.Number),
		a.Owner.String(),
		a.ForRent,
		a.ForSale,
		formatAmount(a.RentPrice),
		formatAmount(a.SalePrice),
		a.Tenant.String(),
		formatAmount(balance),
		startedAt,
		a.CreatedAt,
		a.UpdatedAt,
	}
}

func formatAmount(amount domain.Amount) string {
	return strconv.FormatUint(uint64(amount), 10)
}

func parseAmount(raw string) (domain.Amount, error) {
	parsed, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", raw, err)
	}
	return domain.Amount(parsed), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApartment(row rowScanner, number domain.ApartmentNumber) (*Apartment, error) {
	var (
		a         Apartment
		num       int64
		owner     string
		rentPrice string
		salePrice string
		tenant    string
		balance   string
		startedAt sql.NullTime
	)
	err := row.Scan(&num, &owner, &a.ForRent, &a.ForSale, &rentPrice, &salePrice,
		&tenant, &balance, &startedAt, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("apartment %s: %w", number, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("scan apartment: %w", err)
	}
	a.Number = domain.ApartmentNumber(num)
	a.Owner = domain.AccountID(owner)
	if a.RentPrice, err = parseAmount(rentPrice); err != nil {
		return nil, fmt.Errorf("scan apartment: %w", err)
	}
	if a.SalePrice, err = parseAmount(salePrice); err != nil {
		return nil, fmt.Errorf("scan apartment: %w", err)
	}
	a.Tenant = domain.AccountID(tenant)
	if !a.Tenant.IsZero() {
		started := time.Time{}
		if startedAt.Valid {
			started = startedAt.Time
		}
		escrow, err := parseAmount(balance)
		if err != nil {
			return nil, fmt.Errorf("scan apartment: %w", err)
		}
		a.Agreement = &RentalAgreement{
			Tenant:    a.Tenant,
			Balance:   escrow,
			StartedAt: started,
		}
	}
	return &a, nil
}
