package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/BradenHooton/drivewatch/internal/database"
	"github.com/BradenHooton/drivewatch/internal/models"
	"github.com/BradenHooton/drivewatch/pkg/auth"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AccountRepository reads and writes the company, admin and driver partitions.
type AccountRepository struct {
	db   *database.DB
	pool *pgxpool.Pool
}

func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{db: db, pool: db.Pool}
}

// rowScanner interface for scanning account rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAccountRow(scanner rowScanner) (*models.Account, error) {
	var account models.Account
	err := scanner.Scan(
		&account.ID, &account.Name, &account.Email, &account.CompanyID,
		&account.PasswordHash, &account.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &account, nil
}

func tableFor(role models.Role) (string, error) {
	switch role {
	case models.RoleCompany:
		return "companies", nil
	case models.RoleAdmin:
		return "admins", nil
	case models.RoleDriver:
		return "drivers", nil
	default:
		return "", fmt.Errorf("%w: %q", models.ErrUnknownRole, role)
	}
}

func selectAccountQuery(role models.Role) (string, error) {
	table, err := tableFor(role)
	if err != nil {
		return "", err
	}
	companyColumn := "company_id::text"
	if role == models.RoleCompany {
		companyColumn = "NULL::text"
	}
	return fmt.Sprintf(`
		SELECT id::text, name, email, %s, password_hash, created_at
		FROM %s
		WHERE email = $1
	`, companyColumn, table), nil
}

// GetByEmail looks up an account in one partition.
func (r *AccountRepository) GetByEmail(ctx context.Context, role models.Role, email string) (*models.Account, error) {
	query, err := selectAccountQuery(role)
	if err != nil {
		return nil, err
	}
	return scanAccountRow(r.pool.QueryRow(ctx, query, email))
}

// verify returns the account when the password matches, and nil, nil when the
// address is unknown in this partition or the password is wrong.
func (r *AccountRepository) verify(ctx context.Context, role models.Role, email, password string) (*models.Account, error) {
	account, err := r.GetByEmail(ctx, role, email)
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup %s account: %w", role, err)
	}

	if err := auth.ComparePassword(account.PasswordHash, password); err != nil {
		return nil, nil
	}
	return account, nil
}

func (r *AccountRepository) VerifyCompanyLogin(ctx context.Context, email, password string) (*models.Account, error) {
	return r.verify(ctx, models.RoleCompany, email, password)
}

func (r *AccountRepository) VerifyAdminLogin(ctx context.Context, email, password string) (*models.Account, error) {
	return r.verify(ctx, models.RoleAdmin, email, password)
}

func (r *AccountRepository) VerifyDriverLogin(ctx context.Context, email, password string) (*models.Account, error) {
	return r.verify(ctx, models.RoleDriver, email, password)
}

// Create inserts an account into the role's partition. The address must not be
// registered in any partition; company accounts must not name a company.
func (r *AccountRepository) Create(ctx context.Context, role models.Role, account *models.Account) error {
	table, err := tableFor(role)
	if err != nil {
		return err
	}
	if role == models.RoleCompany && account.CompanyID != nil {
		return fmt.Errorf("%w: company accounts cannot belong to a company", models.ErrBadRequest)
	}
	if role != models.RoleCompany && account.CompanyID == nil {
		return fmt.Errorf("%w: %s accounts require a company", models.ErrBadRequest, role)
	}

	if account.ID == "" {
		account.ID = uuid.New().String()
	}

	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		var taken bool
		err := tx.QueryRow(ctx, `
			SELECT EXISTS (SELECT 1 FROM companies WHERE email = $1)
			    OR EXISTS (SELECT 1 FROM admins WHERE email = $1)
			    OR EXISTS (SELECT 1 FROM drivers WHERE email = $1)
		`, account.Email).Scan(&taken)
		if err != nil {
			return database.MapPostgresError(err)
		}
		if taken {
			return fmt.Errorf("%w: email already registered", models.ErrConflict)
		}

		var row pgx.Row
		if role == models.RoleCompany {
			row = tx.QueryRow(ctx, `
				INSERT INTO companies (id, name, email, password_hash)
				VALUES ($1, $2, $3, $4)
				RETURNING created_at
			`, account.ID, account.Name, account.Email, account.PasswordHash)
		} else {
			row = tx.QueryRow(ctx, fmt.Sprintf(`
				INSERT INTO %s (id, company_id, name, email, password_hash)
				VALUES ($1, $2, $3, $4, $5)
				RETURNING created_at
			`, table), account.ID, *account.CompanyID, account.Name, account.Email, account.PasswordHash)
		}

		if err := row.Scan(&account.CreatedAt); err != nil {
			return database.MapPostgresError(err)
		}
		return nil
	})
}
