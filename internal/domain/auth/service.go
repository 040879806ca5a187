package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Roles with write access to payroll configuration and runs.
const (
	RoleAdmin        = "admin"
	RolePayrollAdmin = "payroll_admin"
	RoleEmployee     = "employee"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

type Service struct {
	DB *pgxpool.Pool
}

func NewService(db *pgxpool.Pool) *Service {
	return &Service{DB: db}
}

// User is the authenticated identity Authenticate returns.
type User struct {
	ID         string
	EmployeeID string
	Role       string
}

// Authenticate checks the credentials against the users table.
func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	var u User
	var employeeID *string
	var hash string
	err := s.DB.QueryRow(ctx, `
    SELECT id, employee_id, role, password_hash FROM users WHERE email = $1
  `, email).Scan(&u.ID, &employeeID, &u.Role, &hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, err
	}
	if err := CheckPassword(hash, password); err != nil {
		return User{}, ErrInvalidCredentials
	}
	if employeeID != nil {
		u.EmployeeID = *employeeID
	}
	return u, nil
}

// CanManagePayroll reports whether the role may mutate payroll state or
// trigger runs.
func CanManagePayroll(role string) bool {
	return role == RoleAdmin || role == RolePayrollAdmin
}
