package repository

import (
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"golang.org/x/crypto/bcrypt"
)

// AdminAccount is a back-office login, separate from the profiles table.
type AdminAccount struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
}

type AdminAuthRepository interface {
	GetByEmail(email string) (*AdminAccount, error)
	CreateAccount(email, password string) error
}

type adminAuthRepository struct {
	db *sql.DB
}

func NewAdminAuthRepository(database *sql.DB) AdminAuthRepository {
	return &adminAuthRepository{db: database}
}

func (r *adminAuthRepository) GetByEmail(email string) (*AdminAccount, error) {
	var admin AdminAccount
	err := r.db.QueryRow("SELECT id, email, password_hash FROM admin_accounts WHERE lower(email) = lower($1)", email).
		Scan(&admin.ID, &admin.Email, &admin.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &admin, nil
}

func (r *adminAuthRepository) CreateAccount(email, password string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = r.db.Exec("INSERT INTO admin_accounts (id, email, password_hash) VALUES ($1, lower($2), $3)",
		uuid.New(), email, hashed)
	return err
}
