package repository

import (
	"database/sql"
	"errors"

	"autoescuela/internal/db"
)

type UserRepository interface {
	GetByEmail(email string) (*db.User, error)
	GetByID(id int) (*db.User, error)
	Create(user *db.User) error
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(database *sql.DB) UserRepository {
	return &userRepository{db: database}
}

func (r *userRepository) GetByEmail(email string) (*db.User, error) {
	var u db.User
	err := r.db.QueryRow(`
		SELECT id, role, first_name, last_name, email, phone, password_hash, created_at
		FROM users WHERE email = $1`, email).
		Scan(&u.ID, &u.Role, &u.FirstName, &u.LastName, &u.Email, &u.Phone, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) GetByID(id int) (*db.User, error) {
	var u db.User
	err := r.db.QueryRow(`
		SELECT id, role, first_name, last_name, email, phone, password_hash, created_at
		FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Role, &u.FirstName, &u.LastName, &u.Email, &u.Phone, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) Create(user *db.User) error {
	return r.db.QueryRow(`
		INSERT INTO users (role, first_name, last_name, email, phone, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		user.Role, user.FirstName, user.LastName, user.Email, user.Phone, user.PasswordHash).
		Scan(&user.ID, &user.CreatedAt)
}
