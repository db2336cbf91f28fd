package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/qwfeng/ai-trip-planner-backend/internal/domain"
)

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepo(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, full_name, user_image_url, password_hash, password_salt, created_at, updated_at`

func (r *UserRepository) CreateEmailUser(ctx context.Context, email string, passwordHash, passwordSalt []byte) (*domain.User, error) {
	const query = `
		INSERT INTO user_account (email, password_hash, password_salt)
		VALUES ($1, $2, $3)
		RETURNING ` + userColumns

	var user domain.User
	if err := r.db.GetContext(ctx, &user, query, email, passwordHash, passwordSalt); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) UpsertGoogleUser(ctx context.Context, email string, fullName *string, imageURL *string) (*domain.User, error) {
	const query = `
		INSERT INTO user_account (email, full_name, user_image_url)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE SET
			full_name = COALESCE(EXCLUDED.full_name, user_account.full_name),
			user_image_url = COALESCE(EXCLUDED.user_image_url, user_account.user_image_url),
			updated_at = now()
		RETURNING ` + userColumns

	var user domain.User
	if err := r.db.GetContext(ctx, &user, query, email, fullName, imageURL); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM user_account WHERE email = $1`

	var user domain.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM user_account WHERE id = $1`

	var user domain.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, err
	}
	return &user, nil
}
