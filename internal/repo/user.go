package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/flight-booking/internal/domain"
)

// UserRepo reads the user accounts reservations are made for.
type UserRepo interface {
	// GetByID retrieves a user by primary key, including soft-deleted users.
	// Returns domain.ErrUserNotFound if no row exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.User, error)
}

// pgUserRepo is the Postgres implementation of UserRepo.
type pgUserRepo struct {
	db db
}

// NewUserRepo constructs a UserRepo backed by the provided db connection.
func NewUserRepo(db db) UserRepo {
	return &pgUserRepo{db: db}
}

func (r *pgUserRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	const q = `
		SELECT id, full_name, email, phone, is_active, is_deleted, created_at
		FROM users
		WHERE id = @id`

	var (
		u   domain.User
		uid pgtype.UUID
	)
	err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}).
		Scan(&uid, &u.FullName, &u.Email, &u.Phone, &u.IsActive, &u.IsDeleted, &u.CreatedAt)
	if err != nil {
		return domain.User{}, fmt.Errorf("repo.UserRepo.GetByID: %w", noRows(err, domain.ErrUserNotFound))
	}
	u.ID = fromPgUUID(uid)
	return u, nil
}
