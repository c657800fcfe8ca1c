package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/hfiuc/uc-reservation-api/internal/models"
)

// AdminRepository persists staff identities.
type AdminRepository struct {
	db *sqlx.DB
}

// NewAdminRepository constructs the repository.
func NewAdminRepository(db *sqlx.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

// Create inserts an admin.
func (r *AdminRepository) Create(ctx context.Context, admin *models.Admin) error {
	const query = `INSERT INTO admins (name, email, password_hash) VALUES ($1, $2, $3) RETURNING id, created_at`
	row := ext(ctx, r.db).QueryRowxContext(ctx, query, admin.Name, admin.Email, admin.PasswordHash)
	if err := row.Scan(&admin.ID, &admin.CreatedAt); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	return nil
}

// GetByID fetches an admin by identifier.
func (r *AdminRepository) GetByID(ctx context.Context, id int64) (*models.Admin, error) {
	const query = `SELECT id, name, email, password_hash, created_at FROM admins WHERE id = $1`
	var admin models.Admin
	if err := sqlx.GetContext(ctx, ext(ctx, r.db), &admin, query, id); err != nil {
		return nil, err
	}
	return &admin, nil
}

// GetByEmail fetches an admin by email; sql.ErrNoRows passes through so the
// caller can distinguish an unknown identity.
func (r *AdminRepository) GetByEmail(ctx context.Context, email string) (*models.Admin, error) {
	const query = `SELECT id, name, email, password_hash, created_at FROM admins WHERE email = $1`
	var admin models.Admin
	if err := sqlx.GetContext(ctx, ext(ctx, r.db), &admin, query, email); err != nil {
		return nil, err
	}
	return &admin, nil
}

// List returns every admin ordered by id.
func (r *AdminRepository) List(ctx context.Context) ([]models.Admin, error) {
	admins := []models.Admin{}
	const query = `SELECT id, name, email, password_hash, created_at FROM admins ORDER BY id`
	if err := sqlx.SelectContext(ctx, ext(ctx, r.db), &admins, query); err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	return admins, nil
}

// Update rewrites name and password hash. Returns rows affected.
func (r *AdminRepository) Update(ctx context.Context, admin *models.Admin) (int64, error) {
	const query = `UPDATE admins SET name = $1, password_hash = $2 WHERE id = $3`
	result, err := ext(ctx, r.db).ExecContext(ctx, query, admin.Name, admin.PasswordHash, admin.ID)
	if err != nil {
		return 0, fmt.Errorf("update admin: %w", err)
	}
	return result.RowsAffected()
}

// Delete removes an admin; approver grants follow via cascade.
func (r *AdminRepository) Delete(ctx context.Context, id int64) (int64, error) {
	result, err := ext(ctx, r.db).ExecContext(ctx, `DELETE FROM admins WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("delete admin: %w", err)
	}
	return result.RowsAffected()
}
