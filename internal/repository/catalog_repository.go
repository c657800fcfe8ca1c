package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/hfiuc/uc-reservation-api/internal/models"
)

// CatalogRepository persists campuses, rooms and classes. Deleting a campus
// cascades to its rooms and classes at the schema level; reservations are
// never cascaded.
type CatalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository constructs the repository.
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// CreateCampus inserts a campus.
func (r *CatalogRepository) CreateCampus(ctx context.Context, campus *models.Campus) error {
	const query = `INSERT INTO campuses (name) VALUES ($1) RETURNING id, created_at`
	row := ext(ctx, r.db).QueryRowxContext(ctx, query, campus.Name)
	if err := row.Scan(&campus.ID, &campus.CreatedAt); err != nil {
		return fmt.Errorf("create campus: %w", err)
	}
	return nil
}

// ListCampuses returns every campus ordered by id.
func (r *CatalogRepository) ListCampuses(ctx context.Context) ([]models.Campus, error) {
	campuses := []models.Campus{}
	const query = `SELECT id, name, created_at FROM campuses ORDER BY id`
	if err := sqlx.SelectContext(ctx, ext(ctx, r.db), &campuses, query); err != nil {
		return nil, fmt.Errorf("list campuses: %w", err)
	}
	return campuses, nil
}

// UpdateCampus renames a campus. Returns rows affected.
func (r *CatalogRepository) UpdateCampus(ctx context.Context, id int64, name string) (int64, error) {
	result, err := ext(ctx, r.db).ExecContext(ctx, `UPDATE campuses SET name = $1 WHERE id = $2`, name, id)
	if err != nil {
		return 0, fmt.Errorf("update campus: %w", err)
	}
	return result.RowsAffected()
}

// DeleteCampus removes a campus; rooms and classes follow via cascade.
func (r *CatalogRepository) DeleteCampus(ctx context.Context, id int64) (int64, error) {
	result, err := ext(ctx, r.db).ExecContext(ctx, `DELETE FROM campuses WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("delete campus: %w", err)
	}
	return result.RowsAffected()
}

// CreateRoom inserts a room.
func (r *CatalogRepository) CreateRoom(ctx context.Context, room *models.Room) error {
	const query = `INSERT INTO rooms (name, campus_id, enabled) VALUES ($1, $2, $3) RETURNING id, created_at`
	row := ext(ctx, r.db).QueryRowxContext(ctx, query, room.Name, room.CampusID, room.Enabled)
	if err := row.Scan(&room.ID, &room.CreatedAt); err != nil {
		return fmt.Errorf("create room: %w", err)
	}
	return nil
}

// GetRoom fetches a room by identifier.
func (r *CatalogRepository) GetRoom(ctx context.Context, id int64) (*models.Room, error) {
	const query = `SELECT id, name, campus_id, enabled, created_at FROM rooms WHERE id = $1`
	var room models.Room
	if err := sqlx.GetContext(ctx, ext(ctx, r.db), &room, query, id); err != nil {
		return nil, err
	}
	return &room, nil
}

// LockRoom takes a row lock on the room for the duration of the enclosing
// transaction, serialising concurrent admissions into the same room.
func (r *CatalogRepository) LockRoom(ctx context.Context, id int64) error {
	var locked int64
	if err := sqlx.GetContext(ctx, ext(ctx, r.db), &locked, `SELECT id FROM rooms WHERE id = $1 FOR UPDATE`, id); err != nil {
		return err
	}
	return nil
}

// ListRooms returns rooms, optionally scoped to one campus.
func (r *CatalogRepository) ListRooms(ctx context.Context, campusID int64) ([]models.Room, error) {
	rooms := []models.Room{}
	if campusID != 0 {
		const query = `SELECT id, name, campus_id, enabled, created_at FROM rooms WHERE campus_id = $1 ORDER BY id`
		if err := sqlx.SelectContext(ctx, ext(ctx, r.db), &rooms, query, campusID); err != nil {
			return nil, fmt.Errorf("list rooms: %w", err)
		}
		return rooms, nil
	}
	const query = `SELECT id, name, campus_id, enabled, created_at FROM rooms ORDER BY id`
	if err := sqlx.SelectContext(ctx, ext(ctx, r.db), &rooms, query); err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}

// UpdateRoom updates name, campus and enabled flag. Returns rows affected.
func (r *CatalogRepository) UpdateRoom(ctx context.Context, room *models.Room) (int64, error) {
	const query = `UPDATE rooms SET name = $1, campus_id = $2, enabled = $3 WHERE id = $4`
	result, err := ext(ctx, r.db).ExecContext(ctx, query, room.Name, room.CampusID, room.Enabled, room.ID)
	if err != nil {
		return 0, fmt.Errorf("update room: %w", err)
	}
	return result.RowsAffected()
}

// DeleteRoom removes a room; policies and approver grants follow via cascade.
func (r *CatalogRepository) DeleteRoom(ctx context.Context, id int64) (int64, error) {
	result, err := ext(ctx, r.db).ExecContext(ctx, `DELETE FROM rooms WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("delete room: %w", err)
	}
	return result.RowsAffected()
}

// CreateClass inserts a class.
func (r *CatalogRepository) CreateClass(ctx context.Context, class *models.Class) error {
	const query = `INSERT INTO classes (name, campus_id) VALUES ($1, $2) RETURNING id, created_at`
	row := ext(ctx, r.db).QueryRowxContext(ctx, query, class.Name, class.CampusID)
	if err := row.Scan(&class.ID, &class.CreatedAt); err != nil {
		return fmt.Errorf("create class: %w", err)
	}
	return nil
}

// GetClass fetches a class by identifier.
func (r *CatalogRepository) GetClass(ctx context.Context, id int64) (*models.Class, error) {
	const query = `SELECT id, name, campus_id, created_at FROM classes WHERE id = $1`
	var class models.Class
	if err := sqlx.GetContext(ctx, ext(ctx, r.db), &class, query, id); err != nil {
		return nil, err
	}
	return &class, nil
}

// ListClasses returns classes, optionally scoped to one campus.
func (r *CatalogRepository) ListClasses(ctx context.Context, campusID int64) ([]models.Class, error) {
	classes := []models.Class{}
	if campusID != 0 {
		const query = `SELECT id, name, campus_id, created_at FROM classes WHERE campus_id = $1 ORDER BY id`
		if err := sqlx.SelectContext(ctx, ext(ctx, r.db), &classes, query, campusID); err != nil {
			return nil, fmt.Errorf("list classes: %w", err)
		}
		return classes, nil
	}
	const query = `SELECT id, name, campus_id, created_at FROM classes ORDER BY id`
	if err := sqlx.SelectContext(ctx, ext(ctx, r.db), &classes, query); err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	return classes, nil
}

// UpdateClass updates name and campus. Returns rows affected.
func (r *CatalogRepository) UpdateClass(ctx context.Context, class *models.Class) (int64, error) {
	const query = `UPDATE classes SET name = $1, campus_id = $2 WHERE id = $3`
	result, err := ext(ctx, r.db).ExecContext(ctx, query, class.Name, class.CampusID, class.ID)
	if err != nil {
		return 0, fmt.Errorf("update class: %w", err)
	}
	return result.RowsAffected()
}

// DeleteClass removes a class.
func (r *CatalogRepository) DeleteClass(ctx context.Context, id int64) (int64, error) {
	result, err := ext(ctx, r.db).ExecContext(ctx, `DELETE FROM classes WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("delete class: %w", err)
	}
	return result.RowsAffected()
}
