package repository

import (
	"context"
	"database/sql"

	"guestbook/pkg/models"
)

// GuestbookRepository is the row store: rows come back in insertion order
// and are deleted by their id column, never by position.
type GuestbookRepository interface {
	List(ctx context.Context) ([]models.Row, error)
	Insert(ctx context.Context, row models.Row) error
	DeleteByID(ctx context.Context, id string) (bool, error)
}

type guestbookRepository struct {
	db *sql.DB
}

func NewGuestbookRepository(db *sql.DB) GuestbookRepository {
	return &guestbookRepository{db: db}
}

func (r *guestbookRepository) List(ctx context.Context) ([]models.Row, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, message, date, oc, reply_to
		FROM guestbook_entries
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lista := []models.Row{}
	for rows.Next() {
		var row models.Row
		if err := rows.Scan(&row.ID, &row.Name, &row.Message, &row.Date, &row.OC, &row.ReplyTo); err != nil {
			continue
		}
		lista = append(lista, row)
	}
	return lista, rows.Err()
}

func (r *guestbookRepository) Insert(ctx context.Context, row models.Row) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO guestbook_entries (id, name, message, date, oc, reply_to)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, row.ID, row.Name, row.Message, row.Date, row.OC, row.ReplyTo)
	return err
}

func (r *guestbookRepository) DeleteByID(ctx context.Context, id string) (bool, error) {
	var deleted string
	err := r.db.QueryRowContext(ctx, `
		DELETE FROM guestbook_entries WHERE id = $1
		RETURNING id
	`, id).Scan(&deleted)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
