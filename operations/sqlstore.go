package operations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/CorrelAid/contact_form_guard/models"
)

// CreateContactTable is the schema of the contact table.
const CreateContactTable = `CREATE TABLE IF NOT EXISTS contact (
	id         CHAR(26)     NOT NULL PRIMARY KEY,
	name       VARCHAR(255) NOT NULL,
	email      VARCHAR(255) NOT NULL,
	message    TEXT         NOT NULL,
	created_at DATETIME     NOT NULL
) DEFAULT CHARSET=utf8mb4`

// SQLStore keeps contacts in a MySQL table. Expiry is not persisted.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Migrate creates the contact table when it does not exist.
func (s *SQLStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, CreateContactTable); err != nil {
		return fmt.Errorf("create contact table: %w", err)
	}
	return nil
}

func (s *SQLStore) Insert(ctx context.Context, contact models.Contact) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO contact (id, name, email, message, created_at) VALUES (?, ?, ?, ?, ?)",
		contact.ID, contact.Name, contact.Email, contact.Message, contact.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert contact: %w", err)
	}
	return nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (models.Contact, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, name, email, message, created_at FROM contact WHERE id = ?", id)
	c, err := scanContact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Contact{}, ErrNotFound
	}
	if err != nil {
		return models.Contact{}, fmt.Errorf("get contact: %w", err)
	}
	return c, nil
}

func (s *SQLStore) List(ctx context.Context) ([]models.Contact, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, email, message, created_at FROM contact ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	var out []models.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("list contacts: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanContact(s scanner) (models.Contact, error) {
	var c models.Contact
	var created time.Time
	if err := s.Scan(&c.ID, &c.Name, &c.Email, &c.Message, &created); err != nil {
		return models.Contact{}, err
	}
	c.CreatedAt = created.UTC()
	return c, nil
}
