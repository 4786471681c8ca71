package operations

import (
	"context"
	"fmt"
	"time"

	"github.com/CorrelAid/contact_form_guard/models"
	"github.com/hashicorp/go-memdb"
)

const contactTable = "contact"

// MemStore keeps contacts in memory. Contacts with a zero expiry are kept
// until the process exits.
type MemStore struct {
	db *memdb.MemDB
}

func contactSchema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			contactTable: {
				Name: contactTable,
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:         "id",
						Unique:       true,
						Indexer:      &memdb.StringFieldIndex{Field: "ID"},
						AllowMissing: false,
					},
				},
			},
		},
	}
}

func NewMemStore() (*MemStore, error) {
	db, err := memdb.NewMemDB(contactSchema())
	if err != nil {
		return nil, fmt.Errorf("create contact table: %w", err)
	}
	return &MemStore{db: db}, nil
}

func (s *MemStore) Insert(_ context.Context, contact models.Contact) error {
	txn := s.db.Txn(true)
	defer txn.Abort()

	c := contact
	if err := txn.Insert(contactTable, &c); err != nil {
		return fmt.Errorf("insert contact: %w", err)
	}
	txn.Commit()
	return nil
}

func (s *MemStore) Get(_ context.Context, id string) (models.Contact, error) {
	txn := s.db.Txn(false)
	defer txn.Abort()

	obj, err := txn.First(contactTable, "id", id)
	if err != nil {
		return models.Contact{}, fmt.Errorf("get contact: %w", err)
	}
	if obj == nil {
		return models.Contact{}, ErrNotFound
	}
	return *obj.(*models.Contact), nil
}

// List returns every contact ordered by id, which is creation order.
func (s *MemStore) List(_ context.Context) ([]models.Contact, error) {
	txn := s.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(contactTable, "id")
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	var out []models.Contact
	for obj := it.Next(); obj != nil; obj = it.Next() {
		out = append(out, *obj.(*models.Contact))
	}
	return out, nil
}

// DeleteExpired removes contacts whose expiry is before now and returns
// how many were removed.
func (s *MemStore) DeleteExpired(now time.Time) (int, error) {
	txn := s.db.Txn(true)
	defer txn.Abort()

	it, err := txn.Get(contactTable, "id")
	if err != nil {
		return 0, fmt.Errorf("scan contacts: %w", err)
	}
	var expired []*models.Contact
	for obj := it.Next(); obj != nil; obj = it.Next() {
		c := obj.(*models.Contact)
		if !c.Expiry.IsZero() && c.Expiry.Before(now) {
			expired = append(expired, c)
		}
	}
	for _, c := range expired {
		if err := txn.Delete(contactTable, c); err != nil {
			return 0, fmt.Errorf("delete contact %s: %w", c.ID, err)
		}
	}
	txn.Commit()
	return len(expired), nil
}
