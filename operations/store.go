package operations

import (
	"context"
	"errors"
	"time"

	"github.com/CorrelAid/contact_form_guard/models"
	"github.com/oklog/ulid/v2"
)

// ErrNotFound is returned when no contact has the requested id.
var ErrNotFound = errors.New("contact not found")

// ContactStore persists contact messages.
type ContactStore interface {
	Insert(ctx context.Context, contact models.Contact) error
	Get(ctx context.Context, id string) (models.Contact, error)
	List(ctx context.Context) ([]models.Contact, error)
}

// NewContact stamps a validated contact with an id and its retention
// window.
func NewContact(c models.Contact, now time.Time, retention time.Duration) models.Contact {
	c.ID = ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String()
	c.CreatedAt = now.UTC()
	if retention > 0 {
		c.Expiry = c.CreatedAt.Add(retention)
	}
	return c
}
