// Package database provides document persistence for the catalog collections.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	catalogerrors "github.com/amaumene/gocatalog/internal/errors"
	"github.com/amaumene/gocatalog/internal/models"
	"github.com/amaumene/gocatalog/pkg/logger"
)

const (
	DriverBolt     = "bolt"
	DriverPostgres = "postgres"
)

// Store defines the persistence operations behind the REST API.
type Store interface {
	// Find returns one page of matching documents and the total match count
	Find(ctx context.Context, collection models.Collection, q models.Query) ([]models.Entry, int, error)
	// Get returns a document by documentId or ErrNotFound
	Get(ctx context.Context, collection models.Collection, documentID string) (models.Entry, error)
	// Create validates e, enforces unique keys and relations, and assigns its id, documentId and timestamps
	Create(ctx context.Context, e models.Entry) (models.Entry, error)
	// Update replaces the attributes of an existing document with those of e
	Update(ctx context.Context, documentID string, e models.Entry) (models.Entry, error)
	// Delete removes a document and the association records that reference it
	Delete(ctx context.Context, collection models.Collection, documentID string) (models.Entry, error)
	// DeleteAll empties a collection and returns how many documents were removed
	DeleteAll(ctx context.Context, collection models.Collection) (int, error)
	// Close closes the database connection
	Close() error
}

// Options selects and configures a Store backend.
type Options struct {
	Driver      string
	Path        string
	PostgresDSN string
}

// Open returns the Store for opts.Driver.
func Open(opts Options, log logger.Logger) (Store, error) {
	switch opts.Driver {
	case "", DriverBolt:
		return NewBolt(opts.Path, log)
	case DriverPostgres:
		return NewGorm(opts.PostgresDSN, log)
	}
	return nil, catalogerrors.NewConfigurationError(fmt.Sprintf("unknown database driver %q", opts.Driver), nil)
}

func newDocumentID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate documentId: %w", err)
	}
	return id.String(), nil
}

// prepare runs derivation and validation ahead of any write.
func prepare(e models.Entry) error {
	if e == nil {
		return catalogerrors.NewValidationError("data", "missing document")
	}
	e.Prepare()
	return e.Validate()
}

// stampNew fills the store-assigned attributes of a new document.
func stampNew(e models.Entry, id uint, documentID string, now time.Time) {
	meta := e.Base()
	meta.ID = id
	meta.DocumentID = documentID
	meta.CreatedAt = now
	meta.UpdatedAt = now
	published := now
	meta.PublishedAt = &published
}

// carryOver keeps the identity of prev on its replacement next.
func carryOver(next, prev models.Entry, now time.Time) {
	nm, pm := next.Base(), prev.Base()
	nm.ID = pm.ID
	nm.DocumentID = pm.DocumentID
	nm.CreatedAt = pm.CreatedAt
	nm.PublishedAt = pm.PublishedAt
	nm.UpdatedAt = now
}

// referencing lists the association collections with a relation to target, and the relation field.
func referencing(target models.Collection) map[models.Collection]string {
	refs := map[models.Collection]string{}
	for _, c := range models.Collections() {
		for field, t := range c.RelationFields() {
			if t == target {
				refs[c] = field
			}
		}
	}
	return refs
}

func missingRelation(r models.Relation) error {
	return catalogerrors.NewValidationError(r.Field, fmt.Sprintf("%s %s does not exist", r.Target, r.DocumentID))
}

func checkContext(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	return ctx.Err()
}
