package database

import (
	"context"
	"fmt"

	catalogerrors "github.com/amaumene/gocatalog/internal/errors"
	"github.com/amaumene/gocatalog/internal/models"
	"github.com/amaumene/gocatalog/pkg/logger"
)

// Local is an in-process import destination writing straight into a Store.
type Local struct {
	store  Store
	logger logger.Logger
	// OnWrite is called after every successful create, e.g. to invalidate a read cache.
	OnWrite func(collection models.Collection)
}

func NewLocal(store Store, log logger.Logger) *Local {
	if log == nil {
		log = logger.New()
	}
	return &Local{store: store, logger: log}
}

func (l *Local) Lookup(ctx context.Context, collection models.Collection, filters ...models.Filter) (models.Existence, error) {
	entries, _, err := l.store.Find(ctx, collection, models.Query{Filters: filters, PageSize: 1})
	if err != nil {
		return models.Existence{}, err
	}
	if len(entries) == 0 {
		return models.Absent(), nil
	}
	return models.Exists(entries[0].Base().DocumentID), nil
}

func (l *Local) CreateIfAbsent(ctx context.Context, collection models.Collection, key []models.Filter, payload models.Entry) (string, bool, error) {
	if payload.Collection() != collection {
		return "", false, fmt.Errorf("payload of %s sent to %s", payload.Collection(), collection)
	}
	created, err := l.store.Create(ctx, payload)
	if err == nil {
		if l.OnWrite != nil {
			l.OnWrite(collection)
		}
		return created.Base().DocumentID, true, nil
	}
	if !catalogerrors.IsConflict(err) || len(key) == 0 {
		return "", false, err
	}

	existing, lookupErr := l.Lookup(ctx, collection, key...)
	if lookupErr != nil {
		return "", false, fmt.Errorf("failed to resolve conflict in %s: %w", collection, lookupErr)
	}
	if existing.Found() {
		l.logger.Debugf("[Local] %s already present as %s", collection, existing.DocumentID)
		return existing.DocumentID, false, nil
	}
	return "", false, err
}
