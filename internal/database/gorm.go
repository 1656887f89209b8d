package database

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	catalogerrors "github.com/amaumene/gocatalog/internal/errors"
	"github.com/amaumene/gocatalog/internal/models"
	"github.com/amaumene/gocatalog/pkg/logger"
)

var numericFields = map[string]bool{
	"id":           true,
	"tmdb_id":      true,
	"runtime":      true,
	"vote_average": true,
	"vote_count":   true,
	"gender":       true,
	"popularity":   true,
	"order_index":  true,
}

// GormDB implements Store on PostgreSQL, one table per collection.
type GormDB struct {
	db     *gorm.DB
	logger logger.Logger
	now    func() time.Time
}

// NewGorm connects to PostgreSQL and migrates the catalog tables.
func NewGorm(dsn string, log logger.Logger) (*GormDB, error) {
	if log == nil {
		log = logger.New()
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&models.Movie{}, &models.Actor{}, &models.Genre{}, &models.MovieGenre{}, &models.MovieActor{}); err != nil {
		return nil, fmt.Errorf("failed to migrate catalog tables: %w", err)
	}

	log.Info("[GormDB] database connected successfully")
	return &GormDB{db: db, logger: log, now: time.Now}, nil
}

func (g *GormDB) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (g *GormDB) Find(ctx context.Context, collection models.Collection, q models.Query) ([]models.Entry, int, error) {
	q = q.Normalize()
	tx := g.db.WithContext(ctx).Model(collection.New())

	tx, err := applyFilters(tx, collection, q.Filters)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count %s: %w", collection, err)
	}

	for _, s := range q.Sort {
		col, ok := columnFor(collection, s.Field)
		if !ok {
			return nil, 0, catalogerrors.NewValidationError("sort", fmt.Sprintf("unknown field %s", s.Field))
		}
		tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: col}, Desc: s.Desc})
	}
	tx = tx.Order("id").Offset(q.Offset()).Limit(q.PageSize)

	entries, err := findEntries(tx, collection)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find %s: %w", collection, err)
	}
	return entries, int(total), nil
}

func (g *GormDB) Get(ctx context.Context, collection models.Collection, documentID string) (models.Entry, error) {
	return getTx(g.db.WithContext(ctx), collection, documentID)
}

func (g *GormDB) Create(ctx context.Context, e models.Entry) (models.Entry, error) {
	if err := prepare(e); err != nil {
		return nil, err
	}
	documentID, err := newDocumentID()
	if err != nil {
		return nil, err
	}

	err = g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkRelationsTx(tx, e); err != nil {
			return err
		}
		if err := checkUniqueTx(tx, e, ""); err != nil {
			return err
		}
		stampNew(e, 0, documentID, g.now())
		return translate(e, tx.Create(e).Error)
	})
	if err != nil {
		return nil, err
	}
	g.logger.Debugf("[GormDB] created %s %s", e.Collection(), documentID)
	return e, nil
}

func (g *GormDB) Update(ctx context.Context, documentID string, e models.Entry) (models.Entry, error) {
	if err := prepare(e); err != nil {
		return nil, err
	}
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		prev, err := getTx(tx, e.Collection(), documentID)
		if err != nil {
			return err
		}
		if err := checkRelationsTx(tx, e); err != nil {
			return err
		}
		if err := checkUniqueTx(tx, e, documentID); err != nil {
			return err
		}
		carryOver(e, prev, g.now())
		return translate(e, tx.Save(e).Error)
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (g *GormDB) Delete(ctx context.Context, collection models.Collection, documentID string) (models.Entry, error) {
	var deleted models.Entry
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		e, err := getTx(tx, collection, documentID)
		if err != nil {
			return err
		}
		for assoc, field := range referencing(collection) {
			col, _ := columnFor(assoc, field)
			if err := tx.Where(col+" = ?", documentID).Delete(assoc.New()).Error; err != nil {
				return fmt.Errorf("failed to cascade to %s: %w", assoc, err)
			}
		}
		if err := tx.Delete(e).Error; err != nil {
			return err
		}
		deleted = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

func (g *GormDB) DeleteAll(ctx context.Context, collection models.Collection) (int, error) {
	var count int64
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		all := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		for assoc := range referencing(collection) {
			if err := all.Delete(assoc.New()).Error; err != nil {
				return fmt.Errorf("failed to cascade to %s: %w", assoc, err)
			}
		}
		res := all.Delete(collection.New())
		count = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete all %s: %w", collection, err)
	}
	g.logger.Infof("[GormDB] deleted %d %s", count, collection)
	return int(count), nil
}

func getTx(tx *gorm.DB, collection models.Collection, documentID string) (models.Entry, error) {
	e := collection.New()
	err := tx.Where("document_id = ?", documentID).First(e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, catalogerrors.NewNotFoundError(collection.String(), documentID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s %s: %w", collection, documentID, err)
	}
	return e, nil
}

func checkRelationsTx(tx *gorm.DB, e models.Entry) error {
	for _, r := range e.Relations() {
		var n int64
		if err := tx.Model(r.Target.New()).Where("document_id = ?", r.DocumentID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return missingRelation(r)
		}
	}
	return nil
}

// checkUniqueTx reports the first unique key of e already held by a document other than self.
func checkUniqueTx(tx *gorm.DB, e models.Entry, self string) error {
	for _, k := range e.UniqueKeys() {
		q := tx.Model(e.Collection().New())
		fields := strings.Split(k.Field, ",")
		values := strings.Split(k.Value, "|")
		for i, f := range fields {
			col, _ := columnFor(e.Collection(), f)
			if i < len(values) {
				q = q.Where(col+" = ?", values[i])
			}
		}
		if self != "" {
			q = q.Where("document_id <> ?", self)
		}
		var n int64
		if err := q.Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return catalogerrors.NewConflictError(e.Collection().String(), k.Field, k.Value)
		}
	}
	return nil
}

// translate maps a unique index violation that slipped past checkUniqueTx to a conflict.
func translate(e models.Entry, err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		c := catalogerrors.NewConflictError(e.Collection().String(), "", "")
		c.Cause = err
		return c
	}
	return err
}

func applyFilters(tx *gorm.DB, collection models.Collection, filters []models.Filter) (*gorm.DB, error) {
	for _, f := range filters {
		col, ok := columnFor(collection, f.Field)
		if !ok {
			return nil, catalogerrors.NewValidationError(f.Field, fmt.Sprintf("unknown field %s", f.Field))
		}
		numeric := numericFields[f.Field]
		text := col
		if numeric {
			text = "CAST(" + col + " AS TEXT)"
		}

		switch f.Op {
		case models.OpEq, models.OpNe:
			var value any = f.Value
			if numeric {
				n, err := strconv.Atoi(f.Value)
				if err != nil {
					return nil, catalogerrors.NewValidationError(f.Field, fmt.Sprintf("%s expects a number", f.Field))
				}
				value = n
			}
			if f.Op == models.OpEq {
				tx = tx.Where(col+" = ?", value)
			} else {
				tx = tx.Where(col+" <> ?", value)
			}
		case models.OpEqi:
			tx = tx.Where("LOWER("+text+") = LOWER(?)", f.Value)
		case models.OpContains:
			tx = tx.Where(text+" LIKE ?", "%"+f.Value+"%")
		case models.OpContainsi:
			tx = tx.Where(text+" ILIKE ?", "%"+f.Value+"%")
		default:
			return nil, catalogerrors.NewValidationError(f.Field, fmt.Sprintf("unsupported filter operator %s", f.Op))
		}
	}
	return tx, nil
}

// columnFor maps a query field to its column, rejecting names the collection does not have.
func columnFor(collection models.Collection, field string) (string, bool) {
	e := collection.New()
	if e == nil {
		return "", false
	}
	if _, ok := e.Field(field); !ok {
		return "", false
	}
	switch field {
	case "documentId":
		return "document_id", true
	case "createdAt":
		return "created_at", true
	case "updatedAt":
		return "updated_at", true
	case "publishedAt":
		return "published_at", true
	}
	if rel, _, found := strings.Cut(field, "."); found || collection.RelationFields()[field] != "" {
		return rel + "_document_id", true
	}
	return field, true
}

func findEntries(tx *gorm.DB, collection models.Collection) ([]models.Entry, error) {
	switch collection {
	case models.CollectionMovies:
		var rows []*models.Movie
		err := tx.Find(&rows).Error
		return toEntries(rows, err)
	case models.CollectionActors:
		var rows []*models.Actor
		err := tx.Find(&rows).Error
		return toEntries(rows, err)
	case models.CollectionGenres:
		var rows []*models.Genre
		err := tx.Find(&rows).Error
		return toEntries(rows, err)
	case models.CollectionMovieGenres:
		var rows []*models.MovieGenre
		err := tx.Find(&rows).Error
		return toEntries(rows, err)
	case models.CollectionMovieActors:
		var rows []*models.MovieActor
		err := tx.Find(&rows).Error
		return toEntries(rows, err)
	}
	return nil, fmt.Errorf("unknown collection %q", collection)
}

func toEntries[T models.Entry](rows []T, err error) ([]models.Entry, error) {
	if err != nil {
		return nil, err
	}
	out := make([]models.Entry, len(rows))
	for i, r := range rows {
		out[i] = r
	}
	return out, nil
}
