package database

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"

	catalogerrors "github.com/amaumene/gocatalog/internal/errors"
	"github.com/amaumene/gocatalog/internal/models"
	"github.com/amaumene/gocatalog/pkg/logger"
)

const (
	// Default database file permissions
	dbFileMode = 0600
	dbDirMode  = 0755

	// Default database filename
	defaultDBFile = "catalog.db"

	openTimeout = time.Second
)

// BoltDB implements Store on a single bbolt file. Each collection uses three buckets:
// documents keyed by id, a documentId index, and a unique-key index.
type BoltDB struct {
	db     *bolt.DB
	logger logger.Logger
	now    func() time.Time
}

// NewBolt creates a new BoltDB database instance.
// If dbPath is empty, uses the default database file in current directory.
func NewBolt(dbPath string, log logger.Logger) (*BoltDB, error) {
	if dbPath == "" {
		dbPath = filepath.Join(".", defaultDBFile)
	}
	if log == nil {
		log = logger.New()
	}

	// Ensure database directory exists
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, dbDirMode); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := bolt.Open(dbPath, dbFileMode, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, c := range models.Collections() {
			for _, name := range [][]byte{docsBucket(c), idsBucket(c), uniqueBucket(c)} {
				if _, err := tx.CreateBucketIfNotExists(name); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create buckets: %w", err)
	}

	log.Infof("[BoltDB] opened %s", dbPath)
	return &BoltDB{db: db, logger: log, now: time.Now}, nil
}

// Close closes the database connection.
func (b *BoltDB) Close() error {
	return b.db.Close()
}

func (b *BoltDB) Find(ctx context.Context, collection models.Collection, q models.Query) ([]models.Entry, int, error) {
	if err := checkContext(ctx); err != nil {
		return nil, 0, err
	}
	q = q.Normalize()

	var matched []models.Entry
	err := b.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(docsBucket(collection)).ForEach(func(_, v []byte) error {
			e, err := decode(collection, v)
			if err != nil {
				return err
			}
			if q.Matches(e) {
				matched = append(matched, e)
			}
			return nil
		})
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find %s: %w", collection, err)
	}

	sort.SliceStable(matched, func(i, j int) bool { return q.Less(matched[i], matched[j]) })

	total := len(matched)
	start := q.Offset()
	if start > total {
		start = total
	}
	end := start + q.PageSize
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (b *BoltDB) Get(ctx context.Context, collection models.Collection, documentID string) (models.Entry, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	var e models.Entry
	err := b.db.View(func(tx *bolt.Tx) error {
		var err error
		e, _, err = load(tx, collection, documentID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (b *BoltDB) Create(ctx context.Context, e models.Entry) (models.Entry, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	if err := prepare(e); err != nil {
		return nil, err
	}
	documentID, err := newDocumentID()
	if err != nil {
		return nil, err
	}
	collection := e.Collection()

	err = b.db.Update(func(tx *bolt.Tx) error {
		if err := checkRelations(tx, e); err != nil {
			return err
		}
		if err := checkUnique(tx, e, ""); err != nil {
			return err
		}

		docs := tx.Bucket(docsBucket(collection))
		seq, err := docs.NextSequence()
		if err != nil {
			return err
		}
		stampNew(e, uint(seq), documentID, b.now())
		return put(tx, e)
	})
	if err != nil {
		return nil, err
	}
	b.logger.Debugf("[BoltDB] created %s %s", collection, documentID)
	return e, nil
}

func (b *BoltDB) Update(ctx context.Context, documentID string, e models.Entry) (models.Entry, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	if err := prepare(e); err != nil {
		return nil, err
	}
	collection := e.Collection()

	err := b.db.Update(func(tx *bolt.Tx) error {
		prev, _, err := load(tx, collection, documentID)
		if err != nil {
			return err
		}
		if err := checkRelations(tx, e); err != nil {
			return err
		}
		if err := checkUnique(tx, e, documentID); err != nil {
			return err
		}
		if err := unindex(tx, prev); err != nil {
			return err
		}
		carryOver(e, prev, b.now())
		return put(tx, e)
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (b *BoltDB) Delete(ctx context.Context, collection models.Collection, documentID string) (models.Entry, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	var deleted models.Entry
	err := b.db.Update(func(tx *bolt.Tx) error {
		var err error
		deleted, err = remove(tx, collection, documentID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

func (b *BoltDB) DeleteAll(ctx context.Context, collection models.Collection) (int, error) {
	if err := checkContext(ctx); err != nil {
		return 0, err
	}
	count := 0
	err := b.db.Update(func(tx *bolt.Tx) error {
		var ids []string
		err := tx.Bucket(idsBucket(collection)).ForEach(func(k, _ []byte) error {
			ids = append(ids, string(k))
			return nil
		})
		if err != nil {
			return err
		}
		for _, id := range ids {
			if _, err := remove(tx, collection, id); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete all %s: %w", collection, err)
	}
	b.logger.Infof("[BoltDB] deleted %d %s", count, collection)
	return count, nil
}

// remove deletes one document and cascades to the association records that reference it.
func remove(tx *bolt.Tx, collection models.Collection, documentID string) (models.Entry, error) {
	e, key, err := load(tx, collection, documentID)
	if err != nil {
		return nil, err
	}
	if err := unindex(tx, e); err != nil {
		return nil, err
	}
	if err := tx.Bucket(docsBucket(collection)).Delete(key); err != nil {
		return nil, err
	}
	if err := tx.Bucket(idsBucket(collection)).Delete([]byte(documentID)); err != nil {
		return nil, err
	}

	for assoc, field := range referencing(collection) {
		var linked []string
		err := tx.Bucket(docsBucket(assoc)).ForEach(func(_, v []byte) error {
			link, err := decode(assoc, v)
			if err != nil {
				return err
			}
			if ref, _ := link.Field(field); ref == documentID {
				linked = append(linked, link.Base().DocumentID)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		for _, id := range linked {
			if _, err := remove(tx, assoc, id); err != nil {
				return nil, err
			}
		}
	}
	return e, nil
}

func load(tx *bolt.Tx, collection models.Collection, documentID string) (models.Entry, []byte, error) {
	key := tx.Bucket(idsBucket(collection)).Get([]byte(documentID))
	if key == nil {
		return nil, nil, catalogerrors.NewNotFoundError(collection.String(), documentID)
	}
	data := tx.Bucket(docsBucket(collection)).Get(key)
	if data == nil {
		return nil, nil, catalogerrors.NewNotFoundError(collection.String(), documentID)
	}
	e, err := decode(collection, data)
	if err != nil {
		return nil, nil, err
	}
	return e, append([]byte(nil), key...), nil
}

// put writes e and its index entries.
func put(tx *bolt.Tx, e models.Entry) error {
	collection := e.Collection()
	meta := e.Base()
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", collection, err)
	}
	key := itob(uint64(meta.ID))
	if err := tx.Bucket(docsBucket(collection)).Put(key, data); err != nil {
		return err
	}
	if err := tx.Bucket(idsBucket(collection)).Put([]byte(meta.DocumentID), key); err != nil {
		return err
	}
	unique := tx.Bucket(uniqueBucket(collection))
	for _, k := range e.UniqueKeys() {
		if err := unique.Put(uniqueKey(k), []byte(meta.DocumentID)); err != nil {
			return err
		}
	}
	return nil
}

func unindex(tx *bolt.Tx, e models.Entry) error {
	unique := tx.Bucket(uniqueBucket(e.Collection()))
	for _, k := range e.UniqueKeys() {
		if err := unique.Delete(uniqueKey(k)); err != nil {
			return err
		}
	}
	return nil
}

// checkUnique fails with a conflict when a unique key of e belongs to a document other than self.
func checkUnique(tx *bolt.Tx, e models.Entry, self string) error {
	unique := tx.Bucket(uniqueBucket(e.Collection()))
	for _, k := range e.UniqueKeys() {
		owner := unique.Get(uniqueKey(k))
		if owner != nil && string(owner) != self {
			return catalogerrors.NewConflictError(e.Collection().String(), k.Field, k.Value)
		}
	}
	return nil
}

func checkRelations(tx *bolt.Tx, e models.Entry) error {
	for _, r := range e.Relations() {
		if tx.Bucket(idsBucket(r.Target)).Get([]byte(r.DocumentID)) == nil {
			return missingRelation(r)
		}
	}
	return nil
}

func decode(collection models.Collection, data []byte) (models.Entry, error) {
	e := collection.New()
	if e == nil {
		return nil, fmt.Errorf("unknown collection %q", collection)
	}
	if err := json.Unmarshal(data, e); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", collection, err)
	}
	return e, nil
}

func docsBucket(c models.Collection) []byte   { return []byte(c) }
func idsBucket(c models.Collection) []byte    { return []byte(string(c) + ":documentId") }
func uniqueBucket(c models.Collection) []byte { return []byte(string(c) + ":unique") }

func uniqueKey(k models.UniqueKey) []byte {
	return []byte(k.Field + "\x00" + k.Value)
}

func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}
