// ABOUTME: File storage for interaction attachments and partner logos
// ABOUTME: Stores blobs in an embedded BadgerDB under ULID keys and hands back public URLs
package storage

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

var (
	ErrNotFound = errors.New("file not found")
	ErrEmpty    = errors.New("file is empty")
)

const (
	dataPrefix = "file/"
	metaPrefix = "meta/"
)

// Object describes a stored file.
type Object struct {
	Key         string    `json:"key"`
	Name        string    `json:"name"`
	ContentType string    `json:"content_type"`
	Size        int       `json:"size"`
	URL         string    `json:"url"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store is a blob store with URLs under baseURL/files/.
type Store struct {
	db      *badger.DB
	baseURL string
	log     *zap.Logger

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// Open opens (or creates) the store in dir. An empty dir keeps everything in memory.
func Open(dir, baseURL string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}

	var opts badger.Options
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(filepath.Clean(dir))
	}
	opts = opts.WithLogger(badgerLogger{log.Named("badger").Sugar()})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open file store: %w", err)
	}

	return &Store{
		db:      db,
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     log,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) newKey(now time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(now), s.entropy).String()
}

// URL returns the public URL for key.
func (s *Store) URL(key string) string {
	return s.baseURL + "/files/" + key
}

// Put stores data and returns its descriptor. A failed Put leaves nothing
// behind and can be retried as-is.
func (s *Store) Put(ctx context.Context, name, contentType string, data []byte) (Object, error) {
	if len(data) == 0 {
		return Object{}, ErrEmpty
	}
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}

	now := time.Now().UTC()
	obj := Object{
		Key:         s.newKey(now),
		Name:        filepath.Base(name),
		ContentType: contentType,
		Size:        len(data),
		CreatedAt:   now,
	}
	if obj.ContentType == "" {
		obj.ContentType = "application/octet-stream"
	}
	obj.URL = s.URL(obj.Key)

	meta, err := json.Marshal(obj)
	if err != nil {
		return Object{}, err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(dataPrefix+obj.Key), data); err != nil {
			return err
		}
		return txn.Set([]byte(metaPrefix+obj.Key), meta)
	})
	if err != nil {
		return Object{}, fmt.Errorf("failed to store %s: %w", obj.Name, err)
	}

	s.log.Debug("stored file", zap.String("key", obj.Key), zap.String("name", obj.Name), zap.Int("size", obj.Size))
	return obj, nil
}

// Get returns a file's descriptor and contents.
func (s *Store) Get(ctx context.Context, key string) (Object, []byte, error) {
	if err := ctx.Err(); err != nil {
		return Object{}, nil, err
	}

	var obj Object
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(metaPrefix + key))
		if err != nil {
			return err
		}
		raw, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(raw, &obj); err != nil {
			return err
		}

		item, err = txn.Get([]byte(dataPrefix + key))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Object{}, nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	if err != nil {
		return Object{}, nil, err
	}
	return obj, data, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get([]byte(metaPrefix + key)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("%s: %w", key, ErrNotFound)
			}
			return err
		}
		if err := txn.Delete([]byte(dataPrefix + key)); err != nil {
			return err
		}
		return txn.Delete([]byte(metaPrefix + key))
	})
}

// List returns every stored descriptor, oldest first.
func (s *Store) List(ctx context.Context) ([]Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	objects := make([]Object, 0)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(metaPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			raw, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			var obj Object
			if err := json.Unmarshal(raw, &obj); err != nil {
				return err
			}
			objects = append(objects, obj)
		}
		return nil
	})
	return objects, err
}

// badgerLogger routes badger's internal logging through zap.
type badgerLogger struct {
	s *zap.SugaredLogger
}

func (l badgerLogger) Errorf(f string, a ...interface{})   { l.s.Errorf(strings.TrimSpace(f), a...) }
func (l badgerLogger) Warningf(f string, a ...interface{}) { l.s.Warnf(strings.TrimSpace(f), a...) }
func (l badgerLogger) Infof(f string, a ...interface{})    { l.s.Debugf(strings.TrimSpace(f), a...) }
func (l badgerLogger) Debugf(f string, a ...interface{})   { l.s.Debugf(strings.TrimSpace(f), a...) }
