// Package store persists completed batches in a bolt database.
//
// Every batch lives in its own bucket keyed by the batch ulid, so iterating
// the batches bucket yields batches in creation order.
//
//	batches
//	  └── <ulid>
//	        ├── meta      totals of the batch
//	        ├── files     name => record
//	        └── coverage  name => roaring bitmap of covered addresses
package store

import (
	"bytes"
	"encoding/binary"
	"log/slog"
	"time"

	"github.com/gernest/covmap/batch"
	"github.com/gernest/roaring"
	"github.com/pkg/errors"
	"github.com/prometheus/common/promslog"
	"go.etcd.io/bbolt"
)

var (
	batches  = []byte("batches")
	meta     = []byte("meta")
	files    = []byte("files")
	coverage = []byte("coverage")
)

// ErrNotFound is returned when a batch or file is not in the database.
var ErrNotFound = errors.New("store: not found")

const (
	recordSize = 1 + 4 + 4 + 8 + 8 + 8
	metaSize   = 8 + 8 + 8 + 8
)

// Record is a stored file result.
type Record struct {
	Name       string
	Kind       batch.Kind
	Number     int32
	RangeCount int32
	Count      uint64
	Size       int64
	Digest     uint64
	// Coverage is only loaded by DB.Get.
	Coverage *roaring.Bitmap
}

// Batch describes a stored batch.
type Batch struct {
	ID           string
	ExecFiles    uint64
	TimeoutFiles uint64
	Exec         uint64
	Timeout      uint64
}

// DB is a results database.
type DB struct {
	db *bbolt.DB
	lo *slog.Logger
}

var _ batch.Recorder = (*DB)(nil)

// Open opens or creates the database at path.
func Open(path string, lo *slog.Logger) (*DB, error) {
	if lo == nil {
		lo = promslog.NewNopLogger()
	}
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "opening results database %s", path)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(batches)
		return err
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "initializing results database")
	}
	return &DB{db: db, lo: lo.With("component", "store", "path", path)}, nil
}

// Close closes the database.
func (db *DB) Close() error {
	return db.db.Close()
}

// Record implements batch.Recorder. The whole batch is written in a single
// transaction.
func (db *DB) Record(s *batch.Summary) error {
	err := db.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.Bucket(batches).CreateBucket([]byte(s.ID))
		if err != nil {
			return errors.Wrapf(err, "creating batch %s", s.ID)
		}
		m := make([]byte, 0, metaSize)
		m = binary.BigEndian.AppendUint64(m, uint64(s.Files(batch.Exec).Len()))
		m = binary.BigEndian.AppendUint64(m, uint64(s.Files(batch.Timeout).Len()))
		m = binary.BigEndian.AppendUint64(m, s.Total(batch.Exec))
		m = binary.BigEndian.AppendUint64(m, s.Total(batch.Timeout))
		if err := b.Put(meta, m); err != nil {
			return errors.Wrap(err, "storing batch totals")
		}
		fb, err := b.CreateBucket(files)
		if err != nil {
			return err
		}
		cb, err := b.CreateBucket(coverage)
		if err != nil {
			return err
		}
		for _, r := range s.Results {
			if err := fb.Put([]byte(r.Name), encodeRecord(r)); err != nil {
				return errors.Wrapf(err, "storing record %s", r.Name)
			}
			if r.Coverage == nil {
				continue
			}
			data, err := r.Coverage.MarshalBinary()
			if err != nil {
				return errors.Wrapf(err, "encoding coverage %s", r.Name)
			}
			if err := cb.Put([]byte(r.Name), data); err != nil {
				return errors.Wrapf(err, "storing coverage %s", r.Name)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	db.lo.Info("recorded batch", "id", s.ID, "files", len(s.Results))
	return nil
}

// Batches returns all stored batches, oldest first.
func (db *DB) Batches() (o []Batch, err error) {
	err = db.db.View(func(tx *bbolt.Tx) error {
		root := tx.Bucket(batches)
		return root.ForEach(func(k, v []byte) error {
			if v != nil {
				return nil
			}
			m := root.Bucket(k).Get(meta)
			if len(m) != metaSize {
				return errors.Errorf("store: corrupt batch %s", k)
			}
			o = append(o, Batch{
				ID:           string(k),
				ExecFiles:    binary.BigEndian.Uint64(m[0:]),
				TimeoutFiles: binary.BigEndian.Uint64(m[8:]),
				Exec:         binary.BigEndian.Uint64(m[16:]),
				Timeout:      binary.BigEndian.Uint64(m[24:]),
			})
			return nil
		})
	})
	return
}

// Latest returns id of the most recently recorded batch.
func (db *DB) Latest() (id string, err error) {
	err = db.db.View(func(tx *bbolt.Tx) error {
		cu := tx.Bucket(batches).Cursor()
		for k, v := cu.Last(); k != nil; k, v = cu.Prev() {
			if v == nil {
				id = string(k)
				return nil
			}
		}
		return ErrNotFound
	})
	return
}

// Files returns records of batch id ordered by name, without coverage.
func (db *DB) Files(id string) (o []Record, err error) {
	err = db.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(batches).Bucket([]byte(id))
		if b == nil {
			return errors.Wrapf(ErrNotFound, "batch %s", id)
		}
		return b.Bucket(files).ForEach(func(k, v []byte) error {
			r, err := decodeRecord(k, v)
			if err != nil {
				return err
			}
			o = append(o, r)
			return nil
		})
	})
	return
}

// Get returns record for name in batch id including its coverage bitmap.
func (db *DB) Get(id, name string) (r Record, err error) {
	err = db.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(batches).Bucket([]byte(id))
		if b == nil {
			return errors.Wrapf(ErrNotFound, "batch %s", id)
		}
		v := b.Bucket(files).Get([]byte(name))
		if v == nil {
			return errors.Wrapf(ErrNotFound, "file %s in batch %s", name, id)
		}
		r, err = decodeRecord([]byte(name), v)
		if err != nil {
			return err
		}
		r.Coverage = roaring.NewBitmap()
		if data := b.Bucket(coverage).Get([]byte(name)); data != nil {
			// bolt memory is only valid inside the transaction
			err = r.Coverage.UnmarshalBinary(bytes.Clone(data))
			if err != nil {
				return errors.Wrapf(err, "decoding coverage %s", name)
			}
		}
		return nil
	})
	return
}

func encodeRecord(r *batch.Result) []byte {
	b := make([]byte, 0, recordSize)
	b = append(b, byte(r.Kind))
	b = binary.BigEndian.AppendUint32(b, uint32(r.Number))
	b = binary.BigEndian.AppendUint32(b, uint32(r.RangeCount))
	b = binary.BigEndian.AppendUint64(b, r.Count)
	b = binary.BigEndian.AppendUint64(b, uint64(r.Size))
	b = binary.BigEndian.AppendUint64(b, r.Digest)
	return b
}

func decodeRecord(name, v []byte) (Record, error) {
	if len(v) != recordSize {
		return Record{}, errors.Errorf("store: corrupt record %s", name)
	}
	return Record{
		Name:       string(name),
		Kind:       batch.Kind(v[0]),
		Number:     int32(binary.BigEndian.Uint32(v[1:])),
		RangeCount: int32(binary.BigEndian.Uint32(v[5:])),
		Count:      binary.BigEndian.Uint64(v[9:]),
		Size:       int64(binary.BigEndian.Uint64(v[17:])),
		Digest:     binary.BigEndian.Uint64(v[25:]),
	}, nil
}
