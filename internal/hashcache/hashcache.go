// Package hashcache persists file content digests across runs, keyed
// by a fingerprint of path, size, and modification time, so that an
// unchanged file never needs rehashing. It is self-cleaning: each run
// opens the existing database read-only and writes into a fresh one,
// so only entries actually looked up in this run survive into the
// next — stale entries for since-deleted or since-renamed files never
// accumulate.
package hashcache

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/ivoronin/filesync/internal/syncerr"
)

const bucketName = "digests"

// Cache provides persistent caching of file digests using BoltDB.
type Cache struct {
	readDB  *bolt.DB
	writeDB *bolt.DB
	path    string
	enabled bool
}

// Open opens the existing cache at path for reading (if it exists)
// and creates a fresh one for writing. An empty path returns a
// disabled cache whose Lookup/Store are no-ops — callers don't need a
// separate "is caching enabled" branch.
func Open(path string) (*Cache, error) {
	if path == "" {
		return &Cache{enabled: false}, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, syncerr.Wrap(syncerr.IO, "creating hash cache directory", path, err)
	}

	c := &Cache{path: path, enabled: true}

	if _, statErr := os.Stat(path); statErr == nil {
		readDB, err := bolt.Open(path, 0o600, &bolt.Options{ReadOnly: true, Timeout: time.Second})
		if err == nil {
			c.readDB = readDB
		}
	}

	newPath := path + ".new"
	writeDB, err := bolt.Open(newPath, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		_ = c.Close()
		return nil, syncerr.Wrap(syncerr.IO, "creating hash cache write database (locked by another instance?)", newPath, err)
	}
	c.writeDB = writeDB

	if err := c.writeDB.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	}); err != nil {
		_ = c.Close()
		return nil, syncerr.Wrap(syncerr.IO, "initializing hash cache bucket", path, err)
	}

	return c, nil
}

// Close closes both databases and atomically swaps the freshly
// written one into place. The swap only happens if the write database
// closed cleanly, so a failure never destroys the previous cache.
func (c *Cache) Close() error {
	var firstErr error
	if c.readDB != nil {
		if err := c.readDB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if c.writeDB != nil {
		if err := c.writeDB.Close(); err != nil {
			if firstErr == nil {
				firstErr = err
			}
		} else if err := os.Rename(c.path+".new", c.path); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

const keyVersion byte = 1

// Fingerprint identifies the state of a file that a cached digest was
// computed from. Any field changing is a cache miss: a different
// size, mtime, or requested algorithm invalidates the entry.
type Fingerprint struct {
	RelPath   string
	Size      int64
	ModTime   time.Time
	Algorithm string
}

func makeKey(fp Fingerprint) []byte {
	buf := new(bytes.Buffer)
	buf.WriteByte(keyVersion)
	buf.WriteString(fp.RelPath)
	buf.WriteByte(0)
	buf.WriteString(fp.Algorithm)
	buf.WriteByte(0)
	_ = binary.Write(buf, binary.BigEndian, fp.Size)
	_ = binary.Write(buf, binary.BigEndian, fp.ModTime.UnixNano())
	return buf.Bytes()
}

// Lookup returns the cached digest for fp, or "" if there is no entry
// (a miss is not an error). A hit is copied forward into the new
// database so it survives into the next run.
func (c *Cache) Lookup(fp Fingerprint) (string, error) {
	if !c.enabled || c.readDB == nil {
		return "", nil
	}

	var digest string
	err := c.readDB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return nil
		}
		if data := b.Get(makeKey(fp)); data != nil {
			digest = string(data)
		}
		return nil
	})
	if err != nil {
		return "", syncerr.Wrap(syncerr.Hashing, "hash cache lookup", fp.RelPath, err)
	}
	if digest == "" {
		return "", nil
	}

	_ = c.Store(fp, digest)
	return digest, nil
}

// Store saves digest for fp into the new database.
func (c *Cache) Store(fp Fingerprint, digest string) error {
	if !c.enabled || c.writeDB == nil || digest == "" {
		return nil
	}

	err := c.writeDB.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		return b.Put(makeKey(fp), []byte(digest))
	})
	if err != nil {
		return syncerr.Wrap(syncerr.Hashing, "hash cache store", fp.RelPath, err)
	}
	return nil
}
