package hifiec

import (
	"crypto/sha1"
	"database/sql"
	"fmt"
	"hash/crc32"

	"github.com/bodgit/hifiec/manifest"
	_ "github.com/mattn/go-sqlite3"
)

// ResourceDB is a SQLite-backed catalog of every resource recovered
// across extraction runs, keyed by content hash so identical payloads
// turning up in different firmware revisions can be spotted.
type ResourceDB struct {
	db *sql.DB
}

// NewResourceDB opens or creates the catalog at file.
func NewResourceDB(file string) (*ResourceDB, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on", file))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)

	if _, err = db.Exec(`CREATE TABLE IF NOT EXISTS resource (
		id INTEGER PRIMARY KEY NOT NULL,
		source TEXT NOT NULL,
		name TEXT NOT NULL,
		sha1 TEXT NOT NULL,
		crc TEXT NOT NULL,
		offset INTEGER NOT NULL,
		size INTEGER NOT NULL,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		is_image INTEGER NOT NULL,
		saved TEXT NOT NULL,
		UNIQUE(source, offset))`); err != nil {
		return nil, err
	}

	return &ResourceDB{
		db: db,
	}, nil
}

// payloadSHA1 hashes the raw payload, before any transformation, so
// the catalog identifies content rather than encoding.
func payloadSHA1(payload []byte) string {
	return fmt.Sprintf("%X", sha1.Sum(payload))
}

// Add records one recovered resource.
func (db *ResourceDB) Add(source string, rec manifest.Record, payload []byte) error {
	sha := payloadSHA1(payload)
	crc := fmt.Sprintf("%08X", crc32.ChecksumIEEE(payload))

	_, err := db.db.Exec(`INSERT OR REPLACE INTO resource
		(source, name, sha1, crc, offset, size, width, height, is_image, saved)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		source, rec.OriginalName, sha, crc, rec.OriginalOffset, rec.OriginalRawSize,
		rec.Width, rec.Height, rec.IsImage, rec.SavedFilename)
	return err
}

// Provenance identifies one place a payload has been seen.
type Provenance struct {
	Source string
	Name   string
	Offset uint32
}

// FindBySHA1 returns every recorded occurrence of a payload with the
// given content hash.
func (db *ResourceDB) FindBySHA1(sha string) ([]Provenance, error) {
	rows, err := db.db.Query("SELECT source, name, offset FROM resource WHERE sha1 = ? ORDER BY source, offset", sha)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Provenance
	for rows.Next() {
		var p Provenance
		if err := rows.Scan(&p.Source, &p.Name, &p.Offset); err != nil {
			return nil, err
		}
		out = append(out, p)
	}

	return out, rows.Err()
}

// Close closes the underlying database.
func (db *ResourceDB) Close() error {
	return db.db.Close()
}
