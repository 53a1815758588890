package blockstore

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

const (
	createBlocksTable = `
		CREATE TABLE IF NOT EXISTS blocks (
			idx  INTEGER PRIMARY KEY,
			data BLOB NOT NULL
		)`

	createGeometryTable = `
		CREATE TABLE IF NOT EXISTS geometry (
			key   TEXT PRIMARY KEY,
			value INTEGER NOT NULL
		)`

	initGeometry = `INSERT OR IGNORE INTO geometry (key, value) VALUES (?, ?)`
	getGeometry  = `SELECT value FROM geometry WHERE key = ?`

	queryBlock  = `SELECT data FROM blocks WHERE idx = ?`
	upsertBlock = `
		INSERT INTO blocks (idx, data) VALUES (?, ?)
		ON CONFLICT(idx) DO UPDATE SET data = excluded.data`
)

// SQLite is a block store backed by a SQLite database, one row per written
// block. Blocks never written read back as zeroes, like a fresh image. The
// geometry is recorded in the database and validated on reopen.
type SQLite struct {
	db        *sql.DB
	blockSize int
	numBlocks int
}

var _ Store = (*SQLite)(nil)

// OpenSQLite creates or opens a SQLite-backed volume at path.
func OpenSQLite(path string, blockSize, numBlocks int) (*SQLite, error) {
	if blockSize <= 0 || numBlocks <= 0 {
		return nil, fmt.Errorf("invalid geometry %dx%d", numBlocks, blockSize)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL keeps block writes durable without a full fsync per write
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	for _, stmt := range []string{createBlocksTable, createGeometryTable} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("schema creation failed: %w", err)
		}
	}

	s := &SQLite{db: db, blockSize: blockSize, numBlocks: numBlocks}
	if err := s.checkGeometry(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// checkGeometry records the geometry on first open and rejects mismatches
// on reopen.
func (s *SQLite) checkGeometry() error {
	want := map[string]int{
		"block_size": s.blockSize,
		"num_blocks": s.numBlocks,
	}
	for key, value := range want {
		if _, err := s.db.Exec(initGeometry, key, value); err != nil {
			return err
		}
		var stored int
		if err := s.db.QueryRow(getGeometry, key).Scan(&stored); err != nil {
			return err
		}
		if stored != value {
			return fmt.Errorf("%w: %s is %d, want %d", ErrGeometry, key, stored, value)
		}
	}
	return nil
}

func (s *SQLite) BlockSize() int { return s.blockSize }
func (s *SQLite) NumBlocks() int { return s.numBlocks }

// Read copies block n into buf. Absent rows are holes and read as zeroes.
func (s *SQLite) Read(n int, buf []byte) error {
	if err := checkAccess(s, n, buf); err != nil {
		return err
	}
	var data []byte
	err := s.db.QueryRow(queryBlock, n).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		clear(buf)
		return nil
	}
	if err != nil {
		return err
	}
	copied := copy(buf, data)
	clear(buf[copied:])
	return nil
}

// Write stores buf as block n.
func (s *SQLite) Write(n int, buf []byte) error {
	if err := checkAccess(s, n, buf); err != nil {
		return err
	}
	data := make([]byte, len(buf))
	copy(data, buf)
	_, err := s.db.Exec(upsertBlock, n, data)
	return err
}

// Sync checkpoints the WAL so the main database file holds the full image.
func (s *SQLite) Sync() error {
	_, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	return err
}

// Close closes the underlying database.
func (s *SQLite) Close() error {
	return s.db.Close()
}
