// Package history persists a local log of played tracks in SQLite.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Log is a persistent play-history log backed by SQLite.
type Log struct {
	db *sql.DB
}

// Play is one recorded listen.
type Play struct {
	ID       int64
	Title    string
	Artist   string
	Album    string
	SourceID string
	ArtURL   string
	PlayedAt time.Time
}

// Open opens (creating if needed) the play log at dbPath.
func Open(dbPath string) (*Log, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps in-memory databases consistent and is
	// plenty for one daemon process.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA journal_mode = WAL",
		"PRAGMA temp_store = MEMORY",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	schema := `
		CREATE TABLE IF NOT EXISTS plays (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			artist TEXT NOT NULL,
			album TEXT,
			source_id TEXT,
			art_url TEXT,
			played_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_played_at ON plays(played_at);
	`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Log{db: db}, nil
}

// Close closes the database connection.
func (l *Log) Close() error {
	if l.db != nil {
		return l.db.Close()
	}
	return nil
}

// Record appends a play. Consecutive duplicates are collapsed: if the
// most recent row has the same title, artist and album, nothing is
// written and the existing row's id is returned.
func (l *Log) Record(ctx context.Context, play Play) (int64, error) {
	var lastID int64
	var lastTitle, lastArtist, lastAlbum string
	err := l.db.QueryRowContext(ctx, `
		SELECT id, title, artist, COALESCE(album, '')
		FROM plays
		ORDER BY id DESC
		LIMIT 1
	`).Scan(&lastID, &lastTitle, &lastArtist, &lastAlbum)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return 0, fmt.Errorf("failed to read latest play: %w", err)
	case lastTitle == play.Title && lastArtist == play.Artist && lastAlbum == play.Album:
		return lastID, nil
	}

	playedAt := play.PlayedAt
	if playedAt.IsZero() {
		playedAt = time.Now()
	}

	result, err := l.db.ExecContext(ctx, `
		INSERT INTO plays (title, artist, album, source_id, art_url, played_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		play.Title,
		play.Artist,
		play.Album,
		play.SourceID,
		play.ArtURL,
		playedAt.Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert play: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get insert id: %w", err)
	}

	return id, nil
}

// Recent returns the most recent plays, newest first.
func (l *Log) Recent(ctx context.Context, limit int) ([]Play, error) {
	query := `
		SELECT id, title, artist, COALESCE(album, ''), COALESCE(source_id, ''), COALESCE(art_url, ''), played_at
		FROM plays
		ORDER BY played_at DESC, id DESC
	`

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := l.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query plays: %w", err)
	}
	defer rows.Close()

	var plays []Play
	for rows.Next() {
		var p Play
		var playedAtUnix int64

		err := rows.Scan(
			&p.ID,
			&p.Title,
			&p.Artist,
			&p.Album,
			&p.SourceID,
			&p.ArtURL,
			&playedAtUnix,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan play: %w", err)
		}

		p.PlayedAt = time.Unix(playedAtUnix, 0)
		plays = append(plays, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating plays: %w", err)
	}

	return plays, nil
}

// Count returns the number of recorded plays.
func (l *Log) Count(ctx context.Context) (int, error) {
	var count int
	err := l.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM plays").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count plays: %w", err)
	}

	return count, nil
}

// Cleanup removes plays older than maxAge to prevent unbounded growth.
func (l *Log) Cleanup(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge).Unix()

	result, err := l.db.ExecContext(ctx, `
		DELETE FROM plays
		WHERE played_at < ?
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup old plays: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return deleted, nil
}
