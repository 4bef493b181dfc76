package catalog

import (
	"context"
	"fmt"

	"photo-catalog/internal/logging"
)

// migration is one versioned, idempotent schema step. Steps are applied
// in order and the applied version is recorded in schema_version, so a
// partially migrated catalog resumes where it stopped.
type migration struct {
	version     int
	description string
	statements  string
}

var migrations = []migration{
	{
		version:     1,
		description: "initial schema",
		statements: `
		CREATE TABLE IF NOT EXISTS images (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			path TEXT NOT NULL UNIQUE,
			filename TEXT NOT NULL,
			date_taken INTEGER,
			date_added INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
			file_size INTEGER NOT NULL DEFAULT 0,
			width INTEGER,
			height INTEGER,
			thumbnail_path TEXT,
			hash TEXT,
			is_archive INTEGER NOT NULL DEFAULT 0,
			archive_path TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_images_date_taken ON images(date_taken);
		CREATE INDEX IF NOT EXISTS idx_images_date_added ON images(date_added);
		CREATE INDEX IF NOT EXISTS idx_images_filename ON images(filename COLLATE NOCASE);
		CREATE INDEX IF NOT EXISTS idx_images_archive_path ON images(archive_path);

		CREATE TABLE IF NOT EXISTS user_metadata (
			image_id INTEGER PRIMARY KEY,
			is_favorite INTEGER NOT NULL DEFAULT 0,
			is_nsfw INTEGER NOT NULL DEFAULT 0,
			custom_tags TEXT,
			rating INTEGER,
			FOREIGN KEY (image_id) REFERENCES images(id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_user_metadata_favorite ON user_metadata(is_favorite);
		CREATE INDEX IF NOT EXISTS idx_user_metadata_nsfw ON user_metadata(is_nsfw);

		CREATE TABLE IF NOT EXISTS ai_metadata (
			image_id INTEGER PRIMARY KEY,
			prompt TEXT,
			negative_prompt TEXT,
			model TEXT,
			model_hash TEXT,
			sampler TEXT,
			scheduler TEXT,
			steps INTEGER,
			cfg_scale REAL,
			seed INTEGER,
			size TEXT,
			raw_tags TEXT,
			FOREIGN KEY (image_id) REFERENCES images(id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_ai_metadata_model ON ai_metadata(model);

		CREATE TABLE IF NOT EXISTS watch_roots (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			path TEXT NOT NULL UNIQUE,
			recursive INTEGER NOT NULL DEFAULT 1,
			active INTEGER NOT NULL DEFAULT 1,
			date_added INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
		);
		`,
	},
	{
		version:     2,
		description: "notes column on user_metadata",
		statements: `
		ALTER TABLE user_metadata ADD COLUMN notes TEXT;
		`,
	},
}

// migrate brings the schema up to the latest version.
func (s *Store) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	var current int
	err = s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&current)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}

		logging.Info("Migrating catalog to version %d: %s", m.version, m.description)

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", m.version, err)
		}

		if _, err := tx.ExecContext(ctx, m.statements); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logging.Error("rollback of migration %d also failed: %v", m.version, rbErr)
			}
			return fmt.Errorf("migration %d (%s) failed: %w", m.version, m.description, err)
		}

		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", m.version); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logging.Error("rollback of migration %d also failed: %v", m.version, rbErr)
			}
			return fmt.Errorf("failed to record migration %d: %w", m.version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", m.version, err)
		}
	}

	return nil
}
