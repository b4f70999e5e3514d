package database

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// ddl holds the CREATE statements per driver.  Timestamps are stored as
// RFC3339 text written by the application so every driver scans them the
// same way.
var ddl = map[string][]string{
	"mysql": {
		`CREATE TABLE IF NOT EXISTS courses (
			id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
			name VARCHAR(200) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
			first_name VARCHAR(100) NOT NULL DEFAULT '',
			last_name VARCHAR(100) NOT NULL DEFAULT '',
			role VARCHAR(20) NOT NULL DEFAULT 'student'
		)`,
		`CREATE TABLE IF NOT EXISTS enrollments (
			course_id BIGINT UNSIGNED NOT NULL,
			user_id BIGINT UNSIGNED NOT NULL,
			PRIMARY KEY (course_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS seating_positions (
			id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
			course_id BIGINT UNSIGNED NOT NULL,
			user_id BIGINT UNSIGNED NOT NULL,
			x DOUBLE NOT NULL DEFAULT 0,
			y DOUBLE NOT NULL DEFAULT 0,
			locked BOOLEAN NOT NULL DEFAULT FALSE,
			updated_at VARCHAR(40) NOT NULL DEFAULT '',
			UNIQUE KEY uq_seating_course_user (course_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS seating_layouts (
			id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
			course_id BIGINT UNSIGNED NOT NULL,
			name VARCHAR(200) NOT NULL,
			data MEDIUMTEXT NOT NULL,
			updated_at VARCHAR(40) NOT NULL DEFAULT '',
			UNIQUE KEY uq_layout_course_name (course_id, name)
		)`,
		`CREATE TABLE IF NOT EXISTS behaviours (
			id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
			user_id BIGINT UNSIGNED NOT NULL,
			course_id BIGINT UNSIGNED NOT NULL,
			delta INT NOT NULL,
			note TEXT NULL,
			created_by_id BIGINT UNSIGNED NOT NULL,
			created_at VARCHAR(40) NOT NULL DEFAULT '',
			KEY ix_behaviour_course_user (course_id, user_id)
		)`,
	},
	"postgres": {
		`CREATE TABLE IF NOT EXISTS courses (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			first_name TEXT NOT NULL DEFAULT '',
			last_name TEXT NOT NULL DEFAULT '',
			role TEXT NOT NULL DEFAULT 'student'
		)`,
		`CREATE TABLE IF NOT EXISTS enrollments (
			course_id BIGINT NOT NULL,
			user_id BIGINT NOT NULL,
			PRIMARY KEY (course_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS seating_positions (
			id BIGSERIAL PRIMARY KEY,
			course_id BIGINT NOT NULL,
			user_id BIGINT NOT NULL,
			x DOUBLE PRECISION NOT NULL DEFAULT 0,
			y DOUBLE PRECISION NOT NULL DEFAULT 0,
			locked BOOLEAN NOT NULL DEFAULT FALSE,
			updated_at TEXT NOT NULL DEFAULT '',
			UNIQUE (course_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS seating_layouts (
			id BIGSERIAL PRIMARY KEY,
			course_id BIGINT NOT NULL,
			name TEXT NOT NULL,
			data TEXT NOT NULL,
			updated_at TEXT NOT NULL DEFAULT '',
			UNIQUE (course_id, name)
		)`,
		`CREATE TABLE IF NOT EXISTS behaviours (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL,
			course_id BIGINT NOT NULL,
			delta INTEGER NOT NULL CHECK (delta <> 0),
			note TEXT,
			created_by_id BIGINT NOT NULL,
			created_at TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS ix_behaviour_course_user ON behaviours (course_id, user_id)`,
	},
	"sqlite": {
		`CREATE TABLE IF NOT EXISTS courses (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			first_name TEXT NOT NULL DEFAULT '',
			last_name TEXT NOT NULL DEFAULT '',
			role TEXT NOT NULL DEFAULT 'student'
		)`,
		`CREATE TABLE IF NOT EXISTS enrollments (
			course_id INTEGER NOT NULL,
			user_id INTEGER NOT NULL,
			PRIMARY KEY (course_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS seating_positions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			course_id INTEGER NOT NULL,
			user_id INTEGER NOT NULL,
			x REAL NOT NULL DEFAULT 0,
			y REAL NOT NULL DEFAULT 0,
			locked BOOLEAN NOT NULL DEFAULT 0,
			updated_at TEXT NOT NULL DEFAULT '',
			UNIQUE (course_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS seating_layouts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			course_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			data TEXT NOT NULL,
			updated_at TEXT NOT NULL DEFAULT '',
			UNIQUE (course_id, name)
		)`,
		`CREATE TABLE IF NOT EXISTS behaviours (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			course_id INTEGER NOT NULL,
			delta INTEGER NOT NULL CHECK (delta <> 0),
			note TEXT,
			created_by_id INTEGER NOT NULL,
			created_at TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS ix_behaviour_course_user ON behaviours (course_id, user_id)`,
	},
}

// CreateSchema creates every table the seating service uses.  It is safe
// to run on every start.
func CreateSchema(ctx context.Context, db *sqlx.DB) error {
	stmts, ok := ddl[db.DriverName()]
	if !ok {
		return errors.Errorf("no schema for driver %q", db.DriverName())
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "create schema")
		}
	}
	return nil
}
