/*
 * Copyright (c) 2024. Anton Starikov -- All Rights Reserved
 *
 * This file is part of UFHOUT project.
 *
 * UFHOUT is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as the Free Software Foundation,
 * either version 3 of the License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 */

package store

import (
	"context"
	"database/sql"
	_ "embed"
	"os"
	"path/filepath"
	"strings"

	"github.com/antst/ufhout/internal/logger"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

//go:embed schema.sql
var schema string

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

type Store struct {
	db *sqlx.DB
}

// Open opens (creating if needed) the SQLite database at dbFile.
func Open(dbFile string) (*Store, error) {
	dbFile = expandHome(dbFile)
	db, err := sqlx.Open("sqlite3", dbFile+"?_foreign_keys=on")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", dbFile)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "failed to ping %s", dbFile)
	}

	// single writer, sqlite serialises anyway
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to create schema")
	}
	logger.L().Debugf("Opened database `%s`", dbFile)
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (s *Store) UpsertSensorValue(ctx context.Context, name string, value float64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sensor_values (sensor_name, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (sensor_name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		name, value,
	)
	return errors.Wrapf(err, "failed to store sensor `%s`", name)
}

func (s *Store) GetSensorValue(ctx context.Context, name string) (float64, error) {
	var v float64
	err := s.db.GetContext(ctx, &v, `SELECT value FROM sensor_values WHERE sensor_name = ?`, name)
	return v, notFound(err)
}

func (s *Store) UpsertControllerValue(ctx context.Context, name, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO controller_values (name, value) VALUES (?, ?)
		ON CONFLICT (name) DO UPDATE SET value = excluded.value`,
		name, value,
	)
	return errors.Wrapf(err, "failed to store controller value `%s`", name)
}

func (s *Store) GetControllerValue(ctx context.Context, name string) (string, error) {
	var v string
	err := s.db.GetContext(ctx, &v, `SELECT value FROM controller_values WHERE name = ?`, name)
	return v, notFound(err)
}
