// Copyright (C) 2023 Gobalsky Labs Limited
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package sqlstore keeps the order book and transaction history in
// PostgreSQL. A unit of work is a database transaction, and nested units of
// work are savepoints.
package sqlstore

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"code.funtury.io/predictmarket/core/types"
	"code.funtury.io/predictmarket/libs/crypto"
	"code.funtury.io/predictmarket/logging"
	"code.funtury.io/predictmarket/store"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"github.com/jackc/pgtype"
	shopspring "github.com/jackc/pgtype/ext/shopspring-numeric"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/jackc/pgx/v4/stdlib"
	"github.com/pressly/goose/v3"
)

const namedLogger = "sqlstore"

var tableNames = [...]string{"transactions", "orders"}

//go:embed migrations/*.sql
var embedMigrations embed.FS

type SQLStore struct {
	conf Config
	pool *pgxpool.Pool
	log  *logging.Logger
	db   *embeddedpostgres.EmbeddedPostgres
}

var _ store.Store = (*SQLStore)(nil)

// InitialiseStorage connects to the configured database, starting an
// embedded server under runtimeDir first when asked to, and migrates the
// schema to the latest version.
func InitialiseStorage(log *logging.Logger, conf Config, runtimeDir string) (*SQLStore, error) {
	s := &SQLStore{
		conf: conf,
		log:  log.Named(namedLogger),
	}
	s.log.SetLevel(conf.Level.Get())

	if s.conf.UseEmbedded {
		runtimePath := filepath.Join(runtimeDir, "sqlstore")
		dataPath := filepath.Join(runtimeDir, "node-data")
		if err := s.initializeEmbeddedPostgres(runtimePath, dataPath); err != nil {
			return nil, fmt.Errorf("use embedded database was true, but failed to start: %w", err)
		}
	}

	return setupStorage(s)
}

// InitialiseTestStorage is InitialiseStorage with the embedded server living
// in a fresh temporary directory.
func InitialiseTestStorage(log *logging.Logger, conf Config) (*SQLStore, error) {
	tempDir, err := os.MkdirTemp("", crypto.NewSerial())
	if err != nil {
		return nil, err
	}
	return InitialiseStorage(log, conf, tempDir)
}

func setupStorage(s *SQLStore) (*SQLStore, error) {
	poolConfig, err := s.conf.ConnectionConfig.GetPoolConfig()
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("error configuring database: %w", err)
	}

	registerNumericType(poolConfig)

	if s.pool, err = pgxpool.ConnectConfig(context.Background(), poolConfig); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	if err = s.migrateToLatestSchema(); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("error migrating schema: %w", err)
	}

	s.log.Info("sql store ready",
		logging.String("host", s.conf.ConnectionConfig.Host),
		logging.Int("port", s.conf.ConnectionConfig.Port),
		logging.Bool("embedded", bool(s.conf.UseEmbedded)))
	return s, nil
}

func (s *SQLStore) migrateToLatestSchema() error {
	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(s.log.Named("db migration").GooseLogger())

	db := stdlib.OpenDB(*s.pool.Config().ConnConfig)
	defer db.Close()

	currentVersion, err := goose.GetDBVersion(db)
	if err != nil {
		return err
	}

	if currentVersion > 0 && s.conf.WipeOnStartup {
		if err := goose.DownTo(db, "migrations", 0); err != nil {
			return fmt.Errorf("error clearing sql schema: %w", err)
		}
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("error migrating sql schema: %w", err)
	}
	return nil
}

func registerNumericType(poolConfig *pgxpool.Config) {
	// load postgres numerics as shopspring decimals and vice-versa
	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		conn.ConnInfo().RegisterDataType(pgtype.DataType{
			Value: &shopspring.Numeric{},
			Name:  "numeric",
			OID:   pgtype.NumericOID,
		})
		return nil
	}
}

func (s *SQLStore) initializeEmbeddedPostgres(runtimePath, dataPath string) error {
	cc := s.conf.ConnectionConfig
	dbConfig := embeddedpostgres.DefaultConfig().
		Username(cc.Username).
		Password(cc.Password).
		Database(cc.Database).
		Port(uint32(cc.Port)).
		RuntimePath(runtimePath).
		BinariesPath(runtimePath).
		DataPath(dataPath).
		StartTimeout(s.conf.StartTimeout.Get()).
		Logger(io.Discard)

	s.db = embeddedpostgres.NewDatabase(dbConfig)
	return s.db.Start()
}

// DeleteEverything empties every table and resets the id sequences.
func (s *SQLStore) DeleteEverything(ctx context.Context) error {
	for _, table := range tableNames {
		if _, err := s.pool.Exec(ctx, "TRUNCATE TABLE "+table+" RESTART IDENTITY CASCADE"); err != nil {
			return fmt.Errorf("error truncating table: %s %w", table, err)
		}
	}
	return nil
}

func (s *SQLStore) Begin(ctx context.Context) (store.Tx, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, wrapE("begin", err)
	}
	return &sqlTx{tx: tx, log: s.log}, nil
}

func (s *SQLStore) ListOrderBook(ctx context.Context, market string, outcome types.Outcome) ([]*types.Order, error) {
	return listOrderBook(ctx, s.pool, market, outcome)
}

func (s *SQLStore) ListTransactionsByUser(ctx context.Context, user string) ([]*types.Transaction, error) {
	return listTransactionsByUser(ctx, s.pool, user)
}

// Close releases the pool and stops the embedded server if one was started.
func (s *SQLStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	if !s.conf.UseEmbedded || s.db == nil {
		return nil
	}
	return s.db.Stop()
}

// wrapE classifies a database error so callers only deal with the store
// error categories.
func wrapE(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrTxClosed):
		return fmt.Errorf("%w: %s", types.ErrStoreTransactionClosed, op)
	default:
		return fmt.Errorf("%w: %s: %w", types.ErrStore, op, err)
	}
}
