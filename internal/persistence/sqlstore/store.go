// Package sqlstore implements the reconcile store with gorm, on SQLite for the local default and MySQL
// for shared deployments.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"example.com/wellness/internal/domain"
	"example.com/wellness/internal/persistence"
)

// OpenSQLite opens (creating if needed) the database file at path.
func OpenSQLite(path string) (*gorm.DB, error) {
	return gorm.Open(sqlite.Open(path+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000"), gormConfig())
}

// OpenMySQL connects using a go-sql-driver DSN. Found-rows reporting is forced on so an overwrite with
// identical values still counts as an affected row.
func OpenMySQL(dsn string) (*gorm.DB, error) {
	cfg, err := gomysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.ClientFoundRows = true

	connector, err := gomysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("create connector: %w", err)
	}
	sqlDB := sql.OpenDB(connector)
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return gorm.Open(mysql.New(mysql.Config{Conn: sqlDB}), gormConfig())
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	}
}

// Store persists records through gorm.
type Store struct {
	db   *gorm.DB
	lock bool
}

// New migrates the schema and returns a Store.
func New(ctx context.Context, db *gorm.DB) (*Store, error) {
	if err := db.WithContext(ctx).AutoMigrate(&dailyStatRow{}, &activityRow{}, &weighInRow{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	// SQLite serialises writers itself and has no row locks.
	return &Store{db: db, lock: db.Dialector.Name() != "sqlite"}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Begin opens the batch transaction.
func (s *Store) Begin(ctx context.Context) (domain.Tx, error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return &batchTx{tx: tx, lock: s.lock}, nil
}

type batchTx struct {
	tx   *gorm.DB
	lock bool
}

func (b *batchTx) DailyStats() domain.Table[time.Time, domain.DailyStat] {
	return &table[time.Time, domain.DailyStat, dailyStatRow]{
		batch:   b,
		column:  "date",
		key:     func(k time.Time) any { return domain.FormatDate(k) },
		toRow:   toDailyStatRow,
		fromRow: dailyStatRow.record,
	}
}

func (b *batchTx) Activities() domain.Table[int64, domain.Activity] {
	return &table[int64, domain.Activity, activityRow]{
		batch:   b,
		column:  "activity_id",
		key:     func(k int64) any { return k },
		toRow:   toActivityRow,
		fromRow: activityRow.record,
	}
}

func (b *batchTx) WeighIns() domain.Table[int64, domain.WeighIn] {
	return &table[int64, domain.WeighIn, weighInRow]{
		batch:   b,
		column:  "weigh_in_id",
		key:     func(k int64) any { return k },
		toRow:   toWeighInRow,
		fromRow: weighInRow.record,
	}
}

func (b *batchTx) Commit(context.Context) error { return b.tx.Commit().Error }

func (b *batchTx) Rollback(context.Context) error {
	err := b.tx.Rollback().Error
	if err != nil && !errors.Is(err, sql.ErrTxDone) && !errors.Is(err, gorm.ErrInvalidTransaction) {
		return err
	}
	return nil
}

type table[K comparable, R domain.Keyed[K], M any] struct {
	batch   *batchTx
	column  string
	key     func(K) any
	toRow   func(R) M
	fromRow func(M) (R, error)
}

func (t *table[K, R, M]) Find(ctx context.Context, key K) (*R, error) {
	query := t.batch.tx.WithContext(ctx)
	if t.batch.lock {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var row M
	err := query.Where(t.column+" = ?", t.key(key)).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rec, err := t.fromRow(row)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (t *table[K, R, M]) Insert(ctx context.Context, rec R) error {
	row := t.toRow(rec)
	if err := t.batch.tx.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: %v", persistence.ErrDuplicateKey, rec.Key())
		}
		return err
	}
	return nil
}

// Update overwrites every column, zero values included.
func (t *table[K, R, M]) Update(ctx context.Context, rec R) error {
	row := t.toRow(rec)
	res := t.batch.tx.WithContext(ctx).
		Model(&row).
		Where(t.column+" = ?", t.key(rec.Key())).
		Select("*").
		Updates(&row)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %v", persistence.ErrNotFound, rec.Key())
	}
	return nil
}
