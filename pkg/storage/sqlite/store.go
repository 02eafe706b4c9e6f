package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"mercator-hq/magicbox/pkg/query"
	"mercator-hq/magicbox/pkg/schema"
	"mercator-hq/magicbox/pkg/storage"
)

const backendName = "sqlite"

// Store implements storage.Store on SQLite.
type Store struct {
	db       *sql.DB
	config   *Config
	recorder storage.Recorder
	logger   *slog.Logger
}

var _ storage.Store = (*Store)(nil)

// New opens the database described by config. recorder may be nil.
func New(config *Config, recorder storage.Recorder) (*Store, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Driver == "" {
		config.Driver = DriverCGO
	}
	if err := config.validate(); err != nil {
		return nil, storage.NewStorageError(backendName, "open", err)
	}

	logger := slog.Default().With("component", "storage.sqlite")

	db, err := sql.Open(config.Driver, config.Path)
	if err != nil {
		return nil, storage.NewStorageError(backendName, "open", err)
	}

	// Every connection to ":memory:" gets its own database.
	if config.Path == ":memory:" {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		db.SetMaxOpenConns(config.MaxOpenConns)
		db.SetMaxIdleConns(config.MaxIdleConns)
	}

	s := &Store{
		db:       db,
		config:   config,
		recorder: recorder,
		logger:   logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite storage initialized",
		"path", config.Path,
		"driver", config.Driver,
		"wal_mode", config.WALMode,
	)

	return s, nil
}

func (s *Store) initialize() error {
	if s.config.WALMode && s.config.Path != ":memory:" {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return storage.NewStorageError(backendName, "enable_wal", err)
		}
		s.logger.Debug("WAL mode enabled")
	}

	busyTimeoutMs := s.config.BusyTimeout.Milliseconds()
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", busyTimeoutMs)); err != nil {
		return storage.NewStorageError(backendName, "set_busy_timeout", err)
	}
	return nil
}

// DB exposes the underlying handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// observe reports an operation to the recorder and wraps err.
func (s *Store) observe(op string, start time.Time, err error) error {
	if s.recorder != nil {
		s.recorder.RecordStorageOp(backendName, op, time.Since(start).Seconds(), err)
	}
	if err == nil {
		return nil
	}
	if _, ok := err.(*storage.StorageError); ok {
		return err
	}
	return storage.NewStorageError(backendName, op, err)
}

// List implements storage.Store.
func (s *Store) List(ctx context.Context, m *schema.Model, q *query.Query) (records []storage.Record, err error) {
	defer func(start time.Time) { err = s.observe("list", start, err) }(time.Now())

	builder, err := selectBuilder(m, q)
	if err != nil {
		return nil, err
	}
	records, err = s.selectRecords(ctx, m, builder)
	if err != nil {
		return nil, err
	}
	if err := storage.Prefetch(ctx, m, records, q.Prefetch, s.fetchIn); err != nil {
		return nil, err
	}
	return records, nil
}

// Get implements storage.Store.
func (s *Store) Get(ctx context.Context, m *schema.Model, q *query.Query, pk string) (rec storage.Record, found bool, err error) {
	defer func(start time.Time) { err = s.observe("get", start, err) }(time.Now())

	key, err := storage.Coerce(m.PrimaryKey, m.PrimaryKeyType, pk)
	if err != nil {
		return nil, false, err
	}

	builder, err := selectBuilder(m, q)
	if err != nil {
		return nil, false, err
	}
	builder = builder.Where(sq.Eq{qualified(baseAlias, m.PrimaryKeyColumn()): key}).Limit(1)

	records, err := s.selectRecords(ctx, m, builder)
	if err != nil {
		return nil, false, err
	}
	if len(records) == 0 {
		return nil, false, nil
	}
	if err := storage.Prefetch(ctx, m, records, q.Prefetch, s.fetchIn); err != nil {
		return nil, false, err
	}
	return records[0], true, nil
}

// DeleteMatching implements storage.Store.
func (s *Store) DeleteMatching(ctx context.Context, m *schema.Model, q *query.Query) (n int64, err error) {
	defer func(start time.Time) { err = s.observe("delete", start, err) }(time.Now())

	stmt, args, err := BuildDelete(m, q)
	if err != nil {
		return 0, err
	}
	return s.exec(ctx, stmt, args)
}

// DeleteByPK implements storage.Store.
func (s *Store) DeleteByPK(ctx context.Context, m *schema.Model, pk string) (n int64, err error) {
	defer func(start time.Time) { err = s.observe("delete_pk", start, err) }(time.Now())

	key, err := storage.Coerce(m.PrimaryKey, m.PrimaryKeyType, pk)
	if err != nil {
		return 0, err
	}
	stmt, args, err := sq.Delete(quoteIdent(m.Table)).
		Where(sq.Eq{quoteIdent(m.PrimaryKeyColumn()): key}).
		PlaceholderFormat(sq.Question).
		ToSql()
	if err != nil {
		return 0, err
	}
	return s.exec(ctx, stmt, args)
}

// Insert implements storage.Store.
func (s *Store) Insert(ctx context.Context, m *schema.Model, rec storage.Record) (out storage.Record, err error) {
	defer func(start time.Time) { err = s.observe("insert", start, err) }(time.Now())

	row := make(storage.Record, len(rec)+1)
	for k, v := range rec {
		row[k] = v
	}
	if m.PrimaryKeyType == schema.TypeUUID && row[m.PrimaryKey] == nil {
		row[m.PrimaryKey] = uuid.NewString()
	}
	if err := storage.CheckPrimaryKey(m, row); err != nil {
		return nil, err
	}

	var (
		columns []string
		values  []any
	)
	for name, v := range row {
		col, ok := m.Column(name)
		if !ok {
			continue
		}
		columns = append(columns, quoteIdent(col))
		values = append(values, v)
	}

	builder := sq.Insert(quoteIdent(m.Table)).PlaceholderFormat(sq.Question)
	if len(columns) == 0 {
		stmt := fmt.Sprintf("INSERT INTO %s DEFAULT VALUES", quoteIdent(m.Table))
		res, err := s.db.ExecContext(ctx, stmt)
		if err != nil {
			return nil, err
		}
		return s.reload(ctx, m, row, res)
	}

	stmt, args, err := builder.Columns(columns...).Values(values...).ToSql()
	if err != nil {
		return nil, err
	}
	res, err := s.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	return s.reload(ctx, m, row, res)
}

// reload reads back an inserted row so that defaults and generated keys
// are visible to the caller.
func (s *Store) reload(ctx context.Context, m *schema.Model, row storage.Record, res sql.Result) (storage.Record, error) {
	key := row[m.PrimaryKey]
	if key == nil {
		id, err := res.LastInsertId()
		if err != nil {
			return nil, err
		}
		key = id
	}

	builder := sq.Select(columnList(m, baseAlias)...).
		From(quoteIdent(m.Table) + " AS " + quoteIdent(baseAlias)).
		Where(sq.Eq{qualified(baseAlias, m.PrimaryKeyColumn()): key}).
		PlaceholderFormat(sq.Question)

	records, err := s.selectRecords(ctx, m, builder)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("inserted row %v not found", key)
	}
	return records[0], nil
}

func (s *Store) exec(ctx context.Context, stmt string, args []any) (int64, error) {
	s.logger.Debug("exec", "sql", stmt)

	res, err := s.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// fetchIn loads the rows of m whose column holds one of values. It backs
// storage.Prefetch.
func (s *Store) fetchIn(ctx context.Context, m *schema.Model, column string, values []any) ([]storage.Record, error) {
	builder := sq.Select(columnList(m, baseAlias)...).
		From(quoteIdent(m.Table) + " AS " + quoteIdent(baseAlias)).
		Where(sq.Eq{qualified(baseAlias, column): values}).
		OrderBy(qualified(baseAlias, m.PrimaryKeyColumn())).
		PlaceholderFormat(sq.Question)
	return s.selectRecords(ctx, m, builder)
}

func (s *Store) selectRecords(ctx context.Context, m *schema.Model, builder sq.SelectBuilder) ([]storage.Record, error) {
	stmt, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}
	s.logger.Debug("query", "sql", stmt)

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	records := []storage.Record{}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		rec := make(storage.Record, len(columns))
		for i, col := range columns {
			name := m.FieldName(col)
			rec[name] = normalize(m.TypeOf(name), values[i])
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// normalize maps driver values onto the canonical types used by
// storage.Coerce. The two drivers disagree on booleans and text.
func normalize(t schema.FieldType, v any) any {
	switch val := v.(type) {
	case []byte:
		return string(val)
	case int64:
		if t == schema.TypeBoolean {
			return val != 0
		}
	case time.Time:
		return val.UTC().Format(storage.DateTimeLayout)
	}
	return v
}

// Close releases resources held by the storage backend.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return storage.NewStorageError(backendName, "close", err)
	}
	s.logger.Info("SQLite storage closed")
	return nil
}
