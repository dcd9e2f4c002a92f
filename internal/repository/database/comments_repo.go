package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"techdebt_export/internal/models"
	"techdebt_export/internal/ports"
)

// Dialect covers the differences between the database/sql backends.
type Dialect struct {
	Name string
	Now  string
}

var (
	MySQL  = Dialect{Name: "mysql", Now: "NOW()"}
	SQLite = Dialect{Name: "sqlite", Now: "CURRENT_TIMESTAMP"}
)

// CommentsRepo reads and flags rows of the log-applet comments table over database/sql.
type CommentsRepo struct {
	db      *sql.DB
	table   string
	dialect Dialect
}

func NewCommentsRepo(db *sql.DB, table string, dialect Dialect) (*CommentsRepo, error) {
	if !ValidTableName(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &CommentsRepo{db: db, table: table, dialect: dialect}, nil
}

func (r *CommentsRepo) FetchEligible(ctx context.Context) ([]models.DebtRecord, error) {
	rows, err := r.db.QueryContext(ctx, selectEligibleSQL(r.table, r.dialect.Now))
	if err != nil {
		return nil, classify("select", r.dialect.Name, err)
	}
	defer rows.Close()

	out := make([]models.DebtRecord, 0)
	for rows.Next() {
		var (
			id      sql.NullInt64
			name    sql.NullString
			date    any
			servers sql.NullString
		)
		if err := rows.Scan(&id, &name, &date, &servers); err != nil {
			return nil, classify("scan", r.dialect.Name, err)
		}
		if !id.Valid {
			return nil, &ports.DataFormatError{Field: "id", Value: nil, Err: errors.New("null")}
		}
		when, err := decodeDate(date)
		if err != nil {
			return nil, err
		}
		out = append(out, models.DebtRecord{
			ID:      id.Int64,
			User:    name.String,
			Date:    when,
			Servers: servers.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, classify("select", r.dialect.Name, err)
	}

	log.Printf("[DB][%s] eligible rows=%d table=%s", r.dialect.Name, len(out), r.table)
	return out, nil
}

func (r *CommentsRepo) MarkExported(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	res, err := r.db.ExecContext(ctx, markExportedSQL(r.table, len(ids)), args...)
	if err != nil {
		return 0, classify("update", r.dialect.Name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, classify("update", r.dialect.Name, err)
	}

	log.Printf("[DB][%s] marked exported ids=%d affected=%d", r.dialect.Name, len(ids), n)
	return n, nil
}

func (r *CommentsRepo) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return &ports.ConnectionError{Target: r.dialect.Name, Err: err}
	}
	return nil
}

func (r *CommentsRepo) Close() error {
	return r.db.Close()
}
