package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"techdebt_export/internal/config/connections/postgres"
	"techdebt_export/internal/models"
	"techdebt_export/internal/ports"

	"github.com/jackc/pgx/v5/pgconn"
)

// PgCommentsRepo is the PostgreSQL flavour of CommentsRepo, on the pgx pool.
type PgCommentsRepo struct {
	pg    *postgres.Postgres
	table string
}

func NewPgCommentsRepo(pg *postgres.Postgres, table string) (*PgCommentsRepo, error) {
	if !ValidTableName(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &PgCommentsRepo{pg: pg, table: table}, nil
}

func (r *PgCommentsRepo) FetchEligible(ctx context.Context) ([]models.DebtRecord, error) {
	rows, err := r.pg.Pool.Query(ctx, selectEligibleSQL(r.table, "now()"))
	if err != nil {
		return nil, classifyPg("select", err)
	}
	defer rows.Close()

	out := make([]models.DebtRecord, 0)
	for rows.Next() {
		var (
			id      *int64
			name    *string
			date    *time.Time
			servers *string
		)
		if err := rows.Scan(&id, &name, &date, &servers); err != nil {
			return nil, classifyPg("scan", err)
		}
		rec, err := pgRecord(id, name, date, servers)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyPg("select", err)
	}

	log.Printf("[DB][postgres] eligible rows=%d table=%s", len(out), r.table)
	return out, nil
}

func (r *PgCommentsRepo) MarkExported(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	tag, err := r.pg.Pool.Exec(ctx, markExportedPgSQL(r.table), ids)
	if err != nil {
		return 0, classifyPg("update", err)
	}

	log.Printf("[DB][postgres] marked exported ids=%d affected=%d", len(ids), tag.RowsAffected())
	return tag.RowsAffected(), nil
}

func (r *PgCommentsRepo) Ping(ctx context.Context) error {
	if err := r.pg.Pool.Ping(ctx); err != nil {
		return &ports.ConnectionError{Target: "postgres", Err: err}
	}
	return nil
}

func (r *PgCommentsRepo) Close() error {
	r.pg.Close()
	return nil
}

// pgRecord builds a record from nullable columns. Id and date are required,
// a missing user or server list stays empty.
func pgRecord(id *int64, name *string, date *time.Time, servers *string) (models.DebtRecord, error) {
	if id == nil {
		return models.DebtRecord{}, &ports.DataFormatError{Field: "id", Value: nil, Err: errors.New("null")}
	}
	if date == nil {
		return models.DebtRecord{}, &ports.DataFormatError{Field: "Date_stamp", Value: nil, Err: errors.New("null")}
	}
	rec := models.DebtRecord{ID: *id, Date: *date}
	if name != nil {
		rec.User = *name
	}
	if servers != nil {
		rec.Servers = *servers
	}
	return rec, nil
}

func classifyPg(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return &ports.QueryError{Op: op, Err: err}
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) || pgconn.SafeToRetry(err) {
		return &ports.ConnectionError{Target: "postgres", Err: err}
	}
	return classify(op, "postgres", err)
}
