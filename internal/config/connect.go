package config

import (
	"context"
	"errors"
	"fmt"
	"log"

	"techdebt_export/internal/config/connections/mongo"
	"techdebt_export/internal/config/connections/mysql"
	"techdebt_export/internal/config/connections/postgres"
	"techdebt_export/internal/config/connections/s3"
	"techdebt_export/internal/config/connections/sqlite"
	"techdebt_export/internal/ports"
	"techdebt_export/internal/repository/database"
)

// Connections holds every live handle the exporter needs for one process.
type Connections struct {
	Store ports.RecordStore
	Mongo *mongo.Mongo
	S3    *s3.S3
}

// Connect opens the source database and, when configured, Mongo and S3. A
// database that cannot be reached yields a ports.ConnectionError.
func Connect(ctx context.Context, cfg *Config) (*Connections, error) {
	store, err := openStore(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	conns := &Connections{Store: store}

	if cfg.Mongo != nil {
		mg, err := mongo.NewConnection(ctx, *cfg.Mongo)
		if err != nil {
			conns.Close(ctx)
			return nil, &ports.ConnectionError{Target: "mongo", Err: err}
		}
		conns.Mongo = mg
	}

	if cfg.S3 != nil {
		s3c, err := s3.NewConnection(*cfg.S3)
		if err != nil {
			conns.Close(ctx)
			return nil, &ports.ConnectionError{Target: "s3", Err: err}
		}
		if err := s3c.EnsureBucket(ctx); err != nil {
			conns.Close(ctx)
			return nil, &ports.ConnectionError{Target: "s3", Err: err}
		}
		conns.S3 = s3c
	}

	return conns, nil
}

func openStore(ctx context.Context, db DB) (ports.RecordStore, error) {
	switch db.Driver {
	case DriverMySQL:
		conn, err := mysql.NewConnection(ctx, db.MySQL)
		if err != nil {
			return nil, &ports.ConnectionError{Target: "mysql", Err: err}
		}
		repo, err := database.NewCommentsRepo(conn.DB, db.Table, database.MySQL)
		if err != nil {
			conn.Close()
			return nil, err
		}
		return repo, nil
	case DriverPostgres:
		conn, err := postgres.NewConnection(ctx, db.Postgres)
		if err != nil {
			return nil, &ports.ConnectionError{Target: "postgres", Err: err}
		}
		repo, err := database.NewPgCommentsRepo(conn, db.Table)
		if err != nil {
			conn.Close()
			return nil, err
		}
		return repo, nil
	case DriverSQLite:
		conn, err := sqlite.NewConnection(ctx, db.SQLite)
		if err != nil {
			return nil, &ports.ConnectionError{Target: "sqlite", Err: err}
		}
		repo, err := database.NewCommentsRepo(conn.DB, db.Table, database.SQLite)
		if err != nil {
			conn.Close()
			return nil, err
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unsupported driver %q", db.Driver)
	}
}

func (c *Connections) CheckConnections(ctx context.Context) error {
	var errs []error

	if c.Store == nil {
		errs = append(errs, errors.New("database not initialized"))
	} else if err := c.Store.Ping(ctx); err != nil {
		errs = append(errs, fmt.Errorf("database ping failed: %w", err))
	}

	if c.Mongo != nil {
		if err := c.Mongo.Client.Ping(ctx, nil); err != nil {
			errs = append(errs, fmt.Errorf("mongo ping failed: %w", err))
		}
	}

	if c.S3 != nil {
		if err := c.S3.Ping(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (c *Connections) Close(ctx context.Context) {
	if c.Store != nil {
		if err := c.Store.Close(); err != nil {
			log.Printf("[CONFIG][WARN] close database: %v", err)
		}
	}
	if c.Mongo != nil {
		if err := c.Mongo.Close(ctx); err != nil {
			log.Printf("[CONFIG][WARN] close mongo: %v", err)
		}
	}
}
