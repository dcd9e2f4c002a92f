package mysql

import (
	"context"
	"database/sql"
	"net"
	"time"

	driver "github.com/go-sql-driver/mysql"
)

type ConnectionInfo struct {
	Host     string
	Port     string
	User     string
	Password string
	DB       string
}

type MySQL struct {
	DB *sql.DB
}

func (info ConnectionInfo) DSN() string {
	cfg := driver.NewConfig()
	cfg.User = info.User
	cfg.Passwd = info.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(info.Host, info.Port)
	cfg.DBName = info.DB
	cfg.ParseTime = true
	cfg.Loc = time.Local
	return cfg.FormatDSN()
}

func NewConnection(ctx context.Context, info ConnectionInfo) (*MySQL, error) {
	db, err := sql.Open("mysql", info.DSN())
	if err != nil {
		return nil, err
	}

	// one run at a time touches the table
	db.SetMaxOpenConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return &MySQL{DB: db}, nil
}

func (m *MySQL) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}
