package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"techdebt_export/internal/adapters/notion"
	"techdebt_export/internal/config/connections/mongo"
	"techdebt_export/internal/config/connections/mysql"
	"techdebt_export/internal/config/connections/postgres"
	"techdebt_export/internal/config/connections/s3"
	"techdebt_export/internal/config/connections/sqlite"
	"techdebt_export/internal/repository/database"

	"github.com/joho/godotenv"
)

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type DB struct {
	Driver   string
	Table    string
	MySQL    mysql.ConnectionInfo
	Postgres postgres.ConnectionInfo
	SQLite   sqlite.ConnectionInfo
}

type Config struct {
	DB     DB
	Notion notion.Config

	// nil when the journal / report sinks are switched off
	Mongo *mongo.ConnectionInfo
	S3    *s3.ConnectionInfo

	ReportPrefix string

	Schedule string
	Port     string
	APIToken string

	OTLPEndpoint string
	OTLPInsecure bool

	// malformed numeric / boolean variables, reported by Validate
	envErrs []error
}

// Load reads the environment, with .env values filling the gaps.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var envErrs []error

	driver := strings.ToLower(getenv("DB_DRIVER", DriverMySQL))
	host := getenv("DB_HOST", "127.0.0.1")
	user := getenv("DB_USER", "root")
	password := getenv("DB_PASSWORD", "")
	name := getenv("DB_NAME", "logapplet")

	cfg := &Config{
		DB: DB{
			Driver: driver,
			Table:  getenv("DB_TABLE", "tblgbcomments"),
			MySQL: mysql.ConnectionInfo{
				Host:     host,
				Port:     getenv("DB_PORT", "3306"),
				User:     user,
				Password: password,
				DB:       name,
			},
			Postgres: postgres.ConnectionInfo{
				Host:     host,
				Port:     getenv("DB_PORT", "5432"),
				User:     user,
				Password: password,
				DB:       name,
				SSLMode:  getenv("DB_SSLMODE", "disable"),
			},
			SQLite: sqlite.ConnectionInfo{
				Path: getenv("DB_PATH", "logapplet.db"),
			},
		},
		Notion: notion.Config{
			BaseURL:    getenv("NOTION_API_URL", notion.DefaultBaseURL),
			Token:      getenv("NOTION_TOKEN", ""),
			Version:    getenv("NOTION_VERSION", notion.DefaultVersion),
			DatabaseID: getenv("NOTION_DATABASE_ID", ""),
			Status:     getenv("NOTION_STATUS", notion.DefaultStatus),
			LogAppURL:  getenv("LOGAPP_URL", notion.DefaultLogApp),
			Timeout:    time.Duration(getenvInt("NOTION_TIMEOUT_SEC", 30, &envErrs)) * time.Second,
		},
		ReportPrefix: getenv("REPORT_PREFIX", "reports"),
		Schedule:     getenv("EXPORT_SCHEDULE", "*/15 * * * *"),
		Port:         getenv("SERVER_PORT", "8070"),
		APIToken:     getenv("EXPORTER_API_TOKEN", ""),
		OTLPEndpoint: getenv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTLPInsecure: getenvBool("OTEL_EXPORTER_OTLP_INSECURE", true, &envErrs),
	}

	if getenvBool("MONGO_ENABLED", false, &envErrs) {
		cfg.Mongo = &mongo.ConnectionInfo{
			Scheme:     getenv("MONGO_SCHEME", "mongodb"),
			User:       getenv("MONGO_USER", "root"),
			Password:   getenv("MONGO_PASSWORD", "secret"),
			Host:       getenv("MONGO_HOST", "127.0.0.1"),
			Port:       getenv("MONGO_PORT", "27017"),
			DB:         getenv("MONGO_DB", "techdebt_export"),
			AuthSource: getenv("MONGO_AUTH_SOURCE", "admin"),
		}
	}

	if getenvBool("REPORT_ENABLED", false, &envErrs) {
		cfg.S3 = &s3.ConnectionInfo{
			Endpoint:  getenv("AWS_ENDPOINT", "localhost:9000"),
			AccessKey: getenv("AWS_ACCESS_KEY_ID", "minioadmin"),
			SecretKey: getenv("AWS_SECRET_ACCESS_KEY", "minioadmin"),
			Region:    getenv("AWS_DEFAULT_REGION", "us-east-1"),
			Bucket:    getenv("AWS_BUCKET", "exports"),
			UseSSL:    getenvBool("AWS_USE_SSL", false, &envErrs),
		}
	}

	cfg.envErrs = envErrs

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	errs := append([]error(nil), c.envErrs...)

	switch c.DB.Driver {
	case DriverMySQL, DriverPostgres, DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER %q is not one of mysql, postgres, sqlite", c.DB.Driver))
	}
	if !database.ValidTableName(c.DB.Table) {
		errs = append(errs, fmt.Errorf("DB_TABLE %q is not a plain identifier", c.DB.Table))
	}
	if strings.TrimSpace(c.Notion.Token) == "" {
		errs = append(errs, errors.New("NOTION_TOKEN is required"))
	}
	if strings.TrimSpace(c.Notion.DatabaseID) == "" {
		errs = append(errs, errors.New("NOTION_DATABASE_ID is required"))
	}
	if c.S3 != nil && strings.Contains(c.S3.Endpoint, "://") {
		errs = append(errs, fmt.Errorf("AWS_ENDPOINT %q must be host[:port] without scheme", c.S3.Endpoint))
	}

	return errors.Join(errs...)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvInt(k string, def int, errs *[]error) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s %q is not an integer", k, v))
		return def
	}
	return n
}

func getenvBool(k string, def bool, errs *[]error) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s %q is not a boolean", k, v))
		return def
	}
	return b
}
