package dbmap

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/XSAM/otelsql"
	"github.com/go-playground/validator/v10"
	"github.com/go-sql-driver/mysql"
	"go.opentelemetry.io/otel/attribute"

	"github.com/sllt/dbmap/pkg/dbmap/template"

	_ "github.com/lib/pq"  // postgres driver
	_ "modernc.org/sqlite" // sqlite driver
)

// DBConfig describes a database connection the way kite datasources are
// configured. SQLite needs only Dialect and Database (the file path, or
// :memory:).
type DBConfig struct {
	Dialect  string `validate:"required"`
	Host     string `validate:"required_unless=Dialect sqlite Dialect sqlite3"`
	Port     int    `validate:"omitempty,min=1,max=65535"`
	User     string
	Password string
	Database string `validate:"required"`
	SSLMode  string
}

var validate = validator.New()

// Connect validates cfg, opens an instrumented connection for its dialect,
// and returns the handle together with the paramstyle the Go driver binds
// with (mysql and sqlite use qmark, postgres uses dollar).
func Connect(cfg DBConfig) (*sql.DB, template.ParamStyle, error) {
	if err := validate.Struct(cfg); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	driver, dsn, style, err := resolveDSN(cfg)
	if err != nil {
		return nil, "", err
	}

	db, err := otelsql.Open(driver, dsn,
		otelsql.WithAttributes(attribute.String("db.system", driver)))
	if err != nil {
		return nil, "", err
	}

	return db, style, nil
}

func resolveDSN(cfg DBConfig) (driver, dsn string, style template.ParamStyle, err error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Dialect)) {
	case "mysql", "mariadb":
		mc := mysql.NewConfig()
		mc.User = cfg.User
		mc.Passwd = cfg.Password
		mc.Net = "tcp"
		mc.Addr = cfg.Host + ":" + strconv.Itoa(portOrDefault(cfg.Port, 3306))
		mc.DBName = cfg.Database
		mc.ParseTime = true

		return "mysql", mc.FormatDSN(), template.Qmark, nil

	case "postgres", "postgresql":
		sslMode := cfg.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}

		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, portOrDefault(cfg.Port, 5432), cfg.User, cfg.Password, cfg.Database, sslMode)

		return "postgres", dsn, template.Dollar, nil

	case "sqlite", "sqlite3":
		return "sqlite", cfg.Database, template.Qmark, nil

	default:
		return "", "", "", fmt.Errorf("%w: unsupported dialect %q", ErrInvalidConfig, cfg.Dialect)
	}
}

func portOrDefault(port, fallback int) int {
	if port == 0 {
		return fallback
	}

	return port
}
