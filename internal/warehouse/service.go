// Package warehouse manages the database connection for the configured
// warehouse driver. Snowflake is the production target; postgres and
// sqlite3 serve staging environments and local development.
package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	_ "github.com/snowflakedb/gosnowflake"

	"petalbrew/internal/store"
	"petalbrew/pkg/errors"
	"petalbrew/pkg/models"
)

// Service provides warehouse database operations
type Service struct {
	db             *sql.DB
	config         models.WarehouseConfig
	timeout        time.Duration
	connected      bool
	circuitBreaker *errors.CircuitBreaker
}

// NewService creates a new warehouse service. The connection timeout comes
// from config.Timeout (a duration string like "45s"), defaulting to 30s
// when unset or unparseable.
func NewService(config models.WarehouseConfig) *Service {
	timeout := 30 * time.Second
	if config.Timeout != "" {
		if parsed, err := time.ParseDuration(config.Timeout); err == nil && parsed > 0 {
			timeout = parsed
		}
	}
	return &Service{
		config:         config,
		timeout:        timeout,
		circuitBreaker: errors.NewCircuitBreaker("warehouse", 5, 30*time.Second),
	}
}

// ValidateConfig checks that the configuration can produce a DSN.
func ValidateConfig(config models.WarehouseConfig) error {
	switch config.Driver {
	case "snowflake":
		if config.Account == "" {
			return errors.ConfigError("account is required", "warehouse.account")
		}
		if config.Username == "" {
			return errors.ConfigError("username is required", "warehouse.username")
		}
		if config.Password == "" {
			return errors.ConfigError("password is required", "warehouse.password")
		}
		if config.Warehouse == "" {
			return errors.ConfigError("warehouse is required", "warehouse.warehouse")
		}
	case "postgres":
		if config.DSN == "" && (config.Account == "" || config.Database == "") {
			return errors.ConfigError("dsn or host and database are required", "warehouse.dsn")
		}
	case "sqlite3":
		if config.DSN == "" {
			return errors.ConfigError("dsn (database file path) is required", "warehouse.dsn")
		}
	case "":
		return errors.ConfigError("driver is required", "warehouse.driver")
	default:
		return errors.ConfigError(
			fmt.Sprintf("unsupported driver %q (want snowflake, postgres, or sqlite3)", config.Driver),
			"warehouse.driver")
	}
	return nil
}

// DSN builds the driver connection string.
func DSN(config models.WarehouseConfig) string {
	if config.DSN != "" {
		return config.DSN
	}
	switch config.Driver {
	case "snowflake":
		return fmt.Sprintf("%s:%s@%s/%s/%s?warehouse=%s&role=%s",
			config.Username,
			config.Password,
			config.Account,
			config.Database,
			config.Schema,
			config.Warehouse,
			config.Role,
		)
	case "postgres":
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s sslmode=require",
			config.Account, config.Username, config.Password, config.Database)
	default:
		return ""
	}
}

// Connect establishes the warehouse connection, retrying recoverable
// failures behind a circuit breaker.
func (s *Service) Connect(ctx context.Context) error {
	if s.connected {
		return nil
	}
	if err := ValidateConfig(s.config); err != nil {
		return err
	}

	return s.circuitBreaker.Execute(ctx, func() error {
		return errors.RetryWithBackoff(ctx, func(ctx context.Context) error {
			db, err := sql.Open(s.config.Driver, DSN(s.config))
			if err != nil {
				return errors.ConnectionError("failed to open warehouse connection", err).
					WithContext("driver", s.config.Driver)
			}

			db.SetMaxOpenConns(10)
			db.SetMaxIdleConns(5)
			db.SetConnMaxLifetime(10 * time.Minute)

			pingCtx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()

			if err := db.PingContext(pingCtx); err != nil {
				db.Close()

				if strings.Contains(err.Error(), "authentication") ||
					strings.Contains(err.Error(), "password") {
					return errors.New(errors.ErrCodeAuthenticationFailed, "authentication failed").
						WithContext("user", s.config.Username).
						WithSuggestions(
							"Verify your username and password",
							"Run 'petalbrew setup' to refresh stored credentials",
						)
				}

				return errors.ConnectionError("failed to reach the warehouse", err).
					WithContext("driver", s.config.Driver).
					AsRecoverable()
			}

			s.db = db
			s.connected = true
			return nil
		})
	})
}

// Store returns a SQL-backed Store over the open connection.
func (s *Service) Store() (store.Store, error) {
	if !s.connected {
		return nil, errors.New(errors.ErrCodeConnectionFailed, "not connected to the warehouse")
	}
	return store.NewSQLStore(s.db, s.config.Driver), nil
}

// DB exposes the underlying connection for callers that need raw access.
func (s *Service) DB() *sql.DB {
	return s.db
}

// Close closes the warehouse connection.
func (s *Service) Close() error {
	if !s.connected {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close connection: %w", err)
	}
	s.connected = false
	return nil
}
