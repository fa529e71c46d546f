package warehouse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"petalbrew/pkg/errors"
	"petalbrew/pkg/models"
)

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name      string
		config    models.WarehouseConfig
		wantError bool
	}{
		{
			name: "valid snowflake config",
			config: models.WarehouseConfig{
				Driver:    "snowflake",
				Account:   "petalbrew.us-east-1",
				Username:  "etl_user",
				Password:  "secret",
				Database:  "PETALBREW",
				Schema:    "PUBLIC",
				Warehouse: "ETL_WH",
			},
			wantError: false,
		},
		{
			name: "snowflake missing account",
			config: models.WarehouseConfig{
				Driver: "snowflake", Username: "etl_user", Password: "secret", Warehouse: "ETL_WH",
			},
			wantError: true,
		},
		{
			name: "snowflake missing password",
			config: models.WarehouseConfig{
				Driver: "snowflake", Account: "petalbrew", Username: "etl_user", Warehouse: "ETL_WH",
			},
			wantError: true,
		},
		{
			name:      "postgres with dsn",
			config:    models.WarehouseConfig{Driver: "postgres", DSN: "host=localhost dbname=petalbrew"},
			wantError: false,
		},
		{
			name:      "postgres without dsn or host",
			config:    models.WarehouseConfig{Driver: "postgres"},
			wantError: true,
		},
		{
			name:      "sqlite3 needs a file",
			config:    models.WarehouseConfig{Driver: "sqlite3"},
			wantError: true,
		},
		{
			name:      "sqlite3 with file",
			config:    models.WarehouseConfig{Driver: "sqlite3", DSN: "dev.db"},
			wantError: false,
		},
		{
			name:      "unknown driver",
			config:    models.WarehouseConfig{Driver: "oracle"},
			wantError: true,
		},
		{
			name:      "missing driver",
			config:    models.WarehouseConfig{},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateConfig(tt.config)
			if tt.wantError {
				assert.Error(t, err)
				assert.Equal(t, errors.ErrCodeConfigInvalid, errors.GetErrorCode(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDSN(t *testing.T) {
	snowflake := models.WarehouseConfig{
		Driver:    "snowflake",
		Account:   "petalbrew.us-east-1",
		Username:  "etl_user",
		Password:  "secret",
		Database:  "PETALBREW",
		Schema:    "PUBLIC",
		Warehouse: "ETL_WH",
		Role:      "TRANSFORMER",
	}
	assert.Equal(t,
		"etl_user:secret@petalbrew.us-east-1/PETALBREW/PUBLIC?warehouse=ETL_WH&role=TRANSFORMER",
		DSN(snowflake))

	explicit := models.WarehouseConfig{Driver: "postgres", DSN: "host=localhost dbname=petalbrew"}
	assert.Equal(t, "host=localhost dbname=petalbrew", DSN(explicit), "an explicit DSN wins")
}

func TestNewServiceTimeout(t *testing.T) {
	s := NewService(models.WarehouseConfig{Driver: "sqlite3", DSN: "dev.db"})
	assert.Equal(t, 30*time.Second, s.timeout, "default when unset")
	assert.False(t, s.connected)

	s = NewService(models.WarehouseConfig{Driver: "sqlite3", DSN: "dev.db", Timeout: "45s"})
	assert.Equal(t, 45*time.Second, s.timeout)

	s = NewService(models.WarehouseConfig{Driver: "sqlite3", DSN: "dev.db", Timeout: "soon"})
	assert.Equal(t, 30*time.Second, s.timeout, "unparseable falls back to the default")
}
