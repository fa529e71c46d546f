package models

type Config struct {
	Warehouse WarehouseConfig `yaml:"warehouse"`
	ModelRepo ModelRepo       `yaml:"model_repo"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
}

// WarehouseConfig describes the target warehouse connection. Driver selects
// the database/sql driver: "snowflake", "postgres", or "sqlite3".
type WarehouseConfig struct {
	Driver    string `yaml:"driver"`
	Account   string `yaml:"account"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	Database  string `yaml:"database"`
	Schema    string `yaml:"schema"`
	Warehouse string `yaml:"warehouse"`
	Role      string `yaml:"role"`
	DSN       string `yaml:"dsn"`     // used verbatim for postgres/sqlite3
	Timeout   string `yaml:"timeout"` // connection timeout, e.g. "30s"
}

// ModelRepo points at the git repository holding the analytics model files.
type ModelRepo struct {
	GitURL    string `yaml:"git_url"`
	Branch    string `yaml:"branch"`
	Path      string `yaml:"path"` // local checkout / models directory
	AuthToken string `yaml:"auth_token,omitempty"`
}

// PipelineConfig holds run-level pipeline settings.
type PipelineConfig struct {
	ProcedureName string `yaml:"procedure_name"` // audit log procedure name
	AuditLimit    int    `yaml:"audit_limit"`    // rows shown by the audit command
}
