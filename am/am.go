package am

import "os"

// Config is the taxgraph configuration, merged from TOML files and
// TAXGRAPH_* environment variables.
type Config struct {
	Database   DatabaseConfig   `mapstructure:"database" toml:"database" json:"database" yaml:"database"`
	Normalizer NormalizerConfig `mapstructure:"normalizer" toml:"normalizer" json:"normalizer" yaml:"normalizer"`
	Source     SourceConfig     `mapstructure:"source" toml:"source" json:"source" yaml:"source"`
	Neo4j      Neo4jConfig      `mapstructure:"neo4j" toml:"neo4j" json:"neo4j" yaml:"neo4j"`
	Log        LogConfig        `mapstructure:"log" toml:"log" json:"log" yaml:"log"`
}

// DatabaseConfig locates the SQLite import store
type DatabaseConfig struct {
	Path string `mapstructure:"path" toml:"path" json:"path" yaml:"path"`
}

// NormalizerConfig tunes the normalization passes
type NormalizerConfig struct {
	BatchSize int `mapstructure:"batch_size" toml:"batch_size" json:"batch_size" yaml:"batch_size"` // nodes per resolver batch
	Workers   int `mapstructure:"workers" toml:"workers" json:"workers" yaml:"workers"`             // 0 = GOMAXPROCS

	// ClassificationPass forces the classification pass on or off.
	// "auto" runs it when the import mapped classification columns.
	ClassificationPass string `mapstructure:"classification_pass" toml:"classification_pass" json:"classification_pass" yaml:"classification_pass"`

	Verify bool `mapstructure:"verify" toml:"verify" json:"verify" yaml:"verify"`
}

// SourceConfig controls retrieval of remote checklist stores
type SourceConfig struct {
	FetchDir string `mapstructure:"fetch_dir" toml:"fetch_dir" json:"fetch_dir" yaml:"fetch_dir"`
}

// Neo4jConfig configures the graph export target
type Neo4jConfig struct {
	Enabled        bool   `mapstructure:"enabled" toml:"enabled" json:"enabled" yaml:"enabled"`
	URI            string `mapstructure:"uri" toml:"uri" json:"uri" yaml:"uri"`
	User           string `mapstructure:"user" toml:"user" json:"user" yaml:"user"`
	Password       string `mapstructure:"password" toml:"password" json:"-" yaml:"-"`
	Database       string `mapstructure:"database" toml:"database" json:"database" yaml:"database"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" toml:"timeout_seconds" json:"timeout_seconds" yaml:"timeout_seconds"`
	BatchSize      int    `mapstructure:"batch_size" toml:"batch_size" json:"batch_size" yaml:"batch_size"`
}

// LogConfig sets logger defaults; CLI flags override them
type LogConfig struct {
	JSON      bool `mapstructure:"json" toml:"json" json:"json" yaml:"json"`
	Verbosity int  `mapstructure:"verbosity" toml:"verbosity" json:"verbosity" yaml:"verbosity"`
}

// Classification pass modes
const (
	ClassificationAuto = "auto"
	ClassificationOn   = "on"
	ClassificationOff  = "off"
)

// File and directory names
const (
	ConfigFileName = "taxgraph.toml"
	UserDirName    = ".taxgraph"
	SystemDir      = "/etc/taxgraph"

	DefaultDirPermissions  os.FileMode = 0750
	DefaultFilePermissions os.FileMode = 0644
)
