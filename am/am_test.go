package am

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func TestLoad_Defaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := LoadWithViper(v)
	if err != nil {
		t.Fatalf("LoadWithViper() failed: %v", err)
	}

	if cfg.Database.Path != "taxgraph.db" {
		t.Errorf("expected default database path 'taxgraph.db', got %q", cfg.Database.Path)
	}
	if cfg.Normalizer.BatchSize != 1000 {
		t.Errorf("expected default batch size 1000, got %d", cfg.Normalizer.BatchSize)
	}
	if cfg.Normalizer.ClassificationPass != ClassificationAuto {
		t.Errorf("expected classification pass %q, got %q", ClassificationAuto, cfg.Normalizer.ClassificationPass)
	}
	if !cfg.Normalizer.Verify {
		t.Error("expected verify to default to true")
	}
	if cfg.Neo4j.URI != "neo4j://localhost:7687" {
		t.Errorf("expected default neo4j uri, got %q", cfg.Neo4j.URI)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		v := viper.New()
		SetDefaults(v)
		cfg, _ := LoadWithViper(v)
		return *cfg
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(c *Config) {}, wantErr: false},
		{name: "zero workers means one per cpu", mutate: func(c *Config) { c.Normalizer.Workers = 0 }, wantErr: false},
		{name: "negative workers", mutate: func(c *Config) { c.Normalizer.Workers = -1 }, wantErr: true},
		{name: "zero batch size", mutate: func(c *Config) { c.Normalizer.BatchSize = 0 }, wantErr: true},
		{name: "unknown classification mode", mutate: func(c *Config) { c.Normalizer.ClassificationPass = "sometimes" }, wantErr: true},
		{name: "empty database path", mutate: func(c *Config) { c.Database.Path = "" }, wantErr: true},
		{name: "neo4j enabled without uri", mutate: func(c *Config) {
			c.Neo4j.Enabled = true
			c.Neo4j.URI = ""
		}, wantErr: true},
		{name: "neo4j disabled without uri", mutate: func(c *Config) { c.Neo4j.URI = "" }, wantErr: false},
		{name: "negative neo4j timeout", mutate: func(c *Config) { c.Neo4j.TimeoutSeconds = -5 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestClassificationEnabled(t *testing.T) {
	tests := []struct {
		mode   string
		mapped bool
		want   bool
	}{
		{ClassificationAuto, true, true},
		{ClassificationAuto, false, false},
		{"", true, true},
		{ClassificationOn, false, true},
		{ClassificationOff, true, false},
	}
	for _, tt := range tests {
		c := NormalizerConfig{ClassificationPass: tt.mode}
		if got := c.ClassificationEnabled(tt.mapped); got != tt.want {
			t.Errorf("ClassificationEnabled(%q, %v) = %v, want %v", tt.mode, tt.mapped, got, tt.want)
		}
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	content := `
[database]
path = "checklists/aves.db"

[normalizer]
batch_size = 250
workers = 4

[neo4j]
enabled = true
uri = "bolt://graph:7687"
`
	if err := os.WriteFile(path, []byte(content), DefaultFilePermissions); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() failed: %v", err)
	}

	if cfg.Database.Path != "checklists/aves.db" {
		t.Errorf("database.path = %q", cfg.Database.Path)
	}
	if cfg.Normalizer.BatchSize != 250 || cfg.Normalizer.Workers != 4 {
		t.Errorf("normalizer = %+v", cfg.Normalizer)
	}
	if !cfg.Neo4j.Enabled || cfg.Neo4j.URI != "bolt://graph:7687" {
		t.Errorf("neo4j = %+v", cfg.Neo4j)
	}
	// untouched keys keep defaults
	if cfg.Neo4j.BatchSize != 500 {
		t.Errorf("neo4j.batch_size = %d, want default 500", cfg.Neo4j.BatchSize)
	}
}

func TestLoadFromFile_Missing(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestFindProjectConfig(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("found in parent directory", func(t *testing.T) {
		subDir := filepath.Join(tmpDir, "project", "nested", "deeper")
		os.MkdirAll(subDir, DefaultDirPermissions)
		os.WriteFile(filepath.Join(tmpDir, "project", ConfigFileName), []byte(""), DefaultFilePermissions)

		oldWd, _ := os.Getwd()
		defer os.Chdir(oldWd)
		os.Chdir(subDir)

		result := findProjectConfig()
		if result == "" {
			t.Fatal("expected to find config file")
		}
		if !filepath.IsAbs(result) {
			t.Error("expected absolute path")
		}
		if filepath.Base(result) != ConfigFileName {
			t.Errorf("expected %s, got %s", ConfigFileName, filepath.Base(result))
		}
	})
}

func TestWriteFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", ConfigFileName)

	v := viper.New()
	SetDefaults(v)
	cfg, _ := LoadWithViper(v)
	cfg.Normalizer.Workers = 8

	if err := WriteFile(path, cfg); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}
	// second write rotates the first into .back1
	if err := WriteFile(path, cfg); err != nil {
		t.Fatalf("WriteFile() second call failed: %v", err)
	}
	if _, err := os.Stat(path + ".back1"); err != nil {
		t.Errorf("expected backup file: %v", err)
	}

	loaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() failed: %v", err)
	}
	if loaded.Normalizer.Workers != 8 {
		t.Errorf("workers = %d, want 8", loaded.Normalizer.Workers)
	}
}

func TestIntrospectMasksSecrets(t *testing.T) {
	Reset()
	defer Reset()
	t.Setenv("TAXGRAPH_NEO4J_PASSWORD", "hunter2")

	settings, err := Introspect()
	if err != nil {
		t.Fatalf("Introspect() failed: %v", err)
	}

	found := false
	for _, s := range settings {
		if s.Key != "neo4j.password" {
			continue
		}
		found = true
		if s.Value != "********" {
			t.Errorf("password not masked: %v", s.Value)
		}
		if s.Source != SourceEnvironment {
			t.Errorf("source = %s, want environment", s.Source)
		}
	}
	if !found {
		t.Error("neo4j.password missing from introspection")
	}
}
