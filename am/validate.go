package am

import "github.com/teranos/taxgraph/errors"

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database.path cannot be empty")
	}

	if c.Normalizer.BatchSize <= 0 {
		return errors.Newf("normalizer.batch_size must be > 0, got %d", c.Normalizer.BatchSize)
	}
	// 0 = one worker per CPU
	if c.Normalizer.Workers < 0 {
		return errors.Newf("normalizer.workers must be >= 0, got %d", c.Normalizer.Workers)
	}
	switch c.Normalizer.ClassificationPass {
	case ClassificationAuto, ClassificationOn, ClassificationOff, "":
	default:
		return errors.Newf("normalizer.classification_pass must be auto, on or off, got %q",
			c.Normalizer.ClassificationPass)
	}

	if c.Neo4j.BatchSize <= 0 {
		return errors.Newf("neo4j.batch_size must be > 0, got %d", c.Neo4j.BatchSize)
	}
	if c.Neo4j.TimeoutSeconds < 0 {
		return errors.Newf("neo4j.timeout_seconds must be >= 0, got %d", c.Neo4j.TimeoutSeconds)
	}
	if c.Neo4j.Enabled && c.Neo4j.URI == "" {
		return errors.New("neo4j.uri cannot be empty when neo4j export is enabled")
	}

	if c.Log.Verbosity < 0 {
		return errors.Newf("log.verbosity must be >= 0, got %d", c.Log.Verbosity)
	}

	return nil
}

// ClassificationEnabled resolves the classification pass mode against what
// the import actually mapped.
func (c *NormalizerConfig) ClassificationEnabled(mapped bool) bool {
	switch c.ClassificationPass {
	case ClassificationOn:
		return true
	case ClassificationOff:
		return false
	default:
		return mapped
	}
}
