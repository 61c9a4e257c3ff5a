package am

import (
	"github.com/spf13/viper"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", "taxgraph.db")

	v.SetDefault("normalizer.batch_size", 1000)
	v.SetDefault("normalizer.workers", 0) // GOMAXPROCS
	v.SetDefault("normalizer.classification_pass", ClassificationAuto)
	v.SetDefault("normalizer.verify", true)

	v.SetDefault("source.fetch_dir", ".taxgraph/sources")

	v.SetDefault("neo4j.enabled", false)
	v.SetDefault("neo4j.uri", "neo4j://localhost:7687")
	v.SetDefault("neo4j.user", "neo4j")
	v.SetDefault("neo4j.password", "")
	v.SetDefault("neo4j.database", "neo4j")
	v.SetDefault("neo4j.timeout_seconds", 30)
	v.SetDefault("neo4j.batch_size", 500)

	v.SetDefault("log.json", false)
	v.SetDefault("log.verbosity", 0)
}
