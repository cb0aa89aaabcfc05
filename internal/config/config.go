package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config holds the runtime settings for the classification pipeline.
type Config struct {
	// DatabasePath locates the SQLite store for accepted rule payloads.
	DatabasePath string

	// MatchDeadline bounds each pattern evaluation on the hot path.
	MatchDeadline time.Duration
	// PatternWorkers sizes the bounded executor pool; zero selects from
	// available parallelism.
	PatternWorkers int
	// PatternCacheSize bounds the (pattern, input) result cache.
	PatternCacheSize int
	// MaxInputLength truncates snapshot text before pattern evaluation.
	MaxInputLength int

	// DedupWindow suppresses repeat detections of one fingerprint.
	DedupWindow time.Duration
	// DedupCapacity bounds the suppression cache.
	DedupCapacity int

	// AmountCeiling rejects amounts above it, as a string decimal.
	AmountCeiling string
	// MaxCounterpartLength bounds the counterpart label.
	MaxCounterpartLength int

	// ConsumerVersion gates rule payloads via their minAppVersion field.
	ConsumerVersion int
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		DatabasePath:         "~/.local/share/snapledger/snapledger.db",
		MatchDeadline:        50 * time.Millisecond,
		PatternCacheSize:     512,
		MaxInputLength:       10000,
		DedupWindow:          3 * time.Second,
		DedupCapacity:        20,
		AmountCeiling:        "1000000",
		MaxCounterpartLength: 64,
		ConsumerVersion:      1,
	}
}

// FromViper overlays viper-provided settings onto the defaults.
func FromViper(v *viper.Viper) Config {
	cfg := Default()

	if v.IsSet("database.path") {
		cfg.DatabasePath = v.GetString("database.path")
	}
	if v.IsSet("classifier.match_deadline") {
		cfg.MatchDeadline = v.GetDuration("classifier.match_deadline")
	}
	if v.IsSet("classifier.pattern_workers") {
		cfg.PatternWorkers = v.GetInt("classifier.pattern_workers")
	}
	if v.IsSet("classifier.pattern_cache_size") {
		cfg.PatternCacheSize = v.GetInt("classifier.pattern_cache_size")
	}
	if v.IsSet("classifier.max_input_length") {
		cfg.MaxInputLength = v.GetInt("classifier.max_input_length")
	}
	if v.IsSet("classifier.dedup_window") {
		cfg.DedupWindow = v.GetDuration("classifier.dedup_window")
	}
	if v.IsSet("classifier.dedup_capacity") {
		cfg.DedupCapacity = v.GetInt("classifier.dedup_capacity")
	}
	if v.IsSet("classifier.amount_ceiling") {
		cfg.AmountCeiling = v.GetString("classifier.amount_ceiling")
	}
	if v.IsSet("classifier.max_counterpart_length") {
		cfg.MaxCounterpartLength = v.GetInt("classifier.max_counterpart_length")
	}
	if v.IsSet("rules.consumer_version") {
		cfg.ConsumerVersion = v.GetInt("rules.consumer_version")
	}

	return cfg
}
