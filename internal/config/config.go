package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/example/srscore/internal/engine"
	"github.com/example/srscore/internal/forgetting"
	"github.com/example/srscore/internal/queue"
	"github.com/example/srscore/internal/spaced_repetition"
	"github.com/example/srscore/pkg/models"
)

// EnvPrefix prefixes every environment override, e.g. SRS_QUEUE_MAX_NEW_CARDS
const EnvPrefix = "SRS"

// ErrInvalidConfig is returned by Validate
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config holds all configuration for the application
type Config struct {
	Scheduling spaced_repetition.Config `mapstructure:"scheduling"`
	Queue      queue.Config             `mapstructure:"queue"`
	Curve      forgetting.Config        `mapstructure:"curve"`
	Database   DatabaseConfig           `mapstructure:"database"`
	Log        LogConfig                `mapstructure:"log"`
	Jobs       JobsConfig               `mapstructure:"jobs"`
}

// Canonical database.type values
const (
	DatabaseSQLite   = "sqlite"
	DatabasePostgres = "postgres"
	DatabaseMySQL    = "mysql"
)

// NormalizeDatabaseType maps case variants and the sqlite3/postgresql aliases
// onto the canonical type names. Empty means sqlite; anything else is returned lowercased.
func NormalizeDatabaseType(dbType string) string {
	switch t := strings.ToLower(strings.TrimSpace(dbType)); t {
	case "", "sqlite", "sqlite3":
		return DatabaseSQLite
	case "postgres", "postgresql":
		return DatabasePostgres
	default:
		return t
	}
}

// DatabaseConfig selects the storage backend
type DatabaseConfig struct {
	Type string `mapstructure:"type"` // sqlite, postgres or mysql
	Path string `mapstructure:"path"` // sqlite file
	URL  string `mapstructure:"url"`  // postgres / mysql DSN
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
}

// JobsConfig holds the background job intervals
type JobsConfig struct {
	CleanupInterval         time.Duration `mapstructure:"cleanup_interval"`
	SnapshotInterval        time.Duration `mapstructure:"snapshot_interval"`
	PriorityRefreshInterval time.Duration `mapstructure:"priority_refresh_interval"`
}

// Load reads an optional .env file, defaults, the optional config file at path
// and SRS_ environment overrides, in increasing precedence.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg.Database.Type = NormalizeDatabaseType(cfg.Database.Type)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults mirrors the component defaults so every key is known to viper
func setDefaults(v *viper.Viper) {
	s := spaced_repetition.DefaultConfig()
	v.SetDefault("scheduling.minimum_ease_factor", s.MinimumEaseFactor)
	v.SetDefault("scheduling.maximum_ease_factor", s.MaximumEaseFactor)
	v.SetDefault("scheduling.ease_factor_change", s.EaseFactorChange)
	v.SetDefault("scheduling.interval_multiplier", s.IntervalMultiplier)
	v.SetDefault("scheduling.graduating_interval", s.GraduatingInterval)
	v.SetDefault("scheduling.easy_interval", s.EasyInterval)
	v.SetDefault("scheduling.easy_bonus", s.EasyBonus)
	v.SetDefault("scheduling.lapse_penalty", s.LapsePenalty)
	v.SetDefault("scheduling.max_interval", s.MaxInterval)
	v.SetDefault("scheduling.young_interval", s.YoungInterval)
	v.SetDefault("scheduling.mature_interval", s.MatureInterval)
	v.SetDefault("scheduling.master_interval", s.MasterInterval)

	q := queue.DefaultConfig()
	v.SetDefault("queue.max_new_cards", q.MaxNewCards)
	v.SetDefault("queue.max_review_cards", q.MaxReviewCards)
	v.SetDefault("queue.session_minutes", q.SessionMinutes)
	v.SetDefault("queue.new_card_ratio", q.NewCardRatio)
	v.SetDefault("queue.default_card_seconds", q.DefaultCardSeconds)
	v.SetDefault("queue.difficulty_preference", string(q.DifficultyPreference))
	v.SetDefault("queue.enforce_prerequisites", q.EnforcePrerequisites)
	v.SetDefault("queue.prerequisite_weight", q.PrerequisiteWeight)
	v.SetDefault("queue.burnout.enabled", q.Burnout.Enabled)
	v.SetDefault("queue.burnout.max_consecutive_difficult", q.Burnout.MaxConsecutiveDifficult)
	v.SetDefault("queue.burnout.look_ahead", q.Burnout.LookAhead)
	v.SetDefault("queue.burnout.difficult_priority", q.Burnout.DifficultPriority)
	v.SetDefault("queue.burnout.difficult_factor", q.Burnout.DifficultFactor)

	c := forgetting.DefaultConfig()
	v.SetDefault("curve.buffer_size", c.BufferSize)
	v.SetDefault("curve.fit_window", c.FitWindow)
	v.SetDefault("curve.min_points_for_fit", c.MinPointsForFit)
	v.SetDefault("curve.default_decay_rate", c.DefaultDecayRate)
	v.SetDefault("curve.default_target_retention", c.DefaultTargetRetention)
	v.SetDefault("curve.stale_after", c.StaleAfter)
	v.SetDefault("curve.min_points_to_keep", c.MinPointsToKeep)
	v.SetDefault("curve.fast_forgetter_decay", c.FastForgetterDecay)

	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.path", "data/srscore.db")
	v.SetDefault("database.url", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("jobs.cleanup_interval", 24*time.Hour)
	v.SetDefault("jobs.snapshot_interval", 15*time.Minute)
	v.SetDefault("jobs.priority_refresh_interval", time.Hour)
}

// Validate rejects impossible values
func (c *Config) Validate() error {
	if err := c.Scheduling.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	q := c.Queue
	switch {
	case q.NewCardRatio < 0 || q.NewCardRatio > 1:
		return fmt.Errorf("%w: queue.new_card_ratio must be within [0, 1]", ErrInvalidConfig)
	case q.MaxNewCards < 0 || q.MaxReviewCards <= 0:
		return fmt.Errorf("%w: queue card caps must be positive", ErrInvalidConfig)
	case q.SessionMinutes <= 0 || q.DefaultCardSeconds <= 0:
		return fmt.Errorf("%w: queue session length and card time must be positive", ErrInvalidConfig)
	case q.PrerequisiteWeight < 0 || q.PrerequisiteWeight > 1:
		return fmt.Errorf("%w: queue.prerequisite_weight must be within [0, 1]", ErrInvalidConfig)
	}
	switch q.DifficultyPreference {
	case models.PreferEasyFirst, models.PreferMixed, models.PreferHardFirst:
	default:
		return fmt.Errorf("%w: unknown difficulty preference %q", ErrInvalidConfig, q.DifficultyPreference)
	}

	cv := c.Curve
	switch {
	case cv.BufferSize <= 0 || cv.FitWindow <= 0 || cv.FitWindow > cv.BufferSize:
		return fmt.Errorf("%w: curve.fit_window must be positive and within curve.buffer_size", ErrInvalidConfig)
	case cv.DefaultTargetRetention <= 0 || cv.DefaultTargetRetention >= 1:
		return fmt.Errorf("%w: curve.default_target_retention must be within (0, 1)", ErrInvalidConfig)
	}

	switch dbType := NormalizeDatabaseType(c.Database.Type); dbType {
	case DatabaseSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("%w: database.path is required for sqlite", ErrInvalidConfig)
		}
	case DatabasePostgres, DatabaseMySQL:
		if c.Database.URL == "" {
			return fmt.Errorf("%w: database.url is required for %s", ErrInvalidConfig, dbType)
		}
	default:
		return fmt.Errorf("%w: unknown database type %q", ErrInvalidConfig, c.Database.Type)
	}

	if c.Log.Format != "json" && c.Log.Format != "console" {
		return fmt.Errorf("%w: log.format must be json or console", ErrInvalidConfig)
	}

	j := c.Jobs
	if j.CleanupInterval <= 0 || j.SnapshotInterval <= 0 || j.PriorityRefreshInterval <= 0 {
		return fmt.Errorf("%w: job intervals must be positive", ErrInvalidConfig)
	}
	return nil
}

// Engine extracts the engine settings
func (c *Config) Engine() engine.Config {
	return engine.Config{
		Scheduling: c.Scheduling,
		Queue:      c.Queue,
		Curve:      c.Curve,
	}
}
