// Package config loads service configuration from defaults, an optional
// YAML file and DOCVERIFY_* environment variables, in increasing precedence.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	EnvPrefix     = "DOCVERIFY"
	EnvConfigFile = "DOCVERIFY_CONFIG"
)

type Config struct {
	Environment string      `mapstructure:"environment"`
	Server      Server      `mapstructure:"server"`
	Log         Log         `mapstructure:"log"`
	Storage     Storage     `mapstructure:"storage"`
	Database    Database    `mapstructure:"database"`
	Redis       RedisConfig `mapstructure:"redis"`
	Kafka       Kafka       `mapstructure:"kafka"`
	Analyzers   Analyzers   `mapstructure:"analyzers"`
	Pipeline    Pipeline    `mapstructure:"pipeline"`
	Retention   Retention   `mapstructure:"retention"`
	Auth        Auth        `mapstructure:"auth"`
	Calibration Calibration `mapstructure:"calibration"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// MaxUploadBytes bounds the whole multipart body, all slots together.
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	// OpsSampleRate is the fraction of operational audit events kept.
	OpsSampleRate float64 `mapstructure:"ops_sample_rate"`
}

// Storage selects where raw uploads are written.
type Storage struct {
	Driver   string `mapstructure:"driver"` // local | s3
	BasePath string `mapstructure:"base_path"`
	S3       S3     `mapstructure:"s3"`
}

type S3 struct {
	Bucket          string `mapstructure:"bucket"`
	Prefix          string `mapstructure:"prefix"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	ForcePathStyle  bool   `mapstructure:"force_path_style"`
}

// Database configures postgres. An empty URL selects in-memory stores.
type Database struct {
	URL             string        `mapstructure:"url"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	TxTimeout       time.Duration `mapstructure:"tx_timeout"`
}

// RedisConfig configures the distributed lock backend. An empty URL selects
// the in-process locker.
type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	LockTTL      time.Duration `mapstructure:"lock_ttl"`
}

// Kafka configures the audit outbox relay. No brokers disables the relay.
type Kafka struct {
	Brokers       []string      `mapstructure:"brokers"`
	TopicPrefix   string        `mapstructure:"topic_prefix"`
	Partitions    int32         `mapstructure:"partitions"`
	Replication   int16         `mapstructure:"replication"`
	RelayInterval time.Duration `mapstructure:"relay_interval"`
	RelayBatch    int           `mapstructure:"relay_batch"`
}

// Analyzers configures the remote ML analyzer service.
type Analyzers struct {
	RemoteURL        string        `mapstructure:"remote_url"`
	Timeout          time.Duration `mapstructure:"timeout"`
	FailureThreshold int           `mapstructure:"failure_threshold"`
	SuccessThreshold int           `mapstructure:"success_threshold"`
	Cooldown         time.Duration `mapstructure:"cooldown"`
}

type Pipeline struct {
	CheckTimeout   time.Duration `mapstructure:"check_timeout"`
	MaxConcurrency int64         `mapstructure:"max_concurrency"`
	MaxFileBytes   int64         `mapstructure:"max_file_bytes"`
}

type Retention struct {
	Window               time.Duration `mapstructure:"window"`
	SweepInterval        time.Duration `mapstructure:"sweep_interval"`
	SweepEnabled         bool          `mapstructure:"sweep_enabled"`
	RevalidationWarnDays int           `mapstructure:"revalidation_warn_days"`
	RevalidationInterval time.Duration `mapstructure:"revalidation_interval"`
	RevalidationEnabled  bool          `mapstructure:"revalidation_enabled"`
}

type Auth struct {
	JWTSigningKey string `mapstructure:"jwt_signing_key"`
	Issuer        string `mapstructure:"issuer"`
	Audience      string `mapstructure:"audience"`
}

// Calibration holds every weight and threshold the scoring and decision
// rules use.
type Calibration struct {
	Document DocumentCalibration `mapstructure:"document"`
	Face     FaceCalibration     `mapstructure:"face"`
}

type DocumentCalibration struct {
	MinWidth  int `mapstructure:"min_width"`
	MinHeight int `mapstructure:"min_height"`

	ResolutionPoints float64 `mapstructure:"resolution_points"`
	SharpnessWeight  float64 `mapstructure:"sharpness_weight"`
	BrightnessWeight float64 `mapstructure:"brightness_weight"`
	ContrastWeight   float64 `mapstructure:"contrast_weight"`

	QualityWeight    float64 `mapstructure:"quality_weight"`
	TypeWeight       float64 `mapstructure:"type_weight"`
	SecurityWeight   float64 `mapstructure:"security_weight"`
	ValidationWeight float64 `mapstructure:"validation_weight"`
	TamperingWeight  float64 `mapstructure:"tampering_weight"`

	ValidationPassScore float64 `mapstructure:"validation_pass_score"`
	ValidationFailScore float64 `mapstructure:"validation_fail_score"`
	RequiredValidFields int     `mapstructure:"required_valid_fields"`
	MinimumAge          int     `mapstructure:"minimum_age"`

	VerifiedThreshold float64 `mapstructure:"verified_threshold"`
	ReviewThreshold   float64 `mapstructure:"review_threshold"`
}

type FaceCalibration struct {
	LivenessBonus     float64 `mapstructure:"liveness_bonus"`
	LivenessPassScore float64 `mapstructure:"liveness_pass_score"`
	AgeBonus          float64 `mapstructure:"age_bonus"`
	AgeToleranceYears float64 `mapstructure:"age_tolerance_years"`

	MatchConfidence       float64 `mapstructure:"match_confidence"`
	MatchSimilarity       float64 `mapstructure:"match_similarity"`
	LikelyMatchConfidence float64 `mapstructure:"likely_match_confidence"`
	LikelyMatchSimilarity float64 `mapstructure:"likely_match_similarity"`
	ReviewConfidence      float64 `mapstructure:"review_confidence"`
}

// DefaultDocumentCalibration returns the production document weights.
func DefaultDocumentCalibration() DocumentCalibration {
	return DocumentCalibration{
		MinWidth:            800,
		MinHeight:           600,
		ResolutionPoints:    25,
		SharpnessWeight:     0.30,
		BrightnessWeight:    0.25,
		ContrastWeight:      0.20,
		QualityWeight:       0.20,
		TypeWeight:          0.15,
		SecurityWeight:      0.25,
		ValidationWeight:    0.25,
		TamperingWeight:     0.15,
		ValidationPassScore: 90,
		ValidationFailScore: 30,
		RequiredValidFields: 4,
		MinimumAge:          18,
		VerifiedThreshold:   85,
		ReviewThreshold:     60,
	}
}

// DefaultFaceCalibration returns the production face-match thresholds.
func DefaultFaceCalibration() FaceCalibration {
	return FaceCalibration{
		LivenessBonus:         5,
		LivenessPassScore:     70,
		AgeBonus:              3,
		AgeToleranceYears:     10,
		MatchConfidence:       90,
		MatchSimilarity:       85,
		LikelyMatchConfidence: 70,
		LikelyMatchSimilarity: 70,
		ReviewConfidence:      50,
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 2*time.Minute)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.max_upload_bytes", 45<<20)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.ops_sample_rate", 1.0)

	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.base_path", "./data/verifications")
	v.SetDefault("storage.s3.bucket", "")
	v.SetDefault("storage.s3.prefix", "")
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("storage.s3.access_key_id", "")
	v.SetDefault("storage.s3.secret_access_key", "")
	v.SetDefault("storage.s3.force_path_style", false)

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)
	v.SetDefault("database.tx_timeout", 5*time.Second)

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.read_timeout", 3*time.Second)
	v.SetDefault("redis.write_timeout", 3*time.Second)
	v.SetDefault("redis.lock_ttl", 30*time.Second)

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic_prefix", "docverify")
	v.SetDefault("kafka.partitions", 3)
	v.SetDefault("kafka.replication", 1)
	v.SetDefault("kafka.relay_interval", time.Second)
	v.SetDefault("kafka.relay_batch", 100)

	v.SetDefault("analyzers.remote_url", "")
	v.SetDefault("analyzers.timeout", 10*time.Second)
	v.SetDefault("analyzers.failure_threshold", 5)
	v.SetDefault("analyzers.success_threshold", 2)
	v.SetDefault("analyzers.cooldown", 30*time.Second)

	v.SetDefault("pipeline.check_timeout", 15*time.Second)
	v.SetDefault("pipeline.max_concurrency", 8)
	v.SetDefault("pipeline.max_file_bytes", 10*1024*1024)

	v.SetDefault("retention.window", 72*time.Hour)
	v.SetDefault("retention.sweep_interval", 15*time.Minute)
	v.SetDefault("retention.sweep_enabled", true)
	v.SetDefault("retention.revalidation_warn_days", 30)
	v.SetDefault("retention.revalidation_interval", 24*time.Hour)
	v.SetDefault("retention.revalidation_enabled", false)

	v.SetDefault("auth.jwt_signing_key", "")
	v.SetDefault("auth.issuer", "docverify")
	v.SetDefault("auth.audience", "docverify-api")

	doc := DefaultDocumentCalibration()
	v.SetDefault("calibration.document.min_width", doc.MinWidth)
	v.SetDefault("calibration.document.min_height", doc.MinHeight)
	v.SetDefault("calibration.document.resolution_points", doc.ResolutionPoints)
	v.SetDefault("calibration.document.sharpness_weight", doc.SharpnessWeight)
	v.SetDefault("calibration.document.brightness_weight", doc.BrightnessWeight)
	v.SetDefault("calibration.document.contrast_weight", doc.ContrastWeight)
	v.SetDefault("calibration.document.quality_weight", doc.QualityWeight)
	v.SetDefault("calibration.document.type_weight", doc.TypeWeight)
	v.SetDefault("calibration.document.security_weight", doc.SecurityWeight)
	v.SetDefault("calibration.document.validation_weight", doc.ValidationWeight)
	v.SetDefault("calibration.document.tampering_weight", doc.TamperingWeight)
	v.SetDefault("calibration.document.validation_pass_score", doc.ValidationPassScore)
	v.SetDefault("calibration.document.validation_fail_score", doc.ValidationFailScore)
	v.SetDefault("calibration.document.required_valid_fields", doc.RequiredValidFields)
	v.SetDefault("calibration.document.minimum_age", doc.MinimumAge)
	v.SetDefault("calibration.document.verified_threshold", doc.VerifiedThreshold)
	v.SetDefault("calibration.document.review_threshold", doc.ReviewThreshold)

	face := DefaultFaceCalibration()
	v.SetDefault("calibration.face.liveness_bonus", face.LivenessBonus)
	v.SetDefault("calibration.face.liveness_pass_score", face.LivenessPassScore)
	v.SetDefault("calibration.face.age_bonus", face.AgeBonus)
	v.SetDefault("calibration.face.age_tolerance_years", face.AgeToleranceYears)
	v.SetDefault("calibration.face.match_confidence", face.MatchConfidence)
	v.SetDefault("calibration.face.match_similarity", face.MatchSimilarity)
	v.SetDefault("calibration.face.likely_match_confidence", face.LikelyMatchConfidence)
	v.SetDefault("calibration.face.likely_match_similarity", face.LikelyMatchSimilarity)
	v.SetDefault("calibration.face.review_confidence", face.ReviewConfidence)
}

// Load builds a Config. path may be empty, in which case DOCVERIFY_CONFIG is
// consulted; a missing file is only an error when a path was named.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks settings that would otherwise fail late at runtime.
func (c *Config) Validate() error {
	if c.Auth.JWTSigningKey == "" {
		if c.Environment == "production" {
			return fmt.Errorf("auth.jwt_signing_key must be set in production")
		}
		c.Auth.JWTSigningKey = "dev-secret-key-change-in-production"
	}
	switch c.Storage.Driver {
	case "local":
		if c.Storage.BasePath == "" {
			return fmt.Errorf("storage.base_path must be set for the local driver")
		}
	case "s3":
		if c.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket must be set for the s3 driver")
		}
	default:
		return fmt.Errorf("unknown storage.driver %q", c.Storage.Driver)
	}
	if c.Pipeline.MaxConcurrency <= 0 {
		return fmt.Errorf("pipeline.max_concurrency must be positive")
	}
	if c.Pipeline.CheckTimeout <= 0 {
		return fmt.Errorf("pipeline.check_timeout must be positive")
	}
	if c.Retention.Window <= 0 {
		return fmt.Errorf("retention.window must be positive")
	}
	d := c.Calibration.Document
	sum := d.QualityWeight + d.TypeWeight + d.SecurityWeight + d.ValidationWeight + d.TamperingWeight
	if sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("calibration.document weights must sum to 1, got %.3f", sum)
	}
	return nil
}

// Redact masks secrets for startup logging.
func (c Config) Redact() Config {
	redacted := c
	if redacted.Auth.JWTSigningKey != "" {
		redacted.Auth.JWTSigningKey = "****"
	}
	if redacted.Storage.S3.SecretAccessKey != "" {
		redacted.Storage.S3.SecretAccessKey = "****"
	}
	if redacted.Database.URL != "" {
		redacted.Database.URL = "****"
	}
	if redacted.Redis.URL != "" {
		redacted.Redis.URL = "****"
	}
	return redacted
}
