package restful

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the file form of an API's settings.
type Config struct {
	Addr               string             `yaml:"addr"`
	MaxBodyBytes       int64              `yaml:"max_body_bytes"`
	FallbackRenderer   string             `yaml:"fallback_renderer"`
	DefaultContentType string             `yaml:"default_content_type"`
	LogLevel           string             `yaml:"log_level"`
	RequestTimeout     time.Duration      `yaml:"request_timeout"`
	CORS               *CORSSettings      `yaml:"cors"`
	SecureHeaders      *SecureSettings    `yaml:"secure_headers"`
	RateLimit          *RateLimitSettings `yaml:"rate_limit"`
	Compress           *CompressSettings  `yaml:"compress"`
	ETag               bool               `yaml:"etag"`
	DisabledParsers    []string           `yaml:"disabled_parsers"`
	DisabledRenderers  []string           `yaml:"disabled_renderers"`
}

// CORSSettings enables cross-origin requests. Empty lists keep the CORS
// defaults.
type CORSSettings struct {
	AllowOrigins     []string      `yaml:"allow_origins"`
	AllowMethods     []string      `yaml:"allow_methods"`
	AllowHeaders     []string      `yaml:"allow_headers"`
	ExposeHeaders    []string      `yaml:"expose_headers"`
	AllowCredentials bool          `yaml:"allow_credentials"`
	MaxAge           time.Duration `yaml:"max_age"`
}

// SecureSettings enables security response headers. Unset strings keep the
// DefaultSecureConfig values.
type SecureSettings struct {
	HSTSMaxAge            time.Duration `yaml:"hsts_max_age"`
	ContentSecurityPolicy string        `yaml:"content_security_policy"`
	ReferrerPolicy        string        `yaml:"referrer_policy"`
}

// RateLimitSettings enables per-client rate limiting.
type RateLimitSettings struct {
	Rate  float64 `yaml:"rate"`
	Burst int     `yaml:"burst"`
}

// CompressSettings enables gzip compression of rendered responses.
type CompressSettings struct {
	Level   int `yaml:"level"`
	MinSize int `yaml:"min_size"`
}

// DefaultConfig returns the settings used for keys a file leaves out.
func DefaultConfig() Config {
	return Config{
		Addr:               ":8080",
		MaxBodyBytes:       1 << 20,
		FallbackRenderer:   MIMEJSON,
		DefaultContentType: MIMEJSON,
		LogLevel:           "info",
	}
}

// LoadConfig reads a YAML config file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML over DefaultConfig and validates the result.
// Unknown keys are rejected.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if _, err := c.Level(); err != nil {
		return fmt.Errorf("%w: log_level: %w", ErrInvalidArgument, err)
	}
	if c.MaxBodyBytes < 0 {
		return fmt.Errorf("%w: max_body_bytes must not be negative", ErrInvalidArgument)
	}
	if err := validContentType(c.FallbackRenderer); err != nil {
		return fmt.Errorf("fallback_renderer: %w", err)
	}
	if slices.Contains(c.DisabledRenderers, c.FallbackRenderer) {
		return fmt.Errorf("%w: fallback renderer %s is disabled", ErrInvalidArgument, c.FallbackRenderer)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("%w: request_timeout must not be negative", ErrInvalidArgument)
	}
	if cs := c.CORS; cs != nil && cs.MaxAge < 0 {
		return fmt.Errorf("%w: cors max_age must not be negative", ErrInvalidArgument)
	}
	if ss := c.SecureHeaders; ss != nil && ss.HSTSMaxAge < 0 {
		return fmt.Errorf("%w: secure_headers hsts_max_age must not be negative", ErrInvalidArgument)
	}
	if rl := c.RateLimit; rl != nil && (rl.Rate <= 0 || rl.Burst <= 0) {
		return fmt.Errorf("%w: rate_limit rate and burst must be positive", ErrInvalidArgument)
	}
	if cs := c.Compress; cs != nil && (cs.Level < 0 || cs.Level > 9 || cs.MinSize < 0) {
		return fmt.Errorf("%w: compress level must be 0-9 and min_size not negative", ErrInvalidArgument)
	}
	return nil
}

// Level parses LogLevel ("debug", "info", "warn", "error").
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	err := l.UnmarshalText([]byte(c.LogLevel))
	return l, err
}

// Options converts the settings into API options. Built-in parsers and
// renderers listed as disabled are left out.
func (c Config) Options() []Option {
	parsers := DefaultParsers()
	for _, ct := range c.DisabledParsers {
		parsers.Unregister(ct)
	}
	renderers := DefaultRenderers()
	for _, ct := range c.DisabledRenderers {
		renderers.Unregister(ct)
	}

	opts := []Option{
		WithParsers(parsers),
		WithRenderers(renderers),
		WithMaxBodyBytes(c.MaxBodyBytes),
	}
	if c.FallbackRenderer != "" {
		opts = append(opts, WithFallbackRenderer(c.FallbackRenderer))
	}
	if c.DefaultContentType != "" {
		opts = append(opts, WithDefaultContentType(c.DefaultContentType))
	}
	return opts
}

// Middleware returns the middleware stack implied by the settings: request
// ID, logging and recovery, followed by whichever of CORS, security headers,
// rate limiting, request timeout, compression and ETags are configured.
func (c Config) Middleware(logger *slog.Logger) []Middleware {
	mw := []Middleware{
		RequestID(),
		Logger(logger),
		Recovery(logger),
	}
	if cs := c.CORS; cs != nil {
		mw = append(mw, CORS(CORSConfig{
			AllowOrigins:     cs.AllowOrigins,
			AllowMethods:     cs.AllowMethods,
			AllowHeaders:     cs.AllowHeaders,
			ExposeHeaders:    cs.ExposeHeaders,
			AllowCredentials: cs.AllowCredentials,
			MaxAge:           int(cs.MaxAge / time.Second),
		}))
	}
	if ss := c.SecureHeaders; ss != nil {
		sc := DefaultSecureConfig()
		sc.HSTSMaxAge = int(ss.HSTSMaxAge / time.Second)
		if ss.ContentSecurityPolicy != "" {
			sc.ContentSecurityPolicy = ss.ContentSecurityPolicy
		}
		if ss.ReferrerPolicy != "" {
			sc.ReferrerPolicy = ss.ReferrerPolicy
		}
		mw = append(mw, SecureHeaders(sc))
	}
	if rl := c.RateLimit; rl != nil {
		mw = append(mw, RateLimit(RateLimitConfig{Rate: rl.Rate, Burst: rl.Burst}))
	}
	if c.RequestTimeout > 0 {
		mw = append(mw, Timeout(c.RequestTimeout))
	}
	if cs := c.Compress; cs != nil {
		mw = append(mw, Compress(CompressConfig{Level: cs.Level, MinSize: cs.MinSize}))
	}
	if c.ETag {
		mw = append(mw, ETag())
	}
	return mw
}
