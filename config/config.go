// Package config reads the measurement settings of the mlte tool from a json file.
package config

import (
	"bytes"
	"encoding/json"
	"io"
	"reflect"
	"time"

	"github.com/a8m/envsubst"
	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"go.viam.com/mlte/logging"
	"go.viam.com/mlte/measurement"
	"go.viam.com/mlte/measurement/inspect"
)

// Values accepted by on_query_error.
const (
	QueryErrorStop  = "stop"
	QueryErrorAbort = "abort"
)

// Config describes how measurements are taken.
type Config struct {
	ConfigFilePath string `json:"-"`

	// Inspector names a registered inspector (procfs, gopsutil, ps).
	Inspector string `json:"inspector"`
	// PollInterval is the wait between two polls of a sampler. Accepts a duration string or a
	// number of seconds.
	PollInterval time.Duration `json:"poll_interval"`
	OnQueryError string        `json:"on_query_error"`

	Trials     int     `json:"trials"`
	Percentile float64 `json:"percentile"`
	Estimator  string  `json:"estimator"`

	LogLevel logging.Level `json:"log_level"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Inspector:    inspect.DefaultInspector(),
		PollInterval: measurement.DefaultPollInterval,
		OnQueryError: QueryErrorStop,
		Trials:       measurement.DefaultTrials,
		Percentile:   measurement.DefaultPercentile,
		Estimator:    measurement.LinearInterpolation.String(),
		LogLevel:     logging.INFO,
	}
}

// Validate returns an error if the config is unusable.
func (c *Config) Validate(path string) error {
	if c.Inspector == "" {
		return goutils.NewConfigValidationFieldRequiredError(path, "inspector")
	}
	if _, ok := measurement.InspectorLookup(c.Inspector); !ok {
		return goutils.NewConfigValidationError(path, errors.Errorf(
			"unknown inspector %q, available: %v", c.Inspector, measurement.RegisteredInspectors()))
	}
	if c.PollInterval <= 0 {
		return goutils.NewConfigValidationError(path, errors.New("poll_interval must be positive"))
	}
	if _, err := c.QueryErrorPolicy(); err != nil {
		return goutils.NewConfigValidationError(path, err)
	}
	if c.Trials <= 0 {
		return goutils.NewConfigValidationError(path, errors.New("trials must be positive"))
	}
	if c.Percentile < 0 || c.Percentile > 1 {
		return goutils.NewConfigValidationError(path, errors.Errorf("percentile must be within [0, 1], got %v", c.Percentile))
	}
	if _, err := measurement.EstimatorFromString(c.Estimator); err != nil {
		return goutils.NewConfigValidationError(path, err)
	}
	return nil
}

// QueryErrorPolicy parses OnQueryError.
func (c *Config) QueryErrorPolicy() (measurement.QueryErrorPolicy, error) {
	switch c.OnQueryError {
	case "", QueryErrorStop:
		return measurement.StopOnQueryError, nil
	case QueryErrorAbort:
		return measurement.AbortOnQueryError, nil
	default:
		return measurement.StopOnQueryError, errors.Errorf("on_query_error must be %q or %q, got %q",
			QueryErrorStop, QueryErrorAbort, c.OnQueryError)
	}
}

// QuantileEstimator parses Estimator.
func (c *Config) QuantileEstimator() (measurement.Estimator, error) {
	return measurement.EstimatorFromString(c.Estimator)
}

// SamplingOptions returns the sampler options described by a validated config.
func (c *Config) SamplingOptions() []measurement.Option {
	policy, _ := c.QueryErrorPolicy()
	return []measurement.Option{
		measurement.WithPollInterval(c.PollInterval),
		measurement.WithQueryErrorPolicy(policy),
	}
}

// Read reads a config from the given file, expanding environment variables first.
func Read(filePath string, logger logging.Logger) (*Config, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return FromReader(filePath, bytes.NewReader(buf), logger)
}

// FromReader reads a config from the given reader and specifies where, if applicable, the file
// the reader originated from. Missing fields keep their defaults.
func FromReader(originalPath string, r io.Reader, logger logging.Logger) (*Config, error) {
	var attributes map[string]interface{}
	if err := json.NewDecoder(r).Decode(&attributes); err != nil {
		return nil, errors.Wrapf(err, "failed to decode Config from json")
	}

	cfg := Default()
	cfg.ConfigFilePath = originalPath

	var md mapstructure.Metadata
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:  "json",
		Result:   cfg,
		Metadata: &md,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			secondsToDurationHookFunc(),
			jsonUnmarshalerHookFunc(),
		),
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(attributes); err != nil {
		return nil, errors.Wrapf(err, "failed to decode Config from json")
	}
	if len(md.Unused) > 0 {
		logger.Warnw("unused config fields", "path", originalPath, "fields", md.Unused)
	}

	if err := cfg.Validate(originalPath); err != nil {
		return nil, err
	}
	return cfg, nil
}

var jsonUnmarshalerType = reflect.TypeOf((*json.Unmarshaler)(nil)).Elem()

// jsonUnmarshalerHookFunc hands values bound for fields that decode their own json, such as
// log_level, back to their UnmarshalJSON.
func jsonUnmarshalerHookFunc() mapstructure.DecodeHookFuncType {
	return func(from, to reflect.Type, data interface{}) (interface{}, error) {
		if to.Kind() == reflect.Struct || !reflect.PointerTo(to).Implements(jsonUnmarshalerType) {
			return data, nil
		}
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		target := reflect.New(to)
		if err := target.Interface().(json.Unmarshaler).UnmarshalJSON(raw); err != nil {
			return nil, err
		}
		return target.Elem().Interface(), nil
	}
}

// secondsToDurationHookFunc reads a bare number as seconds.
func secondsToDurationHookFunc() mapstructure.DecodeHookFuncType {
	return func(from, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		if seconds, ok := data.(float64); ok {
			return time.Duration(seconds * float64(time.Second)), nil
		}
		return data, nil
	}
}
