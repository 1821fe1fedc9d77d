package env

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

// ErrInvalidParams is wrapped by LoadParams for validation failures.
var ErrInvalidParams = errors.New("invalid environment params")

// Params are the runtime tuning knobs. Every value is consumed once at
// environment construction. Zero values get defaults.
type Params struct {
	// DefaultDispatcher selects the dispatcher agents bind to when the
	// cooperation names none: "one_thread" (default) or "thread_pool".
	DefaultDispatcher string `yaml:"default_dispatcher"`
	// ThreadPoolSize is the worker count for a thread_pool default
	// dispatcher. Defaults to the number of CPUs.
	ThreadPoolSize int `yaml:"thread_pool_size"`
	// BatchSize is the number of demands a work thread executes per agent
	// pickup. Default 16.
	BatchSize int `yaml:"batch_size"`
	// LogLevel is used when no logger is supplied: debug, info, warn,
	// error. Default info.
	LogLevel string `yaml:"log_level"`
}

func (p Params) withDefaults() Params {
	if p.DefaultDispatcher == "" {
		p.DefaultDispatcher = "one_thread"
	}
	if p.ThreadPoolSize <= 0 {
		p.ThreadPoolSize = runtime.NumCPU()
	}
	if p.BatchSize <= 0 {
		p.BatchSize = 16
	}
	if p.LogLevel == "" {
		p.LogLevel = "info"
	}
	return p
}

func (p Params) validate() error {
	switch p.DefaultDispatcher {
	case "one_thread", "thread_pool":
	default:
		return fmt.Errorf("%w: unknown default_dispatcher %q", ErrInvalidParams, p.DefaultDispatcher)
	}
	switch p.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: unknown log_level %q", ErrInvalidParams, p.LogLevel)
	}
	return nil
}

// LoadParams reads a YAML params file, applies defaults, and validates.
func LoadParams(path string) (Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Params{}, fmt.Errorf("read params: %w", err)
	}
	var p Params
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Params{}, fmt.Errorf("parse params: %w", err)
	}
	p = p.withDefaults()
	if err := p.validate(); err != nil {
		return Params{}, err
	}
	return p, nil
}
