package config

import (
	"encoding/json"
	"errors"
	"io/fs"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds a typed configuration value loaded through viper. When backed
// by a file, the file is watched and registered callbacks run on change.
type Config[T any] struct {
	v        *viper.Viper
	value    *T
	mu       sync.RWMutex
	watchers []func(old, new T)
	watching bool
}

// Option configures loading.
type Option[T any] func(*Config[T])

// WithDefaults sets default values by dotted key.
func WithDefaults[T any](defaults map[string]any) Option[T] {
	return func(c *Config[T]) {
		for key, value := range defaults {
			c.v.SetDefault(key, value)
		}
	}
}

// WithEnv binds PREFIX_SECTION_KEY environment variables to every key viper
// knows about (defaults, the file and explicit bindings).
func WithEnv[T any](prefix string) Option[T] {
	return func(c *Config[T]) {
		c.v.SetEnvPrefix(prefix)
		c.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		c.v.AutomaticEnv()
	}
}

// WithEnvAliases binds key to the given environment variables, first match wins.
func WithEnvAliases[T any](key string, names ...string) Option[T] {
	return func(c *Config[T]) {
		_ = c.v.BindEnv(append([]string{key}, names...)...)
	}
}

// WithoutWatch disables file watching.
func WithoutWatch[T any]() Option[T] {
	return func(c *Config[T]) { c.watching = false }
}

// Load reads path (YAML, JSON or TOML by extension) into T. An empty path
// loads from defaults and environment only.
func Load[T any](path string, opts ...Option[T]) (*Config[T], error) {
	v := viper.New()
	c := &Config[T]{v: v, watching: path != ""}

	for _, opt := range opts {
		opt(c)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	var value T
	if err := v.Unmarshal(&value); err != nil {
		return nil, err
	}
	c.value = &value

	if c.watching {
		c.watch()
	}
	return c, nil
}

// Get returns a deep copy of the current value.
func (c *Config[T]) Get() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return deepCopy(*c.value)
}

// OnChange registers callback to run after the file changes.
func (c *Config[T]) OnChange(callback func(old, new T)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.watchers = append(c.watchers, callback)
}

// Changed reports whether two values differ.
func Changed[T any](old, new T) bool {
	return !reflect.DeepEqual(old, new)
}

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process
// environment without overriding variables already set. Missing files are
// ignored.
func LoadDotEnv(paths ...string) error {
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// deepCopy round-trips through JSON so callers never share maps with the
// stored value.
func deepCopy[T any](src T) T {
	var dst T
	data, _ := json.Marshal(src)
	_ = json.Unmarshal(data, &dst)
	return dst
}

func (c *Config[T]) watch() {
	var (
		debounceTimer *time.Timer
		debounceMu    sync.Mutex
	)

	c.v.OnConfigChange(func(_ fsnotify.Event) {
		debounceMu.Lock()
		defer debounceMu.Unlock()
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
		debounceTimer = time.AfterFunc(100*time.Millisecond, c.handleChange)
	})
	c.v.WatchConfig()
}

func (c *Config[T]) handleChange() {
	old := c.Get()

	updated, watchers, ok := c.reload()
	if !ok || !Changed(old, updated) {
		return
	}

	for _, callback := range watchers {
		func() {
			defer func() { _ = recover() }()
			callback(old, updated)
		}()
	}
}

func (c *Config[T]) reload() (T, []func(old, new T), bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	if err := c.v.ReadInConfig(); err != nil {
		return zero, nil, false
	}
	var value T
	if err := c.v.Unmarshal(&value); err != nil {
		return zero, nil, false
	}
	c.value = &value

	watchers := make([]func(old, new T), len(c.watchers))
	copy(watchers, c.watchers)
	return deepCopy(value), watchers, true
}
