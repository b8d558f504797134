// Package registry maps dialect names to reader factories.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/ajitpratap0/tabula/pkg/ascii"
	"github.com/ajitpratap0/tabula/pkg/errors"
	"github.com/ajitpratap0/tabula/pkg/logger"
)

// DialectFactory creates a configured reader for one dialect.
type DialectFactory func(opts ...ascii.Option) (*ascii.Reader, error)

// DialectInfo describes a registered dialect
type DialectInfo struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Delimiter   string `json:"delimiter" yaml:"delimiter"`
	Header      string `json:"header" yaml:"header"`
	Comment     string `json:"comment,omitempty" yaml:"comment,omitempty"`
	PadsRows    bool   `json:"pads_rows" yaml:"pads_rows"`
}

// Registry manages dialect registration and instantiation
type Registry struct {
	dialects map[string]DialectFactory
	mu       sync.RWMutex
	logger   *zap.Logger
}

// Global registry instance
var globalRegistry = NewRegistry()

func init() {
	for name, factory := range builtins() {
		_ = globalRegistry.Register(name, factory)
	}
}

func builtins() map[string]DialectFactory {
	return map[string]DialectFactory{
		"basic":            ascii.Basic,
		"no_header":        ascii.NoHeader,
		"commented_header": ascii.CommentedHeader,
		"tab":              ascii.Tab,
		"csv":              ascii.CSV,
		"rdb":              ascii.RDB,
	}
}

// NewRegistry creates an empty dialect registry
func NewRegistry() *Registry {
	return &Registry{
		dialects: make(map[string]DialectFactory),
		logger:   logger.Get().With(zap.String("component", "dialect_registry")),
	}
}

// NewBuiltinRegistry creates a registry holding the built-in dialects.
func NewBuiltinRegistry() *Registry {
	r := NewRegistry()
	for name, factory := range builtins() {
		_ = r.Register(name, factory)
	}
	return r
}

// Register adds a dialect factory under name
func (r *Registry) Register(name string, factory DialectFactory) error {
	if name == "" || factory == nil {
		return errors.NewConfigError("dialect name and factory are required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.dialects[name]; exists {
		return errors.New(errors.ErrorTypeConfig, fmt.Sprintf("dialect %s already registered", name))
	}

	r.dialects[name] = factory
	r.logger.Debug("dialect registered", zap.String("name", name))
	return nil
}

// Create builds a reader for the named dialect
func (r *Registry) Create(name string, opts ...ascii.Option) (*ascii.Reader, error) {
	r.mu.RLock()
	factory, exists := r.dialects[name]
	r.mu.RUnlock()

	if !exists {
		return nil, errors.New(errors.ErrorTypeNotFound, fmt.Sprintf("dialect %s not found", name)).
			WithDetail("available", r.List())
	}

	reader, err := factory(opts...)
	if err != nil {
		if errors.IsConfigError(err) {
			return nil, err
		}
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, fmt.Sprintf("failed to create dialect %s", name))
	}
	return reader, nil
}

// List returns the registered dialect names in sorted order
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.dialects))
	for name := range r.dialects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has checks if a dialect is registered
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.dialects[name]
	return exists
}

// Info describes the named dialect by instantiating it with defaults.
func (r *Registry) Info(name string) (*DialectInfo, error) {
	reader, err := r.Create(name)
	if err != nil {
		return nil, err
	}
	return describe(name, reader), nil
}

// Infos describes every registered dialect, sorted by name.
func (r *Registry) Infos() []*DialectInfo {
	names := r.List()
	infos := make([]*DialectInfo, 0, len(names))
	for _, name := range names {
		info, err := r.Info(name)
		if err != nil {
			r.logger.Warn("cannot describe dialect", zap.String("name", name), zap.Error(err))
			continue
		}
		infos = append(infos, info)
	}
	return infos
}

// Clear removes all registered dialects (mainly for testing)
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dialects = make(map[string]DialectFactory)
}

func describe(name string, reader *ascii.Reader) *DialectInfo {
	info := &DialectInfo{
		Name:        name,
		Description: reader.Description,
		Delimiter:   delimiterName(reader.Data.Splitter.Delimiter),
		Header:      reader.Header.Kind.String(),
		PadsRows:    reader.Data.Reconcile != nil,
	}
	if reader.Data.Comment != nil {
		info.Comment = reader.Data.Comment.String()
	}
	return info
}

func delimiterName(d rune) string {
	switch d {
	case ' ':
		return "space"
	case '\t':
		return "tab"
	default:
		return string(d)
	}
}

// Global registry functions

// Register registers a dialect in the global registry
func Register(name string, factory DialectFactory) error {
	return globalRegistry.Register(name, factory)
}

// Create creates a reader from the global registry
func Create(name string, opts ...ascii.Option) (*ascii.Reader, error) {
	return globalRegistry.Create(name, opts...)
}

// List returns registered dialects from the global registry
func List() []string {
	return globalRegistry.List()
}

// Has checks if a dialect is registered in the global registry
func Has(name string) bool {
	return globalRegistry.Has(name)
}

// Info describes a dialect from the global registry
func Info(name string) (*DialectInfo, error) {
	return globalRegistry.Info(name)
}

// GetRegistry returns the global registry instance.
func GetRegistry() *Registry {
	return globalRegistry
}
