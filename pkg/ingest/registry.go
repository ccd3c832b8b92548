package ingest

import (
	"fmt"
	"slices"
	"sync"

	"github.com/de-tools/report-atlas/pkg/store/files"
)

// ReaderFactory builds the Reader for one format.
type ReaderFactory func() (Reader, error)

// Registry maps format names to reader factories.
type Registry interface {
	// Register adds a new format
	Register(format string, factory ReaderFactory) error
	// Create instantiates the reader for a format
	Create(format string) (Reader, error)
	// ListFormats returns the registered formats, sorted
	ListFormats() []string
}

type registry struct {
	mu        sync.RWMutex
	factories map[string]ReaderFactory
}

// NewFileRegistry registers the formats read from paths through opener.
func NewFileRegistry(opener files.Opener) Registry {
	return &registry{factories: map[string]ReaderFactory{
		FormatCSV: func() (Reader, error) {
			return NewCSVReader(opener, DefaultCSVOptions()), nil
		},
		FormatExcel: func() (Reader, error) {
			return NewExcelReader(opener), nil
		},
	}}
}

func NewRegistry(factories map[string]ReaderFactory) (Registry, error) {
	r := &registry{factories: make(map[string]ReaderFactory)}
	for format, f := range factories {
		if err := r.Register(format, f); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *registry) Register(format string, factory ReaderFactory) error {
	if format == "" {
		return fmt.Errorf("format name cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("factory cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[format]; exists {
		return fmt.Errorf("format %q is already registered", format)
	}

	r.factories[format] = factory
	return nil
}

func (r *registry) Create(format string) (Reader, error) {
	r.mu.RLock()
	factory, exists := r.factories[format]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("format %q is not registered", format)
	}

	return factory()
}

func (r *registry) ListFormats() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	formats := make([]string, 0, len(r.factories))
	for format := range r.factories {
		formats = append(formats, format)
	}
	slices.Sort(formats)
	return formats
}
