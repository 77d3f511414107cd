package repository

import (
	"github.com/okian/scoretable/internal/domain/model"
	"github.com/okian/scoretable/pkg/logger"
)

// Option applies a configuration option to the TableCache.
type Option func(*TableCache)

// WithLogger sets the cache logger.
func WithLogger(l logger.Logger) Option {
	return func(c *TableCache) {
		if l != nil {
			c.logger = l
		}
	}
}

// LoaderOption applies a configuration option to the FileLoader.
type LoaderOption func(*FileLoader)

// WithLoaderLogger sets the loader logger.
func WithLoaderLogger(l logger.Logger) LoaderOption {
	return func(f *FileLoader) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithFilePattern sets the glob used to find a category's files.
func WithFilePattern(pattern string) LoaderOption {
	return func(f *FileLoader) {
		if pattern != "" {
			f.pattern = pattern
		}
	}
}

// WithBuildOptions passes options through to model.Build.
func WithBuildOptions(opts ...model.Option) LoaderOption {
	return func(f *FileLoader) {
		f.buildOpts = append(f.buildOpts, opts...)
	}
}
