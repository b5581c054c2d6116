package reporter

import (
	"yqhp/graph-loadtest/internal/reporter/console"
	"yqhp/graph-loadtest/internal/reporter/file"
)

// RegisterBuiltinReporters registers all built-in reporters with the registry.
func RegisterBuiltinReporters(registry *Registry) error {
	// Console reporter
	if err := registry.Register(ReporterTypeConsole, func(config map[string]any) (Reporter, error) {
		r, err := console.NewFactory()(config)
		if err != nil {
			return nil, err
		}
		return r, nil
	}); err != nil {
		return err
	}

	// CSV reporter
	if err := registry.Register(ReporterTypeCSV, func(config map[string]any) (Reporter, error) {
		r, err := file.NewCSVFactory()(config)
		if err != nil {
			return nil, err
		}
		return r, nil
	}); err != nil {
		return err
	}

	// JSON reporter
	if err := registry.Register(ReporterTypeJSON, func(config map[string]any) (Reporter, error) {
		r, err := file.NewJSONFactory()(config)
		if err != nil {
			return nil, err
		}
		return r, nil
	}); err != nil {
		return err
	}

	return nil
}

// NewDefaultRegistry creates a new registry with all built-in reporters registered.
func NewDefaultRegistry() (*Registry, error) {
	registry := NewRegistry()
	if err := RegisterBuiltinReporters(registry); err != nil {
		return nil, err
	}
	return registry, nil
}
