package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// MetricsSettings controls the Prometheus metrics of the backend. When TextfilePath is set the CLI
// writes the collected metrics there on exit, in the format read by the node_exporter textfile collector.
type MetricsSettings struct {
	TextfilePath string `mapstructure:"textfile_path" validate:"omitempty,endswith=.prom"`
}

// Enabled reports whether backend metrics should be collected
func (s *MetricsSettings) Enabled() bool {
	return s.TextfilePath != ""
}

// Validate checks that all fields in MetricsSettings are valid
func (s *MetricsSettings) Validate() error {
	validate := validator.New()

	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("validation failed for MetricsSettings: %w", err)
	}

	return nil
}
