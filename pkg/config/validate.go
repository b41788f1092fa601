package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validate checks the configuration for invalid values.
//
// Struct tags drive the field-level checks; cross-field rules that tags
// cannot express are checked explicitly afterwards.
func Validate(cfg *Config) error {
	v := validator.New()

	if err := v.Struct(cfg); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			messages := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				messages = append(messages, fmt.Sprintf(
					"field %s (value %q) failed '%s' validation",
					fe.Namespace(), fmt.Sprintf("%v", fe.Value()), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(messages, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.Telemetry.Enabled && cfg.Telemetry.Endpoint == "" {
		return fmt.Errorf("invalid configuration: telemetry is enabled but no endpoint is set")
	}
	// One configured without the other means every replica tie-break will
	// fail, which is almost certainly a typo in the config file.
	if (cfg.Site.Node == "") != (cfg.Site.Site == "") {
		return fmt.Errorf("invalid configuration: site.node and site.site must be set together")
	}

	return nil
}
