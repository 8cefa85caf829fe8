package domain

import "errors"

type ConfigValidator struct{}

func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{}
}

func (v *ConfigValidator) Validate(cfg *RunConfig) error {
	if len(cfg.Command) == 0 {
		return errors.New("command cannot be empty")
	}

	if cfg.Window.Min > cfg.Window.Max {
		return errors.New("exit window min must not exceed max")
	}

	if cfg.Timeout < 0 {
		return errors.New("timeout must not be negative")
	}

	return nil
}
