package neatgym

import "fmt"

// ConfigError reports an invalid, incomplete or unreadable run
// configuration. These are detected before any generation is dispatched.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Path == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// EnvError reports an environment that could not be constructed.
type EnvError struct {
	Name string
	Err  error
}

func (e *EnvError) Error() string {
	return fmt.Sprintf("unable to make environment %s: %v", e.Name, e.Err)
}

func (e *EnvError) Unwrap() error { return e.Err }
