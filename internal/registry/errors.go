package registry

import "errors"

var (
	// ErrInvalidModule reports a nil module or a declaration without a name.
	ErrInvalidModule = errors.New("invalid module declaration")
	// ErrModuleNotFound reports an unknown or disabled module name.
	ErrModuleNotFound = errors.New("module not found")
	// ErrAccessDenied reports a principal lacking the required positions.
	ErrAccessDenied = errors.New("module access denied")
	// ErrSectionNotFound reports a settings section the module does not declare.
	ErrSectionNotFound = errors.New("settings section not found")
	// ErrSourceNotFound is returned by factories whose module is not installed.
	// Autodiscovery treats it like an absent source.
	ErrSourceNotFound = errors.New("module source not found")
)
