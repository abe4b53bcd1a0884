// Package config loads Quill configuration from environment variables.
//
// All settings use the QUILL_ prefix and carry sensible defaults; only the
// control database URL is required. See LoadConfig for the full variable
// list.
package config
