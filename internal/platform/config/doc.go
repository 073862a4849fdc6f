// Package config wraps environment-variable parsing for service configuration.
package config
