// Package config loads and validates the run configuration of the load harness.
package config
