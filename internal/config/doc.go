// Package config defines the calibration helper settings and provides
// helpers to load, validate and save them in YAML format.
//
// A single Config value is built at startup and handed to every component;
// nothing in it is mutated after Validate returns.
package config
