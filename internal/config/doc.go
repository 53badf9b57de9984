// Package config provides configuration structures and utilities for menuscan.
// It defines the crawl settings, the batch and storage settings, report
// preferences and the per-site overrides read from a .menuscan YAML file.
package config
