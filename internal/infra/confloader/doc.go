// Package confloader loads configuration with koanf and watches the
// configuration file for changes.
//
// Priority (highest to lowest):
//
//  1. Environment variables with the configured prefix
//  2. Map layers (legacy environment names, flags)
//  3. Configuration file (YAML)
//  4. Values already present in the target struct (defaults)
package confloader
