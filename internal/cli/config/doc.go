// Package config provides the payauth-cli configuration.
//
//   - spec.go: CLIConfig struct and validation (~/.payauth/cli.yaml)
//   - loader.go: loading through confloader and saving as YAML
//
// Values are layered defaults < file < PAYAUTH_* environment < flags.
package config
