// Package confloader loads layered configuration with koanf.
//
// Priority (highest to lowest):
//
//  1. Overrides (command-line flags)
//  2. Environment variables (PAYAUTH_SECTION_KEY)
//  3. Configuration file (YAML)
//  4. Defaults
//
// Watcher reports changes to a configuration file so long-running
// processes such as the interactive shell can reapply it.
package confloader
