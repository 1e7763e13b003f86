// Package config loads and saves the myconode YAML configuration.
//
// # Configuration File Location
//
// When no path is given the file is read from the platform location:
//   - Linux: $XDG_CONFIG_HOME/myconode/config.yaml or $HOME/.config/myconode/config.yaml
//   - macOS: $HOME/.config/myconode/config.yaml
//   - Windows: %LOCALAPPDATA%\myconode\config.yaml
//
// A missing file is not an error: Load returns DefaultConfig, which runs the
// agent against simulated hardware. Keys present in the file override the
// defaults one by one.
//
// # Security
//
// The file holds the access point password and the document store token,
// so Save writes it with 0600 permissions. Use Redacted before printing.
//
// # Usage Example
//
//	cfg, err := config.Load(path)
//	if err != nil {
//	    return err
//	}
//	if err := cfg.Validate(); err != nil {
//	    return fmt.Errorf("invalid config: %w", err)
//	}
package config
