package cmd

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/go-drift/hookwire/pkg/config"
)

func init() {
	RegisterCommand(&Command{
		Name:  "config",
		Short: "Show the resolved configuration",
		Long: `Show the configuration a runtime would load from a directory.

Reads hookwire.yaml, hookwire.yml or hookwire.toml from the directory
(default: current directory), applies environment overrides and prints the
result as YAML.`,
		Usage: "hookwire config [dir]",
		Run:   runConfig,
	})
	RegisterCommand(&Command{
		Name:  "check",
		Short: "Validate the configuration",
		Long: `Validate the configuration a runtime would load from a directory.

Exits with an error if the file cannot be parsed or a field is invalid.`,
		Usage: "hookwire check [dir]",
		Run:   runCheck,
	})
}

func loadDir(args []string) (*config.Config, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	if len(args) > 1 {
		return nil, fmt.Errorf("expected at most one directory, got %d arguments", len(args))
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}
	return config.LoadOptional(dir)
}

func runConfig(out io.Writer, args []string) error {
	cfg, err := loadDir(args)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return enc.Close()
}

func runCheck(out io.Writer, args []string) error {
	cfg, err := loadDir(args)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "ok: replay=%s log=%s metrics=%t\n", cfg.Mount.Replay, cfg.LogLevel(), cfg.Metrics.Enabled)
	return nil
}
