// Package initcmder provides the init command for initializing a local
// .crucible directory in the current working directory.
package initcmder

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/forgelabs/crucible/pkg/config"
)

const (
	dirName = ".crucible"
)

const initLongDesc string = `Initialize a new .crucible/ directory in the current working directory.

Creates a local .crucible/ directory that takes precedence over the default
~/.crucible/ directory for configuration and knowledge store state.

This is useful for maintaining separate knowledge bases per project or
directory. With --preset, a config.toml pre-filled for the named provider
is written as well.

Examples:
  crucible init
  crucible init --preset anthropic
  crucible init --preset ollama`

const initShortDesc string = "Initialize a local .crucible/ directory"

func NewInitCmd() *cobra.Command {
	var preset string

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runInit(preset)
		},
	}

	cmd.Flags().StringVar(&preset, "preset", "",
		fmt.Sprintf("Write a config.toml for the named provider (%s)",
			strings.Join(config.ValidPresetNames(), ", ")))

	return cmd
}

func runInit(preset string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	dir := filepath.Join(cwd, dirName)

	info, err := os.Stat(dir)
	alreadyExists := err == nil && info.IsDir()

	if !alreadyExists {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating .crucible directory: %w", err)
		}
	}

	if preset != "" {
		cfg, err := config.PresetConfig(preset)
		if err != nil {
			return err
		}

		cfger, err := config.NewConfiger(dir)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		if err := cfger.SaveConfig(cfg); err != nil {
			return fmt.Errorf("writing preset config: %w", err)
		}

		fmt.Printf("Wrote %s preset config: %s\n", preset, filepath.Join(dir, "config.toml"))
	}

	if alreadyExists {
		fmt.Printf("Already initialized: %s\n", dir)
		return nil
	}

	fmt.Printf("Initialized .crucible directory: %s\n", dir)
	return nil
}
