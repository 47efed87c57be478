// Copyright (c) 2025 ToeiRei
// Gitomaster - gitolite configuration management
// This source code is licensed under the MIT license found in the LICENSE file.

// main.go sets up the command-line interface for Gitomaster using the
// Cobra library. It defines the root command, its persistent flags and the
// entry point; the subcommands live in commands.go.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/toeirei/gitomaster/internal/config"
	"github.com/toeirei/gitomaster/internal/i18n"
	"github.com/toeirei/gitomaster/internal/logging"
	"github.com/toeirei/gitomaster/internal/manager"
)

var version = "dev" // this will be set by the linker

var (
	cfgFile string
	appCfg  config.Config
)

// main is the entry point of the application.
func main() {
	if err := rootCmd.Execute(); err != nil {
		// The error is already printed by Cobra on failure.
		os.Exit(1)
	}
}

var rootCmd *cobra.Command

func init() {
	rootCmd = newRootCmd()
}

// newRootCmd creates and configures a new root cobra command. Tests create
// fresh instances through this function for isolation.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gitomaster",
		Short: "Gitomaster manages a gitolite configuration repository.",
		Long: `Gitomaster edits the gitolite-admin repository for you: who may
read, write or force-push which repositories, and which SSH public keys
authenticate them. Every change is written in gitolite's own config
format, committed and pushed, so the full history of access decisions
stays in git.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			defaults := map[string]any{
				"language": "en",
				"workdir":  "",
			}
			c, err := config.Load(cmd, defaults, cfgFile)
			if err != nil {
				return err
			}
			if c.Workdir == "" {
				cacheDir, err := os.UserCacheDir()
				if err != nil {
					return fmt.Errorf("could not determine a working directory: %w", err)
				}
				c.Workdir = filepath.Join(cacheDir, "gitomaster", "admin")
			}
			appCfg = c
			if err := i18n.Init(appCfg.Language); err != nil {
				return err
			}
			logging.SetDebug(appCfg.Debug)
			return nil
		},
	}

	cmd.AddCommand(showCmd)
	cmd.AddCommand(grantCmd)
	cmd.AddCommand(revokeCmd)
	cmd.AddCommand(newGroupCmd())
	cmd.AddCommand(newKeyCmd())
	cmd.AddCommand(newRepoCmd())

	cmd.Version = version

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is gitomaster.yaml in the config dir or current dir)")
	cmd.PersistentFlags().String("repo", "", "URI of the gitolite-admin repository")
	cmd.PersistentFlags().String("workdir", "", "working directory for the checkout")
	cmd.PersistentFlags().String("lang", "en", `output language ("en", "de")`)
	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	return cmd
}

// newManager builds the configuration manager from the resolved settings.
func newManager() (*manager.Manager, error) {
	if appCfg.Repo == "" {
		return nil, fmt.Errorf("no gitolite-admin repository configured (set --repo, GITOMASTER_REPO or the config file)")
	}
	if err := os.MkdirAll(appCfg.Workdir, 0o755); err != nil {
		return nil, err
	}
	return manager.New(appCfg.Repo, appCfg.Workdir), nil
}
