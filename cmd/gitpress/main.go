package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tmkdo/gitpress"
)

// version is set at build time via ldflags.
var version = "dev"

var configPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "gitpress",
	Short: "Content API for a git-backed blog",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the content API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		app := gitpress.New(cfg)
		defer app.Close()
		return app.Start()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the gitpress version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("gitpress %s\n", version)
	},
}

// loadConfig reads the TOML config file when one exists, then applies
// environment overrides so deployments can keep the credential out of the
// file.
func loadConfig() (gitpress.Config, error) {
	var cfg gitpress.Config
	if _, err := os.Stat(configPath); err == nil {
		cfg, err = gitpress.LoadConfigFile(configPath)
		if err != nil {
			return gitpress.Config{}, err
		}
	}

	cfg.Addr = gitpress.EnvOr("GITPRESS_ADDR", cfg.Addr)
	cfg.Repo.Owner = gitpress.EnvOr("GITPRESS_REPO_OWNER", cfg.Repo.Owner)
	cfg.Repo.Repo = gitpress.EnvOr("GITPRESS_REPO_NAME", cfg.Repo.Repo)
	cfg.Repo.Branch = gitpress.EnvOr("GITPRESS_REPO_BRANCH", cfg.Repo.Branch)
	cfg.ContentToken = gitpress.EnvOr("GITPRESS_CONTENT_TOKEN", cfg.ContentToken)
	cfg.AllowedOrigin = gitpress.EnvOr("GITPRESS_ALLOWED_ORIGIN", cfg.AllowedOrigin)

	if cfg.Repo.Owner == "" || cfg.Repo.Repo == "" {
		return gitpress.Config{}, fmt.Errorf("repository owner and name are required (config file or GITPRESS_REPO_OWNER/GITPRESS_REPO_NAME)")
	}
	return cfg, nil
}

func init() {
	serveCmd.Flags().StringVarP(&configPath, "config", "c", "gitpress.toml", "path to TOML config file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}
