package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/quill"
	"github.com/aretw0/quill/pkg/core"
	"github.com/aretw0/quill/pkg/settings"
)

var (
	verbose    bool
	configPath string
	rootDir    string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "quill",
	Short: "Publish Markdown documents to a MetaWeblog blog",
	Long: `quill publishes Markdown files with a metadata header to a blog that
speaks the MetaWeblog XML-RPC API (Typecho, WordPress).
The post ID assigned by the blog is written back into the header, so
publishing the same file again updates the post.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Settings file (default is $XDG_CONFIG_HOME/quill/settings.yaml)")
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", "", "Document root (default is the nearest directory holding .quill or .git)")
}

// settingsPath returns the --config value or the default location.
func settingsPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return settings.DefaultPath()
}

// resolveRoot returns --root, or walks up from the working directory.
func resolveRoot() (string, error) {
	if rootDir != "" {
		return rootDir, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	if found, err := quill.FindRoot(cwd); err == nil {
		return found, nil
	}
	return cwd, nil
}

// openService loads the settings and wires the service on the document root.
func openService() (*core.Service, settings.Settings) {
	path, err := settingsPath()
	if err != nil {
		fatal("Failed to locate settings", err)
	}
	s, err := quill.LoadSettings(path)
	if err != nil {
		fatal("Failed to load settings", err)
	}

	root, err := resolveRoot()
	if err != nil {
		fatal("Failed to resolve document root", err)
	}
	slog.Debug("opening document root", "root", root, "settings", path)

	svc, err := quill.New(root,
		quill.WithSettings(s),
		quill.WithMustExist(true),
		quill.WithLogger(slog.Default()),
	)
	if err != nil {
		fatal("Failed to initialize quill", err)
	}
	return svc, s
}
