package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aretw0/quill"
	"github.com/aretw0/quill/pkg/adapters/fs"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Mark a directory as a document root",
	Long: `Create the .quill directory so commands run from subdirectories find
the root. With versioning enabled in the settings, the directory also
becomes a git repository.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		root := rootDir
		if root == "" {
			cwd, err := os.Getwd()
			if err != nil {
				fatal("Failed to get CWD", err)
			}
			root = cwd
		}

		path, err := settingsPath()
		if err != nil {
			fatal("Failed to locate settings", err)
		}
		s, err := quill.LoadSettings(path)
		if err != nil {
			fatal("Failed to load settings", err)
		}

		if _, err := quill.Init(root,
			quill.WithSettings(s),
			quill.WithAutoInit(true),
			quill.WithLogger(slog.Default()),
		); err != nil {
			fatal("Failed to initialize document root", err)
		}
		if err := os.MkdirAll(filepath.Join(root, fs.DefaultSystemDir), 0755); err != nil {
			fatal("Failed to create system directory", err)
		}

		fmt.Println("Initialized quill document root in", root)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
