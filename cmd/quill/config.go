package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/quill/pkg/settings"
)

var (
	cfgEndpoint       string
	cfgProxyURL       string
	cfgUsername       string
	cfgPassword       string
	cfgBlogID         string
	cfgUseCurrentTime bool
	cfgOffset         float64
	cfgVersioning     bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the publisher settings",
}

var configSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Write the flags that were given into the settings file",
	Long: `Write endpoint, credentials and date handling into the settings file,
keeping every value whose flag was not given. The file is created readable
only by its owner.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		path, err := settingsPath()
		if err != nil {
			fatal("Failed to locate settings", err)
		}
		s, err := settings.Load(path)
		if err != nil {
			fatal("Failed to load settings", err)
		}

		flags := cmd.Flags()
		if flags.Changed("endpoint") {
			s.Endpoint = cfgEndpoint
		}
		if flags.Changed("proxy") {
			s.ProxyURL = cfgProxyURL
		}
		if flags.Changed("username") {
			s.Username = cfgUsername
		}
		if flags.Changed("password") {
			s.Password = cfgPassword
		}
		if flags.Changed("blog-id") {
			s.BlogID = cfgBlogID
		}
		if flags.Changed("use-current-time") {
			s.UseCurrentTime = cfgUseCurrentTime
		}
		if flags.Changed("offset") {
			s.PublishTimeOffset = cfgOffset
		}
		if flags.Changed("versioning") {
			s.Versioning = cfgVersioning
		}

		if err := settings.Save(path, s); err != nil {
			fatal("Failed to save settings", err)
		}
		fmt.Println("Settings written to", path)
		if err := s.Validate(); err != nil {
			fmt.Fprintln(os.Stderr, "Warning:", err)
		}
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective settings with the password hidden",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		path, err := settingsPath()
		if err != nil {
			fatal("Failed to locate settings", err)
		}
		s, err := settings.Load(path)
		if err != nil {
			fatal("Failed to load settings", err)
		}

		out, err := yaml.Marshal(s.Redacted())
		if err != nil {
			fatal("Failed to encode settings", err)
		}
		fmt.Printf("# %s\n%s", path, out)
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configSetCmd, configShowCmd)

	f := configSetCmd.Flags()
	f.StringVar(&cfgEndpoint, "endpoint", "", "XML-RPC endpoint, e.g. https://blog.example/action/xmlrpc")
	f.StringVar(&cfgProxyURL, "proxy", "", "Relay that forwards calls to ?target=<endpoint>")
	f.StringVar(&cfgUsername, "username", "", "Blog user")
	f.StringVar(&cfgPassword, "password", "", "Blog password")
	f.StringVar(&cfgBlogID, "blog-id", settings.Default().BlogID, "Blog ID")
	f.BoolVar(&cfgUseCurrentTime, "use-current-time", true, "Stamp posts with the time of publishing")
	f.Float64Var(&cfgOffset, "offset", 0, "Hours added to every publish date")
	f.BoolVar(&cfgVersioning, "versioning", false, "Commit document changes with git")
}
