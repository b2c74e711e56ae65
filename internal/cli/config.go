package cli

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// settableKeys are the keys `config set` accepts, each with its validator.
// Credentials are written only by login and logout.
var settableKeys = map[string]func(string) error{
	"server_url": validateServerURL,
	"output":     validateOutputFormat,
	"timeout": func(v string) error {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return fmt.Errorf("timeout must be a positive duration such as 30s")
		}
		return nil
	},
}

func validateServerURL(v string) error {
	u, err := url.Parse(v)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("server_url must be an http(s) URL, got %q", v)
	}
	return nil
}

func validateOutputFormat(v string) error {
	switch v {
	case "table", "json", "yaml":
		return nil
	}
	return fmt.Errorf("output must be table, json or yaml, got %q", v)
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigGetCmd())
	cmd.AddCommand(newConfigListCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Interactive first-time setup",
		RunE: func(cmd *cobra.Command, args []string) error {
			server := promptInput(fmt.Sprintf("MoodLync API URL [%s]: ", viper.GetString("server_url")))
			if server == "" {
				server = viper.GetString("server_url")
			}
			if err := validateServerURL(server); err != nil {
				return err
			}

			format := promptInput("Default output format (table/json/yaml) [table]: ")
			if format == "" {
				format = "table"
			}
			if err := validateOutputFormat(format); err != nil {
				return err
			}

			viper.Set("server_url", strings.TrimSuffix(server, "/"))
			viper.Set("output", format)

			configPath, err := writeConfig()
			if err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}

			fmt.Printf("Configuration saved to %s\n", configPath)
			fmt.Println("Run 'moodlync login' to sign in.")
			return nil
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "set <key> <value>",
		Short:     "Set server_url, output or timeout",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"server_url", "output", "timeout"},
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]
			validate, ok := settableKeys[key]
			if !ok {
				return fmt.Errorf("unknown key %q (settable: server_url, output, timeout)", key)
			}
			if err := validate(value); err != nil {
				return err
			}

			viper.Set(key, value)
			if _, err := writeConfig(); err != nil {
				return err
			}
			fmt.Printf("Set %s = %s\n", key, value)
			return nil
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if isSecretKey(args[0]) {
				return fmt.Errorf("%s is a stored credential and is not printed", args[0])
			}
			val := viper.Get(args[0])
			if val == nil {
				fmt.Printf("%s: (not set)\n", args[0])
			} else {
				fmt.Printf("%s: %v\n", args[0], val)
			}
			return nil
		},
	}
}

func newConfigListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show all configuration values",
		RunE: func(cmd *cobra.Command, args []string) error {
			keys := viper.AllKeys()
			sort.Strings(keys)
			for _, key := range keys {
				switch {
				case isSecretKey(key):
					if viper.GetString(key) != "" {
						fmt.Printf("%s: (stored)\n", key)
					}
				default:
					fmt.Printf("%s: %v\n", key, viper.Get(key))
				}
			}
			return nil
		},
	}
}

func isSecretKey(key string) bool {
	return key == "auth.token" || key == "auth.refresh_token"
}

// writeConfig persists viper settings to the active config file and returns
// its path. The file holds tokens, so it is kept owner-only.
func writeConfig() (string, error) {
	configPath := cfgFile
	if configPath == "" {
		dir, err := configDir()
		if err != nil {
			return "", err
		}
		if err := os.MkdirAll(dir, 0700); err != nil {
			return "", err
		}
		configPath = filepath.Join(dir, "config.yaml")
	}
	if err := viper.WriteConfigAs(configPath); err != nil {
		return "", err
	}
	return configPath, os.Chmod(configPath, 0600)
}
