// Command netprobe sends authorized REST and GraphQL requests through the
// request pipeline, configured from YAML, NETPROBE_* variables and flags.
package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jk2pr/GoGit-KMP/pkg/auth"
	"github.com/jk2pr/GoGit-KMP/pkg/config"
	"github.com/jk2pr/GoGit-KMP/pkg/core"
)

// globalFlags are shared by every subcommand
type globalFlags struct {
	configPath string
	envFile    string
	baseURL    string
	endpoint   string
	token      string
	logLevel   string
	pretty     bool
}

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	flags := &globalFlags{}
	rootCmd := &cobra.Command{
		Use:           "netprobe",
		Short:         "Send authorized REST and GraphQL requests",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "YAML config file")
	pf.StringVar(&flags.envFile, "env-file", ".env", "dotenv file loaded before the config, ignored when missing")
	pf.StringVar(&flags.baseURL, "base-url", "", "override base_url")
	pf.StringVar(&flags.endpoint, "graphql-endpoint", "", "override graphql_endpoint")
	pf.StringVarP(&flags.token, "token", "t", "", "static bearer token, overrides the auth section")
	pf.StringVarP(&flags.logLevel, "log-level", "l", "", "none, basic or verbose")
	pf.BoolVarP(&flags.pretty, "pretty", "p", false, "pretty print JSON")

	rootCmd.AddCommand(
		newRequestCmd(flags),
		newGetCmd(flags),
		newGraphQLCmd(flags),
	)
	return rootCmd
}

// loadConfig reads the dotenv file, the YAML config (or environment and
// defaults only) and applies flag overrides.
func loadConfig(flags *globalFlags) (config.Client, error) {
	if flags.envFile != "" {
		if err := godotenv.Load(flags.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return config.Client{}, fmt.Errorf("load %s: %w", flags.envFile, err)
		}
	}

	loader := config.NewDefaultLoader()
	var (
		cfg *config.Client
		err error
	)
	if flags.configPath != "" {
		cfg, err = loader.Load(flags.configPath)
	} else {
		cfg, err = loader.Parse(nil)
	}
	if err != nil {
		return config.Client{}, err
	}

	if flags.baseURL != "" {
		cfg.BaseURL = flags.baseURL
	}
	if flags.endpoint != "" {
		cfg.GraphQLEndpoint = flags.endpoint
	}
	if flags.logLevel != "" {
		cfg.Logging.Level = config.LogLevel(flags.logLevel)
	}
	if flags.pretty {
		cfg.PrettyPrint = true
	}
	return *cfg, nil
}

func newClient(cmd *cobra.Command, flags *globalFlags) (*core.APIClient, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()

	opts := []core.ClientOption{core.WithLogger(logger)}
	if flags.token != "" {
		opts = append(opts, core.WithTokenProvider(auth.NewStaticTokenProvider(flags.token)))
	}
	return core.NewClient(cfg, opts...)
}
