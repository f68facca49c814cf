// Command relinkctl builds and inspects the relink virtual file index.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/meigma/relink"
	"github.com/meigma/relink/internal/archive"
	"github.com/meigma/relink/internal/config"
	"github.com/meigma/relink/internal/logging"
)

// app carries state shared by the subcommands.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
	logger  *slog.Logger
	closer  io.Closer
	stdout  io.Writer
	stderr  io.Writer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{v: viper.New(), stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:           "relinkctl",
		Short:         "Merge override folders into the game's virtual file index",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.setup()
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.close()
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "path to config file (default ./relink.{yaml,toml})")
	flags.StringP("game-dir", "g", "", "game installation directory")
	flags.String("state-dir", "", "directory for the cache registry and produced files (default <game-dir>/.relink)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-file", "", "also write JSON logs to this rotated file")
	flags.BoolP("verbose", "v", false, "report every registered file and cache hit")
	flags.Bool("print-redirects", false, "log every redirect")
	flags.Bool("upgrade-model-info", true, "patch outdated .minfo files")
	flags.Bool("json-to-msgpack", true, "convert .json files to .msg")
	flags.Bool("xml-to-bxm", true, "convert .xml files to .bxm")
	flags.StringSlice("ignore", nil, "glob of override files to ignore (repeatable)")
	flags.Int("chunk-cache", archive.DefaultChunkCacheSize, "number of decompressed chunks kept in memory")

	for key, flag := range map[string]string{
		"game_dir":                "game-dir",
		"state_dir":               "state-dir",
		"log_level":               "log-level",
		"log_file":                "log-file",
		"verbose":                 "verbose",
		"print_redirected_files":  "print-redirects",
		"auto_upgrade_model_info": "upgrade-model-info",
		"convert_json_to_msgpack": "json-to-msgpack",
		"convert_xml_to_bxm":      "xml-to-bxm",
		"ignore":                  "ignore",
		"chunk_cache_size":        "chunk-cache",
	} {
		_ = a.v.BindPFlag(key, flags.Lookup(flag))
	}

	root.AddCommand(
		newBuildCmd(a),
		newInspectCmd(a),
		newExtractCmd(a),
		newExistsCmd(a),
	)
	return root
}

// setup reads the config file and environment and builds the logger.
func (a *app) setup() error {
	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
	} else {
		a.v.AddConfigPath(".")
		a.v.SetConfigName("relink")
	}
	a.v.SetEnvPrefix(config.EnvPrefix)
	a.v.AutomaticEnv()

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if a.cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := cfg.LogLevel
	if cfg.Verbose {
		level = "debug"
	}
	a.logger, a.closer = logging.New(logging.Options{
		Level:   level,
		File:    cfg.LogFile,
		Console: a.stderr,
	})
	if used := a.v.ConfigFileUsed(); used != "" {
		a.logger.Debug("using config file", "path", used)
	}
	return nil
}

func (a *app) close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

// engine returns an initialized engine for the configured game directory.
func (a *app) engine(extra ...relink.Option) (*relink.Engine, error) {
	if a.cfg.GameDir == "" {
		return nil, errors.New("no game directory, set --game-dir or game_dir")
	}
	opts := append(a.cfg.EngineOptions(), relink.WithLogger(a.logger))
	e := relink.New(a.cfg.GameDir, append(opts, extra...)...)
	if err := e.Initialize(); err != nil {
		return nil, err
	}
	return e, nil
}

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "relinkctl:", err)
		os.Exit(1)
	}
}
