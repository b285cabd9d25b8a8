// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sam-fredrickson/process"
	"github.com/sam-fredrickson/process/definition"
)

const envPrefix = "PROCESS"

// app holds what the commands share: their configuration and logger.
type app struct {
	v      *viper.Viper
	stdout io.Writer
	stderr io.Writer
	logger zerolog.Logger
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	a := &app{v: viper.New(), stdout: stdout, stderr: stderr}
	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	root := &cobra.Command{
		Use:           "process",
		Short:         "Run sequential pipelines declared in YAML",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.String("config", "", "YAML config file providing flag values")
	flags.String("log-level", "info", "log level (trace, debug, info, warn, error)")
	flags.String("log-format", "console", "log format (console, json)")

	root.AddCommand(a.runCommand(), a.validateCommand())
	return root
}

// setup binds the command's flags, reads the optional config file and builds
// the logger.
func (a *app) setup(cmd *cobra.Command) error {
	if err := a.v.BindPFlags(cmd.Flags()); err != nil {
		return errors.Wrap(err, "binding flags")
	}
	if path := a.v.GetString("config"); path != "" {
		a.v.SetConfigFile(path)
		if err := a.v.ReadInConfig(); err != nil {
			return errors.Wrapf(err, "reading config %s", path)
		}
	}

	level, err := zerolog.ParseLevel(a.v.GetString("log-level"))
	if err != nil {
		return errors.Wrap(err, "invalid log level")
	}
	switch format := a.v.GetString("log-format"); format {
	case "console":
		a.logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        a.stderr,
			TimeFormat: "15:04:05",
			NoColor:    true,
		})
	case "json":
		a.logger = zerolog.New(a.stderr)
	default:
		return errors.Errorf("invalid log format %q", format)
	}
	a.logger = a.logger.Level(level).With().Timestamp().Logger()
	return nil
}

func (a *app) runCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute a pipeline definition and print its result as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, def, err := a.load()
			if err != nil {
				return err
			}
			input, err := parseInput(a.v.GetString("input"))
			if err != nil {
				return err
			}

			op := process.WithZerologger(a.logger,
				process.Named(def.Name,
					process.WithZerologging(zerolog.DebugLevel, p)))

			var res *process.Result
			switch mode := a.v.GetString("trace"); mode {
			case "":
				res, err = process.MustNew(op).Execute(cmd.Context(), input)
			case "text", "flat", "json":
				var tr *process.Trace
				res, tr, err = process.Traced(op)(cmd.Context(), input)
				if werr := writeTrace(a.stderr, tr, mode); werr != nil {
					a.logger.Warn().Err(werr).Msg("writing trace")
				}
			default:
				return errors.Errorf("invalid trace mode %q", mode)
			}
			if err != nil {
				a.logger.Error().Err(err).Str("definition", def.Name).Msg("run failed")
				return err
			}
			return writeResult(a.stdout, res)
		},
	}
	flags := cmd.Flags()
	flags.StringP("file", "f", "", "pipeline definition file")
	flags.StringP("input", "i", "", "input state as a JSON object")
	flags.StringSlice("dir", nil, "directories searched for included definitions (default: the definition's directory)")
	flags.String("trace", "", "write a trace to stderr (text, flat, json)")
	return cmd
}

func (a *app) validateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check that a pipeline definition builds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, def, err := a.load()
			if err != nil {
				return err
			}
			a.logger.Debug().Str("definition", def.Name).Int("steps", p.Len()).Msg("definition valid")
			_, err = fmt.Fprintf(a.stdout, "ok: %s (%d steps)\n", def.Name, p.Len())
			return err
		},
	}
	flags := cmd.Flags()
	flags.StringP("file", "f", "", "pipeline definition file")
	flags.StringSlice("dir", nil, "directories searched for included definitions (default: the definition's directory)")
	return cmd
}

// load reads and builds the definition named by the file flag.
func (a *app) load() (*process.Process, *definition.Definition, error) {
	path := a.v.GetString("file")
	if path == "" {
		return nil, nil, errors.New("a definition file is required (--file or PROCESS_FILE)")
	}
	def, err := definition.LoadFile(path)
	if err != nil {
		a.logger.Error().Err(err).Str("file", path).Msg("loading definition")
		return nil, nil, err
	}

	dirs := a.v.GetStringSlice("dir")
	if len(dirs) == 0 {
		dirs = []string{filepath.Dir(path)}
	}
	p, err := definition.Build(def, builtins(), definition.NewFileLoader(dirs...))
	if err != nil {
		a.logger.Error().Err(err).Str("file", path).Msg("building definition")
		return nil, nil, err
	}
	a.logger.Debug().Str("definition", def.Name).Strs("include_dirs", dirs).Msg("definition built")
	return p, def, nil
}

// builtins returns the operations available to `use` steps.
func builtins() *definition.Registry {
	r := definition.NewRegistry()
	r.Register("print", process.Func(func(ctx context.Context, in process.State) (any, error) {
		zerolog.Ctx(ctx).Info().
			Strs("step", process.StepNames(ctx)).
			Fields(map[string]any(in)).
			Msg("state")
		return nil, nil
	}))
	return r
}

func parseInput(raw string) (process.State, error) {
	if raw == "" {
		return nil, nil
	}
	var input process.State
	if err := json.Unmarshal([]byte(raw), &input); err != nil {
		return nil, errors.Wrap(err, "input must be a JSON object")
	}
	return input, nil
}

type output struct {
	State  process.State `json:"state"`
	Exited bool          `json:"exited"`
}

func writeResult(w io.Writer, res *process.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(output{State: res.State, Exited: res.Exited})
}

func writeTrace(w io.Writer, tr *process.Trace, mode string) error {
	var err error
	switch mode {
	case "text":
		_, err = tr.WriteText(w)
	case "flat":
		_, err = tr.WriteFlatText(w)
	case "json":
		_, err = tr.WriteTo(w)
	}
	return err
}
