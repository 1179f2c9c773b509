package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"offloadtc/internal/argv"
	"offloadtc/internal/common/vfs"
	"offloadtc/internal/config"
	"offloadtc/internal/diag"
	"offloadtc/internal/driver"
	"offloadtc/internal/gpu"
	"offloadtc/internal/pipeline"
	"offloadtc/internal/toolkit"
)

var version = "dev"

// invocation carries everything a subcommand needs after the shared
// token preprocessing.
type invocation struct {
	args   argv.List
	inputs []string
	cfg    config.Config
	d      *diag.Engine
	host   toolkit.HostInfo
	fs     vfs.Provider
}

// prepare strips CLI-only tokens (--config=, --log-level=, --json),
// merges config-file overrides in front of the command line, and sets up
// logging and host info.
func prepare(tokens []string) (*invocation, bool, error) {
	cfgPath := os.Getenv("OFFLOADTC_CONFIG")
	logLevel := os.Getenv("OFFLOADTC_LOG_LEVEL")
	jsonOut := false
	var rest []string
	for _, tok := range tokens {
		switch {
		case strings.HasPrefix(tok, "--config="):
			cfgPath = strings.TrimPrefix(tok, "--config=")
		case strings.HasPrefix(tok, "--log-level="):
			logLevel = strings.TrimPrefix(tok, "--log-level=")
		case tok == "--json":
			jsonOut = true
		default:
			rest = append(rest, tok)
		}
	}

	var cfg config.Config
	if cfgPath != "" {
		expanded, err := vfs.ExpandHome(cfgPath)
		if err != nil {
			return nil, false, err
		}
		cfg, err = config.Load(expanded)
		if err != nil {
			return nil, false, fmt.Errorf("load config: %w", err)
		}
	}
	// File values first so explicit flags win on last-value lookups.
	args, inputs := argv.Parse(append(cfg.Flags(), rest...))
	if logLevel == "" {
		logLevel = cfg.LogLevel
	}

	d := diag.New()
	level := zerolog.WarnLevel
	if logLevel != "" {
		parsed, err := zerolog.ParseLevel(logLevel)
		if err != nil {
			return nil, false, fmt.Errorf("invalid log level %q", logLevel)
		}
		level = parsed
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).With().Timestamp().Logger()
	d.SetLogger(logger)

	exe, err := os.Executable()
	exeDir := ""
	if err == nil {
		exeDir = filepath.Dir(exe)
	}
	host := toolkit.HostInfo{
		OS:          runtime.GOOS,
		Arch64:      strconv.IntSize == 64,
		ResourceDir: filepath.Join(exeDir, "..", "lib", "offloadtc"),
		DriverDir:   exeDir,
	}
	return &invocation{
		args:   args,
		inputs: inputs,
		cfg:    cfg,
		d:      d,
		host:   host,
		fs:     vfs.OS{},
	}, jsonOut, nil
}

func buildRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "offloadtc",
		Short:         "GPU offload toolchain orchestrator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	detectCmd := &cobra.Command{
		Use:                "detect [driver args]",
		Short:              "Locate a device toolkit installation and report it",
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, _, err := prepare(args)
			if err != nil {
				return err
			}
			tk := toolkit.Detect(inv.fs, inv.d, inv.host, inv.args)
			if !tk.IsValid() {
				fmt.Fprintln(cmd.OutOrStdout(), "No CUDA installation found.")
			} else {
				tk.Print(cmd.OutOrStdout())
			}
			if archs, err := gpu.DetectArchs(); err == nil && len(archs) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Local GPUs: %s\n", strings.Join(archs, ", "))
			}
			return nil
		},
	}

	planCmd := &cobra.Command{
		Use:                "plan [driver args] <inputs>",
		Short:              "Emit the tool command sequence without running it",
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd, args, false)
		},
	}

	compileCmd := &cobra.Command{
		Use:                "compile [driver args] <inputs>",
		Short:              "Build and run the tool command sequence",
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd, args, true)
		},
	}

	compilerArgsCmd := &cobra.Command{
		Use:                "compiler-args --cuda-gpu-arch=<arch> [driver args]",
		Short:              "Print the device compiler argument augmentation for one architecture",
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, _, err := prepare(args)
			if err != nil {
				return err
			}
			dr := driver.New(inv.fs, inv.d, inv.host, inv.args)
			bound := ""
			if vs := inv.args.AllValues(argv.OptGPUArch); len(vs) > 0 {
				bound = vs[len(vs)-1]
			}
			for _, a := range dr.CompilerArgs(inv.args, bound) {
				fmt.Fprintln(cmd.OutOrStdout(), a)
			}
			if inv.d.ErrorCount() > 0 {
				return fmt.Errorf("%d error(s) emitted", inv.d.ErrorCount())
			}
			return nil
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the offloadtc version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "offloadtc %s\n", version)
		},
	}

	root.AddCommand(detectCmd, planCmd, compileCmd, compilerArgsCmd, versionCmd)
	return root
}

func runPlan(cmd *cobra.Command, tokens []string, execute bool) error {
	inv, jsonOut, err := prepare(tokens)
	if err != nil {
		return err
	}
	if len(inv.inputs) == 0 {
		return fmt.Errorf("no input files")
	}

	dr := driver.New(inv.fs, inv.d, inv.host, inv.args)
	if inv.args.Has(argv.OptVerbose) {
		dr.Toolkit().Print(cmd.ErrOrStderr())
	}

	output := inv.args.LastValue(argv.OptOutput)
	if output == "" {
		output = "offload.fatbin"
	}
	tempDir := inv.cfg.TempDir
	keep := inv.args.Has(argv.OptSaveTemps)
	s := pipeline.NewSession(tempDir, keep)

	var fallback []string
	if archs, err := gpu.DetectArchs(); err == nil {
		fallback = archs
	}
	if err := dr.Plan(s, inv.args, inv.inputs, fallback, output); err != nil {
		return err
	}

	if !execute {
		if jsonOut {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(s.Commands())
		}
		for _, c := range s.Commands() {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", c.Executable, strings.Join(c.Args, " "))
		}
		return nil
	}

	defer func() {
		if err := s.Cleanup(); err != nil {
			inv.d.Warnf(diag.Code("temp_cleanup_failed"), "removing temporaries: %v", err)
		}
	}()
	verbose := inv.args.Has(argv.OptVerbose)
	if err := driver.RunCommands(context.Background(), s.Commands(), verbose, cmd.ErrOrStderr()); err != nil {
		return err
	}
	if inv.d.ErrorCount() > 0 {
		return fmt.Errorf("%d error(s) emitted", inv.d.ErrorCount())
	}
	return nil
}
