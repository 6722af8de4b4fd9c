package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/m00que/Memforensics-MCP/internal/domain/engine"
)

var (
	flagEngine        string
	flagPlugin        string
	flagImage         string
	flagMode          string
	flagArgs          []string
	flagTimeout       time.Duration
	flagProfile       string
	flagDetectProfile bool
	flagOffline       bool
	flagToFile        bool
	flagOutputFile    string
	flagDump          bool
	flagDumpDir       string
	flagStats         bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one engine plugin against a memory image",
	Example: `  memforensics run --engine legacy --plugin pslist --image mem.raw --profile Win7SP1x64
  memforensics run --engine modern --plugin windows.pslist --image mem.raw --to-file
  memforensics run --engine modern --plugin windows.dumpfiles --image mem.raw --dump --arg=--pid --arg=4`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	f := runCmd.Flags()
	f.StringVarP(&flagEngine, "engine", "e", "", "Engine: legacy (vol2) or modern (vol3)")
	f.StringVarP(&flagPlugin, "plugin", "p", "", "Plugin name, e.g. pslist or windows.pslist")
	f.StringVarP(&flagImage, "image", "f", "", "Memory image path")
	f.StringVarP(&flagMode, "mode", "m", "", "Output mode: json, csv or text (default: engine default)")
	f.StringArrayVar(&flagArgs, "arg", nil, "Extra argument passed to the plugin (repeatable)")
	f.DurationVar(&flagTimeout, "timeout", 0, "Run timeout (default from config)")
	f.StringVar(&flagProfile, "profile", "", "Legacy engine profile")
	f.BoolVar(&flagDetectProfile, "detect-profile", false, "Detect the legacy profile with imageinfo when --profile is empty")
	f.BoolVar(&flagOffline, "offline", false, "Modern engine: do not download symbol tables")
	f.BoolVar(&flagToFile, "to-file", false, "Persist stdout to the default output file")
	f.StringVar(&flagOutputFile, "output-file", "", "Persist stdout to this file (implies --to-file)")
	f.BoolVar(&flagDump, "dump", false, "Dump artifacts into the default dump directory")
	f.StringVar(&flagDumpDir, "dump-dir", "", "Dump artifacts into this directory (implies --dump)")
	f.BoolVar(&flagStats, "stats", false, "Print run metrics to stderr afterwards")
	_ = runCmd.MarkFlagRequired("engine")
	_ = runCmd.MarkFlagRequired("plugin")
	_ = runCmd.MarkFlagRequired("image")
	runCmd.MarkFlagsMutuallyExclusive("to-file", "dump")
	runCmd.MarkFlagsMutuallyExclusive("output-file", "dump-dir")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, _ []string) error {
	kind, err := engine.ParseKind(flagEngine)
	if err != nil {
		return err
	}
	mode, err := engine.ParseOutputMode(flagMode)
	if err != nil {
		return err
	}
	toFile := flagToFile || flagOutputFile != ""
	toDump := flagDump || flagDumpDir != ""
	if toFile && toDump {
		return fmt.Errorf("--to-file/--output-file and --dump/--dump-dir are mutually exclusive")
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, withBackends)
	if err != nil {
		return err
	}
	defer a.Close()

	req := engine.Request{
		Kind:      kind,
		Plugin:    flagPlugin,
		Mode:      mode,
		ExtraArgs: flagArgs,
		Timeout:   flagTimeout,
		ImagePath: flagImage,
		Profile:   flagProfile,
		Offline:   flagOffline,
	}
	if kind == engine.LegacyCLI && req.Profile == "" && flagDetectProfile {
		p, err := a.svc.DetectProfile(ctx, flagImage)
		if err != nil {
			return err
		}
		req.Profile = p
	}

	var (
		out     any
		success bool
	)
	switch {
	case toFile:
		fr := a.svc.RunToFile(ctx, req, flagOutputFile)
		out, success = fr, fr.Success
	case toDump:
		dr := a.svc.RunToDumpDir(ctx, req, flagDumpDir)
		out, success = dr, dr.Success
	default:
		res := a.svc.Run(ctx, req)
		out, success = res, res.Success
	}

	if err := printJSON(cmd.OutOrStdout(), out); err != nil {
		return err
	}
	if flagStats {
		if err := printJSON(cmd.ErrOrStderr(), a.metrics.Snapshot()); err != nil {
			return err
		}
	}
	if !success {
		return errUnsuccessful
	}
	return nil
}
