// starbind-helper is the privileged half of starbind. A sudoers rule
// grants users exactly these two invocations; everything the helper
// does is re-validated here rather than trusted from the caller.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/starbind/starbind/internal/logger"
	"github.com/starbind/starbind/internal/metrics"
	"github.com/starbind/starbind/internal/telemetry"
	"github.com/starbind/starbind/pkg/config"
	"github.com/starbind/starbind/pkg/mount"
)

// Build-time variables injected via ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const usage = `starbind-helper - privileged mount helper for starbind

Usage:
  starbind-helper --mount   <storage-path> <group>
  starbind-helper --unmount <storage-path> <group>

The helper performs exactly one mount or unmount operation per
invocation. It must run as root via sudo; the target user is taken from
the sudo environment (SUDO_USER, SUDO_UID, SUDO_GID). Do not invoke it
directly - use 'starbind mount' and 'starbind unmount' instead.

The argument shape is fixed so a sudoers rule can match the exact
command line. Both operations take the same two positional arguments.

Configuration is read from the root-owned file at
/etc/starbind/config.yaml only. User-writable configuration and
environment overrides are deliberately ignored.

Examples:
  sudo starbind-helper --mount daac/obs/2024/map.fits daac
  sudo starbind-helper --unmount daac/obs/2024/map.fits daac
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "--mount":
		storagePath, group, configPath := parseOperationArgs("--mount")
		runOperation("mount", storagePath, group, configPath)
	case "--unmount":
		storagePath, group, configPath := parseOperationArgs("--unmount")
		runOperation("unmount", storagePath, group, configPath)
	case "help", "--help", "-h":
		fmt.Print(usage)
		os.Exit(0)
	case "version", "--version":
		fmt.Printf("starbind-helper %s (commit: %s, built: %s)\n", version, commit, date)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

// parseOperationArgs parses the two positional arguments both operations
// take: the storage-relative path and the claimed group. The -config
// flag exists for tests; production sudoers rules never pass it.
func parseOperationArgs(command string) (storagePath, group, configPath string) {
	opFlags := flag.NewFlagSet(command, flag.ExitOnError)
	configFile := opFlags.String("config", "", "Path to config file (default: "+config.HelperConfigPath+")")
	if err := opFlags.Parse(os.Args[2:]); err != nil {
		fatalf("Failed to parse flags: %v", err)
	}
	if opFlags.NArg() != 2 {
		fmt.Fprintf(os.Stderr, "Usage: starbind-helper %s <storage-path> <group>\n", command)
		os.Exit(1)
	}
	return opFlags.Arg(0), opFlags.Arg(1), *configFile
}

// runOperation executes one mount or unmount end to end: load the
// system configuration, validate the sudo invocation, run the
// orchestrator, and record the outcome.
func runOperation(operation, storagePath, group, configPath string) {
	var cfg *config.Config
	var err error
	if configPath == "" {
		cfg, err = config.LoadHelper()
	} else {
		cfg, err = config.LoadHelperFrom(configPath)
	}
	if err != nil {
		fatalf("Failed to load configuration: %v", err)
	}

	loggerCfg := logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}
	if err := logger.Init(loggerCfg); err != nil {
		fatalf("Failed to initialize logger: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryCfg := telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "starbind-helper",
		ServiceVersion: version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	}
	telemetryShutdown, err := telemetry.Init(ctx, telemetryCfg)
	if err != nil {
		fatalf("Failed to initialize telemetry: %v", err)
	}
	defer func() {
		if err := telemetryShutdown(ctx); err != nil {
			logger.Error("telemetry shutdown error", logger.KeyError, err)
		}
	}()

	profilingCfg := telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    "starbind-helper",
		ServiceVersion: version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
	}
	profilingShutdown, err := telemetry.InitProfiling(profilingCfg)
	if err != nil {
		fatalf("Failed to initialize profiling: %v", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", logger.KeyError, err)
		}
	}()

	inv, err := mount.FromSudoEnv()
	if err != nil {
		fail(err)
	}

	opID := uuid.NewString()
	log := logger.With(
		logger.KeyOpID, opID,
		logger.KeyOperation, operation,
		logger.KeyStoragePath, storagePath,
		logger.KeyUsername, inv.Username,
		logger.KeyUID, inv.UID,
		logger.KeyGID, inv.GID,
	)
	log.Info("operation started")

	opts := mount.Options{
		StorageRoot: cfg.Storage.Root,
		StagingMode: mount.StagingMode(cfg.Storage.StagingMode),
		BindsDir:    cfg.Storage.BindsDir,
		ProjectsDir: cfg.Storage.ProjectsDir,
		LockDir:     cfg.Lock.Dir,
	}
	orch := mount.New(opts, mount.NewExecBinder(), mount.NewProcTable(), log)

	var recorder *metrics.Recorder
	if cfg.Metrics.TextfileDir != "" {
		recorder = metrics.NewRecorder(cfg.Metrics.TextfileDir)
	}

	spanName := telemetry.SpanHelperMount
	if operation == "unmount" {
		spanName = telemetry.SpanHelperUnmount
	}
	ctx, span := telemetry.StartOperationSpan(ctx, spanName, storagePath,
		telemetry.Operation(operation),
		telemetry.Username(inv.Username),
		telemetry.UID(inv.UID),
		telemetry.GID(inv.GID),
	)
	defer span.End()

	if telemetry.IsEnabled() {
		log = log.With(
			logger.KeyTraceID, telemetry.TraceID(ctx),
			logger.KeySpanID, telemetry.SpanID(ctx),
		)
	}

	start := time.Now()
	var outcome mount.Outcome
	if operation == "mount" {
		outcome, err = orch.Mount(ctx, inv, storagePath, group)
	} else {
		outcome, err = orch.Unmount(ctx, inv, storagePath)
	}
	duration := time.Since(start)

	outcomeLabel := "success"
	if err != nil {
		outcomeLabel = "failure"
		telemetry.RecordError(ctx, err)
	}
	recorder.RecordOperation(operation, outcomeLabel, duration)
	if werr := recorder.Write(); werr != nil {
		log.Warn("could not write metrics textfile", logger.KeyError, werr)
	}

	if err != nil {
		log.Error("operation failed",
			logger.KeyError, err,
			logger.KeyDurationMs, logger.Duration(start),
		)
		fail(err)
	}

	log.Info("operation completed", logger.KeyDurationMs, logger.Duration(start))

	for _, warning := range outcome.Warnings {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", warning)
	}
	fmt.Println(outcome.Message)
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
