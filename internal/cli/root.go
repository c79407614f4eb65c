package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Fuabioo/tokf/internal/builtinfilters"
	"github.com/Fuabioo/tokf/internal/config"
	"github.com/Fuabioo/tokf/internal/diag"
	"github.com/Fuabioo/tokf/internal/discovery"
	"github.com/Fuabioo/tokf/internal/executor"
	"github.com/Fuabioo/tokf/internal/regexcache"
	"github.com/Fuabioo/tokf/internal/resolve"
)

// projectFilterDir is where a repository can ship its own filters,
// taking priority over the user and builtin tiers (spec.md §4.9).
const projectFilterDir = ".tokf/filters"

// watchedDirs returns the on-disk discovery roots (project and user
// tiers) whose mtimes the C10 persistent cache fingerprints. The
// builtin tier is embedded in the binary and never goes stale.
func watchedDirs() []string {
	var dirs []string
	if cwd, err := os.Getwd(); err == nil {
		dirs = append(dirs, filepath.Join(cwd, projectFilterDir))
	}
	if userDir, err := config.UserDir(); err == nil {
		dirs = append(dirs, filepath.Join(userDir, "filters"))
	}
	return dirs
}

// newResolver builds the three-tier resolver: project, user, builtin,
// in priority order (spec.md §4.9).
func newResolver() *resolve.Resolver {
	var roots []resolve.Root

	if cwd, err := os.Getwd(); err == nil {
		roots = append(roots, resolve.Root{
			Source: resolve.SourceProject,
			Dir:    filepath.Join(cwd, projectFilterDir),
		})
	}

	if userDir, err := config.UserDir(); err == nil {
		roots = append(roots, resolve.Root{
			Source: resolve.SourceUser,
			Dir:    filepath.Join(userDir, "filters"),
		})
	}

	roots = append(roots, resolve.Root{
		Source:  resolve.SourceBuiltin,
		FS:      builtinfilters.FS,
		SubRoot: "data",
	})

	r := resolve.New(roots)
	persistDiscoveryCache(r)
	return r
}

// persistDiscoveryCache records the freshness fingerprint of the
// on-disk discovery roots after a build, so `tokf doctor` can report
// cache age without re-walking the filesystem (spec.md §4.10).
func persistDiscoveryCache(r *resolve.Resolver) {
	cachePath, err := discoveryCachePath()
	if err != nil {
		return
	}
	dirs := watchedDirs()
	if discovery.Load(cachePath).Fresh(dirs) {
		return
	}
	idx := r.Index()
	names := make([]string, 0, len(idx.Ordered()))
	for _, e := range idx.Ordered() {
		names = append(names, e.Name)
	}
	_ = discovery.Save(cachePath, dirs, names)
}

// newRecorder builds the diagnostic recorder for this invocation: a
// real zap logger once the caller asked for verbose output, otherwise
// a Noop so discovery/pipeline warnings stay silent by default
// (spec.md §7: diagnostics surface "on the verbose channel").
func newRecorder(verbose bool) diag.Recorder {
	if !verbose {
		return diag.Noop{}
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return diag.Noop{}
	}
	return diag.NewZapRecorder(logger)
}

// Version and Commit are set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
)

// exitError carries an exit code through Cobra's error handling.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:                "tokf [flags] <command> [args...]",
		Short:              "Token-aware output filter -- curate CLI output for AI agents",
		Long:               "tokf proxies CLI commands, tees output to log files, and filters stdout for reduced token consumption by AI agents.",
		SilenceUsage:       true,
		SilenceErrors:      true,
		DisableFlagParsing: true,
		RunE:               runRoot,
	}

	// Add subcommands (these have normal flag parsing)
	root.AddCommand(hookCmd)
	root.AddCommand(initCmd)
	root.AddCommand(doctorCmd)
	root.AddCommand(testCmd)
	root.AddCommand(cacheCmd)

	return root
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			return ee.code
		}
		printError("%v", err)
		return 1
	}
	return 0
}

// runRoot handles the main proxy logic.
func runRoot(cmd *cobra.Command, _ []string) error {
	// Local flag state — not package-level, so tests can call runRoot safely
	var (
		flagVerbose  int
		flagLogDir   string
		flagNoFilter bool
		flagNoLog    bool
	)

	args := os.Args[1:]
	var proxiedArgs []string

	i := 0
	for i < len(args) {
		switch {
		case args[i] == "-v" || args[i] == "--verbose":
			flagVerbose++
			i++
		case args[i] == "-vv":
			flagVerbose += 2
			i++
		case args[i] == "-vvv":
			flagVerbose += 3
			i++
		case strings.HasPrefix(args[i], "--log-dir="):
			flagLogDir = strings.TrimPrefix(args[i], "--log-dir=")
			i++
		case args[i] == "--log-dir" && i+1 < len(args):
			flagLogDir = args[i+1]
			i += 2
		case args[i] == "--no-filter":
			flagNoFilter = true
			i++
		case args[i] == "--no-log":
			flagNoLog = true
			flagNoFilter = true
			i++
		case args[i] == "-h" || args[i] == "--help":
			return cmd.Help()
		case args[i] == "--version":
			fmt.Printf("tokf %s (%s)\n", Version, Commit)
			return nil
		default:
			proxiedArgs = args[i:]
			i = len(args)
		}
	}

	if len(proxiedArgs) == 0 {
		return cmd.Help()
	}

	userCfg, err := config.Load()
	if err != nil {
		printError("warning: could not load user config: %v", err)
		userCfg = &config.Config{}
	}
	if flagLogDir == "" {
		flagLogDir = userCfg.LogDir
	}
	if userCfg.NoLog {
		flagNoLog = true
	}

	resolver := newResolver()
	recorder := newRecorder(flagVerbose > 0)
	for _, derr := range resolver.Index().Errors {
		recorder.Warn("discovery error", diag.Str("error", derr.Error()))
	}

	cfg := executor.Config{
		Command:  proxiedArgs[0],
		Args:     proxiedArgs[1:],
		LogDir:   flagLogDir,
		NoFilter: flagNoFilter,
		NoLog:    flagNoLog,
		Verbose:  flagVerbose > 0,
		Resolver: resolver,
		Cache:    regexcache.New(),
	}

	result := executor.Run(cfg)
	if result.ExitCode != 0 {
		return &exitError{code: result.ExitCode}
	}
	return nil
}
