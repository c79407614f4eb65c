package cli

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Fuabioo/tokf/internal/builtinfilters"
	"github.com/Fuabioo/tokf/internal/regexcache"
	"github.com/Fuabioo/tokf/internal/resolve"
	"github.com/Fuabioo/tokf/internal/testrunner"
)

var testCmd = &cobra.Command{
	Use:   "test [filter-name]",
	Short: "Run a filter's test cases (name_test/*.toml) against it",
	Long:  "Discovers filters and, for each one, loads its sibling name_test/ directory (if present) and checks every [[expect]] block in it (spec.md §6).",
	RunE:  runTest,
}

var requireAllFlag bool

func init() {
	testCmd.Flags().BoolVar(&requireAllFlag, "require-all", false, "Fail with exit 2 if any discovered filter has no name_test/ directory")
}

// runTest exits 0 if every case passes, 1 if any assertion fails, and
// 2 on a configuration or I/O error -- including an uncovered filter
// under --require-all (spec.md §6's verification-runner exit table).
func runTest(_ *cobra.Command, args []string) error {
	idx := newResolver().Index()
	cache := regexcache.New()

	entries := idx.Ordered()
	if len(args) > 0 {
		entry, ok := idx.Lookup(args[0])
		if !ok {
			printError("no filter named %q", args[0])
			return &exitError{code: 2}
		}
		entries = []*resolve.Entry{entry}
	}

	var results []*testrunner.CaseResult
	configErr := false
	for _, entry := range entries {
		fsys, testDir := testFSFor(entry)
		if _, err := fs.Stat(fsys, testDir); err != nil {
			if requireAllFlag {
				printError("%s: no test directory (%s)", entry.Name, testDir)
				configErr = true
			}
			continue
		}
		cases, err := testrunner.LoadCases(fsys, testDir)
		if err != nil {
			printError("loading tests for %s: %v", entry.Name, err)
			configErr = true
			continue
		}
		for _, c := range cases {
			res, err := testrunner.Run(entry.Def, fsys, testDir, c, cache)
			if err != nil {
				printError("running %s/%s: %v", entry.Name, c.Name, err)
				configErr = true
				continue
			}
			results = append(results, res)
		}
	}

	summary := &testrunner.Summary{Results: results}
	fmt.Print(summary.Render())

	if len(results) == 0 {
		fmt.Println("no test cases found")
	}
	if configErr {
		return &exitError{code: 2}
	}
	if !summary.Passed() {
		return &exitError{code: 1}
	}
	return nil
}

// testFSFor returns the filesystem root and the sibling name_test/
// directory path for a filter's TOML file. Builtin filters live in the
// binary's embedded FS; project and user filters live on disk, so
// their absolute paths are read through os.DirFS("/") instead.
func testFSFor(entry *resolve.Entry) (fs.FS, string) {
	dir := testDirFor(entry)
	if entry.Source == resolve.SourceBuiltin {
		return builtinfilters.FS, dir
	}
	return os.DirFS("/"), strings.TrimPrefix(dir, "/")
}

// testDirFor returns the sibling name_test/ directory for a filter's
// TOML file, in whichever namespace entry.Path is rooted (an absolute
// disk path, or a path within the embedded builtin FS).
func testDirFor(entry *resolve.Entry) string {
	if entry.Path == "" {
		return ""
	}
	ext := filepath.Ext(entry.Path)
	base := strings.TrimSuffix(entry.Path, ext)
	return base + "_test"
}
