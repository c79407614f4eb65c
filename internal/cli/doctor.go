package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/spf13/cobra"

	"github.com/Fuabioo/tokf/internal/config"
	"github.com/Fuabioo/tokf/internal/discovery"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Report discovery roots, cache freshness, and host memory",
	Long:  "Prints the filter discovery tiers, the age of the discovery cache, and host memory so a user can judge whether the sandboxed script budget is workable on their machine.",
	RunE:  runDoctor,
}

func runDoctor(_ *cobra.Command, _ []string) error {
	resolver := newResolver()
	idx := resolver.Index()

	fmt.Println("discovery roots:")
	for _, entry := range idx.Ordered() {
		fmt.Printf("  [%s] %s\n", entry.Source, entry.Name)
	}
	if len(idx.Ordered()) == 0 {
		fmt.Println("  (none discovered)")
	}
	for _, err := range idx.Errors {
		fmt.Fprintf(os.Stderr, "  warning: %v\n", err)
	}

	cachePath, err := discoveryCachePath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "\ncache: could not determine path: %v\n", err)
	} else if age, ageErr := discovery.Age(cachePath); ageErr != nil {
		fmt.Printf("\ncache: not yet built (%s)\n", cachePath)
	} else {
		fmt.Printf("\ncache: %s (%s old)\n", cachePath, age.Round(time.Second))
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		fmt.Printf("\nhost memory: %s total, %s available\n",
			humanize.Bytes(vm.Total), humanize.Bytes(vm.Available))
	} else {
		fmt.Fprintf(os.Stderr, "\nhost memory: unavailable: %v\n", err)
	}

	return nil
}

// discoveryCachePath mirrors the path the C10 persistent discovery
// cache is written to under the user directory.
func discoveryCachePath() (string, error) {
	dir, err := config.UserDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "discovery.bin"), nil
}
