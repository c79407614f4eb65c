package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Fuabioo/tokf/internal/discovery"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect, clear, or rebuild the discovery cache",
}

var cacheInspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show the discovery cache's age and contents",
	RunE:  runCacheInspect,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the persisted discovery cache",
	RunE:  runCacheClear,
}

var cacheRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Force a fresh discovery walk and rewrite the cache",
	RunE:  runCacheRebuild,
}

func init() {
	cacheCmd.AddCommand(cacheInspectCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheRebuildCmd)
}

func runCacheInspect(_ *cobra.Command, _ []string) error {
	path, err := discoveryCachePath()
	if err != nil {
		return fmt.Errorf("determining cache path: %w", err)
	}
	c := discovery.Load(path)
	if c == nil {
		fmt.Printf("no cache at %s\n", path)
		return nil
	}
	age, err := discovery.Age(path)
	if err != nil {
		return fmt.Errorf("stat cache: %w", err)
	}
	fmt.Printf("%s (%s old), %d filter(s) recorded\n", path, age.Round(time.Second), len(c.Names))
	for _, name := range c.Names {
		fmt.Printf("  %s\n", name)
	}
	fmt.Printf("fresh: %v\n", c.Fresh(watchedDirs()))
	return nil
}

func runCacheClear(_ *cobra.Command, _ []string) error {
	path, err := discoveryCachePath()
	if err != nil {
		return fmt.Errorf("determining cache path: %w", err)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing cache: %w", err)
	}
	fmt.Printf("cleared %s\n", path)
	return nil
}

func runCacheRebuild(_ *cobra.Command, _ []string) error {
	path, err := discoveryCachePath()
	if err != nil {
		return fmt.Errorf("determining cache path: %w", err)
	}
	r := newResolver()
	r.Invalidate()
	idx := r.Index()
	names := make([]string, 0, len(idx.Ordered()))
	for _, e := range idx.Ordered() {
		names = append(names, e.Name)
	}
	if err := discovery.Save(path, watchedDirs(), names); err != nil {
		return fmt.Errorf("rebuilding cache: %w", err)
	}
	fmt.Printf("rebuilt %s with %d filter(s)\n", path, len(names))
	return nil
}
