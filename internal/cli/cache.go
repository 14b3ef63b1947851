package cli

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the render artifact cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand. The file
// cache partitions entries into per-class directories (artifacts,
// sources), so clearing reports a count per class.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear cached artifacts and source data",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := cacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}

			classes, err := os.ReadDir(dir)
			if os.IsNotExist(err) || (err == nil && len(classes) == 0) {
				printInfo("Cache is empty")
				return nil
			}
			if err != nil {
				return err
			}

			total := 0
			for _, class := range classes {
				path := filepath.Join(dir, class.Name())
				if !class.IsDir() {
					if os.Remove(path) == nil {
						total++
					}
					continue
				}
				n := countEntries(path)
				if err := os.RemoveAll(path); err != nil {
					return err
				}
				if n > 0 {
					printDetail("%s: %d entries", class.Name(), n)
				}
				total += n
			}

			printSuccess("Cleared %d cached entries", total)
			printDetail("Directory: %s", dir)
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := cacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Println(dir)
			return nil
		},
	}
}

// countEntries counts regular files under dir, skipping unreadable
// subtrees.
func countEntries(dir string) int {
	n := 0
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			n++
		}
		return nil
	})
	return n
}
