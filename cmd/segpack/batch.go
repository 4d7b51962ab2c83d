package main

import (
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/insurgentsworkshop/segpack/flavor"
	"github.com/insurgentsworkshop/segpack/workdir"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const unpackedSuffix = ".dir"

func newBatchCmd(a *app) *cobra.Command {
	var jobs int

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Unpack or pack every container under a directory tree",
	}
	cmd.PersistentFlags().IntVar(&jobs, "jobs", 1, "Containers processed at once")

	cmd.AddCommand(&cobra.Command{
		Use:   "unpack <root>",
		Short: "Unpack every file matching a path rule into <file>.dir",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks, err := collectFiles(args[0], a.registry.Rules())
			if err != nil {
				return err
			}

			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(max(jobs, 1))
			for _, path := range tasks {
				g.Go(func() error {
					if err := ctx.Err(); err != nil {
						return err
					}

					return a.unpack(path, path+unpackedSuffix, "")
				})
			}

			return g.Wait()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "pack <root> <dest>",
		Short: "Pack every unpacked directory under root into dest",
		Long: `Pack walks the rule table in reverse order and packs every <file>.dir
directory whose file name matches a rule into the same relative path under dest.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, dest := args[0], args[1]

			rules := a.registry.Rules()
			slices.Reverse(rules)

			tasks, err := collectDirs(root, rules)
			if err != nil {
				return err
			}

			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(max(jobs, 1))
			for _, rel := range tasks {
				g.Go(func() error {
					if err := ctx.Err(); err != nil {
						return err
					}

					out := filepath.Join(dest, strings.TrimSuffix(rel, unpackedSuffix))
					if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
						return err
					}

					return a.pack(filepath.Join(root, rel), out)
				})
			}

			return g.Wait()
		},
	})

	return cmd
}

// collectFiles lists the files under root matching each rule, rule by rule.
// A file matched by several rules is taken by the first.
func collectFiles(root string, rules []flavor.Rule) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		switch {
		case d.IsDir() && path != root && strings.HasSuffix(path, unpackedSuffix):
			return filepath.SkipDir
		case !d.IsDir():
			files = append(files, path)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var tasks []string
	for _, rule := range rules {
		for _, path := range files {
			if !seen[path] && rule.Matches(path) {
				seen[path] = true
				tasks = append(tasks, path)
			}
		}
	}

	return tasks, nil
}

// collectDirs lists unpacked directories under root, relative to it, whose
// container name matches a rule, rule by rule. Directories nested inside a
// matched one belong to it and are skipped.
func collectDirs(root string, rules []flavor.Rule) ([]string, error) {
	var dirs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() || !strings.HasSuffix(path, unpackedSuffix) {
			return nil
		}

		if _, err := os.Stat(filepath.Join(path, workdir.ManifestName)); err != nil {
			return nil //nolint:nilerr // not an unpacked container
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		dirs = append(dirs, rel)

		return filepath.SkipDir
	})
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var tasks []string
	for _, rule := range rules {
		for _, rel := range dirs {
			if !seen[rel] && rule.Matches(strings.TrimSuffix(rel, unpackedSuffix)) {
				seen[rel] = true
				tasks = append(tasks, rel)
			}
		}
	}

	return tasks, nil
}
