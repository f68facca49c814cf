package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/meigma/relink"
	"github.com/meigma/relink/redirect"
)

// ManifestFileName is the redirect manifest written next to the output index.
const ManifestFileName = "redirects.yaml"

type modSource struct {
	id     string
	folder string
}

func parseMod(s string) (modSource, error) {
	id, folder, ok := strings.Cut(s, "=")
	if !ok || id == "" || folder == "" {
		return modSource{}, fmt.Errorf("invalid --mod %q, want ID=FOLDER", s)
	}
	return modSource{id: id, folder: folder}, nil
}

func newBuildCmd(a *app) *cobra.Command {
	var (
		mods     []string
		manifest string
	)
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Register override folders and write the merged index",
		Long: `Build registers each --mod folder in the order given, later folders
overriding earlier ones, then writes the merged index and a redirect
manifest mapping game paths to the files that serve them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sources := make([]modSource, 0, len(mods))
			for _, m := range mods {
				src, err := parseMod(m)
				if err != nil {
					return err
				}
				sources = append(sources, src)
			}

			table := redirect.NewTable()
			e, err := a.engine(relink.WithRedirector(table))
			if err != nil {
				return err
			}
			defer e.Close()

			var total relink.Summary
			for _, src := range sources {
				sum, err := e.RegisterSourceFiles(src.id, src.folder)
				if err != nil {
					return err
				}
				total.Files += sum.Files
				total.Added += sum.Added
				total.Updated += sum.Updated
				total.Skipped += sum.Skipped
				total.Failed += sum.Failed
				total.Conflicts += sum.Conflicts
				total.Bytes += sum.Bytes
			}

			out, err := e.PersistIndex()
			if err != nil {
				return err
			}
			if manifest == "" {
				manifest = filepath.Join(filepath.Dir(out), ManifestFileName)
			}
			if err := table.SaveManifest(manifest); err != nil {
				return err
			}

			a.logger.Info("build complete",
				"mods", len(sources),
				"files", total.Files,
				"added", total.Added,
				"updated", total.Updated,
				"skipped", total.Skipped,
				"failed", total.Failed,
				"conflicts", total.Conflicts,
				"size", humanize.Bytes(total.Bytes),
				"redirects", table.Len())
			fmt.Fprintf(cmd.OutOrStdout(), "index:    %s\nmanifest: %s\n", out, manifest)
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&mods, "mod", "m", nil, "override folder as ID=FOLDER (repeatable, later wins)")
	cmd.Flags().StringVar(&manifest, "manifest", "", "redirect manifest path (default next to the output index)")
	return cmd
}
