package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/meigma/relink"
	"github.com/meigma/relink/internal/index"
)

func newInspectCmd(a *app) *cobra.Command {
	var indexPath string
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Describe an index file without modifying anything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if indexPath == "" {
				if a.cfg.GameDir == "" {
					return errors.New("no index, set --index or --game-dir")
				}
				indexPath = filepath.Join(a.cfg.GameDir, relink.IndexFileName)
			}

			raw, err := os.ReadFile(indexPath) //nolint:gosec // path chosen by the user
			if err != nil {
				return err
			}
			provenance, err := index.Classify(raw)
			if err != nil {
				return err
			}
			m, err := index.Decode(raw)
			if err != nil {
				return err
			}
			hint, _ := index.LayoutHint(raw)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "path\t%s\n", indexPath)
			fmt.Fprintf(w, "size\t%s\n", humanize.Bytes(uint64(len(raw))))
			fmt.Fprintf(w, "codename\t%s\n", m.Codename())
			fmt.Fprintf(w, "provenance\t%s\n", provenance)
			fmt.Fprintf(w, "layout hint\t%d\n", hint)
			fmt.Fprintf(w, "archives\t%d\n", m.NumArchives())
			fmt.Fprintf(w, "chunks\t%d\n", m.ChunkLen())
			fmt.Fprintf(w, "archived files\t%s\n", humanize.Comma(int64(m.ArchiveLen())))
			fmt.Fprintf(w, "external files\t%s\n", humanize.Comma(int64(m.ExternalLen())))

			dir := filepath.Dir(indexPath)
			for n := range m.NumArchives() {
				name := "data." + strconv.Itoa(n)
				size := "missing"
				if info, err := os.Stat(filepath.Join(dir, name)); err == nil {
					size = humanize.Bytes(uint64(info.Size()))
				}
				fmt.Fprintf(w, "%s\t%s\n", name, size)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&indexPath, "index", "", "index file to inspect (default <game-dir>/data.i)")
	return cmd
}
