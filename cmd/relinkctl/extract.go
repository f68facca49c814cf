package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/meigma/relink"
)

func newExtractCmd(a *app) *cobra.Command {
	var (
		outDir    string
		overwrite bool
		workers   int
	)
	cmd := &cobra.Command{
		Use:   "extract PATH...",
		Short: "Copy files out of the archive blobs",
		Long: `Extract reads each game path from the archive blobs, ignoring overrides,
and writes it below --out. The sha256 digest of every written file is printed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.engine()
			if err != nil {
				return err
			}
			defer e.Close()

			files, err := e.ExtractArchiveFiles(outDir, args,
				relink.WithOverwrite(overwrite),
				relink.WithWorkers(workers))
			if err != nil {
				return err
			}
			for _, f := range files {
				if f.Skipped {
					a.logger.Warn("file exists, skipped", "path", f.Path)
					continue
				}
				a.logger.Debug("extracted file", "path", f.Path, "size", humanize.Bytes(uint64(f.Size)), "digest", f.Digest)
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", f.Digest, f.Path)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "directory to write extracted files to")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "replace files that already exist")
	cmd.Flags().IntVar(&workers, "workers", 0, "files of one chunk written concurrently (0 = auto, -1 = serial)")
	return cmd
}
