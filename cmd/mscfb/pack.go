package main

import (
	"fmt"

	"github.com/asalih/go-cfb/internal/packer"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var packCMD = &cobra.Command{
	Use:   "pack DIR OUT",
	Short: "Build a container from a directory",
	Long: `Pack a directory tree into a new container: regular files become streams
and subdirectories become storages. Paths are added in lexical order, so the
first large file is placed at sector 0.`,
	Args: cobra.ExactArgs(2),
	RunE: packFunc,
}

func init() {
	packCMD.Flags().Int("sector-size", 0, "sector size, 512 or 4096")
	packCMD.Flags().String("clsid", "", "root CLSID: word, powerpoint, excel or a GUID")
	packCMD.Flags().StringSlice("include", nil, "only pack files matching these patterns")
	packCMD.Flags().StringSlice("exclude", nil, "skip files matching these patterns")
}

func packFunc(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	if flags.Changed("sector-size") {
		v, _ := flags.GetInt("sector-size")
		cfg.Set("pack.sector_size", v)
	}
	if flags.Changed("include") {
		v, _ := flags.GetStringSlice("include")
		cfg.Set("pack.include", v)
	}
	if flags.Changed("exclude") {
		v, _ := flags.GetStringSlice("exclude")
		cfg.Set("pack.exclude", v)
	}
	bindFlag(cmd, "pack.clsid", "clsid")

	clsid, err := packer.ResolveCLSID(cfg.GetString("pack.clsid"))
	if err != nil {
		return err
	}

	opts := packer.Options{
		SectorLen: cfg.GetInt("pack.sector_size"),
		CLSID:     clsid,
		Include:   cfg.GetStringSlice("pack.include"),
		Exclude:   cfg.GetStringSlice("pack.exclude"),
	}

	stats, err := packer.Pack(args[0], args[1], opts, log)
	if err != nil {
		return fmt.Errorf("pack %s: %w", args[0], err)
	}

	log.Info("container written",
		zap.String("file", args[1]),
		zap.Int("streams", stats.Streams),
		zap.Int("storages", stats.Storages),
		zap.Int("skipped", stats.Skipped),
		zap.Int64("bytes", stats.Bytes))

	fmt.Fprintf(cmd.OutOrStdout(), "packed %d streams (%d bytes) into %s\n", stats.Streams, stats.Bytes, args[1])

	return nil
}
