package main

import (
	"fmt"
	"os"

	mscfb "github.com/asalih/go-cfb"
	"github.com/asalih/go-cfb/internal/config"
	"github.com/asalih/go-cfb/internal/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	cfgFile string

	cfg *viper.Viper
	log = zap.NewNop()
)

var command = &cobra.Command{
	Use:   "mscfb",
	Short: "Inspect and build Compound File Binary (OLE2) containers",
	Long: `mscfb lists, extracts and inspects the streams of Compound File Binary
containers such as .doc, .xls, .ppt and .msi files, and packs a directory
tree into a new container.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initConfig,
	PersistentPostRun: func(*cobra.Command, []string) {
		_ = log.Sync()
	},
}

func init() {
	command.SetOut(os.Stdout)

	command.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is $HOME/.config/mscfb.yaml)")
	command.PersistentFlags().String("log-level", "", "log level: debug, info, warn or error")
	command.PersistentFlags().Bool("strict", false, "reject files violating the format instead of repairing them")
	command.PersistentFlags().Int("cache-size", 0, "number of sectors kept in the read cache")

	command.AddCommand(lsCMD, catCMD, treeCMD, inspectCMD, packCMD)
}

func initConfig(cmd *cobra.Command, _ []string) error {
	var err error

	cfg, err = config.NewConfig(config.Params{File: cfgFile})
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "reader.strict", "strict")
	bindFlag(cmd, "reader.cache_size", "cache-size")

	log, err = logger.NewLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	if used := cfg.ConfigFileUsed(); used != "" {
		log.Debug("config loaded", zap.String("file", used))
	}

	return nil
}

// bindFlag lets an explicitly set flag override the config key.
func bindFlag(cmd *cobra.Command, key, flag string) {
	if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
		cfg.Set(key, f.Value.String())
	}
}

// openFile opens a container for reading with the reader.* settings.
func openFile(path string) (*mscfb.CompoundFile, func(), error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}

	cf, err := mscfb.Open(f,
		mscfb.ValidationFromStrict(cfg.GetBool("reader.strict")),
		mscfb.WithCacheSize(cfg.GetInt("reader.cache_size")),
	)
	if err != nil {
		_ = f.Close()
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}

	log.Debug("container opened",
		zap.String("file", path),
		zap.Stringer("version", cf.Version()),
		zap.Int64("size", cf.FileSize()))

	return cf, func() { _ = f.Close() }, nil
}

func main() {
	if err := command.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
