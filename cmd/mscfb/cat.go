package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var catCMD = &cobra.Command{
	Use:   "cat FILE STREAM",
	Short: "Print stream contents",
	Long:  `Copy the contents of a stream, given as a slash separated path, to stdout or a file.`,
	Args:  cobra.ExactArgs(2),
	RunE:  catFunc,
}

func init() {
	catCMD.Flags().StringP("out", "o", "", "write to file instead of stdout")
}

func catFunc(cmd *cobra.Command, args []string) error {
	cf, closeFile, err := openFile(args[0])
	if err != nil {
		return err
	}
	defer closeFile()

	stream, err := cf.OpenStream(args[1])
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if path, _ := cmd.Flags().GetString("out"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	n, err := io.Copy(w, stream)
	if err != nil {
		return fmt.Errorf("copy stream %s: %w", stream.Entry.Path, err)
	}

	log.Debug("stream copied", zap.String("path", stream.Entry.Path), zap.Int64("bytes", n))

	return nil
}
