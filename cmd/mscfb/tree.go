package main

import (
	"fmt"
	"strings"

	mscfb "github.com/asalih/go-cfb"
	"github.com/spf13/cobra"
)

var treeCMD = &cobra.Command{
	Use:   "tree FILE",
	Short: "Print the storage hierarchy",
	Args:  cobra.ExactArgs(1),
	RunE:  treeFunc,
}

func treeFunc(cmd *cobra.Command, args []string) error {
	cf, closeFile, err := openFile(args[0])
	if err != nil {
		return err
	}
	defer closeFile()

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, cf.RootName())

	return cf.Walk(func(e *mscfb.Entry) error {
		indent := strings.Repeat("  ", len(e.Names))
		if e.IsStream() {
			_, err := fmt.Fprintf(w, "%s%s (%d)\n", indent, e.Name, e.StreamLen)
			return err
		}
		_, err := fmt.Fprintf(w, "%s%s/\n", indent, e.Name)
		return err
	})
}
