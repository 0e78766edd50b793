package main

import (
	"strconv"

	mscfb "github.com/asalih/go-cfb"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var lsCMD = &cobra.Command{
	Use:   "ls FILE [STORAGE]",
	Short: "List entries",
	Long:  `List the streams and storages directly below a storage, the root by default.`,
	Args:  cobra.RangeArgs(1, 2),
	RunE:  lsFunc,
}

func init() {
	lsCMD.Flags().BoolP("recursive", "r", false, "list every entry below the storage")
}

func lsFunc(cmd *cobra.Command, args []string) error {
	cf, closeFile, err := openFile(args[0])
	if err != nil {
		return err
	}
	defer closeFile()

	var storage []string
	if len(args) > 1 {
		storage = mscfb.NameChainFromPath(args[1])
	}

	var entries []*mscfb.Entry
	if recursive, _ := cmd.Flags().GetBool("recursive"); recursive {
		// Walk covers the whole file; keep entries below storage.
		err = cf.Walk(func(e *mscfb.Entry) error {
			if len(e.Names) > len(storage) && mscfb.PathFromNameChain(e.Names[:len(storage)]) == mscfb.PathFromNameChain(storage) {
				entries = append(entries, e)
			}
			return nil
		})
	} else {
		entries, err = cf.ListEntries(storage)
	}
	if err != nil {
		return err
	}

	out := tablewriter.NewWriter(cmd.OutOrStdout())
	out.SetHeader([]string{"Path", "Type", "Size", "Start", "Modified"})
	out.SetAutoWrapText(false)

	for _, e := range entries {
		size, start := "", ""
		if e.IsStream() {
			size = strconv.FormatUint(e.StreamLen, 10)
			start = strconv.FormatUint(uint64(e.StartSector), 10)
		}

		modified := ""
		if !e.ModifiedTime.IsZero() {
			modified = e.ModifiedTime.Format("2006-01-02 15:04:05")
		}

		out.Append([]string{e.Path, e.ObjType.String(), size, start, modified})
	}

	out.Render()

	return nil
}
