package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	mscfb "github.com/asalih/go-cfb"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var inspectCMD = &cobra.Command{
	Use:   "inspect FILE",
	Short: "Print header and allocation summary",
	Args:  cobra.ExactArgs(1),
	RunE:  inspectFunc,
}

func init() {
	inspectCMD.Flags().StringP("format", "f", "table", "output format: table, json or yaml")
}

type report struct {
	Version            string `json:"version" yaml:"version"`
	SectorSize         int    `json:"sector_size" yaml:"sector_size"`
	FileSize           int64  `json:"file_size" yaml:"file_size"`
	RootName           string `json:"root_name" yaml:"root_name"`
	RootCLSID          string `json:"root_clsid" yaml:"root_clsid"`
	FatSectors         uint32 `json:"fat_sectors" yaml:"fat_sectors"`
	DifatSectors       uint32 `json:"difat_sectors" yaml:"difat_sectors"`
	FirstDifatSector   uint32 `json:"first_difat_sector" yaml:"first_difat_sector"`
	MinifatSectors     uint32 `json:"minifat_sectors" yaml:"minifat_sectors"`
	FirstMinifatSector uint32 `json:"first_minifat_sector" yaml:"first_minifat_sector"`
	FirstDirSector     uint32 `json:"first_dir_sector" yaml:"first_dir_sector"`
	DirEntries         int    `json:"dir_entries" yaml:"dir_entries"`
	MinistreamSize     uint64 `json:"ministream_size" yaml:"ministream_size"`
	Streams            int    `json:"streams" yaml:"streams"`
	Storages           int    `json:"storages" yaml:"storages"`
}

func newReport(cf *mscfb.CompoundFile) (*report, error) {
	h := cf.Header
	root := cf.RootEntry()

	r := &report{
		Version:            h.Version.String(),
		SectorSize:         h.Version.SectorLen(),
		FileSize:           cf.FileSize(),
		RootName:           cf.RootName(),
		RootCLSID:          "{" + strings.ToUpper(root.CLSID.String()) + "}",
		FatSectors:         h.NumFatSectors,
		DifatSectors:       h.NumDifatSectors,
		FirstDifatSector:   h.FirstDifatSector,
		MinifatSectors:     h.NumMinifatSectors,
		FirstMinifatSector: h.FirstMinifatSector,
		FirstDirSector:     h.FirstDirSector,
		DirEntries:         len(cf.Directory.DirEntries),
		MinistreamSize:     root.StreamLen,
	}

	err := cf.Walk(func(e *mscfb.Entry) error {
		switch {
		case e.IsStream():
			r.Streams++
		case e.IsStorage():
			r.Storages++
		}
		return nil
	})

	return r, err
}

func (r *report) rows() [][]string {
	sector := func(id uint32) string {
		if id == mscfb.END_OF_CHAIN {
			return "ENDOFCHAIN"
		}
		return strconv.FormatUint(uint64(id), 10)
	}

	return [][]string{
		{"Version", r.Version},
		{"Sector size", strconv.Itoa(r.SectorSize)},
		{"File size", strconv.FormatInt(r.FileSize, 10)},
		{"Root name", r.RootName},
		{"Root CLSID", r.RootCLSID},
		{"FAT sectors", strconv.FormatUint(uint64(r.FatSectors), 10)},
		{"DIFAT sectors", strconv.FormatUint(uint64(r.DifatSectors), 10)},
		{"First DIFAT sector", sector(r.FirstDifatSector)},
		{"MiniFAT sectors", strconv.FormatUint(uint64(r.MinifatSectors), 10)},
		{"First MiniFAT sector", sector(r.FirstMinifatSector)},
		{"First directory sector", sector(r.FirstDirSector)},
		{"Directory entries", strconv.Itoa(r.DirEntries)},
		{"Ministream size", strconv.FormatUint(r.MinistreamSize, 10)},
		{"Streams", strconv.Itoa(r.Streams)},
		{"Storages", strconv.Itoa(r.Storages)},
	}
}

func inspectFunc(cmd *cobra.Command, args []string) error {
	cf, closeFile, err := openFile(args[0])
	if err != nil {
		return err
	}
	defer closeFile()

	r, err := newReport(cf)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()

	switch format, _ := cmd.Flags().GetString("format"); strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(r)
	case "table":
		out := tablewriter.NewWriter(w)
		out.SetHeader([]string{"Field", "Value"})
		out.SetAutoWrapText(false)
		out.AppendBulk(r.rows())
		out.Render()
		return nil
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
