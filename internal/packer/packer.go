// Package packer builds a compound file from a directory tree: regular
// files become streams and subdirectories become storages.
package packer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	mscfb "github.com/asalih/go-cfb"
	"github.com/woozymasta/pathrules"
	"go.uber.org/zap"
)

// ErrInvalidPattern means an include or exclude rule failed to compile.
var ErrInvalidPattern = errors.New("invalid path pattern")

// Options controls how a directory is packed.
type Options struct {
	// SectorLen is 512 or 4096; zero means 512.
	SectorLen int
	// CLSID is stamped on the root entry.
	CLSID [16]byte
	// Include and Exclude are gitignore style patterns matched against
	// slash separated paths relative to the packed directory. With no
	// include rules every file is included.
	Include []string
	Exclude []string
}

// Stats summarizes a pack run.
type Stats struct {
	Streams  int
	Storages int
	Skipped  int
	Bytes    int64
}

// ResolveCLSID maps a well known document kind ("word", "powerpoint",
// "excel") or a GUID string to a CLSID. An empty string yields the zero
// CLSID.
func ResolveCLSID(s string) ([16]byte, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return [16]byte{}, nil
	case "word", "doc":
		return mscfb.WORD_DOCUMENT_CLSID, nil
	case "powerpoint", "ppt":
		return mscfb.POWERPOINT_CLSID, nil
	case "excel", "xls":
		return mscfb.EXCEL_CLSID, nil
	default:
		return mscfb.ParseCLSID(s)
	}
}

func newMatcher(include, exclude []string) (*pathrules.Matcher, error) {
	rules := make([]pathrules.Rule, 0, len(include)+len(exclude))
	for _, p := range include {
		if p = strings.TrimSpace(p); p != "" {
			rules = append(rules, pathrules.Rule{Action: pathrules.ActionInclude, Pattern: p})
		}
	}

	defaultAction := pathrules.ActionInclude
	if len(rules) > 0 {
		defaultAction = pathrules.ActionExclude
	}

	for _, p := range exclude {
		if p = strings.TrimSpace(p); p != "" {
			rules = append(rules, pathrules.Rule{Action: pathrules.ActionExclude, Pattern: p})
		}
	}

	matcher, err := pathrules.NewMatcher(rules, pathrules.MatcherOptions{
		CaseInsensitive: true,
		DefaultAction:   defaultAction,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPattern, err)
	}

	return matcher, nil
}

// Build adds the contents of dir to a new Writer. Entries are added in
// lexical walk order, so the first large file becomes the first stream in
// the file.
func Build(dir string, opts Options, log *zap.Logger) (*mscfb.Writer, Stats, error) {
	var stats Stats

	if log == nil {
		log = zap.NewNop()
	}

	sectorLen := opts.SectorLen
	if sectorLen == 0 {
		sectorLen = 512
	}

	w, err := mscfb.NewWriter(mscfb.WithSectorLen(sectorLen), mscfb.WithLogger(log))
	if err != nil {
		return nil, stats, err
	}
	w.SetRootCLSID(opts.CLSID)

	matcher, err := newMatcher(opts.Include, opts.Exclude)
	if err != nil {
		return nil, stats, err
	}

	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)
		components := strings.Split(rel, "/")

		if d.IsDir() {
			if !matcher.Included(rel, true) && len(opts.Include) == 0 {
				log.Debug("skip directory", zap.String("path", rel))
				stats.Skipped++
				return fs.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() || !matcher.Included(rel, false) {
			log.Debug("skip file", zap.String("path", rel))
			stats.Skipped++
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", rel, err)
		}

		if err := w.CreateStream(components, data); err != nil {
			return fmt.Errorf("add %s: %w", rel, err)
		}

		log.Debug("add stream", zap.String("path", rel), zap.Int("size", len(data)))
		stats.Streams++
		stats.Bytes += int64(len(data))

		return nil
	})
	if err != nil {
		return nil, stats, err
	}

	// Empty directories would otherwise vanish, since storages are only
	// implied by the streams below them.
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() || path == dir {
			return err
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if !matcher.Included(rel, true) {
			if len(opts.Include) == 0 {
				return fs.SkipDir
			}
			return nil
		}

		if err := w.CreateStorage(strings.Split(rel, "/")); err != nil {
			return fmt.Errorf("add %s: %w", rel, err)
		}
		stats.Storages++

		return nil
	})
	if err != nil {
		return nil, stats, err
	}

	return w, stats, nil
}

// Pack writes the contents of dir into a compound file at out.
func Pack(dir, out string, opts Options, log *zap.Logger) (Stats, error) {
	w, stats, err := Build(dir, opts, log)
	if err != nil {
		return stats, err
	}

	if err := w.Save(out); err != nil {
		return stats, err
	}

	return stats, nil
}
