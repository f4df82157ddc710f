package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/influxdata/colstats/frame"
	"github.com/influxdata/colstats/table/arrowrecord"
	"github.com/influxdata/colstats/table/parquetfile"
)

// openTable opens path as a frame, choosing the source by file extension.
// The returned frame owns the source and releases it on Close.
func openTable(path string, opts ...frame.Option) (*frame.Frame, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".parquet":
		f, err := parquetfile.Open(path)
		if err != nil {
			return nil, err
		}
		return frame.New(f.Schema(), f.Partitions(), append(opts, frame.WithCloser(f))...), nil
	case ".arrow", ".arrows":
		r, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer r.Close()

		read := arrowrecord.ReadIPCFile
		if ext == ".arrows" {
			read = func(r ipc.ReadAtSeeker, mem memory.Allocator) (*arrowrecord.Stream, error) {
				return arrowrecord.ReadIPC(r, mem)
			}
		}
		s, err := read(r, nil)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return frame.New(s.Schema(), s.Partitions(), append(opts, frame.WithCloser(s))...), nil
	default:
		return nil, fmt.Errorf("unsupported input %q: expected .parquet, an arrow IPC file (.arrow) or stream (.arrows)", path)
	}
}
