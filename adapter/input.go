package adapter

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// maxLineSize bounds scanner buffers. GTF attribute fields and VCF INFO
// columns routinely exceed bufio's 64K default.
const maxLineSize = 4 * 1024 * 1024

// Input is an open data source, gzip-decompressed when the path ends in .gz.
type Input struct {
	file *os.File
	rc   io.ReadCloser
	r    io.Reader
}

// OpenInput opens path for reading, transparently decompressing gzip.
func OpenInput(path string) (*Input, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}

	in := &Input{file: f, r: f}
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("open gzip input %s: %w", path, err)
		}
		in.rc = gz
		in.r = gz
	}
	return in, nil
}

// Scanner returns a line scanner over the input with a large buffer.
func (in *Input) Scanner() *bufio.Scanner {
	sc := bufio.NewScanner(in.r)
	sc.Buffer(make([]byte, 64*1024), maxLineSize)
	return sc
}

// Close closes the gzip stream (if any) and the underlying file.
func (in *Input) Close() error {
	if in.rc != nil {
		if err := in.rc.Close(); err != nil {
			in.file.Close()
			return err
		}
	}
	return in.file.Close()
}
