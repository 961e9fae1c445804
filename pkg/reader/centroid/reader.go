// Package centroid provides a streaming reader for centroid tables
package centroid

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ChrisMcGann/mstk/pkg/core"
)

// Header is the column header written and accepted by this package.
var Header = []string{"mz", "rt", "scan", "abundance"}

// Reader provides streaming access to whitespace separated centroid
// tables with the columns m/z, retention time, scan number and abundance.
// Lines starting with '#' are comments, lines starting with "mz" are
// headers.
type Reader struct {
	scanner *bufio.Scanner
	lineNum int
	current core.Centroid
	err     error
}

// NewReader creates a new centroid reader.
func NewReader(r io.Reader) *Reader {
	return &Reader{scanner: bufio.NewScanner(r)}
}

// Next advances to the next centroid. Returns false when no more centroids or error.
func (r *Reader) Next() bool {
	for r.scanner.Scan() {
		r.lineNum++
		line := strings.TrimSpace(r.scanner.Text())

		// Skip comments and empty lines
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(strings.ToLower(line), Header[0]) {
			continue
		}

		c, err := parseCentroid(line)
		if err == nil {
			err = c.Validate()
		}
		if err != nil {
			r.err = fmt.Errorf("line %d: %w", r.lineNum, err)
			return false
		}
		r.current = c
		return true
	}
	r.err = r.scanner.Err()
	return false
}

// Centroid returns the current centroid
func (r *Reader) Centroid() core.Centroid {
	return r.current
}

// Err returns any error encountered during reading
func (r *Reader) Err() error {
	return r.err
}

// ReadAll reads every remaining centroid.
func (r *Reader) ReadAll() ([]core.Centroid, error) {
	var out []core.Centroid
	for r.Next() {
		out = append(out, r.Centroid())
	}
	return out, r.Err()
}

func parseCentroid(line string) (core.Centroid, error) {
	fields := strings.Fields(line)
	if len(fields) != 4 {
		return core.Centroid{}, fmt.Errorf("expected 4 fields, got %d", len(fields))
	}

	mz, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return core.Centroid{}, fmt.Errorf("invalid m/z value: %w", err)
	}
	rt, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return core.Centroid{}, fmt.Errorf("invalid retention time: %w", err)
	}
	sn, err := strconv.ParseUint(fields[2], 10, 32)
	if err != nil {
		return core.Centroid{}, fmt.Errorf("invalid scan number: %w", err)
	}
	ab, err := strconv.ParseFloat(fields[3], 64)
	if err != nil {
		return core.Centroid{}, fmt.Errorf("invalid abundance value: %w", err)
	}

	return core.Centroid{Mz: mz, RetentionTime: rt, ScanNumber: uint32(sn), Abundance: ab}, nil
}
