// Package spectrum provides a streaming reader for block-formatted spectra
// (MSP-like peak lists, one block per scan)
package spectrum

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ChrisMcGann/mstk/pkg/core"
)

// Reader provides streaming access to block-formatted spectra:
//
//	Name: scan=12
//	RetentionTime: 34.5
//	Charge: 2
//	Num peaks: 2
//	400.1	1000
//	400.2	2000
//
// Header keys are matched case-insensitively; "Scan", "RetentionTime" and
// "Charge" may also appear as key=value pairs in "Name" or "Comment".
type Reader struct {
	scanner     *bufio.Scanner
	source      string
	lineNum     int
	currentSpec *core.Spectrum
	err         error
}

// NewReader creates a new spectrum reader. source is recorded in every
// spectrum's SourceFile.
func NewReader(r io.Reader, source string) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	return &Reader{
		scanner: sc,
		source:  source,
	}
}

// Next advances to the next spectrum. Returns false when no more spectra or error.
func (r *Reader) Next() bool {
	r.currentSpec = nil

	spec, err := r.readSpectrum()
	if err != nil {
		if err != io.EOF {
			r.err = err
		}
		return false
	}

	r.currentSpec = spec
	return true
}

// Spectrum returns the current spectrum
func (r *Reader) Spectrum() *core.Spectrum {
	return r.currentSpec
}

// Err returns any error encountered during reading
func (r *Reader) Err() error {
	return r.err
}

// ReadAll reads every remaining spectrum.
func (r *Reader) ReadAll() ([]core.Spectrum, error) {
	var out []core.Spectrum
	for r.Next() {
		out = append(out, *r.Spectrum())
	}
	return out, r.Err()
}

// readSpectrum reads a single block
func (r *Reader) readSpectrum() (*core.Spectrum, error) {
	spec := &core.Spectrum{SourceFile: r.source}

	var numPeaks int
	inPeaks := false
	inBlock := false
	peaksRead := 0

	for r.scanner.Scan() {
		r.lineNum++
		line := strings.TrimSpace(r.scanner.Text())

		// Skip empty lines and comments between blocks
		if line == "" || strings.HasPrefix(line, "#") {
			if inPeaks {
				return nil, fmt.Errorf("line %d: expected %d peaks, got %d", r.lineNum, numPeaks, peaksRead)
			}
			continue
		}

		if !inPeaks {
			key, value, ok := strings.Cut(line, ":")
			if !ok {
				return nil, fmt.Errorf("line %d: expected header field, got %q", r.lineNum, line)
			}
			inBlock = true
			value = strings.TrimSpace(value)
			switch strings.ToLower(strings.TrimSpace(key)) {
			case "name", "comment":
				if err := parseComment(spec, value); err != nil {
					return nil, fmt.Errorf("line %d: %w", r.lineNum, err)
				}
			case "num peaks", "numpeaks":
				n, err := strconv.Atoi(value)
				if err != nil || n < 0 {
					return nil, fmt.Errorf("line %d: invalid num peaks %q", r.lineNum, value)
				}
				numPeaks = n
				inPeaks = true
				spec.Elements = make([]core.SpectrumElement, 0, n)
				if n == 0 {
					return spec, nil
				}
			default:
				if err := setField(spec, key, value); err != nil {
					return nil, fmt.Errorf("line %d: %w", r.lineNum, err)
				}
			}
		} else {
			// Parse peak line
			el, err := parsePeak(line)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", r.lineNum, err)
			}
			spec.Elements = append(spec.Elements, el)
			peaksRead++

			// Check if we've read all peaks
			if peaksRead >= numPeaks {
				return spec, nil
			}
		}
	}

	if err := r.scanner.Err(); err != nil {
		return nil, err
	}

	if inBlock {
		return nil, fmt.Errorf("line %d: truncated spectrum, expected %d peaks, got %d", r.lineNum, numPeaks, peaksRead)
	}

	return nil, io.EOF
}

// parseComment extracts scan metadata from key=value pairs
// Example: scan=1234 RetentionTime=35.2 Charge=2 File=run1.raw
func parseComment(spec *core.Spectrum, comment string) error {
	for _, field := range strings.Fields(comment) {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			continue
		}
		if err := setField(spec, key, value); err != nil {
			return err
		}
	}
	return nil
}

func setField(spec *core.Spectrum, key, value string) error {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "scan", "scannumber":
		sn, err := strconv.Atoi(value)
		if err != nil || sn < 0 {
			return fmt.Errorf("invalid scan number %q", value)
		}
		spec.ScanNumber = sn
	case "retentiontime", "rt", "rtinseconds":
		rt, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid retention time %q: %w", value, err)
		}
		spec.RetentionTime = rt
	case "charge":
		charge, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSuffix(value, "+"), "-"))
		if err != nil {
			return fmt.Errorf("invalid charge %q: %w", value, err)
		}
		spec.PrecursorCharge = charge
	case "file":
		spec.SourceFile = value
	}
	return nil
}

// parsePeak parses a single peak line (format: "mz\tabundance[\tannotation]")
func parsePeak(line string) (core.SpectrumElement, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return core.SpectrumElement{}, fmt.Errorf("invalid peak format, expected at least 2 fields")
	}

	mz, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return core.SpectrumElement{}, fmt.Errorf("invalid m/z value: %w", err)
	}

	ab, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return core.SpectrumElement{}, fmt.Errorf("invalid abundance value: %w", err)
	}

	return core.SpectrumElement{Mz: mz, Abundance: ab}, nil
}
