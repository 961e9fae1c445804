// Package tsv writes centroids, XICs and isotope patterns as tab separated text
package tsv

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ChrisMcGann/mstk/pkg/core"
	"github.com/ChrisMcGann/mstk/pkg/fe"
	"github.com/ChrisMcGann/mstk/pkg/reader/centroid"
)

// Writer writes tab separated tables.
type Writer struct {
	w   *bufio.Writer
	err error
}

// NewWriter creates a new TSV writer. Call Flush when done.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

func (w *Writer) row(fields ...string) {
	if w.err != nil {
		return
	}
	_, w.err = w.w.WriteString(strings.Join(fields, "\t") + "\n")
}

func ff(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

// WriteCentroids writes a centroid table readable by the centroid reader.
func (w *Writer) WriteCentroids(cs []core.Centroid) error {
	w.row(centroid.Header...)
	for _, c := range cs {
		w.row(ff(c.Mz), ff(c.RetentionTime), strconv.FormatUint(uint64(c.ScanNumber), 10), ff(c.Abundance))
	}
	return w.err
}

// WriteXics writes one summary row per XIC.
func (w *Writer) WriteXics(xics []fe.Xic) error {
	w.row("xic", "mz", "mz_sigma", "rt", "rt_sigma", "abundance", "first_scan", "last_scan", "length")
	for i, x := range xics {
		w.row(strconv.Itoa(i), ff(x.Mz()), ff(x.MzSigma()), ff(x.RetentionTime()), ff(x.RetentionTimeSigma()),
			ff(x.Abundance()), fmt.Sprint(x.FirstScan()), fmt.Sprint(x.LastScan()), strconv.Itoa(x.Len()))
	}
	return w.err
}

// WritePatterns writes one row per isotope pattern with its member m/z values.
func (w *Writer) WritePatterns(patterns []fe.IsotopePattern) error {
	w.row("pattern", "charges", "rt", "abundance", "mzs")
	for i, p := range patterns {
		charges := make([]string, len(p.Charges))
		for k, z := range p.Charges {
			charges[k] = strconv.Itoa(z)
		}
		mzs := make([]string, 0, p.Len())
		for _, mz := range p.Mzs() {
			mzs = append(mzs, ff(mz))
		}
		w.row(strconv.Itoa(i), strings.Join(charges, ","), ff(p.RetentionTime()), ff(p.Abundance()), strings.Join(mzs, ","))
	}
	return w.err
}

// WriteSpectrum writes (m/z, abundance) rows.
func (w *Writer) WriteSpectrum(s core.Spectrum) error {
	w.row("mz", "abundance")
	for _, e := range s.Elements {
		w.row(ff(e.Mz), ff(e.Abundance))
	}
	return w.err
}

// Flush writes buffered data to the underlying writer.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	return w.w.Flush()
}
