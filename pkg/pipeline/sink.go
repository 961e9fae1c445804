package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ChrisMcGann/mstk/pkg/config"
	"github.com/ChrisMcGann/mstk/pkg/writer/sqlite"
	"github.com/ChrisMcGann/mstk/pkg/writer/tsv"
)

// NewSink opens the sink configured in cfg.Output.
func NewSink(cfg *config.Config, logger *zap.Logger) (Sink, error) {
	switch cfg.Output.Format {
	case "sqlite":
		return NewSQLiteSink(cfg.Output.Path, cfg, logger)
	case "tsv":
		return NewTSVSink(cfg.Output.Path, logger)
	}
	return nil, fmt.Errorf("unknown output format %q", cfg.Output.Format)
}

// SQLiteSink writes every result as one run of a SQLite database.
type SQLiteSink struct {
	w          *sqlite.Writer
	parameters string
	logger     *zap.Logger
}

// NewSQLiteSink opens or creates the database at path. The configuration is
// stored with every run.
func NewSQLiteSink(path string, cfg *config.Config, logger *zap.Logger) (*SQLiteSink, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	params, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal parameters: %w", err)
	}
	w, err := sqlite.NewWriter(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output database: %w", err)
	}
	return &SQLiteSink{w: w, parameters: string(params), logger: logger}, nil
}

func (s *SQLiteSink) Write(ctx context.Context, r Result) error {
	runID, err := s.w.WriteRun(ctx, sqlite.Run{
		SourceFile:   r.SourceFile,
		Parameters:   s.parameters,
		NumCentroids: r.NumCentroids,
		Xics:         r.Xics,
		Patterns:     r.Patterns,
	})
	if err != nil {
		return err
	}
	s.logger.Debug("run written", zap.String("source", r.SourceFile), zap.String("run", runID))
	return nil
}

func (s *SQLiteSink) Close() error { return s.w.Finalize() }

// TSVSink writes <source>.xics.tsv and <source>.patterns.tsv per result into
// a directory.
type TSVSink struct {
	dir    string
	logger *zap.Logger
}

// NewTSVSink creates dir if needed.
func NewTSVSink(dir string, logger *zap.Logger) (*TSVSink, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &TSVSink{dir: dir, logger: logger}, nil
}

func (s *TSVSink) Write(_ context.Context, r Result) error {
	base := strings.TrimSuffix(r.SourceFile, filepath.Ext(r.SourceFile))
	if err := s.writeFile(base+".xics.tsv", func(w *tsv.Writer) error { return w.WriteXics(r.Xics) }); err != nil {
		return err
	}
	if err := s.writeFile(base+".patterns.tsv", func(w *tsv.Writer) error { return w.WritePatterns(r.Patterns) }); err != nil {
		return err
	}
	s.logger.Debug("tables written", zap.String("source", r.SourceFile), zap.String("dir", s.dir))
	return nil
}

func (s *TSVSink) writeFile(name string, write func(*tsv.Writer) error) error {
	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	w := tsv.NewWriter(f)
	if err := write(w); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (s *TSVSink) Close() error { return nil }
