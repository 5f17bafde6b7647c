package discovery

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/PentesterFlow/routescan/internal/ast"
	"github.com/PentesterFlow/routescan/internal/errors"
	"github.com/PentesterFlow/routescan/internal/framework"
	"github.com/PentesterFlow/routescan/internal/logger"
	"github.com/PentesterFlow/routescan/internal/metrics"
	"github.com/PentesterFlow/routescan/internal/parser"
)

// Walker recursively enumerates a directory and hands every .ts and .js file
// to the matching processor.
type Walker struct {
	processors map[ast.Dialect]parser.FileProcessor
	metrics    *metrics.Collector
	log        *logger.Logger
}

// NewWalker creates a walker matching calls on instance under profile.
func NewWalker(profile *framework.Profile, instance string, log *logger.Logger, m *metrics.Collector) *Walker {
	if log == nil {
		log = logger.NewNop()
	}
	if m == nil {
		m = metrics.New()
	}
	w := &Walker{
		processors: make(map[ast.Dialect]parser.FileProcessor, 2),
		metrics:    m,
		log:        log.WithComponent("walker"),
	}
	opts := parser.Options{
		Profile:  profile,
		Instance: instance,
		Logger:   log,
		OnRecovered: func(path string, err error) {
			m.RecordRecovered()
			m.RecordError(errors.GetErrorType(err).String())
		},
	}
	w.processors[ast.Typed] = parser.NewTypeScriptProcessor(opts)
	w.processors[ast.Untyped] = parser.NewJavaScriptProcessor(opts)
	return w
}

// Walk returns the endpoints of every file under root in lexical walk order.
// Unreadable entries abort the walk.
func (w *Walker) Walk(ctx context.Context, root string) ([]parser.Endpoint, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, errors.NewFileSystemError(root, "stat", err)
	}
	if !info.IsDir() {
		return nil, errors.NewFileSystemError(root, "walk", fmt.Errorf("not a directory"))
	}
	return w.walkDir(ctx, root)
}

func (w *Walker) walkDir(ctx context.Context, dir string) ([]parser.Endpoint, error) {
	w.metrics.RecordDirectory()

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.NewFileSystemError(dir, "readdir", err)
	}

	var out []parser.Endpoint
	for _, entry := range entries {
		if ctx.Err() != nil {
			return nil, errors.NewCancelledError(dir, "walk")
		}

		path := filepath.Join(dir, entry.Name())
		// Stat follows symlinks, so a link cycle ends in a fatal error.
		info, err := os.Stat(path)
		if err != nil {
			return nil, errors.NewFileSystemError(path, "stat", err)
		}

		var found []parser.Endpoint
		switch {
		case info.IsDir():
			found, err = w.walkDir(ctx, path)
		case info.Mode().IsRegular():
			found, err = w.walkFile(ctx, path, info.Size())
		}
		if err != nil {
			return nil, err
		}
		out = append(out, found...)
	}
	return out, nil
}

func (w *Walker) walkFile(ctx context.Context, path string, size int64) ([]parser.Endpoint, error) {
	dialect, ok := parser.DialectFor(path)
	if !ok {
		w.metrics.RecordIgnoredFile()
		return nil, nil
	}

	switch dialect {
	case ast.Typed:
		w.metrics.RecordTypedFile(size)
	case ast.Untyped:
		w.metrics.RecordUntypedFile(size)
	}

	start := time.Now()
	found, err := w.processors[dialect].Process(ctx, path)
	w.metrics.RecordParseTime(time.Since(start))
	if err != nil {
		w.metrics.RecordError(errors.GetErrorType(err).String())
		return nil, err
	}

	for _, ep := range found {
		w.metrics.RecordEndpoint(string(ep.Method), ep.Kind == parser.KindRequest)
	}
	w.log.WithFile(path).Debugf("Processed %s file: %d endpoints", dialect, len(found))
	return found, nil
}
