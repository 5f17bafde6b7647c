package parser

import (
	"context"
	"os"
	"path/filepath"

	"github.com/PentesterFlow/routescan/internal/ast"
	"github.com/PentesterFlow/routescan/internal/errors"
	"github.com/PentesterFlow/routescan/internal/framework"
	"github.com/PentesterFlow/routescan/internal/logger"
)

// File extensions routed to each dialect.
const (
	TypedExt   = ".ts"
	UntypedExt = ".js"
)

// DialectFor returns the dialect handling a file, by extension.
func DialectFor(path string) (ast.Dialect, bool) {
	switch filepath.Ext(path) {
	case TypedExt:
		return ast.Typed, true
	case UntypedExt:
		return ast.Untyped, true
	default:
		return "", false
	}
}

// FileProcessor turns one source file into endpoint records.
type FileProcessor interface {
	Dialect() ast.Dialect
	Process(ctx context.Context, path string) ([]Endpoint, error)
	ProcessSource(ctx context.Context, path string, src []byte) ([]Endpoint, error)
}

// Options configures a file processor.
type Options struct {
	Profile  *framework.Profile
	Instance string
	Logger   *logger.Logger
	// OnRecovered is called for every parse failure that does not abort
	// discovery.
	OnRecovered func(path string, err error)
}

// processor composes parsing, matching, extraction and path resolution.
type processor struct {
	parser      ast.SourceParser
	matcher     *Matcher
	extractor   *Extractor
	log         *logger.Logger
	onRecovered func(path string, err error)
}

func newProcessor(p ast.SourceParser, opts Options, requests bool) *processor {
	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}
	return &processor{
		parser:      p,
		matcher:     NewMatcher(opts.Profile, opts.Instance, requests),
		extractor:   NewExtractor(opts.Profile),
		log:         log.WithComponent(string(p.Dialect())),
		onRecovered: opts.OnRecovered,
	}
}

func (p *processor) Dialect() ast.Dialect {
	return p.parser.Dialect()
}

// Process reads and processes one file. Read failures are fatal.
func (p *processor) Process(ctx context.Context, path string) ([]Endpoint, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewFileSystemError(path, "read", err)
	}
	return p.ProcessSource(ctx, path, src)
}

// ProcessSource processes already-read source text.
func (p *processor) ProcessSource(ctx context.Context, path string, src []byte) ([]Endpoint, error) {
	prog, err := p.parser.Parse(ctx, src)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.NewCancelledError(path, "parse")
		}
		return nil, p.parseFailure(path, err)
	}

	res := ResolveFile(path)
	var out []Endpoint
	ast.Walk(prog, func(n ast.Node) {
		call, ok := n.(*ast.Call)
		if !ok {
			return
		}
		match, ok := p.matcher.Match(call)
		if !ok {
			return
		}
		out = append(out, p.record(call, match, path, res))
	})
	return out, nil
}

func (p *processor) record(call *ast.Call, match Match, path string, res Resolution) Endpoint {
	md := p.extractor.Extract(call, match)

	route := md.Path
	if match.Kind == KindRoute {
		route = res.Path(md.Path)
	}

	ep := Endpoint{
		Method:          match.Method,
		Path:            route,
		Headers:         md.Headers,
		QueryParameters: md.QueryParameters,
		Body:            md.Body,
		SourceFile:      path,
		ResourceName:    res.ResourceName,
		Line:            call.Span().Line,
		Kind:            match.Kind,
	}
	p.log.EndpointEvent(string(ep.Method), ep.Path, path, ep.Line)
	return ep
}

// parseFailure applies the parser's failure mode. Tolerant failures are
// logged and swallowed.
func (p *processor) parseFailure(path string, cause error) error {
	var scanErr *errors.ScanError
	if p.parser.Dialect() == ast.Typed {
		scanErr = errors.NewTypedParseError(path, cause)
	} else {
		scanErr = errors.NewUntypedParseError(path, cause)
	}

	if p.parser.FailureMode() == ast.Strict {
		return scanErr
	}

	p.log.WithFile(path).WithError(cause).Warn("Skipping unparseable file")
	if p.onRecovered != nil {
		p.onRecovered(path, scanErr)
	}
	return nil
}
