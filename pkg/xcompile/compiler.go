// Package xcompile is the compile facade: it checks the host, loads the
// binding language by name, parses the source against the host descriptor and
// runs one generator per requested target.
//
// Host, language and parse failures are fatal and leave the output directory
// untouched. Generation problems are per target: they are reported to the
// diagnostic sink and never stop the other targets.
package xcompile

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/r9s-ai/xcompile/pkg/bindast"
	"github.com/r9s-ai/xcompile/pkg/bindlang"
	"github.com/r9s-ai/xcompile/pkg/bindparse"
	"github.com/r9s-ai/xcompile/pkg/generator"
	"github.com/r9s-ai/xcompile/pkg/hostdesc"
	"github.com/r9s-ai/xcompile/pkg/requestid"
)

// Request is one compile.
type Request struct {
	// Language is the exact registered name of the binding language.
	Language   string
	SourceName string
	Source     string
	// Host must implement hostdesc.Bindable.
	Host    any
	Targets []generator.Target
	// OutputDir receives one file per target. Empty keeps outputs in memory.
	OutputDir string
	// OutputName is the base name of generated files. Defaults to the language name.
	OutputName string
	// ID is attached to log lines and the result. Generated when empty.
	ID string
}

// RequestError reports a request that cannot start a compile.
type RequestError struct {
	Field  string
	Reason string
}

func (e *RequestError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("invalid compile request: %s: %s", e.Field, e.Reason)
}

type TargetOutput struct {
	Target   generator.Target
	FileName string
	// Path is empty when the output was not written to disk.
	Path    string
	Content []byte
	Partial bool
}

type Result struct {
	ID           string
	Language     string
	HostType     string
	Declarations int
	Outputs      []TargetOutput
	Diagnostics  []generator.Diagnostic
	// Skipped is set when the source held no declarations and nothing was generated.
	Skipped bool
}

// Partial reports whether any target skipped a declaration.
func (r *Result) Partial() bool {
	if r == nil {
		return false
	}
	for _, o := range r.Outputs {
		if o.Partial {
			return true
		}
	}
	return false
}

type Compiler struct {
	Registry *bindlang.Registry
	Logger   *log.Logger
	// Sink also receives every diagnostic; Result.Diagnostics is always filled.
	Sink generator.Sink
}

type Option func(*Compiler)

func WithRegistry(r *bindlang.Registry) Option {
	return func(c *Compiler) { c.Registry = r }
}

func WithLogger(l *log.Logger) Option {
	return func(c *Compiler) { c.Logger = l }
}

func WithSink(s generator.Sink) Option {
	return func(c *Compiler) { c.Sink = s }
}

// New returns a compiler backed by bindlang.DefaultRegistry unless an option
// says otherwise. Logs are discarded by default.
func New(opts ...Option) *Compiler {
	c := &Compiler{}
	for _, o := range opts {
		if o != nil {
			o(c)
		}
	}
	if c.Registry == nil {
		c.Registry = bindlang.DefaultRegistry()
	}
	if c.Logger == nil {
		c.Logger = log.New(io.Discard, "", 0)
	}
	return c
}

// Compile runs req. A fatal error is returned together with a Result
// carrying the compile ID.
func (c *Compiler) Compile(req Request) (*Result, error) {
	res, fe, err := c.front(req, true)
	if err != nil || res.Skipped {
		return res, err
	}

	outputName := strings.TrimSpace(req.OutputName)
	if outputName == "" {
		outputName = fe.lang.Name()
	}
	var collected generator.Collector
	sink := generator.Tee(&collected, c.Sink)
	for _, target := range fe.targets {
		res.Outputs = append(res.Outputs, c.generate(fe.root, outputName, target, req.OutputDir, sink))
	}
	res.Diagnostics = collected.Diagnostics()

	c.logger().Printf("compile ok: id=%s language=%q host=%s declarations=%d targets=%s diagnostics=%d",
		res.ID, req.Language, res.HostType, res.Declarations, targetList(fe.targets), len(res.Diagnostics))
	return res, nil
}

// Check validates the host, loads the language and parses the source of req
// without generating anything. Targets are ignored.
func (c *Compiler) Check(req Request) (*Result, error) {
	res, _, err := c.front(req, false)
	if err == nil && !res.Skipped {
		c.logger().Printf("check ok: id=%s language=%q host=%s declarations=%d",
			res.ID, req.Language, res.HostType, res.Declarations)
	}
	return res, err
}

type frontEnd struct {
	lang    bindlang.BindingLanguage
	root    *bindast.ProgramRoot
	targets []generator.Target
}

func (c *Compiler) front(req Request, withTargets bool) (*Result, frontEnd, error) {
	var fe frontEnd
	id := strings.TrimSpace(req.ID)
	if id == "" {
		id = requestid.Gen()
	}
	res := &Result{ID: id, Language: req.Language}
	logger := c.logger()

	if err := hostdesc.Check(req.Host); err != nil {
		logger.Printf("compile rejected: id=%s err=%v", id, err)
		return res, fe, err
	}
	if withTargets {
		targets, err := normalizeTargets(req.Targets)
		if err != nil {
			return res, fe, err
		}
		fe.targets = targets
	}
	desc, err := hostdesc.Describe(req.Host)
	if err != nil {
		return res, fe, fmt.Errorf("describe host: %w", err)
	}
	res.HostType = desc.TypeName()

	fe.lang, err = c.registry().Load(req.Language)
	if err != nil {
		logger.Printf("compile rejected: id=%s language=%q err=%v", id, req.Language, err)
		return res, fe, err
	}
	sourceName := req.SourceName
	if strings.TrimSpace(sourceName) == "" {
		sourceName = "<source>"
	}
	fe.root, err = fe.lang.Parser().Parse(sourceName, req.Source, desc)
	if err != nil {
		logger.Printf("compile failed: id=%s language=%q source=%s err=%v", id, req.Language, sourceName, err)
		return res, fe, err
	}
	if fe.root.Empty() {
		res.Skipped = true
		logger.Printf("compile skipped: id=%s language=%q source=%s reason=empty program", id, req.Language, sourceName)
		return res, fe, nil
	}
	res.Declarations = fe.root.Len()
	return res, fe, nil
}

func (c *Compiler) generate(root *bindast.ProgramRoot, outputName string, target generator.Target, dir string, sink generator.Sink) TargetOutput {
	out, err := generator.Generate(root, outputName, target, sink)
	if err != nil {
		sink.Report(generator.Diagnostic{Target: target, Severity: generator.SeverityError, Message: err.Error(), Err: err})
		return TargetOutput{Target: target, Partial: true}
	}
	to := TargetOutput{Target: target, FileName: out.FileName, Content: out.Content, Partial: out.Partial}
	if strings.TrimSpace(dir) == "" {
		return to
	}
	path := filepath.Join(dir, out.FileName)
	if err := writeOutput(path, out.Content); err != nil {
		gerr := &generator.GenerationError{Target: target, Reason: "write " + path, Err: err}
		sink.Report(generator.Diagnostic{Target: target, Severity: generator.SeverityError, Message: gerr.Error(), Err: gerr})
		to.Partial = true
		return to
	}
	to.Path = path
	return to
}

func writeOutput(path string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	tmp := path + ".tmp"
	// #nosec G306 -- generated source is meant to be readable.
	if err := os.WriteFile(tmp, content, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

func normalizeTargets(in []generator.Target) ([]generator.Target, error) {
	if len(in) == 0 {
		return nil, &RequestError{Field: "targets", Reason: "at least one target is required"}
	}
	seen := map[generator.Target]bool{}
	out := make([]generator.Target, 0, len(in))
	for _, t := range in {
		if !t.Valid() {
			return nil, &RequestError{Field: "targets", Reason: fmt.Sprintf("unknown target %s", t)}
		}
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out, nil
}

func targetList(ts []generator.Target) string {
	names := make([]string, 0, len(ts))
	for _, t := range ts {
		names = append(names, t.String())
	}
	return strings.Join(names, ",")
}

func (c *Compiler) registry() *bindlang.Registry {
	if c == nil || c.Registry == nil {
		return bindlang.DefaultRegistry()
	}
	return c.Registry
}

func (c *Compiler) logger() *log.Logger {
	if c == nil || c.Logger == nil {
		return log.New(io.Discard, "", 0)
	}
	return c.Logger
}

// ErrorKind classifies a fatal compile error for callers that map it to an
// exit code or status: request, invalid_host, language_not_found, parse,
// resolution or internal.
func ErrorKind(err error) string {
	var (
		rerr  *RequestError
		herr  *hostdesc.InvalidHostTypeError
		lerr  *bindlang.LanguageNotFoundError
		perr  *bindparse.ParseError
		brerr *bindparse.BindingResolutionError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &rerr):
		return "request"
	case errors.As(err, &herr):
		return "invalid_host"
	case errors.As(err, &lerr):
		return "language_not_found"
	case errors.As(err, &brerr):
		return "resolution"
	case errors.As(err, &perr):
		return "parse"
	default:
		return "internal"
	}
}
