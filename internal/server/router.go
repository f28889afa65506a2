package server

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/r9s-ai/xcompile/internal/logx"
	"github.com/r9s-ai/xcompile/pkg/bindlang"
	"github.com/r9s-ai/xcompile/pkg/bindparse"
	"github.com/r9s-ai/xcompile/pkg/generator"
	"github.com/r9s-ai/xcompile/pkg/hostdesc"
	"github.com/r9s-ai/xcompile/pkg/requestid"
	"github.com/r9s-ai/xcompile/pkg/xcompile"
)

// RouterOptions wires the HTTP surface. Compiler and Registry are required.
type RouterOptions struct {
	Compiler     *xcompile.Compiler
	Registry     *bindlang.Registry
	AccessLogger *log.Logger
	AccessColor  bool
	// AccessFormat is nil when access logging is off.
	AccessFormat *logx.AccessLogFormatter
	MaxBodyBytes int64
}

const (
	ctxLanguage     = "xcompile.language"
	ctxTargets      = "xcompile.targets"
	ctxDeclarations = "xcompile.declarations"
	ctxErrorKind    = "xcompile.error_kind"
)

func NewRouter(opts RouterOptions) *gin.Engine {
	headerKey := requestid.HeaderKey
	r := gin.New()
	r.Use(requestIDMiddleware(headerKey))
	if opts.AccessFormat != nil {
		r.Use(requestLogger(opts.AccessLogger, opts.AccessColor, headerKey, opts.AccessFormat))
	}
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	v1 := r.Group("/v1")
	v1.GET("/languages", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"languages": listLanguages(opts.Registry)})
	})
	v1.GET("/targets", func(c *gin.Context) {
		out := make([]gin.H, 0, len(generator.Targets()))
		for _, t := range generator.Targets() {
			out = append(out, gin.H{"name": t.String(), "extension": t.Extension()})
		}
		c.JSON(http.StatusOK, gin.H{"targets": out})
	})
	v1.POST("/compile", compileHandler(opts, headerKey))
	return r
}

func listLanguages(reg *bindlang.Registry) []gin.H {
	names := reg.Names()
	out := make([]gin.H, 0, len(names))
	for _, name := range names {
		item := gin.H{"name": name}
		if lang, err := reg.Load(name); err == nil {
			item["extensions"] = lang.Extensions()
		} else {
			item["error"] = err.Error()
		}
		out = append(out, item)
	}
	return out
}

type compileRequest struct {
	Language   string          `json:"language"`
	Source     string          `json:"source"`
	SourceName string          `json:"source_name"`
	Host       json.RawMessage `json:"host"`
	Targets    []string        `json:"targets"`
	OutputName string          `json:"output_name"`
}

type compileOutput struct {
	Target   string `json:"target"`
	FileName string `json:"file_name"`
	Content  string `json:"content"`
	Partial  bool   `json:"partial"`
}

type compileDiagnostic struct {
	Target   string `json:"target"`
	Severity string `json:"severity"`
	Symbol   string `json:"symbol,omitempty"`
	Member   string `json:"member,omitempty"`
	Message  string `json:"message"`
}

type compileResponse struct {
	OK           bool                `json:"ok"`
	ID           string              `json:"id"`
	Declarations int                 `json:"declarations"`
	Skipped      bool                `json:"skipped"`
	Outputs      []compileOutput     `json:"outputs"`
	Diagnostics  []compileDiagnostic `json:"diagnostics"`
}

type errorResponse struct {
	OK     bool   `json:"ok"`
	ID     string `json:"id,omitempty"`
	Error  string `json:"error"`
	Kind   string `json:"kind"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
	Symbol string `json:"symbol,omitempty"`
}

func badRequest(c *gin.Context, id string, kind string, err error) {
	c.Set(ctxErrorKind, kind)
	c.JSON(http.StatusBadRequest, errorResponse{OK: false, ID: id, Error: err.Error(), Kind: kind})
}

func compileHandler(opts RouterOptions, headerKey string) gin.HandlerFunc {
	maxBody := opts.MaxBodyBytes
	return func(c *gin.Context) {
		id := c.GetString(headerKey)
		body := io.Reader(c.Request.Body)
		if maxBody > 0 {
			body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBody)
		}
		var req compileRequest
		dec := json.NewDecoder(body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			badRequest(c, id, "bad_json", err)
			return
		}
		c.Set(ctxLanguage, req.Language)

		targets, err := generator.ParseTargets(req.Targets)
		if err != nil {
			badRequest(c, id, "request", err)
			return
		}
		c.Set(ctxTargets, joinTargets(targets))
		if len(req.Host) == 0 || string(req.Host) == "null" {
			badRequest(c, id, "request", errors.New("host manifest is required"))
			return
		}
		manifest, err := hostdesc.ParseManifestJSON(req.Host)
		if err != nil {
			badRequest(c, id, "host_manifest", err)
			return
		}

		sourceName := strings.TrimSpace(req.SourceName)
		if sourceName == "" {
			sourceName = "request"
		}
		res, err := opts.Compiler.Compile(xcompile.Request{
			ID:         id,
			Language:   req.Language,
			SourceName: sourceName,
			Source:     req.Source,
			Host:       manifest.Host(),
			Targets:    targets,
			OutputName: req.OutputName,
		})
		if err != nil {
			kind := xcompile.ErrorKind(err)
			c.Set(ctxErrorKind, kind)
			resp := errorResponse{OK: false, ID: id, Error: err.Error(), Kind: kind}
			if line, col, ok := bindparse.Position(err); ok {
				resp.Line, resp.Column = line, col
			}
			var rerr *bindparse.BindingResolutionError
			if errors.As(err, &rerr) {
				resp.Symbol = rerr.Symbol
			}
			status := http.StatusUnprocessableEntity
			if kind == "request" {
				status = http.StatusBadRequest
			}
			c.JSON(status, resp)
			return
		}

		c.Set(ctxDeclarations, res.Declarations)
		c.JSON(http.StatusOK, toResponse(res))
	}
}

func toResponse(res *xcompile.Result) compileResponse {
	out := compileResponse{
		OK:           true,
		ID:           res.ID,
		Declarations: res.Declarations,
		Skipped:      res.Skipped,
		Outputs:      make([]compileOutput, 0, len(res.Outputs)),
		Diagnostics:  make([]compileDiagnostic, 0, len(res.Diagnostics)),
	}
	for _, o := range res.Outputs {
		out.Outputs = append(out.Outputs, compileOutput{
			Target:   o.Target.String(),
			FileName: o.FileName,
			Content:  string(o.Content),
			Partial:  o.Partial,
		})
	}
	for _, d := range res.Diagnostics {
		out.Diagnostics = append(out.Diagnostics, compileDiagnostic{
			Target:   d.Target.String(),
			Severity: d.Severity.String(),
			Symbol:   d.Symbol,
			Member:   d.Member,
			Message:  d.Message,
		})
	}
	return out
}

func joinTargets(ts []generator.Target) string {
	names := make([]string, 0, len(ts))
	for _, t := range ts {
		names = append(names, t.String())
	}
	return strings.Join(names, ",")
}
