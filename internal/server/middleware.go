package server

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/r9s-ai/xcompile/internal/logx"
	"github.com/r9s-ai/xcompile/pkg/requestid"
)

type contextFieldSpec struct {
	ctxKey string
	logKey string
}

var accessLogContextFieldSpecs = []contextFieldSpec{
	{ctxKey: ctxLanguage, logKey: "language"},
	{ctxKey: ctxTargets, logKey: "targets"},
	{ctxKey: ctxDeclarations, logKey: "declarations"},
	{ctxKey: ctxErrorKind, logKey: "error_kind"},
}

// requestIDMiddleware reuses a well-formed client ID and generates one
// otherwise. The ID is echoed in the response header and stored on the
// context under headerKey.
func requestIDMiddleware(headerKey string) gin.HandlerFunc {
	headerKey = requestid.ResolveHeaderKey(headerKey)
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(headerKey))
		if !requestid.Accept(id) {
			id = requestid.Gen()
		}
		c.Header(headerKey, id)
		c.Set(headerKey, id)
		c.Next()
	}
}

func requestLogger(l *log.Logger, color bool, headerKey string, f *logx.AccessLogFormatter) gin.HandlerFunc {
	headerKey = requestid.ResolveHeaderKey(headerKey)
	if l == nil {
		l = log.New(os.Stdout, "", log.LstdFlags)
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := map[string]any{}
		if id := c.GetString(headerKey); id != "" {
			fields["request_id"] = id
		}
		for _, s := range accessLogContextFieldSpecs {
			if v, ok := c.Get(s.ctxKey); ok {
				fields[s.logKey] = v
			}
		}
		l.Println(f.Format(logx.AccessEntry{
			Time:     time.Now(),
			Status:   c.Writer.Status(),
			Latency:  time.Since(start),
			ClientIP: c.ClientIP(),
			Method:   c.Request.Method,
			Path:     c.Request.URL.Path,
			Fields:   fields,
		}, color))
	}
}
