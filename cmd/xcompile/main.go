package main

import (
	"fmt"
	"os"

	"github.com/r9s-ai/xcompile/internal/cli"
	"github.com/r9s-ai/xcompile/pkg/bindlang"
	"github.com/r9s-ai/xcompile/pkg/dialects"
)

func main() {
	reg := bindlang.DefaultRegistry()
	if err := dialects.RegisterBuiltin(reg); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
	os.Exit(cli.Execute(reg, os.Args[1:], os.Stdout, os.Stderr))
}
