// Package dialects registers the binding languages shipped with xcompile.
package dialects

import (
	"github.com/r9s-ai/xcompile/pkg/bindlang"
	"github.com/r9s-ai/xcompile/pkg/dialect/arrow"
	"github.com/r9s-ai/xcompile/pkg/dialect/xbind"
)

// RegisterBuiltin registers arrow and xbind into reg.
func RegisterBuiltin(reg *bindlang.Registry) error {
	if err := reg.Register(arrow.Name, bindlang.Static(arrow.Language{})); err != nil {
		return err
	}
	return reg.Register(xbind.Name, bindlang.Static(xbind.Language{}))
}

// Registry returns a fresh registry with the builtin languages.
func Registry() *bindlang.Registry {
	reg := bindlang.NewRegistry()
	if err := RegisterBuiltin(reg); err != nil {
		panic(err)
	}
	return reg
}
