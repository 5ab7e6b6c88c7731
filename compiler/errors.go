package compiler

import (
	"fmt"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

// NamingConflictError reports a class whose camelCase export name collides
// with a reserved identifier. Emitting the export would produce invalid
// JavaScript, so compilation of the file fails instead.
type NamingConflictError struct {
	File  string
	Class string
	Name  string
}

func (e *NamingConflictError) Error() string {
	return fmt.Sprintf("%s: class %q maps to reserved identifier %q and cannot be exported; rename the class",
		e.File, e.Class, e.Name)
}

// CompileError wraps messages from the CSS transform for a single file.
type CompileError struct {
	File     string
	Messages []api.Message
}

func (e *CompileError) Error() string {
	texts := make([]string, len(e.Messages))
	for i, m := range e.Messages {
		texts[i] = m.Text
	}
	return fmt.Sprintf("%s: %s", e.File, strings.Join(texts, "; "))
}
