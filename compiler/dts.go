package compiler

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
)

// formatter is the result of the one-time prettier capability check.
type formatter struct {
	path string
	ok   bool
}

// lookupFormatter probes PATH for a prettier binary exactly once per process.
var lookupFormatter = sync.OnceValue(func() formatter {
	path, err := exec.LookPath("prettier")
	if err != nil {
		return formatter{}
	}
	return formatter{path: path, ok: true}
})

// buildDeclaration renders the .d.ts text mirroring the binding module: a
// literal-typed default export object plus one constant per named export.
func buildDeclaration(names []string, classMap map[string]string) string {
	var b strings.Builder
	b.WriteString("declare const styles: {\n")
	for _, name := range names {
		fmt.Fprintf(&b, "  readonly %q: %q;\n", KebabCase(name), classMap[name])
	}
	b.WriteString("};\nexport default styles;\n")
	for _, name := range names {
		fmt.Fprintf(&b, "export const %s: %q;\n", CamelCase(name), classMap[name])
	}
	return b.String()
}

// formatDeclaration passes the declaration through prettier when a binary is
// available. Formatting is best-effort: any failure returns the input text.
func formatDeclaration(text string) string {
	f := lookupFormatter()
	if !f.ok {
		return text
	}
	cmd := exec.Command(f.path, "--parser", "typescript")
	cmd.Stdin = strings.NewReader(text)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return text
	}
	return stdout.String()
}

// WriteDeclaration persists the type declaration next to the source file,
// as <file>.d.ts.
func WriteDeclaration(absPath string, names []string, classMap map[string]string) error {
	text := formatDeclaration(buildDeclaration(names, classMap))
	return os.WriteFile(absPath+".d.ts", []byte(text), 0644)
}
