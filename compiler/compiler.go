// Package compiler turns one CSS Modules stylesheet into scoped CSS plus the
// JavaScript binding module that exposes the generated class names.
package compiler

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

// Options controls a single compilation.
type Options struct {
	// Pattern overrides the derived scoping pattern. Supports the
	// placeholders [name] (sanitized file base name), [local] (camelCased
	// original class name) and [hash].
	Pattern string
	// PackageVersion is folded into the scoped-name hash so identical
	// files in different consumer packages cannot collide.
	PackageVersion string
	// CSSImportPath, when non-empty, is emitted as a bare side-effecting
	// import at the top of the binding module. The plugin passes the
	// "built" virtual-module specifier here so the stylesheet keeps
	// participating in bundling.
	CSSImportPath string
	// Inject wraps the default export so that the first property read
	// schedules a call to the build-scoped runtime injector.
	Inject bool
	// BuildID names the runtime injector global in inject mode.
	BuildID string
	// EmitDeclaration writes a .d.ts file next to the source.
	EmitDeclaration bool
}

// Result is the outcome of compiling one stylesheet.
type Result struct {
	JSText          string
	CSSText         string
	OriginalCSSText string
	ClassMap        map[string]string
	ResolveDir      string
	Digest          string
}

// PathDigest returns the truncated hex SHA-256 of a build-root-relative path.
// The input is slash-normalized first so the digest is identical across
// machines and working directories.
func PathDigest(relPath string) string {
	sum := sha256.Sum256([]byte(filepath.ToSlash(relPath)))
	return hex.EncodeToString(sum[:])[:8]
}

// InjectorName returns the build-scoped global injector function name.
func InjectorName(buildID string) string {
	return "__css_modules_inject_" + buildID
}

// defaultPattern derives the scoping pattern for a file: the base name
// sanitized to alphanumerics, a "__" separator, the class name, and a hash.
func defaultPattern(absPath string) string {
	base := filepath.Base(absPath)
	if i := strings.IndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	return sanitizeAlnum(base) + "__[local]_[hash]"
}

// Compile scopes the class names of one stylesheet and synthesizes its JS
// binding module. absPath and relPath must have any virtual-module markers
// already stripped; relPath is relative to the build root.
func Compile(absPath, relPath string, source []byte, opts Options) (*Result, error) {
	pattern := opts.Pattern
	if pattern == "" {
		pattern = defaultPattern(absPath)
	}

	base := filepath.Base(absPath)
	if i := strings.IndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	hashInput := filepath.ToSlash(relPath) + "\x00" + pattern + "\x00" + opts.PackageVersion
	hashSum := sha256.Sum256([]byte(hashInput))
	hash := hex.EncodeToString(hashSum[:])[:8]

	expand := func(local string) string {
		scoped := pattern
		scoped = strings.ReplaceAll(scoped, "[name]", sanitizeAlnum(base))
		scoped = strings.ReplaceAll(scoped, "[local]", CamelCase(local))
		scoped = strings.ReplaceAll(scoped, "[hash]", hash)
		return scoped
	}

	scoped, classMap, err := scopeClasses(source, expand)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", relPath, err)
	}

	// Sorted originals fix the emission order regardless of how the
	// tokenizer encountered the classes.
	names := make([]string, 0, len(classMap))
	for name := range classMap {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if exported := CamelCase(name); IsReservedWord(exported) {
			return nil, &NamingConflictError{File: relPath, Class: name, Name: exported}
		}
	}

	cssText, err := attachSourceMap(scoped, relPath, source)
	if err != nil {
		return nil, err
	}

	jsText := bindingModule(names, classMap, opts)

	if opts.EmitDeclaration {
		if err := WriteDeclaration(absPath, names, classMap); err != nil {
			return nil, err
		}
	}

	return &Result{
		JSText:          jsText,
		CSSText:         cssText,
		OriginalCSSText: string(source),
		ClassMap:        classMap,
		ResolveDir:      filepath.Dir(absPath),
		Digest:          PathDigest(relPath),
	}, nil
}

// attachSourceMap runs the scoped stylesheet through esbuild's single-file
// CSS transform to obtain a source map, then appends it as an inline base64
// data-URL comment. Transform diagnostics (malformed CSS) fail the file.
func attachSourceMap(scoped []byte, relPath string, original []byte) (string, error) {
	result := api.Transform(string(scoped), api.TransformOptions{
		Loader:     api.LoaderCSS,
		Sourcemap:  api.SourceMapExternal,
		Sourcefile: filepath.ToSlash(relPath),
	})
	if len(result.Errors) > 0 {
		return "", &CompileError{File: relPath, Messages: result.Errors}
	}

	encoded := base64.StdEncoding.EncodeToString(result.Map)
	var b strings.Builder
	b.Write(result.Code)
	if len(result.Code) > 0 && result.Code[len(result.Code)-1] != '\n' {
		b.WriteByte('\n')
	}
	b.WriteString("/*# sourceMappingURL=data:application/json;base64,")
	b.WriteString(encoded)
	b.WriteString(" */\n")
	return b.String(), nil
}

// bindingModule renders the JS module exposing the scoped names: one
// validated camelCase named export per class and a default export keyed by
// the kebab-case originals. In inject mode the default export's keys become
// accessors that schedule the runtime injector on first read.
func bindingModule(names []string, classMap map[string]string, opts Options) string {
	var b strings.Builder

	if opts.CSSImportPath != "" {
		fmt.Fprintf(&b, "import %q;\n", opts.CSSImportPath)
	}

	if opts.Inject {
		b.WriteString("\nlet scheduled = false;\n")
		b.WriteString("function scheduleInject() {\n")
		b.WriteString("  if (scheduled) return;\n")
		b.WriteString("  scheduled = true;\n")
		b.WriteString("  setTimeout(() => {\n")
		fmt.Fprintf(&b, "    const inject = globalThis[%q];\n", InjectorName(opts.BuildID))
		b.WriteString("    if (typeof inject === \"function\") inject();\n")
		b.WriteString("  }, 0);\n")
		b.WriteString("}\n")
	}

	if len(names) > 0 {
		b.WriteByte('\n')
	}
	for _, name := range names {
		fmt.Fprintf(&b, "export const %s = %q;\n", CamelCase(name), classMap[name])
	}

	b.WriteString("\nexport default {")
	if len(names) == 0 {
		b.WriteString("};\n")
		return b.String()
	}
	b.WriteByte('\n')
	for _, name := range names {
		key := KebabCase(name)
		if opts.Inject {
			fmt.Fprintf(&b, "  get %q() {\n    scheduleInject();\n    return %q;\n  },\n", key, classMap[name])
		} else {
			fmt.Fprintf(&b, "  %q: %q,\n", key, classMap[name])
		}
	}
	b.WriteString("};\n")
	return b.String()
}
