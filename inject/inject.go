// Package inject appends runtime CSS-injection code to entry outputs after a
// build completes. Instead of shipping stylesheet assets, the compiled CSS is
// embedded in a build-scoped injector function that inserts it into the page
// the first time any scoped class name is read.
package inject

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/evanw/esbuild/pkg/api"
	"golang.org/x/sync/errgroup"

	"github.com/ulyssesdotcodes/esbuild-css-modules-plugin/compiler"
)

// BuildError reports a failed nested rebuild while appending injection code.
// It marks the parent build as failed.
type BuildError struct {
	Entry    string
	Messages []api.Message
}

func (e *BuildError) Error() string {
	texts := make([]string, len(e.Messages))
	for i, m := range e.Messages {
		texts[i] = m.Text
	}
	return fmt.Sprintf("appending injection code to %s: %s", e.Entry, strings.Join(texts, "; "))
}

// Params carries everything the synthesizer needs from the parent build.
type Params struct {
	// BuildID names the injector global and the injected style element.
	BuildID string
	// Container is the querySelector for the element receiving the style
	// tag; empty means document.head.
	Container string
	// Metafile is the parent build's output manifest JSON.
	Metafile string
	// Options are the parent build's initial options; the nested rebuild
	// reuses their format, target, minification, source-map and externals
	// settings.
	Options *api.BuildOptions
	Log     *log.Logger
}

// Apply reads the manifest, minifies and aggregates the CSS outputs, and
// rewrites each requested entry output through a nested one-shot rebuild.
// Output paths are visited in sorted order; the manifest's own enumeration
// order is not deterministic across platforms.
func Apply(p Params) error {
	if p.Metafile == "" {
		p.Log.Warn("injection enabled but build produced no metafile; nothing to do")
		return nil
	}

	var meta Metafile
	if err := json.Unmarshal([]byte(p.Metafile), &meta); err != nil {
		return fmt.Errorf("parsing metafile: %w", err)
	}

	workDir := p.Options.AbsWorkingDir
	if workDir == "" {
		workDir, _ = os.Getwd()
	}

	outputs := make([]string, 0, len(meta.Outputs))
	for path := range meta.Outputs {
		outputs = append(outputs, path)
	}
	sort.Strings(outputs)

	// Entry outputs the user explicitly requested, in sorted output order.
	requested := requestedEntries(p.Options, workDir)
	type entryOutput struct {
		path      string
		cssBundle string
		imports   []Import
	}
	var entries []entryOutput
	owned := make(map[string]bool)
	for _, path := range outputs {
		out := meta.Outputs[path]
		if !isJSPath(path) || out.EntryPoint == "" || !requested[absNorm(workDir, out.EntryPoint)] {
			continue
		}
		entries = append(entries, entryOutput{path: path, cssBundle: out.CSSBundle, imports: out.Imports})
		if out.CSSBundle != "" {
			owned[out.CSSBundle] = true
		}
	}
	if len(entries) == 0 {
		p.Log.Debug("no entry outputs matched; skipping injection")
		return nil
	}

	// CSS outputs not tied to any matched entry (shared split chunks) are
	// appended to every entry after its own bundle.
	var orphans []string
	needed := make([]string, 0, len(outputs))
	for _, path := range outputs {
		if !isCSSPath(path) {
			continue
		}
		if !owned[path] {
			orphans = append(orphans, path)
		}
		needed = append(needed, path)
	}
	if len(needed) == 0 {
		p.Log.Debug("no CSS outputs; skipping injection")
		return nil
	}

	minified, err := minifyAll(p, workDir, needed)
	if err != nil {
		return err
	}

	var orphanCSS strings.Builder
	for _, path := range orphans {
		orphanCSS.WriteString(minified[path])
	}

	for _, entry := range entries {
		css := minified[entry.cssBundle] + orphanCSS.String()
		if css == "" {
			continue
		}
		if err := appendInjector(p, workDir, entry.path, entry.imports, css); err != nil {
			return err
		}
		p.Log.Debug("appended injection code", "entry", entry.path, "css_bytes", len(css))
	}
	return nil
}

// requestedEntries returns the entry point inputs the user asked the parent
// build for, normalized to absolute slash paths. The metafile reports entry
// points relative to the working dir; users pass either form.
func requestedEntries(opts *api.BuildOptions, workDir string) map[string]bool {
	set := make(map[string]bool, len(opts.EntryPoints)+len(opts.EntryPointsAdvanced))
	for _, e := range opts.EntryPoints {
		set[absNorm(workDir, e)] = true
	}
	for _, e := range opts.EntryPointsAdvanced {
		set[absNorm(workDir, e.InputPath)] = true
	}
	return set
}

// absNorm resolves path against workDir and slash-normalizes it.
func absNorm(workDir, path string) string {
	path = filepath.FromSlash(path)
	if !filepath.IsAbs(path) {
		path = filepath.Join(workDir, path)
	}
	return filepath.ToSlash(filepath.Clean(path))
}

// minifyAll re-minifies every CSS output through esbuild's single-file
// transform, concurrently, with the parent build's charset and target but
// minification forced and source maps off.
func minifyAll(p Params, workDir string, paths []string) (map[string]string, error) {
	minified := make(map[string]string, len(paths))
	var mu sync.Mutex

	g, _ := errgroup.WithContext(context.Background())
	for _, path := range paths {
		path := path
		g.Go(func() error {
			data, err := os.ReadFile(filepath.Join(workDir, filepath.FromSlash(path)))
			if err != nil {
				return err
			}
			result := api.Transform(string(data), api.TransformOptions{
				Loader:            api.LoaderCSS,
				Charset:           p.Options.Charset,
				Target:            p.Options.Target,
				Engines:           p.Options.Engines,
				MinifyWhitespace:  true,
				MinifySyntax:      true,
				MinifyIdentifiers: true,
				Sourcemap:         api.SourceMapNone,
			})
			if len(result.Errors) > 0 {
				return &BuildError{Entry: path, Messages: result.Errors}
			}
			mu.Lock()
			minified[path] = strings.TrimSpace(string(result.Code))
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return minified, nil
}

// injectorSource renders the runtime injector: a build-scoped global that
// inserts the CSS into the container once, keyed on the build identifier.
func injectorSource(buildID, container, css string) string {
	cssJSON, _ := json.Marshal(css)
	containerJSON, _ := json.Marshal(container)

	var b strings.Builder
	fmt.Fprintf(&b, "globalThis[%q] = () => {\n", compiler.InjectorName(buildID))
	fmt.Fprintf(&b, "  if (document.getElementById(%q)) return;\n", buildID)
	b.WriteString("  const style = document.createElement(\"style\");\n")
	fmt.Fprintf(&b, "  style.id = %q;\n", buildID)
	fmt.Fprintf(&b, "  style.textContent = %s;\n", cssJSON)
	if container == "" {
		b.WriteString("  document.head.appendChild(style);\n")
	} else {
		fmt.Fprintf(&b, "  (document.querySelector(%s) || document.head).appendChild(style);\n", containerJSON)
	}
	b.WriteString("};\n")
	return b.String()
}

// appendInjector overwrites one entry output with itself plus the injector,
// via a nested, one-shot, non-watched build. The temporary synthetic entry
// is removed on success and failure alike.
func appendInjector(p Params, workDir, entryPath string, imports []Import, css string) error {
	entryAbs := filepath.Join(workDir, filepath.FromSlash(entryPath))
	base := filepath.Base(entryAbs)

	var b strings.Builder
	fmt.Fprintf(&b, "import %q;\n", "./"+base)
	fmt.Fprintf(&b, "export * from %q;\n", "./"+base)
	b.WriteString(injectorSource(p.BuildID, p.Container, css))

	tmpPath := filepath.Join(filepath.Dir(entryAbs), base+".inject-"+p.BuildID+".mjs")
	if err := os.WriteFile(tmpPath, []byte(b.String()), 0644); err != nil {
		return err
	}
	defer os.Remove(tmpPath)

	// Chunk imports of the already-bundled entry stay external so shared
	// state between entries is not duplicated into this output.
	external := append([]string{}, p.Options.External...)
	for _, imp := range imports {
		if imp.Kind == "import-statement" && !imp.External {
			rel, err := filepath.Rel(filepath.Dir(entryAbs), filepath.Join(workDir, filepath.FromSlash(imp.Path)))
			if err == nil {
				external = append(external, "./"+filepath.ToSlash(rel))
			}
		}
	}

	result := api.Build(api.BuildOptions{
		EntryPoints:       []string{tmpPath},
		AbsWorkingDir:     workDir,
		Bundle:            true,
		Write:             true,
		Outfile:           entryAbs,
		AllowOverwrite:    true,
		Format:            p.Options.Format,
		Platform:          p.Options.Platform,
		Target:            p.Options.Target,
		Engines:           p.Options.Engines,
		Charset:           p.Options.Charset,
		MinifyWhitespace:  p.Options.MinifyWhitespace,
		MinifySyntax:      p.Options.MinifySyntax,
		MinifyIdentifiers: p.Options.MinifyIdentifiers,
		Sourcemap:         p.Options.Sourcemap,
		PublicPath:        p.Options.PublicPath,
		External:          external,
		LogLevel:          api.LogLevelSilent,
	})
	if len(result.Errors) > 0 {
		return &BuildError{Entry: entryPath, Messages: result.Errors}
	}

	return fixSourceMapReference(p, entryAbs, base)
}

// fixSourceMapReference repairs the overwritten output's source-map wiring:
// external maps get a fresh mapping-reference comment, and a configured
// public path is stripped from linked-map URLs since the map file sits next
// to the output.
func fixSourceMapReference(p Params, entryAbs, base string) error {
	switch p.Options.Sourcemap {
	case api.SourceMapExternal:
		f, err := os.OpenFile(entryAbs, os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = fmt.Fprintf(f, "//# sourceMappingURL=%s.map\n", base)
		return err
	case api.SourceMapLinked:
		if p.Options.PublicPath == "" {
			return nil
		}
		data, err := os.ReadFile(entryAbs)
		if err != nil {
			return err
		}
		prefix := strings.TrimSuffix(p.Options.PublicPath, "/") + "/"
		fixed := strings.Replace(string(data),
			"//# sourceMappingURL="+prefix+base+".map",
			"//# sourceMappingURL="+base+".map", 1)
		if fixed == string(data) {
			return nil
		}
		return os.WriteFile(entryAbs, []byte(fixed), 0644)
	}
	return nil
}

func isJSPath(path string) bool {
	switch filepath.Ext(path) {
	case ".js", ".mjs", ".cjs":
		return true
	}
	return false
}

func isCSSPath(path string) bool {
	return filepath.Ext(path) == ".css"
}
