// Package cssmodules implements CSS Modules support as an esbuild plugin.
//
// A source import matching the stylesheet filter is redirected into a private
// namespace as a "building" virtual module. Loading it compiles the
// stylesheet and yields a JS binding module which itself imports a second,
// "built" virtual module carrying the scoped CSS; that one loads with the CSS
// loader so esbuild's own stylesheet bundling and minification apply to it
// like any ordinary import.
package cssmodules

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/evanw/esbuild/pkg/api"

	"github.com/ulyssesdotcodes/esbuild-css-modules-plugin/compiler"
	"github.com/ulyssesdotcodes/esbuild-css-modules-plugin/inject"
)

const (
	// Namespace is the private namespace both virtual modules live in.
	Namespace = "css-modules"
	// BuildingMarker suffixes the first-phase virtual path.
	BuildingMarker = "?css-module-building"
	// BuiltMarker suffixes the second-phase virtual path. The two markers
	// must stay distinct and must not look like file extensions.
	BuiltMarker = "?css-module-built"

	// DefaultFilter recognizes *.module.css and *.modules.css imports.
	DefaultFilter = `\.modules?\.css$`
)

// Options configures the plugin.
type Options struct {
	// Filter is the stylesheet-name regex; DefaultFilter when empty.
	Filter string
	// Watch enables the build cache so unchanged files skip recompilation
	// across incremental rebuilds of one session.
	Watch bool
	// Inject switches from emitting stylesheet assets to appending
	// runtime-injection code to entry outputs after the build.
	Inject bool
	// Container is the querySelector for the injection target element.
	// Empty means document.head.
	Container string
	// Declarations emits a .d.ts file next to each compiled stylesheet.
	Declarations bool
	// Pattern overrides the derived class-name scoping pattern.
	Pattern string
	// Log receives per-file compile and cache events at debug level.
	Log *log.Logger
}

// carried is the plugin data handed from the building loader to the built
// phase: everything the CSS side needs without recomputing.
type carried struct {
	CSSText  string
	RelPath  string
	ClassMap map[string]string
	Digest   string
}

// resolveGuard marks resolutions the plugin itself initiates so the
// intercept handler does not recurse through build.Resolve.
type resolveGuard struct{}

// Plugin returns the CSS Modules esbuild plugin. The build cache is created
// in Setup and so lives for one api.Context: incremental rebuilds of that
// context reuse it, while every new build starts cold.
func Plugin(opts Options) api.Plugin {
	filter := opts.Filter
	if filter == "" {
		filter = DefaultFilter
	}

	return api.Plugin{
		Name: "css-modules",
		Setup: func(build api.PluginBuild) {
			ctx := newContext(build.InitialOptions, opts.Log)
			if opts.Watch {
				ctx.cache = NewCache(opts.Pattern + "\x00" + ctx.PackageVersion)
			}
			if opts.Inject {
				// The injection synthesizer needs the output manifest.
				build.InitialOptions.Metafile = true
			}

			// Resolve-to-building: redirect matching real-file imports
			// into the private namespace, identified by their
			// root-relative path.
			build.OnResolve(api.OnResolveOptions{Filter: filter},
				func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					if args.Namespace == Namespace {
						return api.OnResolveResult{}, nil
					}
					if _, ok := args.PluginData.(resolveGuard); ok {
						return api.OnResolveResult{}, nil
					}

					resolved := build.Resolve(args.Path, api.ResolveOptions{
						ResolveDir: args.ResolveDir,
						Importer:   args.Importer,
						Kind:       args.Kind,
						PluginData: resolveGuard{},
					})
					if len(resolved.Errors) > 0 {
						return api.OnResolveResult{Errors: resolved.Errors}, nil
					}

					rel := ctx.Relativize(resolved.Path)
					return api.OnResolveResult{
						Path:        rel + BuildingMarker,
						Namespace:   Namespace,
						PluginData:  rel,
						SideEffects: api.SideEffectsTrue,
						WatchFiles:  []string{resolved.Path},
					}, nil
				},
			)

			// Resolve-to-built: the binding module's internal import,
			// forwarding the carried data from its loader.
			build.OnResolve(api.OnResolveOptions{Filter: `\` + BuiltMarker + `$`, Namespace: Namespace},
				func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					return api.OnResolveResult{
						Path:        args.Path,
						Namespace:   Namespace,
						PluginData:  args.PluginData,
						SideEffects: api.SideEffectsTrue,
					}, nil
				},
			)

			// Load-building: compile (or serve from cache) and emit the
			// JS binding module.
			build.OnLoad(api.OnLoadOptions{Filter: `\` + BuildingMarker + `$`, Namespace: Namespace},
				func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					rel := strings.TrimSuffix(args.Path, BuildingMarker)
					abs := ctx.Absolutize(rel)

					source, err := os.ReadFile(abs)
					if err != nil {
						return api.OnLoadResult{}, err
					}

					if ctx.cache != nil {
						if cached, ok := ctx.cache.Load(abs, source); ok {
							ctx.Log.Debug("cache hit", "file", rel)
							return cached, nil
						}
					}

					out, err := compiler.Compile(abs, rel, source, compiler.Options{
						Pattern:         opts.Pattern,
						PackageVersion:  ctx.PackageVersion,
						CSSImportPath:   rel + BuiltMarker,
						Inject:          opts.Inject,
						BuildID:         ctx.ID,
						EmitDeclaration: opts.Declarations,
					})
					if err != nil {
						return api.OnLoadResult{}, err
					}

					js := out.JSText
					result := api.OnLoadResult{
						Contents:   &js,
						Loader:     api.LoaderJS,
						ResolveDir: out.ResolveDir,
						PluginData: &carried{
							CSSText:  out.CSSText,
							RelPath:  rel,
							ClassMap: out.ClassMap,
							Digest:   out.Digest,
						},
						WatchFiles: []string{abs},
					}
					if ctx.cache != nil {
						ctx.cache.Store(abs, source, result)
					}
					ctx.Log.Debug("compiled", "file", rel, "classes", len(out.ClassMap), "digest", out.Digest)
					return result, nil
				},
			)

			// Load-built: hand the scoped CSS to esbuild's native CSS
			// pipeline.
			build.OnLoad(api.OnLoadOptions{Filter: `\` + BuiltMarker + `$`, Namespace: Namespace},
				func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					data, ok := args.PluginData.(*carried)
					if !ok {
						rel := strings.TrimSuffix(args.Path, BuiltMarker)
						return api.OnLoadResult{}, fmt.Errorf("no compiled CSS carried for %s", rel)
					}
					css := data.CSSText
					return api.OnLoadResult{
						Contents:   &css,
						Loader:     api.LoaderCSS,
						ResolveDir: filepath.Dir(ctx.Absolutize(data.RelPath)),
					}, nil
				},
			)

			if !opts.Inject {
				return
			}
			build.OnEnd(func(result *api.BuildResult) (api.OnEndResult, error) {
				if len(result.Errors) > 0 {
					return api.OnEndResult{}, nil
				}
				err := inject.Apply(inject.Params{
					BuildID:   ctx.ID,
					Container: opts.Container,
					Metafile:  result.Metafile,
					Options:   build.InitialOptions,
					Log:       ctx.Log,
				})
				if err != nil {
					return api.OnEndResult{}, err
				}
				return api.OnEndResult{}, nil
			})
		},
	}
}
