package common

import (
	"bufio"
	"os"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

// Loaders maps file extensions to esbuild loaders.
var Loaders = map[string]api.Loader{
	".js":    api.LoaderJS,
	".jsx":   api.LoaderJSX,
	".ts":    api.LoaderTS,
	".tsx":   api.LoaderTSX,
	".json":  api.LoaderJSON,
	".css":   api.LoaderCSS,
	".mjs":   api.LoaderJS,
	".cjs":   api.LoaderJS,
	".woff":  api.LoaderFile,
	".woff2": api.LoaderFile,
	".ttf":   api.LoaderFile,
	".eot":   api.LoaderFile,
	".svg":   api.LoaderFile,
	".png":   api.LoaderFile,
	".jpg":   api.LoaderFile,
	".gif":   api.LoaderFile,
}

// ParseModuleConfig reads a moduleconfig file mapping module names to paths.
// Each line has the format "module_name=path_to_output_dir".
func ParseModuleConfig(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		// Empty moduleconfig is valid (no dependencies)
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, err
	}
	defer f.Close()

	modules := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) == 2 {
			modules[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
		}
	}
	return modules, scanner.Err()
}

// ModuleResolvePlugin returns an esbuild plugin that resolves bare import
// specifiers using the moduleconfig map. Unlike esbuild's Alias option,
// this uses build.Resolve() to properly handle package.json "exports",
// "main", "module" fields, and subpath imports.
func ModuleResolvePlugin(moduleMap map[string]string) api.Plugin {
	return api.Plugin{
		Name: "module-resolve",
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: ".*"},
				func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					// Skip relative and absolute paths
					if len(args.Path) == 0 || args.Path[0] == '.' || args.Path[0] == '/' {
						return api.OnResolveResult{}, nil
					}

					// Find longest matching module prefix
					bestMatch := ""
					bestPath := ""
					for name, path := range moduleMap {
						if args.Path == name || strings.HasPrefix(args.Path, name+"/") {
							if len(name) > len(bestMatch) {
								bestMatch = name
								bestPath = path
							}
						}
					}

					if bestMatch == "" {
						return api.OnResolveResult{}, nil
					}

					// Re-resolve using esbuild's resolver from the package dir.
					// This correctly handles exports maps, main/module fields, etc.
					resolvePath := "."
					if args.Path != bestMatch {
						resolvePath = "./" + strings.TrimPrefix(args.Path, bestMatch+"/")
					}
					result := build.Resolve(resolvePath, api.ResolveOptions{
						ResolveDir: bestPath,
						Kind:       args.Kind,
					})
					if len(result.Errors) == 0 {
						return api.OnResolveResult{Path: result.Path}, nil
					}

					return api.OnResolveResult{}, nil
				},
			)
		},
	}
}

// ParseFormat converts a format string to an esbuild Format constant.
func ParseFormat(f string) api.Format {
	switch f {
	case "cjs":
		return api.FormatCommonJS
	case "iife":
		return api.FormatIIFE
	default:
		return api.FormatESModule
	}
}

// ParsePlatform converts a platform string to an esbuild Platform constant.
func ParsePlatform(p string) api.Platform {
	switch p {
	case "node":
		return api.PlatformNode
	default:
		return api.PlatformBrowser
	}
}

// ParseDefines converts "key=value" pairs to an esbuild define map.
// Malformed entries (no "=") are ignored.
func ParseDefines(defs []string) map[string]string {
	defines := make(map[string]string)
	for _, d := range defs {
		parts := strings.SplitN(d, "=", 2)
		if len(parts) == 2 {
			defines[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
		}
	}
	return defines
}
