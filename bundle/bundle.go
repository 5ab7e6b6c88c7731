// Package bundle runs a one-shot esbuild build with CSS Modules support
// wired in.
package bundle

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/evanw/esbuild/pkg/api"

	"github.com/ulyssesdotcodes/esbuild-css-modules-plugin/common"
	"github.com/ulyssesdotcodes/esbuild-css-modules-plugin/cssmodules"
)

// Args holds the arguments for the bundle subcommand.
type Args struct {
	Entry        string
	Out          string
	ModuleConfig string
	Format       string
	Platform     string
	External     []string
	Define       []string
	Minify       bool
	Tsconfig     string

	Filter       string
	Pattern      string
	Inject       bool
	Container    string
	Declarations bool

	Log *log.Logger
}

// Options assembles the esbuild options for one build. Shared with the watch
// subcommand, which runs the same build under an incremental context.
func Options(args Args, watch bool) (api.BuildOptions, error) {
	// Parse moduleconfig: each line is "module_name=path_to_output_dir"
	moduleMap, err := common.ParseModuleConfig(args.ModuleConfig)
	if err != nil {
		return api.BuildOptions{}, fmt.Errorf("failed to parse moduleconfig: %w", err)
	}

	plugins := []api.Plugin{
		common.ModuleResolvePlugin(moduleMap),
		cssmodules.Plugin(cssmodules.Options{
			Filter:       args.Filter,
			Pattern:      args.Pattern,
			Inject:       args.Inject,
			Container:    args.Container,
			Declarations: args.Declarations,
			Watch:        watch,
			Log:          args.Log,
		}),
	}

	opts := api.BuildOptions{
		EntryPoints:       []string{args.Entry},
		Bundle:            true,
		Write:             true,
		Format:            common.ParseFormat(args.Format),
		Platform:          common.ParsePlatform(args.Platform),
		Target:            api.ESNext,
		LogLevel:          api.LogLevelInfo,
		External:          args.External,
		Loader:            common.Loaders,
		Plugins:           plugins,
		Define:            common.ParseDefines(args.Define),
		MinifySyntax:      args.Minify,
		MinifyWhitespace:  args.Minify,
		MinifyIdentifiers: args.Minify,
		Sourcemap:         api.SourceMapLinked,
		Outfile:           args.Out,
	}
	if args.Tsconfig != "" {
		opts.Tsconfig = args.Tsconfig
	}

	outDir := filepath.Dir(args.Out)
	if outDir != "" && outDir != "." {
		if err := os.MkdirAll(outDir, 0755); err != nil {
			return api.BuildOptions{}, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	return opts, nil
}

// Run bundles JavaScript/TypeScript using esbuild with the CSS Modules
// plugin attached.
func Run(args Args) error {
	opts, err := Options(args, false)
	if err != nil {
		return err
	}

	result := api.Build(opts)
	if len(result.Errors) > 0 {
		return fmt.Errorf("esbuild bundle failed with %d errors", len(result.Errors))
	}
	return nil
}
