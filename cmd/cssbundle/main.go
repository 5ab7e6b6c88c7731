package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	flags "github.com/thought-machine/go-flags"
	"gopkg.in/yaml.v3"

	"github.com/ulyssesdotcodes/esbuild-css-modules-plugin/bundle"
	"github.com/ulyssesdotcodes/esbuild-css-modules-plugin/watch"
)

// buildFlags is the option set shared by the bundle and watch subcommands.
type buildFlags struct {
	Entry        string   `short:"e" long:"entry" required:"true" description:"Entry point file"`
	Out          string   `short:"o" long:"out" required:"true" description:"Output file"`
	ModuleConfig string   `short:"m" long:"moduleconfig" description:"Aggregated moduleconfig file"`
	Format       string   `short:"f" long:"format" default:"esm" description:"Output format: esm, cjs, iife"`
	Platform     string   `short:"p" long:"platform" default:"browser" description:"Target platform: browser, node"`
	External     []string `long:"external" description:"External packages to exclude from bundle"`
	Define       []string `long:"define" description:"Define substitutions (key=value)"`
	Minify       bool     `long:"minify" description:"Minify output (syntax, whitespace, identifiers)"`
	Tsconfig     string   `long:"tsconfig" description:"Path to tsconfig.json"`
	Filter       string   `long:"filter" description:"Stylesheet name pattern (default *.module.css / *.modules.css)"`
	Pattern      string   `long:"pattern" description:"Class scoping pattern ([name], [local], [hash])"`
	Inject       string   `long:"inject" optional:"true" optional-value:"true" description:"Inject compiled CSS at runtime; pass a selector to choose the container"`
	Declarations bool     `long:"dts" description:"Emit a .d.ts file next to each stylesheet"`
	Config       string   `short:"c" long:"config" description:"YAML config file supplying the css-modules options"`
}

var opts = struct {
	Usage   string
	Verbose bool `short:"v" long:"verbose" description:"Enable debug logging"`

	Bundle buildFlags `command:"bundle" alias:"b" description:"Bundle JavaScript/TypeScript with CSS Modules support"`

	Watch struct {
		buildFlags
		Debounce time.Duration `long:"debounce" default:"100ms" description:"Delay before rebuilding after a change"`
	} `command:"watch" alias:"w" description:"Rebuild on change; unchanged stylesheets skip recompilation"`
}{
	Usage: `
cssbundle bundles JavaScript/TypeScript with CSS Modules support: imports of
*.module.css are compiled to scoped class names with a generated JS binding
module, and the compiled CSS is either emitted as a stylesheet asset or, with
--inject, appended to the entry output as runtime-injection code.
`,
}

// fileConfig mirrors the css-modules options of the YAML config file.
type fileConfig struct {
	Filter       string `yaml:"filter"`
	Pattern      string `yaml:"pattern"`
	Inject       string `yaml:"inject"`
	Declarations bool   `yaml:"declarations"`
}

// applyConfig overlays config-file values onto flags the user left unset.
func applyConfig(f *buildFlags) error {
	if f.Config == "" {
		return nil
	}
	data, err := os.ReadFile(f.Config)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parsing %s: %w", f.Config, err)
	}
	if f.Filter == "" {
		f.Filter = cfg.Filter
	}
	if f.Pattern == "" {
		f.Pattern = cfg.Pattern
	}
	if f.Inject == "" {
		f.Inject = cfg.Inject
	}
	if cfg.Declarations {
		f.Declarations = true
	}
	return nil
}

// parseInject maps the inject flag value ("", "false", "true", or a
// container selector) to the plugin's inject/container pair.
func parseInject(value string) (bool, string) {
	switch value {
	case "", "false":
		return false, ""
	case "true":
		return true, ""
	default:
		return true, value
	}
}

func buildArgs(f buildFlags, logger *log.Logger) (bundle.Args, error) {
	if err := applyConfig(&f); err != nil {
		return bundle.Args{}, err
	}
	inject, container := parseInject(f.Inject)
	return bundle.Args{
		Entry:        f.Entry,
		Out:          f.Out,
		ModuleConfig: f.ModuleConfig,
		Format:       f.Format,
		Platform:     f.Platform,
		External:     f.External,
		Define:       f.Define,
		Minify:       f.Minify,
		Tsconfig:     f.Tsconfig,
		Filter:       f.Filter,
		Pattern:      f.Pattern,
		Inject:       inject,
		Container:    container,
		Declarations: f.Declarations,
		Log:          logger,
	}, nil
}

func main() {
	p := flags.NewParser(&opts, flags.Default)
	p.LongDescription = strings.TrimSpace(opts.Usage)
	if _, err := p.Parse(); err != nil {
		os.Exit(1)
	}
	if p.Active == nil {
		p.WriteHelp(os.Stderr)
		os.Exit(1)
	}

	level := log.InfoLevel
	if opts.Verbose {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{
		Prefix: "cssbundle",
		Level:  level,
	})

	var err error
	switch p.Active.Name {
	case "bundle":
		var args bundle.Args
		if args, err = buildArgs(opts.Bundle, logger); err == nil {
			err = bundle.Run(args)
		}
	case "watch":
		var args bundle.Args
		if args, err = buildArgs(opts.Watch.buildFlags, logger); err == nil {
			err = watch.Run(watch.Args{Args: args, Debounce: opts.Watch.Debounce})
		}
	}
	if err != nil {
		logger.Fatal(err.Error())
	}
}
