package cssmodules

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/evanw/esbuild/pkg/api"

	"github.com/ulyssesdotcodes/esbuild-css-modules-plugin/common"
)

// Context is the per-build derived state shared by every hook invocation.
// It is built once when the plugin attaches and, apart from the cache being
// populated, never mutated afterwards.
type Context struct {
	// ID is stable for the build (and across rebuilds of the same watch
	// session). It names the runtime injector global and the injected
	// style element.
	ID string
	// Root is the resolved build root all relative paths derive from.
	Root string
	// PackageVersion is the consuming package's version string, "" when
	// no package.json is found above the root.
	PackageVersion string
	Log            *log.Logger

	cache *Cache
}

// newContext derives the build context from the host's initial options.
func newContext(opts *api.BuildOptions, logger *log.Logger) *Context {
	root := opts.AbsWorkingDir
	if root == "" {
		root, _ = os.Getwd()
	}

	entries := make([]string, 0, len(opts.EntryPoints)+len(opts.EntryPointsAdvanced))
	entries = append(entries, opts.EntryPoints...)
	for _, ep := range opts.EntryPointsAdvanced {
		entries = append(entries, ep.InputPath)
	}
	sort.Strings(entries)

	h := sha256.New()
	for _, e := range entries {
		h.Write([]byte(filepath.ToSlash(e) + "\n"))
	}
	id := hex.EncodeToString(h.Sum(nil))[:8]

	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "css-modules"})
	}

	return &Context{
		ID:             id,
		Root:           root,
		PackageVersion: common.PackageVersion(root),
		Log:            logger,
	}
}

// Relativize converts an absolute path to a slash-separated path relative to
// the build root, the machine-independent identity used for virtual module
// paths and digests. Paths outside the root fall back to the absolute form.
func (c *Context) Relativize(abs string) string {
	rel, err := filepath.Rel(c.Root, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(abs)
	}
	return filepath.ToSlash(rel)
}

// Absolutize undoes Relativize: virtual paths that kept their absolute form
// (sources outside the root) must not be re-joined with it.
func (c *Context) Absolutize(rel string) string {
	path := filepath.FromSlash(rel)
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Root, path)
}
