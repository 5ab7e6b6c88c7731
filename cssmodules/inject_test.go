package cssmodules

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/evanw/esbuild/pkg/api"
)

// End-to-end injection: two entries, one with a stylesheet import. Only the
// CSS-importing entry's output gains the runtime injector, and the synthetic
// entry used by the nested rebuild is cleaned up.
func TestPlugin_InjectionRewritesMatchedEntry(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "src/a.js", fixtureEntry)
	writeFixture(t, dir, "src/button.module.css", fixtureCSS)
	writeFixture(t, dir, "src/b.js", `console.log("no styles here");`)

	result := api.Build(api.BuildOptions{
		EntryPoints: []string{
			filepath.Join(dir, "src", "a.js"),
			filepath.Join(dir, "src", "b.js"),
		},
		AbsWorkingDir: dir,
		Bundle:        true,
		Write:         true,
		Outdir:        filepath.Join(dir, "dist"),
		Format:        api.FormatESModule,
		LogLevel:      api.LogLevelSilent,
		Plugins:       []api.Plugin{Plugin(Options{Inject: true})},
	})
	if len(result.Errors) > 0 {
		t.Fatalf("build failed: %v", result.Errors)
	}

	aOut, err := os.ReadFile(filepath.Join(dir, "dist", "a.js"))
	if err != nil {
		t.Fatal(err)
	}
	aText := string(aOut)
	if !strings.Contains(aText, "__css_modules_inject_") {
		t.Errorf("entry with CSS import lacks injector:\n%s", aText)
	}
	if !strings.Contains(aText, "button__primary_") {
		t.Errorf("injected CSS missing scoped class:\n%s", aText)
	}
	if !strings.Contains(aText, "createElement") {
		t.Errorf("injector body missing from output:\n%s", aText)
	}

	bOut, err := os.ReadFile(filepath.Join(dir, "dist", "b.js"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(bOut), "__css_modules_inject_") {
		t.Error("entry without CSS import must be untouched")
	}

	entries, err := os.ReadDir(filepath.Join(dir, "dist"))
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".inject-") {
			t.Errorf("temporary synthetic entry %s not removed", e.Name())
		}
	}
}

// The binding module in inject mode defers the injector call to the next
// tick, so bundled output must reference setTimeout rather than calling the
// global synchronously.
func TestPlugin_InjectionDefersToNextTick(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "src/main.js", fixtureEntry)
	writeFixture(t, dir, "src/button.module.css", fixtureCSS)

	result := api.Build(api.BuildOptions{
		EntryPoints:   []string{filepath.Join(dir, "src", "main.js")},
		AbsWorkingDir: dir,
		Bundle:        true,
		Write:         true,
		Outdir:        filepath.Join(dir, "dist"),
		Format:        api.FormatESModule,
		LogLevel:      api.LogLevelSilent,
		Plugins:       []api.Plugin{Plugin(Options{Inject: true})},
	})
	if len(result.Errors) > 0 {
		t.Fatalf("build failed: %v", result.Errors)
	}

	out, err := os.ReadFile(filepath.Join(dir, "dist", "main.js"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), "setTimeout(") {
		t.Errorf("lazy wrapper should schedule injection on the next tick:\n%s", out)
	}
}
