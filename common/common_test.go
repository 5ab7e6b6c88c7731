package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/evanw/esbuild/pkg/api"
)

func TestParseModuleConfig(t *testing.T) {
	dir := t.TempDir()

	t.Run("parses entries and skips comments", func(t *testing.T) {
		path := filepath.Join(dir, "moduleconfig")
		content := "# comment\nreact=/path/to/react\n\nlodash = /path/to/lodash\n"
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		modules, err := ParseModuleConfig(path)
		if err != nil {
			t.Fatal(err)
		}
		if got, want := modules["react"], "/path/to/react"; got != want {
			t.Errorf("modules[react] = %q, want %q", got, want)
		}
		if got, want := modules["lodash"], "/path/to/lodash"; got != want {
			t.Errorf("modules[lodash] = %q, want %q", got, want)
		}
		if len(modules) != 2 {
			t.Errorf("expected 2 modules, got %d: %v", len(modules), modules)
		}
	})

	t.Run("missing file is empty config", func(t *testing.T) {
		modules, err := ParseModuleConfig(filepath.Join(dir, "nope"))
		if err != nil {
			t.Fatal(err)
		}
		if len(modules) != 0 {
			t.Errorf("expected empty map, got %v", modules)
		}
	})
}

func TestParseDefines(t *testing.T) {
	defines := ParseDefines([]string{"process.env.NODE_ENV=\"production\"", "DEBUG=false", "malformed"})
	if got, want := defines["process.env.NODE_ENV"], `"production"`; got != want {
		t.Errorf("defines[process.env.NODE_ENV] = %q, want %q", got, want)
	}
	if got, want := defines["DEBUG"], "false"; got != want {
		t.Errorf("defines[DEBUG] = %q, want %q", got, want)
	}
	if len(defines) != 2 {
		t.Errorf("malformed entry should be ignored, got %v", defines)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want api.Format
	}{
		{"esm", api.FormatESModule},
		{"cjs", api.FormatCommonJS},
		{"iife", api.FormatIIFE},
		{"", api.FormatESModule},
	}
	for _, tt := range tests {
		if got := ParseFormat(tt.in); got != tt.want {
			t.Errorf("ParseFormat(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParsePlatform(t *testing.T) {
	if got := ParsePlatform("node"); got != api.PlatformNode {
		t.Errorf("ParsePlatform(node) = %v, want PlatformNode", got)
	}
	if got := ParsePlatform("browser"); got != api.PlatformBrowser {
		t.Errorf("ParsePlatform(browser) = %v, want PlatformBrowser", got)
	}
}

func TestPackageVersion(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "src", "components")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "package.json"), []byte(`{"name": "app", "version": "2.4.0"}`), 0644); err != nil {
		t.Fatal(err)
	}

	if got, want := PackageVersion(nested), "2.4.0"; got != want {
		t.Errorf("PackageVersion(nested) = %q, want %q", got, want)
	}
	if got, want := PackageVersion(dir), "2.4.0"; got != want {
		t.Errorf("PackageVersion(root) = %q, want %q", got, want)
	}
}

func TestPackageVersion_Missing(t *testing.T) {
	if got := PackageVersion(t.TempDir()); got != "" {
		t.Errorf("PackageVersion without package.json = %q, want empty", got)
	}
}
