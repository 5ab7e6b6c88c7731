package cssmodules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/evanw/esbuild/pkg/api"
)

func TestNewContext(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "package.json"), []byte(`{"version": "3.1.4"}`), 0644); err != nil {
		t.Fatal(err)
	}

	opts := &api.BuildOptions{
		AbsWorkingDir: dir,
		EntryPoints:   []string{"src/main.ts", "src/admin.ts"},
	}
	ctx := newContext(opts, nil)

	if ctx.Root != dir {
		t.Errorf("Root = %q, want %q", ctx.Root, dir)
	}
	if ctx.PackageVersion != "3.1.4" {
		t.Errorf("PackageVersion = %q, want 3.1.4", ctx.PackageVersion)
	}
	if len(ctx.ID) != 8 {
		t.Errorf("ID = %q, want 8 hex chars", ctx.ID)
	}

	t.Run("ID independent of entry order", func(t *testing.T) {
		reversed := newContext(&api.BuildOptions{
			AbsWorkingDir: dir,
			EntryPoints:   []string{"src/admin.ts", "src/main.ts"},
		}, nil)
		if reversed.ID != ctx.ID {
			t.Errorf("ID differs for same entries in different order: %q vs %q", reversed.ID, ctx.ID)
		}
	})

	t.Run("ID differs for different entries", func(t *testing.T) {
		other := newContext(&api.BuildOptions{
			AbsWorkingDir: dir,
			EntryPoints:   []string{"src/other.ts"},
		}, nil)
		if other.ID == ctx.ID {
			t.Errorf("distinct builds share ID %q", ctx.ID)
		}
	})
}

func TestRelativize(t *testing.T) {
	ctx := &Context{Root: filepath.FromSlash("/proj")}

	if got, want := ctx.Relativize(filepath.FromSlash("/proj/src/button.module.css")), "src/button.module.css"; got != want {
		t.Errorf("Relativize = %q, want %q", got, want)
	}

	// Outside the root there is no stable relative identity.
	outside := filepath.FromSlash("/elsewhere/x.module.css")
	if got := ctx.Relativize(outside); got != filepath.ToSlash(outside) {
		t.Errorf("Relativize(outside) = %q, want absolute fallback", got)
	}
}
