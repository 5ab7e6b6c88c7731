package bundle

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "src", "main.js"),
		`import styles from "./card.module.css";`+"\n"+
			`document.body.className = styles["card"];`+"\n")
	write(t, filepath.Join(dir, "src", "card.module.css"), ".card { padding: 1rem; }\n")

	out := filepath.Join(dir, "dist", "main.js")
	err := Run(Args{
		Entry:  filepath.Join(dir, "src", "main.js"),
		Out:    out,
		Format: "esm",
		Log:    testLogger(),
	})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	if !strings.Contains(string(data), "card__card_") {
		t.Errorf("output missing scoped class name:\n%s", data)
	}

	cssData, err := os.ReadFile(filepath.Join(dir, "dist", "main.css"))
	if err != nil {
		t.Fatalf("stylesheet asset not written: %v", err)
	}
	if !strings.Contains(string(cssData), ".card__card_") {
		t.Errorf("CSS output not scoped:\n%s", cssData)
	}
}

func TestRun_BuildErrorSurfaces(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "src", "main.js"), `import "./missing.module.css";`)

	err := Run(Args{
		Entry:  filepath.Join(dir, "src", "main.js"),
		Out:    filepath.Join(dir, "dist", "main.js"),
		Format: "esm",
		Log:    testLogger(),
	})
	if err == nil {
		t.Fatal("expected error for unresolvable stylesheet import")
	}
}
