package compiler

import (
	"strings"
	"testing"
)

func prefixRename(local string) string {
	return "scoped_" + local
}

func TestScopeClasses(t *testing.T) {
	t.Run("renames class selectors", func(t *testing.T) {
		out, classMap, err := scopeClasses([]byte(".primary { color: red; }\n.primary:hover { color: blue; }\n"), prefixRename)
		if err != nil {
			t.Fatal(err)
		}
		text := string(out)
		if !strings.Contains(text, ".scoped_primary {") {
			t.Errorf("selector not renamed:\n%s", text)
		}
		if !strings.Contains(text, ".scoped_primary:hover") {
			t.Errorf("pseudo-class selector not renamed:\n%s", text)
		}
		if got, want := classMap["primary"], "scoped_primary"; got != want {
			t.Errorf("classMap[primary] = %q, want %q", got, want)
		}
		if len(classMap) != 1 {
			t.Errorf("expected one distinct class, got %d: %v", len(classMap), classMap)
		}
	})

	t.Run("preserves declarations and values", func(t *testing.T) {
		src := `.box { margin: .5em; background: url(dot.png); content: ".fake"; }`
		out, _, err := scopeClasses([]byte(src), prefixRename)
		if err != nil {
			t.Fatal(err)
		}
		text := string(out)
		for _, keep := range []string{"margin: .5em", "url(dot.png)", `".fake"`} {
			if !strings.Contains(text, keep) {
				t.Errorf("value %q was altered:\n%s", keep, text)
			}
		}
	})

	t.Run("handles at-rules", func(t *testing.T) {
		src := "@media (min-width: 600px) {\n  .wide { display: flex; }\n}\n"
		out, classMap, err := scopeClasses([]byte(src), prefixRename)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(out), ".scoped_wide") {
			t.Errorf("class inside @media not renamed:\n%s", out)
		}
		if _, ok := classMap["wide"]; !ok {
			t.Errorf("classMap missing 'wide': %v", classMap)
		}
	})

	t.Run("renames inside selector functions", func(t *testing.T) {
		out, _, err := scopeClasses([]byte(".a:not(.b) { color: red; }"), prefixRename)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(out), ":not(.scoped_b)") {
			t.Errorf(":not() argument not renamed:\n%s", out)
		}
	})

	t.Run("empty stylesheet", func(t *testing.T) {
		out, classMap, err := scopeClasses(nil, prefixRename)
		if err != nil {
			t.Fatal(err)
		}
		if len(out) != 0 || len(classMap) != 0 {
			t.Errorf("expected empty output and map, got %q, %v", out, classMap)
		}
	})

	t.Run("repeated class renamed consistently", func(t *testing.T) {
		calls := 0
		rename := func(local string) string {
			calls++
			return "x_" + local
		}
		_, _, err := scopeClasses([]byte(".a{} .a{} .a:focus{}"), rename)
		if err != nil {
			t.Fatal(err)
		}
		if calls != 1 {
			t.Errorf("rename called %d times for one distinct class, want 1", calls)
		}
	})
}
