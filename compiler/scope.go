package compiler

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// scopeClasses rewrites every class selector in source using rename and
// returns the rewritten stylesheet. rename is called once per distinct
// original class name; repeated references to the same class reuse the first
// result. All other tokens pass through byte-for-byte, so comments,
// whitespace and declaration values are preserved.
//
// A class selector is a "." delimiter immediately followed by an identifier.
// Decimal numbers lex as number tokens and string or url values as their own
// token kinds, so the pair cannot occur outside selector position in valid
// CSS.
func scopeClasses(source []byte, rename func(local string) string) ([]byte, map[string]string, error) {
	lexer := css.NewLexer(parse.NewInputBytes(source))

	var out bytes.Buffer
	out.Grow(len(source) + len(source)/2)
	classMap := make(map[string]string)

	pendingDot := false
	for {
		tt, text := lexer.Next()
		if tt == css.ErrorToken {
			if pendingDot {
				out.WriteByte('.')
			}
			if err := lexer.Err(); err != nil && !errors.Is(err, io.EOF) {
				return nil, nil, fmt.Errorf("parsing stylesheet: %w", err)
			}
			return out.Bytes(), classMap, nil
		}

		if pendingDot {
			pendingDot = false
			if tt == css.IdentToken {
				local := string(text)
				scoped, ok := classMap[local]
				if !ok {
					scoped = rename(local)
					classMap[local] = scoped
				}
				out.WriteByte('.')
				out.WriteString(scoped)
				continue
			}
			out.WriteByte('.')
		}

		if tt == css.DelimToken && len(text) == 1 && text[0] == '.' {
			pendingDot = true
			continue
		}
		out.Write(text)
	}
}
