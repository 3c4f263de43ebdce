package exprvm

import (
	"strings"

	"github.com/jeremyfa/loreline-go/ast"
	"github.com/jeremyfa/loreline-go/internal/values"
)

// Tag is one inline tag recovered from a rendered template, positioned by
// rune offset into the plain text it was found in (spec §4.3).
type Tag struct {
	Offset  int
	Value   string
	Closing bool
}

// Render evaluates a *ast.StringLiteral's parts in order, producing the
// plain text a host displays and the tags found within it. Raw parts are
// copied verbatim, expression parts are evaluated and stringified (spec
// §4.6's Stringify), and tag parts contribute no text but record their
// rune offset into the text built so far.
func (ev *Evaluator) Render(sl *ast.StringLiteral, env *Env) (string, []Tag, error) {
	var sb strings.Builder
	var tags []Tag
	for _, part := range sl.Parts {
		switch part.Kind {
		case ast.PartRaw:
			sb.WriteString(part.Raw)
		case ast.PartExpression:
			v, err := ev.Eval(part.Expr, env)
			if err != nil {
				return "", nil, err
			}
			sb.WriteString(values.Stringify(v))
		case ast.PartTag:
			tags = append(tags, Tag{
				Offset:  len([]rune(sb.String())),
				Value:   part.TagName,
				Closing: part.TagClosing,
			})
		}
	}
	return sb.String(), tags, nil
}
