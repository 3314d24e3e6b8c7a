package executor

import (
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// chainedCommands parses a shell line and returns the names of every simple
// command after the first one, in source order. Parse failures yield nil.
func chainedCommands(command string) []string {
	file, err := syntax.NewParser().Parse(strings.NewReader(command), "")
	if err != nil {
		return nil
	}

	var names []string
	syntax.Walk(file, func(node syntax.Node) bool {
		if call, ok := node.(*syntax.CallExpr); ok && len(call.Args) > 0 {
			if name := literal(call.Args[0]); name != "" {
				names = append(names, name)
			}
		}
		return true
	})

	if len(names) <= 1 {
		return nil
	}
	return names[1:]
}

// literal joins the literal parts of a word, skipping expansions
func literal(word *syntax.Word) string {
	var b strings.Builder
	for _, part := range word.Parts {
		switch p := part.(type) {
		case *syntax.Lit:
			b.WriteString(p.Value)
		case *syntax.SglQuoted:
			b.WriteString(p.Value)
		}
	}
	return b.String()
}
