package asm

import (
	"regexp"
	"strings"
)

// labelNamePattern matches the names this subset's label/directive lexer
// accepts.
var labelNamePattern = regexp.MustCompile(`^[A-Za-z_.][A-Za-z0-9$_.]*$`)

// Line is one lexed, non-empty source line: an optional label definition,
// an optional mnemonic (directives included), and its positional operand
// tokens.
type Line struct {
	Number   int
	Label    string
	Mnemonic string
	Operands []string
	Raw      string
}

// Lex splits source into Lines, stripping comments (everything from the
// first '/' to end of line) and blank lines. Tokens are split on
// commas and whitespace; a leading "name:" token is peeled off as a label
// definition.
func Lex(source string) ([]Line, error) {
	rawLines := strings.Split(source, "\n")
	lines := make([]Line, 0, len(rawLines))

	for i, raw := range rawLines {
		number := i + 1
		stripped := raw
		if idx := strings.IndexByte(stripped, '/'); idx >= 0 {
			stripped = stripped[:idx]
		}
		stripped = strings.TrimSpace(stripped)
		if stripped == "" {
			continue
		}

		fields := tokenize(stripped)
		if len(fields) == 0 {
			continue
		}

		var label string
		if strings.HasSuffix(fields[0], ":") && fields[0] != ":" {
			label = strings.TrimSuffix(fields[0], ":")
			if !labelNamePattern.MatchString(label) {
				return nil, newError(number, raw, "invalid label name "+label)
			}
			fields = fields[1:]
		}

		var mnemonic string
		var operands []string
		if len(fields) > 0 {
			mnemonic = fields[0]
			operands = fields[1:]
		}

		lines = append(lines, Line{
			Number:   number,
			Label:    label,
			Mnemonic: mnemonic,
			Operands: operands,
			Raw:      raw,
		})
	}

	return lines, nil
}

func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
}
