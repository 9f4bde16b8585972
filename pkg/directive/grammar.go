package directive

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/language"
)

// ValueGrammar decides whether an attribute value is acceptable. Check returns a
// message suitable for display when it is not.
type ValueGrammar interface {
	Check(value string) (msg string, ok bool)
	// Describe names the accepted values, for error messages and documentation.
	Describe() string
}

type anyGrammar struct{}

// Any accepts every value, including the empty one.
func Any() ValueGrammar { return anyGrammar{} }

func (anyGrammar) Check(string) (string, bool) { return "", true }
func (anyGrammar) Describe() string            { return "any value" }

type nonEmptyGrammar struct{}

// NonEmpty accepts any value with at least one non-space character.
func NonEmpty() ValueGrammar { return nonEmptyGrammar{} }

func (nonEmptyGrammar) Check(v string) (string, bool) {
	if strings.TrimSpace(v) == "" {
		return "value must not be empty", false
	}
	return "", true
}

func (nonEmptyGrammar) Describe() string { return "a non-empty value" }

type enumGrammar struct {
	values []string
}

// Enum accepts one of values, compared case-insensitively.
func Enum(values ...string) ValueGrammar {
	return enumGrammar{values: values}
}

// Boolean accepts "true" or "false".
func Boolean() ValueGrammar {
	return Enum("true", "false")
}

func (g enumGrammar) Check(v string) (string, bool) {
	for _, allowed := range g.values {
		if strings.EqualFold(v, allowed) {
			return "", true
		}
	}
	return fmt.Sprintf("invalid value '%s': expected %s", v, g.Describe()), false
}

func (g enumGrammar) Describe() string {
	quoted := make([]string, len(g.values))
	for i, v := range g.values {
		quoted[i] = "'" + v + "'"
	}
	if len(quoted) == 2 {
		return quoted[0] + " or " + quoted[1]
	}
	return "one of " + strings.Join(quoted, ", ")
}

// Values returns the accepted values.
func (g enumGrammar) Values() []string {
	return g.values
}

type identifierGrammar struct {
	dotted   bool
	generics bool
	what     string
}

// Identifier accepts a single identifier such as a parameter name.
func Identifier() ValueGrammar {
	return identifierGrammar{what: "an identifier"}
}

// Namespace accepts a dotted identifier such as System.Collections.Generic.
func Namespace() ValueGrammar {
	return identifierGrammar{dotted: true, what: "a namespace"}
}

// TypeName accepts a dotted identifier with optional generic arguments, array
// ranks and nullable markers, such as System.Collections.Generic.List<System.String>,
// int?[] or Foo.Bar`1.
func TypeName() ValueGrammar {
	return identifierGrammar{dotted: true, generics: true, what: "a type name"}
}

func (g identifierGrammar) Check(v string) (string, bool) {
	if g.valid(v) {
		return "", true
	}
	return fmt.Sprintf("invalid value '%s': expected %s", v, g.what), false
}

func (g identifierGrammar) Describe() string { return g.what }

func (g identifierGrammar) valid(v string) bool {
	if v == "" {
		return false
	}
	if g.generics {
		return validTypeName(v)
	}
	parts := []string{v}
	if g.dotted {
		parts = strings.Split(v, ".")
	}
	for _, part := range parts {
		if !isIdentifier(part) {
			return false
		}
	}
	return true
}

// validTypeName accepts both C# and CLR spellings: List<int>, int?[],
// string[,], Foo.Bar`2[System.String,System.Int32] and
// System.Nullable`1[[System.Int32, mscorlib]].
func validTypeName(v string) bool {
	v = strings.TrimSpace(v)

	// array ranks and nullable markers
	for {
		if strings.HasSuffix(v, "?") {
			v = v[:len(v)-1]
			continue
		}
		if strings.HasSuffix(v, "]") {
			open := matchingOpen(v)
			if open < 0 || v[open] != '[' {
				return false
			}
			if strings.Trim(v[open+1:len(v)-1], ", ") == "" {
				v = v[:open]
				continue
			}
		}
		break
	}

	switch {
	case strings.HasSuffix(v, ">"):
		open := matchingOpen(v)
		if open < 0 || v[open] != '<' {
			return false
		}
		for _, arg := range splitTopLevel(v[open+1 : len(v)-1]) {
			if !validTypeName(arg) {
				return false
			}
		}
		v = v[:open]
	case strings.HasSuffix(v, "]"):
		// CLR generic arguments follow a backtick arity
		open := matchingOpen(v)
		if open < 0 || v[open] != '[' || !strings.Contains(v[:open], "`") {
			return false
		}
		for _, arg := range splitTopLevel(v[open+1 : len(v)-1]) {
			arg = strings.TrimSpace(arg)
			if strings.HasPrefix(arg, "[") && strings.HasSuffix(arg, "]") {
				// assembly qualified: [Type, Assembly, Version=...]
				arg = splitTopLevel(arg[1 : len(arg)-1])[0]
			}
			if !validTypeName(arg) {
				return false
			}
		}
		v = v[:open]
	}

	if v == "" {
		return false
	}
	for _, part := range strings.FieldsFunc(v, func(r rune) bool { return r == '.' || r == '+' }) {
		if i := strings.IndexByte(part, '`'); i >= 0 {
			arity := part[i+1:]
			if arity == "" || strings.TrimFunc(arity, unicode.IsDigit) != "" {
				return false
			}
			part = part[:i]
		}
		if !isIdentifier(part) {
			return false
		}
	}
	return !strings.HasPrefix(v, ".") && !strings.HasSuffix(v, ".") && !strings.Contains(v, "..")
}

// matchingOpen returns the index of the bracket opening the one v ends with.
func matchingOpen(v string) int {
	depth := 0
	for i := len(v) - 1; i >= 0; i-- {
		switch v[i] {
		case '>', ']':
			depth++
		case '<', '[':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func splitTopLevel(s string) []string {
	var out []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<', '[':
			depth++
		case '>', ']':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	return append(out, s[start:])
}

func isIdentifier(s string) bool {
	s = strings.TrimPrefix(s, "@")
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) {
			continue
		}
		if i > 0 && unicode.IsDigit(r) {
			continue
		}
		return false
	}
	return true
}

type cultureGrammar struct{}

// Culture accepts a culture name such as en-US, validated as a BCP 47 tag.
func Culture() ValueGrammar { return cultureGrammar{} }

func (cultureGrammar) Check(v string) (string, bool) {
	if v == "" {
		// the invariant culture
		return "", true
	}
	if _, err := language.Parse(v); err != nil {
		return fmt.Sprintf("invalid culture '%s'", v), false
	}
	return "", true
}

func (cultureGrammar) Describe() string { return "a culture name" }

type encodingGrammar struct{}

// Encoding accepts an IANA character set name or a code page number.
func Encoding() ValueGrammar { return encodingGrammar{} }

func (encodingGrammar) Check(v string) (string, bool) {
	if v != "" && strings.Trim(v, "0123456789") == "" {
		return "", true
	}
	if _, err := ianaindex.IANA.Encoding(v); err != nil {
		return fmt.Sprintf("unknown encoding '%s'", v), false
	}
	return "", true
}

func (encodingGrammar) Describe() string { return "an encoding name" }
