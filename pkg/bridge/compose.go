package bridge

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// functionName matches a plain or namespace-qualified R function name.
var functionName = regexp.MustCompile(`^(?:[A-Za-z.][A-Za-z0-9._]*:::?)?[A-Za-z.][A-Za-z0-9._]*$`)

// CheckFunction verifies that name is a usable function name and occurs in
// source. The check is textual: it does not prove that source defines name.
func CheckFunction(source, name string) error {
	if name == "" {
		return &ValidationError{Field: "function", Msg: "function name is empty", Err: ErrFunctionNotFound}
	}
	if !functionName.MatchString(name) {
		return &ValidationError{Field: "function", Msg: fmt.Sprintf("%q is not an R function name", name)}
	}
	if !strings.Contains(source, name) {
		return &ValidationError{Field: "function", Msg: fmt.Sprintf("%q does not appear in the R source", name), Err: ErrFunctionNotFound}
	}
	return nil
}

func guardedCall(name, call string) string {
	prefix := QuoteR("R error in " + name + ": ")
	return fmt.Sprintf("tryCatch(%s, error = function(e) stop(%s, conditionMessage(e), call. = FALSE))", call, prefix)
}

// ComposeStructured builds a script that decodes payload with jsonlite,
// calls name with the decoded arguments and prints the JSON encoded result as
// its last line of output.
func ComposeStructured(source, name, payload string) string {
	var b strings.Builder
	b.WriteString("suppressPackageStartupMessages({\n")
	b.WriteString(source)
	if !strings.HasSuffix(source, "\n") {
		b.WriteByte('\n')
	}
	b.WriteString("})\n")
	fmt.Fprintf(&b, "args <- jsonlite::fromJSON('%s')\n", payload)
	fmt.Fprintf(&b, "result <- %s\n", guardedCall(name, fmt.Sprintf("do.call(%s, as.list(args))", name)))
	b.WriteString(`json_out <- jsonlite::toJSON(result, auto_unbox = TRUE, force = TRUE, digits = 15, null = "null", na = "null", dataframe = "columns")` + "\n")
	b.WriteString(`cat(json_out, "\n")` + "\n")
	return b.String()
}

// ComposeInline builds a single-line expression for Rscript -e whose
// auto-printed value is the result of calling name with literalArgs.
func ComposeInline(source, name, literalArgs string) string {
	src := strings.TrimSpace(source)
	src = strings.TrimRight(src, ";")
	call := guardedCall(name, fmt.Sprintf("%s(%s)", name, literalArgs))
	if src == "" {
		return Minify(call)
	}
	return Minify(src + ";" + call)
}

// Minify joins R source onto one line. Comments and whitespace outside
// string literals are removed, except for a single space between two
// identifier characters and between "<" and "-" where removal would change
// the meaning. A line break that ends a complete statement at top level or
// directly inside braces is replaced by ";".
func Minify(src string) string {
	var b strings.Builder
	b.Grow(len(src))
	runes := []rune(src)

	var (
		quote     rune
		escaped   bool
		inComment bool
		pending   bool
		newline   bool
		last      rune
		word      string
		header    bool
		nesting   []rune
		headers   []bool
	)

	for i, r := range runes {
		switch {
		case inComment:
			if r == '\n' {
				inComment = false
				pending, newline = true, true
			}
			continue
		case quote != 0:
			b.WriteRune(r)
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == quote:
				quote = 0
			}
			last = r
			continue
		case r == '#':
			inComment = true
			continue
		case unicode.IsSpace(r):
			pending = true
			if r == '\n' {
				newline = true
			}
			continue
		}

		separate := newline && last != 0 &&
			(len(nesting) == 0 || nesting[len(nesting)-1] == '{') &&
			endsStatement(last, word, header) &&
			startsStatement(r) && !hasWord(runes[i:], "else")

		switch {
		case separate:
			b.WriteByte(';')
		case pending && last != 0 && keepSpace(last, r):
			b.WriteByte(' ')
		}
		pending, newline = false, false

		header = false
		switch r {
		case '(':
			nesting = append(nesting, r)
			headers = append(headers, headerKeyword[word])
		case '[', '{':
			nesting = append(nesting, r)
			headers = append(headers, false)
		case ')', ']', '}':
			if n := len(nesting); n > 0 {
				header = r == ')' && headers[n-1]
				nesting, headers = nesting[:n-1], headers[:n-1]
			}
		}

		if isIdent(r) {
			word += string(r)
		} else {
			word = ""
		}

		if r == '\'' || r == '"' || r == '`' {
			quote = r
		}
		b.WriteRune(r)
		last = r
	}
	return b.String()
}

// headerKeyword lists the keywords whose parenthesized header must be
// followed by a body.
var headerKeyword = map[string]bool{"function": true, "if": true, "for": true, "while": true}

// endsStatement reports whether output ending in last can be a complete
// statement. word is the identifier that ends the output, if any, and header
// is set when last closes a keyword header.
func endsStatement(last rune, word string, header bool) bool {
	switch {
	case word != "":
		return word != "else" && word != "repeat" && word != "function"
	case last == ')':
		return !header
	default:
		return strings.ContainsRune("]}'\"`", last)
	}
}

func startsStatement(r rune) bool {
	return isIdent(r) || strings.ContainsRune("({[!-+~'\"`", r)
}

// hasWord reports whether rs begins with the identifier w.
func hasWord(rs []rune, w string) bool {
	n := len([]rune(w))
	if len(rs) < n || string(rs[:n]) != w {
		return false
	}
	return len(rs) == n || !isIdent(rs[n])
}

func keepSpace(prev, next rune) bool {
	if isIdent(prev) && isIdent(next) {
		return true
	}
	return prev == '<' && next == '-'
}

func isIdent(r rune) bool {
	return r == '.' || r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
