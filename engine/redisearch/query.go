package redisearch

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/siftkit/sift/engine"
)

// buildQuery translates one request into an FT.SEARCH query string:
// the free-text term, then filter groups (OR inside a group, AND
// between parts), numeric bounds, managed tags and the raw tag
// expression, all joined with spaces.
func buildQuery(req *engine.Request) string {
	var parts []string

	if q := strings.TrimSpace(req.Query); q != "" && q != "*" {
		parts = append(parts, escapeText(q))
	}

	for _, group := range req.Filters {
		if clause := buildGroup(group); clause != "" {
			parts = append(parts, clause)
		}
	}

	for _, nf := range req.Numeric {
		if clause := numericClause(nf); clause != "" {
			parts = append(parts, clause)
		}
	}

	for _, tag := range req.Tags {
		parts = append(parts, tagClause(engine.TagsField, tag))
	}

	// Raw tag expressions are passed through untouched: the caller owns
	// the syntax.
	if req.RawTags != "" {
		parts = append(parts, req.RawTags)
	}

	if len(parts) == 0 {
		return "*"
	}
	return strings.Join(parts, " ")
}

func buildGroup(group []engine.Filter) string {
	clauses := make([]string, 0, len(group))
	for _, f := range group {
		clauses = append(clauses, filterClause(f))
	}
	switch len(clauses) {
	case 0:
		return ""
	case 1:
		return clauses[0]
	default:
		return "(" + strings.Join(clauses, " | ") + ")"
	}
}

func filterClause(f engine.Filter) string {
	clause := tagClause(f.Attribute, f.Value)
	if f.Negate {
		return "-" + clause
	}
	return clause
}

func tagClause(attr, value string) string {
	return fmt.Sprintf("@%s:{%s}", attr, tagEscaper.Replace(value))
}

func numericClause(nf engine.NumericFilter) string {
	switch nf.Operator {
	case engine.OpEqual:
		return fmt.Sprintf("@%s:[%g %g]", nf.Attribute, nf.Value, nf.Value)
	case engine.OpNotEqual:
		return fmt.Sprintf("-@%s:[%g %g]", nf.Attribute, nf.Value, nf.Value)
	case engine.OpGreater:
		return fmt.Sprintf("@%s:[(%g +inf]", nf.Attribute, nf.Value)
	case engine.OpGreaterOrEqual:
		return fmt.Sprintf("@%s:[%g +inf]", nf.Attribute, nf.Value)
	case engine.OpLess:
		return fmt.Sprintf("@%s:[-inf (%g]", nf.Attribute, nf.Value)
	case engine.OpLessOrEqual:
		return fmt.Sprintf("@%s:[-inf %g]", nf.Attribute, nf.Value)
	}
	return ""
}

// searchArgs assembles the FT.SEARCH argument list: index, query, the
// paging window (LIMIT 0 0 for facets-only counting) and the native
// options mapped from request extras.
func searchArgs(req *engine.Request, query string) []string {
	args := []string{req.Index, query}

	if req.FacetsOnly {
		args = append(args, "LIMIT", "0", "0")
	} else {
		offset := req.Page * req.HitsPerPage
		args = append(args, "LIMIT", strconv.Itoa(offset), strconv.Itoa(req.HitsPerPage))
	}

	if v, ok := extraString(req.Extra, "sortBy"); ok {
		order := "ASC"
		if o, ok := extraString(req.Extra, "sortOrder"); ok && strings.EqualFold(o, "desc") {
			order = "DESC"
		}
		args = append(args, "SORTBY", v, order)
	}
	if v, ok := extraString(req.Extra, "language"); ok {
		args = append(args, "LANGUAGE", v)
	}
	if v, ok := extraString(req.Extra, "scorer"); ok {
		args = append(args, "SCORER", v)
	}
	if n, ok := extraInt(req.Extra, "slop"); ok {
		args = append(args, "SLOP", strconv.Itoa(n))
	}
	if extraBool(req.Extra, "inOrder") {
		args = append(args, "INORDER")
	}
	if extraBool(req.Extra, "verbatim") {
		args = append(args, "VERBATIM")
	}
	if extraBool(req.Extra, "noStopwords") {
		args = append(args, "NOSTOPWORDS")
	}
	if n, ok := extraInt(req.Extra, "timeoutMs"); ok {
		args = append(args, "TIMEOUT", strconv.Itoa(n))
	}

	dialect := 2
	if n, ok := extraInt(req.Extra, "dialect"); ok {
		dialect = n
	}
	args = append(args, "DIALECT", strconv.Itoa(dialect))

	return args
}

func extraString(extra map[string]any, key string) (string, bool) {
	s, ok := extra[key].(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// extraInt accepts float64 alongside the int kinds: requests decoded
// from JSON carry numbers as float64.
func extraInt(extra map[string]any, key string) (int, bool) {
	switch n := extra[key].(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

func extraBool(extra map[string]any, key string) bool {
	b, ok := extra[key].(bool)
	return ok && b
}

func escapeText(s string) string {
	return textEscaper.Replace(s)
}

var textEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`"`, `\"`,
	`@`, `\@`,
	`{`, `\{`,
	`}`, `\}`,
	`(`, `\(`,
	`)`, `\)`,
	`|`, `\|`,
	`-`, `\-`,
	`~`, `\~`,
	`*`, `\*`,
	`[`, `\[`,
	`]`, `\]`,
	`!`, `\!`,
	`%`, `\%`,
	`^`, `\^`,
	`$`, `\$`,
	`<`, `\<`,
	`>`, `\>`,
	`=`, `\=`,
	`;`, `\;`,
	`+`, `\+`,
)

var tagEscaper = strings.NewReplacer(
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	" ", "\\ ",
)
