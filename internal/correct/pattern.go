package correct

import (
	"fmt"
	"regexp"
	"strings"
)

// Category classifies a defect in generated artifact text.
type Category string

const (
	CategoryTypeChecking  Category = "type-checking"
	CategoryStyle         Category = "style"
	CategoryImport        Category = "import"
	CategoryFramework     Category = "framework-convention"
	CategoryAccessibility Category = "accessibility"
	CategorySyntax        Category = "syntax"
)

// Severity ranks how serious a detected issue is.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Pattern is one rule in the correction table: an explicit match function
// plus a deterministic fixer. Match reports whether the defect is present in
// the text; Fix returns the repaired text. Fix is only called after Match has
// reported true against the current text.
type Pattern struct {
	Name        string
	Category    Category
	Severity    Severity
	Description string
	Match       func(text string) bool
	Fix         func(text string) string
}

// Issue returns the canonical "category: description" string for this pattern.
func (p *Pattern) Issue() string {
	return fmt.Sprintf("%s: %s", p.Category, p.Description)
}

var (
	looseEqRe    = regexp.MustCompile(`(^|[^=!<>])==([^=])`)
	looseNeqRe   = regexp.MustCompile(`(^|[^!])!=([^=])`)
	varDeclRe    = regexp.MustCompile(`\bvar\s+[A-Za-z_$]`)
	varWordRe    = regexp.MustCompile(`\bvar\b`)
	debugCallRe  = regexp.MustCompile(`console\.(log|debug)\s*\(`)
	debugStmtRe  = regexp.MustCompile(`console\.(log|debug)\s*\([^()]*\)\s*;?`)
	debuggerRe   = regexp.MustCompile(`(?m)^\s*debugger\s*;?\s*$`)
	requireRe    = regexp.MustCompile(`(?m)^.*\brequire\s*\(\s*['"].*$`)
	anyTypeRe    = regexp.MustCompile(`:\s*any\b`)
	tsIgnoreRe   = regexp.MustCompile(`@ts-ignore`)
	doubleSemiRe = regexp.MustCompile(`;;+`)
	fenceLineRe  = regexp.MustCompile("(?m)^\\s*```[a-zA-Z]*\\s*$\n?")
	importFromRe = regexp.MustCompile(`(?m)^\s*import\b.*\bfrom\s+['"]([^'"]+)['"].*$`)
)

// DefaultPatterns returns the built-in rule table. Table order is the
// tie-break order: the first pattern matching an issue wins per pass.
func DefaultPatterns() []Pattern {
	return []Pattern{
		{
			Name:        "loose-equality",
			Category:    CategoryStyle,
			Severity:    SeverityError,
			Description: "loose equality operator, use strict comparison",
			Match: func(text string) bool {
				return looseEqRe.MatchString(text) || looseNeqRe.MatchString(text)
			},
			Fix: func(text string) string {
				text = looseEqRe.ReplaceAllString(text, "$1===$2")
				return looseNeqRe.ReplaceAllString(text, "$1!==$2")
			},
		},
		{
			Name:        "mutable-declaration",
			Category:    CategoryStyle,
			Severity:    SeverityWarning,
			Description: "var declaration, use block-scoped let",
			Match:       func(text string) bool { return varDeclRe.MatchString(text) },
			Fix:         func(text string) string { return varWordRe.ReplaceAllString(text, "let") },
		},
		{
			Name:        "debug-print",
			Category:    CategoryStyle,
			Severity:    SeverityWarning,
			Description: "debug print statement left in artifact",
			Match:       func(text string) bool { return debugCallRe.MatchString(text) },
			Fix:         func(text string) string { return collapseBlankLines(debugStmtRe.ReplaceAllString(text, "")) },
		},
		{
			Name:        "debugger-statement",
			Category:    CategoryStyle,
			Severity:    SeverityError,
			Description: "debugger statement left in artifact",
			Match:       func(text string) bool { return debuggerRe.MatchString(text) },
			Fix:         func(text string) string { return collapseBlankLines(debuggerRe.ReplaceAllString(text, "")) },
		},
		{
			Name:        "stray-fence",
			Category:    CategorySyntax,
			Severity:    SeverityError,
			Description: "stray markdown fence line in artifact",
			Match:       func(text string) bool { return fenceLineRe.MatchString(text) },
			Fix:         func(text string) string { return fenceLineRe.ReplaceAllString(text, "") },
		},
		{
			Name:        "double-semicolon",
			Category:    CategorySyntax,
			Severity:    SeverityWarning,
			Description: "duplicated statement terminator",
			Match:       func(text string) bool { return doubleSemiRe.MatchString(text) },
			Fix:         func(text string) string { return doubleSemiRe.ReplaceAllString(text, ";") },
		},
		{
			Name:        "commonjs-require",
			Category:    CategoryImport,
			Severity:    SeverityError,
			Description: "CommonJS require in ES module",
			Match:       func(text string) bool { return requireRe.MatchString(text) },
			Fix: func(text string) string {
				return collapseBlankLines(requireRe.ReplaceAllString(text, ""))
			},
		},
		{
			Name:        "duplicate-import",
			Category:    CategoryImport,
			Severity:    SeverityWarning,
			Description: "duplicate import of the same module",
			Match:       func(text string) bool { return findDuplicateImport(text) >= 0 },
			Fix:         fixDuplicateImport,
		},
		{
			Name:        "explicit-any",
			Category:    CategoryTypeChecking,
			Severity:    SeverityWarning,
			Description: "explicit any annotation, use unknown",
			Match:       func(text string) bool { return anyTypeRe.MatchString(text) },
			Fix:         func(text string) string { return anyTypeRe.ReplaceAllString(text, ": unknown") },
		},
		{
			Name:        "ts-ignore",
			Category:    CategoryTypeChecking,
			Severity:    SeverityWarning,
			Description: "ts-ignore suppression, use ts-expect-error",
			Match:       func(text string) bool { return tsIgnoreRe.MatchString(text) },
			Fix:         func(text string) string { return tsIgnoreRe.ReplaceAllString(text, "@ts-expect-error") },
		},
		{
			Name:        "missing-list-key",
			Category:    CategoryFramework,
			Severity:    SeverityError,
			Description: "list rendering without a key attribute",
			Match:       func(text string) bool { return findMissingListKey(text) >= 0 },
			Fix:         fixMissingListKey,
		},
		{
			Name:        "image-missing-alt",
			Category:    CategoryAccessibility,
			Severity:    SeverityError,
			Description: "img element without a textual alternative",
			Match:       func(text string) bool { return findImgWithoutAlt(text) >= 0 },
			Fix:         fixImgWithoutAlt,
		},
	}
}

// collapseBlankLines squeezes runs of blank lines left behind by removals.
func collapseBlankLines(text string) string {
	for strings.Contains(text, "\n\n\n") {
		text = strings.ReplaceAll(text, "\n\n\n", "\n\n")
	}
	return text
}

// findDuplicateImport returns the byte offset of the second import of an
// already-imported module, or -1.
func findDuplicateImport(text string) int {
	seen := make(map[string]bool)
	for _, loc := range importFromRe.FindAllStringSubmatchIndex(text, -1) {
		module := text[loc[2]:loc[3]]
		if seen[module] {
			return loc[0]
		}
		seen[module] = true
	}
	return -1
}

// fixDuplicateImport drops the line holding the first duplicated import.
func fixDuplicateImport(text string) string {
	off := findDuplicateImport(text)
	if off < 0 {
		return text
	}
	return removeLineAt(text, off)
}

// removeLineAt deletes the whole line containing byte offset off.
func removeLineAt(text string, off int) string {
	start := strings.LastIndexByte(text[:off], '\n') + 1
	end := strings.IndexByte(text[off:], '\n')
	if end == -1 {
		end = len(text)
	} else {
		end = off + end + 1
	}
	return text[:start] + text[end:]
}

var mapArrowRe = regexp.MustCompile(`\.map\(\s*\(?\s*([A-Za-z_$][A-Za-z0-9_$]*)\s*(?:,\s*([A-Za-z_$][A-Za-z0-9_$]*)\s*)?\)?\s*=>\s*\(?\s*<([A-Za-z][A-Za-z0-9.]*)`)

// findMissingListKey locates a .map(...) arrow returning a JSX element whose
// opening tag carries no key attribute. Returns the offset of the match or -1.
// This is deliberately shallow pattern matching, not a JSX parser.
func findMissingListKey(text string) int {
	for _, loc := range mapArrowRe.FindAllStringSubmatchIndex(text, -1) {
		tagStart := loc[6] // offset of the element name
		end := strings.IndexByte(text[tagStart:], '>')
		if end == -1 {
			continue
		}
		tag := text[tagStart : tagStart+end]
		if !strings.Contains(tag, "key=") {
			return loc[0]
		}
	}
	return -1
}

// fixMissingListKey inserts a key attribute derived from the map callback's
// index parameter, adding the parameter when the callback only names the item.
func fixMissingListKey(text string) string {
	loc := mapArrowRe.FindStringSubmatchIndex(text)
	if loc == nil {
		return text
	}
	item := text[loc[2]:loc[3]]
	index := "index"
	hasIndex := loc[4] >= 0
	if hasIndex {
		index = text[loc[4]:loc[5]]
	}

	tagStart := loc[6]
	end := strings.IndexByte(text[tagStart:], '>')
	if end == -1 {
		return text
	}
	if strings.Contains(text[tagStart:tagStart+end], "key=") {
		return text
	}

	// Insert the key right after the element name.
	nameEnd := loc[7]
	out := text[:nameEnd] + fmt.Sprintf(" key={%s}", index) + text[nameEnd:]

	if !hasIndex {
		// Widen the callback signature: item => ... becomes (item, index) => ...
		paramStart := loc[2]
		paramEnd := loc[3]
		if strings.Count(out[loc[0]:paramStart], "(") > 1 {
			// Already parenthesized, extend the parameter list in place.
			out = out[:paramEnd] + ", " + index + out[paramEnd:]
		} else {
			out = out[:paramStart] + "(" + item + ", " + index + ")" + out[paramEnd:]
		}
	}
	return out
}

var imgTagRe = regexp.MustCompile(`<img\b`)

// findImgWithoutAlt returns the offset of the first img tag lacking an alt
// attribute, or -1.
func findImgWithoutAlt(text string) int {
	for _, loc := range imgTagRe.FindAllStringIndex(text, -1) {
		end := strings.IndexByte(text[loc[0]:], '>')
		if end == -1 {
			continue
		}
		if !strings.Contains(text[loc[0]:loc[0]+end], "alt=") {
			return loc[0]
		}
	}
	return -1
}

// fixImgWithoutAlt inserts a minimal placeholder alt attribute.
func fixImgWithoutAlt(text string) string {
	off := findImgWithoutAlt(text)
	if off < 0 {
		return text
	}
	insert := off + len("<img")
	return text[:insert] + ` alt=""` + text[insert:]
}
