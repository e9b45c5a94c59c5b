// Package jsconfig reads and rewrites named sections of a JavaScript config
// module such as config/local.js. A patchable section looks like:
//
//	bot_manager: {
//	   enable: false
//	},
//	/* end bot_manager */
//
// Sections are located by brace matching that understands nesting, quoted
// strings and comments, so nested objects inside the body are handled.
package jsconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/tacogips/stackforge/internal/debug"
)

// ErrSectionNotFound is returned when a file has no delimited section with the requested name.
var ErrSectionNotFound = errors.New("section not found")

// ErrInvalidBody is returned when a raw section body is not a single object literal.
var ErrInvalidBody = errors.New("invalid section body")

var log = debug.For("jsconfig")

// Section locates a named section inside a text.
type Section struct {
	// Name is the section key.
	Name string
	// Start is the offset of the key.
	Start int
	// BodyStart is the offset of the opening brace.
	BodyStart int
	// BodyEnd is the offset just past the closing brace.
	BodyEnd int
	// End is the offset just past the end marker comment.
	End int
}

// Body returns the object literal of the section, braces included.
func (s Section) Body(text string) string {
	return text[s.BodyStart:s.BodyEnd]
}

// FindSection returns the first delimited section called name. Keys inside
// comments and string literals are not considered.
func FindSection(text, name string) (Section, bool) {
	keyPattern := regexp.MustCompile(`(?:^|[^\w$])(["']?` + regexp.QuoteMeta(name) + `["']?)\s*:\s*\{`)
	endPattern := regexp.MustCompile(`^\s*,\s*/\*\s*end\s+` + regexp.QuoteMeta(name) + `\s*\*/`)

	code := codeMask(text)
	for _, loc := range keyPattern.FindAllStringSubmatchIndex(text, -1) {
		keyStart := loc[2]
		braceStart := loc[1] - 1
		if !code[keyStart] || !code[braceStart] {
			log.Debugf("skipping %s at offset %d: not code", name, keyStart)
			continue
		}

		bodyEnd, ok := matchBrace(text, code, braceStart)
		if !ok {
			continue
		}
		end := endPattern.FindStringIndex(text[bodyEnd:])
		if end == nil {
			continue
		}
		return Section{
			Name:      name,
			Start:     keyStart,
			BodyStart: braceStart,
			BodyEnd:   bodyEnd,
			End:       bodyEnd + end[1],
		}, true
	}
	return Section{}, false
}

// codeMask reports for every byte of text whether it lies outside comments
// and string literals. Opening quotes count as code.
func codeMask(text string) []bool {
	code := make([]bool, len(text))
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c == '"' || c == '\'' || c == '`':
			code[i] = true
			i = skipString(text, i, c)
		case c == '/' && i+1 < len(text) && text[i+1] == '/':
			nl := strings.IndexByte(text[i:], '\n')
			if nl == -1 {
				return code
			}
			i += nl - 1
		case c == '/' && i+1 < len(text) && text[i+1] == '*':
			end := strings.Index(text[i+2:], "*/")
			if end == -1 {
				return code
			}
			i += 2 + end + 1
		default:
			code[i] = true
		}
	}
	return code
}

// matchBrace returns the offset just past the brace closing the one at open,
// counting only braces at code positions.
func matchBrace(text string, code []bool, open int) (int, bool) {
	depth := 0
	for i := open; i < len(text); i++ {
		if !code[i] {
			continue
		}
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1, true
			}
		}
	}
	return 0, false
}

// skipString returns the offset of the closing quote of the string starting at i.
func skipString(text string, i int, quote byte) int {
	for j := i + 1; j < len(text); j++ {
		switch text[j] {
		case '\\':
			j++
		case quote:
			return j
		}
	}
	return len(text)
}

// ReplaceSection swaps the object literal of a section for body.
func ReplaceSection(text, name, body string) (string, error) {
	sec, ok := FindSection(text, name)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrSectionNotFound, name)
	}
	return text[:sec.BodyStart] + body + text[sec.BodyEnd:], nil
}

// SetSection marshals value as JSON and writes it as the body of the named
// section in the file at path.
func SetSection(path, name string, value any) error {
	return rewrite(path, name, func(text string, sec Section) (string, error) {
		body, err := json.MarshalIndent(value, lineIndent(text, sec.Start), "   ")
		if err != nil {
			return "", fmt.Errorf("failed to encode section %s: %w", name, err)
		}
		return string(body), nil
	})
}

// SetSectionRaw writes body verbatim as the object literal of the named
// section, keeping JavaScript syntax such as unquoted keys.
func SetSectionRaw(path, name, body string) error {
	body = strings.TrimSpace(body)
	if !strings.HasPrefix(body, "{") || !strings.HasSuffix(body, "}") {
		return fmt.Errorf("%w: %s must be an object literal", ErrInvalidBody, name)
	}
	if end, ok := matchBrace(body, codeMask(body), 0); !ok || end != len(body) {
		return fmt.Errorf("%w: %s has unbalanced braces", ErrInvalidBody, name)
	}
	return rewrite(path, name, func(string, Section) (string, error) {
		return body, nil
	})
}

func rewrite(path, name string, bodyFor func(text string, sec Section) (string, error)) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	text := string(data)

	sec, ok := FindSection(text, name)
	if !ok {
		return fmt.Errorf("%w: %s in %s", ErrSectionNotFound, name, path)
	}
	body, err := bodyFor(text, sec)
	if err != nil {
		return err
	}

	updated, err := ReplaceSection(text, name, body)
	if err != nil {
		return err
	}
	log.Debugf("%s: section %s rewritten (%d -> %d bytes)", path, name, sec.BodyEnd-sec.BodyStart, len(body))

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(updated), info.Mode().Perm()); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// lineIndent returns the leading whitespace of the line containing offset.
func lineIndent(text string, offset int) string {
	lineStart := strings.LastIndexByte(text[:offset], '\n') + 1
	end := lineStart
	for end < offset && (text[end] == ' ' || text[end] == '\t') {
		end++
	}
	return text[lineStart:end]
}
