// Package response extracts working-context candidates out of assistant
// replies. Extraction is best-effort pattern matching, not comprehension:
// it never blocks the caller and never propagates an error, matching how
// the teacher's autopoiesis package mines free text for signal with a fixed
// regex/keyword set rather than a second model call.
package response

import (
	"regexp"
	"strings"

	"github.com/jido-ai/memorycore/internal/logging"
	"github.com/jido-ai/memorycore/internal/memory"
	"github.com/jido-ai/memorycore/internal/types"
)

var filePathPattern = regexp.MustCompile("`?\\b[\\w./-]+\\.(go|py|js|ts|tsx|jsx|rb|java|rs|c|cpp|h|hpp|md|yaml|yml|json)\\b`?")

var codeFenceLangPattern = regexp.MustCompile("(?m)^```[ \\t]*([A-Za-z][\\w+-]*)")

var errorLinePattern = regexp.MustCompile(`(?i)\b(error|panic|exception|traceback|failed)\s*[:\-]`)

var questionPattern = regexp.MustCompile(`\?\s*$`)

// decisionPattern extracts the acted-upon object of a "we decided/chose/
// will use X" phrase, per the glossary's user_intent extractor.
var decisionPattern = regexp.MustCompile(`(?i)\bwe('ll| will)?\s*(decided|chose|will use|are using|'ve decided)\s+(to\s+use\s+|to\s+)?([^.\n]+)`)

// conventionMarkerPattern matches lines that call out a project convention
// or pattern ("convention:", "pattern:", "always use X", "never do Y").
var conventionMarkerPattern = regexp.MustCompile(`(?i)^((convention|pattern|rule)\s*:\s*.+|(always|never)\s+.+)`)

// codeFenceLangToPrimaryLanguage maps a fenced code block's language tag to
// the canonical language name. A tag missing from this table is stored with
// its first letter upper-cased; languageKeywords is not consulted for tags.
var codeFenceLangToPrimaryLanguage = map[string]string{
	"go":         "Go",
	"golang":     "Go",
	"py":         "Python",
	"python":     "Python",
	"ts":         "TypeScript",
	"typescript": "TypeScript",
	"js":         "JavaScript",
	"javascript": "JavaScript",
	"rust":       "Rust",
	"rs":         "Rust",
	"java":       "Java",
}

// languageKeywords maps a lowercase keyword to the canonical language name
// stored in working context.
var languageKeywords = map[string]string{
	"golang":     "Go",
	"go":         "Go",
	"python":     "Python",
	"typescript": "TypeScript",
	"javascript": "JavaScript",
	"rust":       "Rust",
	"java":       "Java",
}

// frameworkKeywords maps a lowercase keyword to the canonical framework name.
var frameworkKeywords = map[string]string{
	"react":    "React",
	"next.js":  "Next.js",
	"nextjs":   "Next.js",
	"django":   "Django",
	"flask":    "Flask",
	"gin":      "Gin",
	"fiber":    "Fiber",
	"express":  "Express",
	"rails":    "Rails",
}

// Processor extracts WorkingContext candidates from assistant text.
type Processor struct{}

// NewProcessor creates a stateless response processor.
func NewProcessor() *Processor {
	return &Processor{}
}

// ProcessAsync runs Process in its own goroutine and never surfaces a
// result or an error to the caller: extraction is advisory, and a failure
// here must never affect the conversation it was derived from.
func (p *Processor) ProcessAsync(wc *memory.WorkingContext, text string) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logging.Get(logging.CategoryContext).Warn("response processor panic recovered: %v", r)
			}
		}()
		p.Process(wc, text)
	}()
}

// Process runs every extractor against text synchronously, writing any
// matches into wc with source=inferred. Exported alongside ProcessAsync so
// callers that already run off the hot path (tests, batch reprocessing) can
// skip the goroutine hop.
func (p *Processor) Process(wc *memory.WorkingContext, text string) {
	if text == "" {
		return
	}

	if file := firstMatch(filePathPattern, text); file != "" {
		wc.Put(types.KeyActiveFile, strings.Trim(file, "`"), memory.PutOptions{Source: types.SourceInferred})
		logging.Get(logging.CategoryContext).Debug("inferred active_file: %s", file)
	}

	lower := strings.ToLower(text)

	// A fenced code block's language tag is the strongest primary_language
	// signal; fall back to a bare keyword mention if no fence is present.
	if m := codeFenceLangPattern.FindStringSubmatch(text); len(m) == 2 {
		tag := strings.ToLower(m[1])
		lang, ok := codeFenceLangToPrimaryLanguage[tag]
		if !ok {
			lang = strings.ToUpper(tag[:1]) + tag[1:]
		}
		wc.Put(types.KeyPrimaryLanguage, lang, memory.PutOptions{Source: types.SourceInferred})
	} else {
		for keyword, lang := range languageKeywords {
			if strings.Contains(lower, keyword) {
				wc.Put(types.KeyPrimaryLanguage, lang, memory.PutOptions{Source: types.SourceInferred})
				break
			}
		}
	}

	for keyword, fw := range frameworkKeywords {
		if strings.Contains(lower, keyword) {
			wc.Put(types.KeyFramework, fw, memory.PutOptions{Source: types.SourceInferred})
			break
		}
	}

	if m := decisionPattern.FindStringSubmatch(text); len(m) == 5 {
		intent := strings.TrimSpace(m[4])
		if intent != "" {
			wc.Put(types.KeyUserIntent, intent, memory.PutOptions{Source: types.SourceInferred})
			logging.Get(logging.CategoryContext).Debug("inferred user_intent: %s", intent)
		}
	}

	if patterns := matchingLines(conventionMarkerPattern, text); len(patterns) > 0 {
		wc.Put(types.KeyDiscoveredPatterns, patterns, memory.PutOptions{Source: types.SourceInferred})
		logging.Get(logging.CategoryContext).Debug("inferred %d discovered_patterns line(s)", len(patterns))
	}

	if errs := matchingLines(errorLinePattern, text); len(errs) > 0 {
		wc.Put(types.KeyActiveErrors, errs, memory.PutOptions{Source: types.SourceInferred})
		logging.Get(logging.CategoryContext).Debug("inferred %d active_errors line(s)", len(errs))
	}

	if questions := matchingLines(questionPattern, text); len(questions) > 0 {
		wc.Put(types.KeyPendingQuestions, questions, memory.PutOptions{Source: types.SourceInferred})
	}
}

func firstMatch(re *regexp.Regexp, text string) string {
	return re.FindString(text)
}

func matchingLines(re *regexp.Regexp, text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && re.MatchString(line) {
			out = append(out, line)
		}
	}
	return out
}
