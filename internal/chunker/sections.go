package chunker

import (
	"regexp"
	"sort"
	"strings"
)

// Section types that fall outside the keyword taxonomy.
const (
	SectionHeader     = "header"      // contact block before the first detected header
	SectionOther      = "other"       // matched header that normalizes to no known type
	SectionFullResume = "full_resume" // no headers detected anywhere
)

// sectionKeywords maps each canonical section type to the header phrases
// that announce it in real resumes.
var sectionKeywords = map[string][]string{
	"summary": {
		"summary", "objective", "profile", "about", "about me",
		"professional summary", "career objective", "personal statement",
		"executive summary", "career summary",
	},
	"experience": {
		"experience", "work experience", "employment", "professional experience",
		"work history", "employment history", "career history",
		"relevant experience", "professional background",
	},
	"education": {
		"education", "academic", "academic background", "qualifications",
		"educational background", "academic qualifications",
	},
	"skills": {
		"skills", "technical skills", "core competencies", "competencies",
		"key skills", "areas of expertise", "expertise", "technologies",
		"technical competencies", "proficiencies", "tools",
	},
	"projects": {
		"projects", "personal projects", "key projects", "selected projects",
		"notable projects", "academic projects",
	},
	"certifications": {
		"certifications", "certificates", "licenses", "credentials",
		"professional certifications", "licenses and certifications",
		"certifications and licenses",
	},
	"awards": {
		"awards", "achievements", "honors", "accomplishments",
		"awards and honors", "recognition",
	},
	"languages": {
		"languages", "language skills", "language proficiency",
	},
	"references": {
		"references", "professional references",
	},
}

type keywordEntry struct {
	keyword     string
	sectionType string
}

var (
	// allKeywords is sorted by descending keyword length so multi-word
	// phrases win over their substrings, both in the alternation pattern
	// and in the containment fallback. Ties break lexicographically, which
	// makes the fallback fully deterministic.
	allKeywords   []keywordEntry
	keywordToType map[string]string

	// headerRe matches a line that consists of exactly one keyword,
	// optionally followed by a colon/dash/em-dash and trailing whitespace.
	headerRe *regexp.Regexp
)

func init() {
	keywordToType = make(map[string]string)
	for sectionType, keywords := range sectionKeywords {
		for _, kw := range keywords {
			allKeywords = append(allKeywords, keywordEntry{keyword: kw, sectionType: sectionType})
			keywordToType[kw] = sectionType
		}
	}
	sort.Slice(allKeywords, func(i, j int) bool {
		a, b := allKeywords[i].keyword, allKeywords[j].keyword
		if len(a) != len(b) {
			return len(a) > len(b)
		}
		return a < b
	})

	alternatives := make([]string, len(allKeywords))
	for i, e := range allKeywords {
		alternatives[i] = regexp.QuoteMeta(e.keyword)
	}
	headerRe = regexp.MustCompile(`(?im)^[ \t]*(` + strings.Join(alternatives, "|") + `)[ \t]*[:\-—]*[ \t\r]*$`)
}

// SectionSpan is a labeled contiguous span of resume text, produced by
// DetectSections. Text is trimmed and non-empty by construction.
type SectionSpan struct {
	Type string
	Text string
}

// DetectSections scans resume text for header lines and returns the labeled
// spans between them, in document order.
//
// If no header line matches, the whole trimmed text comes back as a single
// "full_resume" span. Text before the first header (usually the contact
// block) becomes a "header" span. Headers with empty bodies are dropped.
func DetectSections(text string) []SectionSpan {
	matches := headerRe.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return []SectionSpan{{Type: SectionFullResume, Text: strings.TrimSpace(text)}}
	}

	var spans []SectionSpan

	if pre := strings.TrimSpace(text[:matches[0][0]]); pre != "" {
		spans = append(spans, SectionSpan{Type: SectionHeader, Text: pre})
	}

	for i, m := range matches {
		sectionType := normalizeSectionType(text[m[2]:m[3]])

		bodyStart := m[1]
		bodyEnd := len(text)
		if i+1 < len(matches) {
			bodyEnd = matches[i+1][0]
		}

		body := strings.TrimSpace(text[bodyStart:bodyEnd])
		if body == "" {
			continue
		}
		spans = append(spans, SectionSpan{Type: sectionType, Text: body})
	}

	return spans
}

// normalizeSectionType maps a matched header string to a canonical section
// type: exact keyword lookup first, then substring containment against the
// keyword table (longest keyword first), then "other".
func normalizeSectionType(header string) string {
	cleaned := strings.ToLower(strings.TrimSpace(header))
	cleaned = strings.TrimRight(cleaned, ":-— \t")

	if t, ok := keywordToType[cleaned]; ok {
		return t
	}
	for _, e := range allKeywords {
		if strings.Contains(cleaned, e.keyword) || strings.Contains(e.keyword, cleaned) {
			return e.sectionType
		}
	}
	return SectionOther
}
