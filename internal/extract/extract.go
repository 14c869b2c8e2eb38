// Package extract pulls candidate contact information out of raw resume
// text using line heuristics and regex patterns.
package extract

import (
	"regexp"
	"strings"
	"unicode"
)

// UnknownCandidate is used when no plausible name line is found.
const UnknownCandidate = "Unknown Candidate"

// CandidateInfo is the contact information detected in a resume.
type CandidateInfo struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// sectionHeaders are first lines that are resume headings, not names.
var sectionHeaders = map[string]bool{
	"summary": true, "objective": true, "experience": true, "education": true,
	"skills": true, "projects": true, "certifications": true, "references": true,
	"contact": true, "work experience": true, "professional experience": true,
	"technical skills": true, "profile": true, "about": true, "about me": true,
	"career objective": true, "qualifications": true, "achievements": true,
	"interests": true, "hobbies": true, "publications": true, "awards": true,
	"languages": true, "volunteer": true, "personal information": true,
	"personal details": true, "curriculum vitae": true, "resume": true, "cv": true,
}

var (
	emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	phoneRe = regexp.MustCompile(`[+]?[\d\s\-().]{7,20}`)
)

// CandidateInfoFromText extracts name, email, and phone from resume text.
// Missing fields come back empty; the name falls back to UnknownCandidate.
func CandidateInfoFromText(text string) CandidateInfo {
	return CandidateInfo{
		Name:  extractName(text),
		Email: extractEmail(text),
		Phone: extractPhone(text),
	}
}

// extractName takes the first non-empty line as the candidate name unless it
// looks like a section heading or has an implausible length.
func extractName(text string) string {
	for _, line := range strings.Split(text, "\n") {
		stripped := strings.TrimSpace(line)
		if stripped == "" {
			continue
		}
		if len(stripped) < 2 || len(stripped) > 50 {
			return UnknownCandidate
		}
		if sectionHeaders[strings.ToLower(stripped)] {
			return UnknownCandidate
		}
		return stripped
	}
	return UnknownCandidate
}

func extractEmail(text string) string {
	return emailRe.FindString(text)
}

// extractPhone returns the first phone-like match containing at least 7
// digits, filtering out date ranges and stray punctuation runs.
func extractPhone(text string) string {
	for _, match := range phoneRe.FindAllString(text, -1) {
		candidate := strings.TrimSpace(match)
		digits := 0
		for _, r := range candidate {
			if unicode.IsDigit(r) {
				digits++
			}
		}
		if digits >= 7 {
			return candidate
		}
	}
	return ""
}
