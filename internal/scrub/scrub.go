// Package scrub filters sensitive data out of project context before it
// reaches any provider. It runs as a pure pre-filter: the orchestrator
// only ever sees the scrubbed text.
package scrub

import (
	"regexp"
)

// Finding records one pattern's hit count in the input.
type Finding struct {
	Pattern string `json:"pattern"`
	Count   int    `json:"count"`
}

// Report summarises what was removed from a context string.
type Report struct {
	Findings []Finding `json:"findings,omitempty"`
	Total    int       `json:"total"`
}

// Clean reports whether nothing was scrubbed.
func (r Report) Clean() bool { return r.Total == 0 }

type rule struct {
	name string
	re   *regexp.Regexp
}

var rules = []rule{
	{"anthropic_api_key", regexp.MustCompile(`sk-ant-[a-zA-Z0-9-]{40,}`)},
	{"openai_api_key", regexp.MustCompile(`sk-[A-Za-z0-9]{20,}`)},
	{"google_api_key", regexp.MustCompile(`AIza[a-zA-Z0-9_-]{35}`)},
	{"github_token", regexp.MustCompile(`gh[opus]_[A-Za-z0-9]{36}`)},
	{"aws_access_key", regexp.MustCompile(`AKIA[0-9A-Z]{16}`)},
	{"aws_secret_key", regexp.MustCompile(`(?i)aws[_-]?secret[_-]?access[_-]?key["'\s:=]+[A-Za-z0-9/+=]{40}`)},
	{"slack_token", regexp.MustCompile(`xox[baprs]-[0-9a-zA-Z-]{10,}`)},
	{"bearer_token", regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9._-]{20,}`)},
	{"private_key_block", regexp.MustCompile(`(?s)-----BEGIN [A-Z ]*PRIVATE KEY-----.*?-----END [A-Z ]*PRIVATE KEY-----`)},
	{"password_assignment", regexp.MustCompile(`(?i)password["'\s:=]+[^\s"']{8,}`)},
	{"email_address", regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)},
}

const placeholder = "[SCRUBBED]"

// Scrub removes sensitive patterns from context, returning the cleaned
// text and a report of what was replaced. An empty context yields an
// empty report.
func Scrub(context string) (string, Report) {
	if context == "" {
		return "", Report{}
	}

	var report Report
	out := context
	for _, r := range rules {
		matches := r.re.FindAllStringIndex(out, -1)
		if len(matches) == 0 {
			continue
		}
		out = r.re.ReplaceAllString(out, placeholder)
		report.Findings = append(report.Findings, Finding{Pattern: r.name, Count: len(matches)})
		report.Total += len(matches)
	}
	return out, report
}
