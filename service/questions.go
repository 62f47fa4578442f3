package service

import (
	"encoding/json"
	"regexp"
	"strings"

	"interview-coach/domain"
)

var (
	questionArrayPattern = regexp.MustCompile(`\[\s*"[\s\S]*?"\s*(?:,\s*"[\s\S]*?"\s*)*\]`)
	listNumberPrefix     = regexp.MustCompile(`^\d+[.)]\s*`)
)

// ParseQuestions extracts interview questions from model output that is
// supposed to be a JSON array of strings but often is not. It tries a strict
// parse, then the first array-looking span, then one question per line.
func ParseQuestions(raw string) ([]string, error) {
	var questions []string
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &questions); err == nil && len(questions) > 0 {
		return questions, nil
	}

	if match := questionArrayPattern.FindString(raw); match != "" {
		questions = nil
		if err := json.Unmarshal([]byte(match), &questions); err == nil && len(questions) > 0 {
			return questions, nil
		}
	}

	questions = questions[:0]
	for _, line := range strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.ContainsAny(line, "[]") || strings.Contains(line, "Thank you") {
			continue
		}
		line = strings.TrimSpace(listNumberPrefix.ReplaceAllString(line, ""))
		if line != "" {
			questions = append(questions, line)
		}
	}
	if len(questions) == 0 {
		return nil, &domain.MalformedResponseError{Raw: raw}
	}
	return questions, nil
}
