package backlog

import (
	"regexp"
	"strconv"
	"strings"
)

// IndexSeparator joins a 1-based position to the prompt text.
const IndexSeparator = "→"

var indexPrefix = regexp.MustCompile(`^\d+` + IndexSeparator + `\s*`)

type sequenceFormat struct{}

func (sequenceFormat) kind() Kind { return KindSequence }

func (sequenceFormat) pending(data []byte) ([]string, error) {
	return parseSequence(data), nil
}

func (sequenceFormat) markDelivered(data []byte, prompt string) ([]byte, bool, error) {
	prompts := parseSequence(data)
	target := strings.TrimSpace(prompt)
	for i, p := range prompts {
		if p != target {
			continue
		}
		remaining := make([]string, 0, len(prompts)-1)
		remaining = append(remaining, prompts[:i]...)
		remaining = append(remaining, prompts[i+1:]...)
		return renderSequence(remaining), true, nil
	}
	return nil, false, nil
}

// Delivered entries leave the file, so the count lives in the delivered log.
func (sequenceFormat) deliveredCount([]byte) (int, error) { return 0, nil }

func parseSequence(data []byte) []string {
	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		t := strings.TrimSpace(line)
		if t == "" {
			continue
		}
		t = strings.TrimSpace(indexPrefix.ReplaceAllString(t, ""))
		if t == "" {
			continue
		}
		out = append(out, t)
	}
	return out
}

func renderSequence(prompts []string) []byte {
	var b strings.Builder
	for i, p := range prompts {
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString(IndexSeparator)
		b.WriteString(p)
		b.WriteByte('\n')
	}
	return []byte(b.String())
}
