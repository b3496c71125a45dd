package changelog

import (
	"fmt"
	"regexp"
	"strings"
)

var issueRefPattern = regexp.MustCompile(`#(\d+)`)

// ProcessSentence strips a leading release tag and rewrites #NNN issue
// references as RST links into the project tracker.
func ProcessSentence(message string) string {
	message = StripRelease(message)
	issueURL := ProjectURL + "/issues"
	return issueRefPattern.ReplaceAllString(message, fmt.Sprintf("`#$1 <%s/$1>`__", issueURL))
}

// ExtendTarget inserts line immediately after the ".. target" anchor
// comment in source. Targets carrying a trailing newline anchor the
// insertion past the blank line that follows the comment.
func ExtendTarget(target, line, source string) (string, error) {
	from := ".. " + target + "\n"
	if !strings.Contains(source, from) {
		return "", fmt.Errorf("failed to find target [%s] in source", target)
	}
	return strings.Replace(source, from, from+line+"\n", 1), nil
}

const wrapWidth = 160

// Wrap formats a changelog message as an RST bullet: the first line gets
// a "* " marker and every wrapped or continuation line a two-space indent.
func Wrap(message string) string {
	message = ProcessSentence(message)
	lines := strings.Split(message, "\n")
	out := wrapLine(lines[0], "* ", "  ")
	for _, line := range lines[1:] {
		out += "\n" + wrapLine(line, "  ", "  ")
	}
	return out
}

// wrapLine greedily wraps a single logical line to wrapWidth columns.
func wrapLine(line, initialIndent, subsequentIndent string) string {
	words := strings.Fields(line)
	if len(words) == 0 {
		return ""
	}
	var b strings.Builder
	current := initialIndent + words[0]
	for _, word := range words[1:] {
		if len(current)+1+len(word) > wrapWidth {
			b.WriteString(current)
			b.WriteString("\n")
			current = subsequentIndent + word
			continue
		}
		current += " " + word
	}
	b.WriteString(current)
	return b.String()
}
