package lingva

import (
	"regexp"
	"slices"
	"strings"
)

var (
	cFormat = regexp.MustCompile(`%%|%(?:\(\w+\))?[#0 +\-]*(?:\d+|\*)?(?:\.(?:\d+|\*))?[hlL]?[diouxXeEfFgGcrsa]`)

	braceFormat = regexp.MustCompile(`\{\{|\{[A-Za-z0-9_]*(?:\.[A-Za-z_]\w*|\[[^\]{}]*\])*(?:![rsa])?(?::[^{}]*)?\}`)
)

// hasCFormat reports whether text holds a printf style directive.
func hasCFormat(text string) bool {
	for _, m := range cFormat.FindAllString(text, -1) {
		if m != "%%" {
			return true
		}
	}
	return false
}

// hasBraceFormat reports whether text holds a {name} placeholder.
// ${name} is template interpolation, not a format placeholder.
func hasBraceFormat(text string) bool {
	for _, loc := range braceFormat.FindAllStringIndex(text, -1) {
		if text[loc[0]:loc[1]] == "{{" {
			continue
		}
		if loc[0] > 0 && text[loc[0]-1] == '$' {
			continue
		}
		return true
	}
	return false
}

func checkFormat(msg *Message, flag string, detect func(string) bool) {
	if slices.Contains(msg.Flags, flag) || slices.Contains(msg.Flags, "no-"+flag) {
		return
	}
	if detect(msg.ID) || (msg.Plural != "" && detect(msg.Plural)) {
		msg.Flags = append(msg.Flags, flag)
	}
}

// CheckFormat adds format flags for the placeholders used in the
// message id and plural. Flags already set, or negated with a "no-"
// flag, are left alone.
func CheckFormat(msg *Message) {
	checkFormat(msg, "c-format", hasCFormat)
	checkFormat(msg, "python-brace-format", hasBraceFormat)
}

// ParseCommentFlags splits a leading "[flag,flag]" list off a comment.
func ParseCommentFlags(comment string) (string, []string) {
	if !strings.HasPrefix(comment, "[") {
		return comment, nil
	}
	end := strings.IndexByte(comment, ']')
	if end < 0 {
		return comment, nil
	}
	var flags []string
	for _, flag := range strings.Split(comment[1:end], ",") {
		flag = strings.TrimSpace(flag)
		if flag != "" && !slices.Contains(flags, flag) {
			flags = append(flags, flag)
		}
	}
	return strings.TrimSpace(comment[end+1:]), flags
}
