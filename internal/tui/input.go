package tui

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// maxInputLen is the default rune limit for form fields.
const maxInputLen = 200

// editRune applies a keystroke to text: rune-aware backspace, or a single
// printable character while text is shorter than limit. Other keys leave
// text unchanged.
func editRune(text, key string, limit int) string {
	switch key {
	case "backspace":
		if len(text) > 0 {
			runes := []rune(text)
			return string(runes[:len(runes)-1])
		}
		return text
	case "space":
		key = " "
	}
	if utf8.RuneCountInString(key) != 1 {
		return text
	}
	if limit > 0 && utf8.RuneCountInString(text) >= limit {
		return text
	}
	return text + key
}

// truncateToHeight limits output to maxLines newline-delimited lines.
// Returns the original string if it fits or maxLines is <= 0.
func truncateToHeight(s string, maxLines int) string {
	if maxLines <= 0 {
		return s
	}
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			n++
			if n >= maxLines {
				return s[:i+1]
			}
		}
	}
	return s
}

// textField is one labelled line of a form.
type textField struct {
	label       string
	value       string
	placeholder string
	secret      bool
	limit       int
}

func (f *textField) edit(key string) {
	limit := f.limit
	if limit == 0 {
		limit = maxInputLen
	}
	f.value = editRune(f.value, key, limit)
}

func (f textField) render(focused bool, labelWidth int) string {
	cursor := "  "
	label := labelStyle.Render(fmt.Sprintf("%-*s", labelWidth, f.label))
	if focused {
		cursor = accentStyle.Render("> ")
		label = selectedStyle.Render(fmt.Sprintf("%-*s", labelWidth, f.label))
	}
	value := f.value
	if f.secret {
		value = strings.Repeat("•", utf8.RuneCountInString(value))
	}
	switch {
	case value == "" && !focused:
		value = inputPlaceholderStyle.Render(f.placeholder)
	case focused:
		value = normalStyle.Render(value) + accentStyle.Render("█")
	default:
		value = normalStyle.Render(value)
	}
	return cursor + label + "  " + value
}

// form is an ordered set of text fields with one focused.
type form struct {
	fields []textField
	focus  int
}

func (f *form) next() { f.focus = (f.focus + 1) % len(f.fields) }
func (f *form) prev() { f.focus = (f.focus - 1 + len(f.fields)) % len(f.fields) }

func (f *form) value(i int) string { return strings.TrimSpace(f.fields[i].value) }

// handleKey routes navigation and editing keys. It reports whether the key
// was consumed.
func (f *form) handleKey(key string) bool {
	switch key {
	case "tab", "down":
		f.next()
	case "shift+tab", "up":
		f.prev()
	default:
		before := f.fields[f.focus].value
		f.fields[f.focus].edit(key)
		return before != f.fields[f.focus].value || key == "backspace"
	}
	return true
}

func (f form) View() string {
	width := 0
	for _, fl := range f.fields {
		if w := utf8.RuneCountInString(fl.label); w > width {
			width = w
		}
	}
	var b strings.Builder
	for i, fl := range f.fields {
		b.WriteString(fl.render(i == f.focus, width))
		b.WriteString("\n")
	}
	return b.String()
}
