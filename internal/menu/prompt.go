package menu

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/manifoldco/promptui"
	runewidth "github.com/mattn/go-runewidth"
)

var numberPattern = regexp.MustCompile(`^(\d+)\.\s*(.*)$`)

// errInvalidSelection is returned when the prompt yields an index outside the options.
var errInvalidSelection = errors.New("invalid selection")

func (m *Menu) promptUserSelection(label string, options []MenuOption) (int, error) {
	items, indexes := formatMenuItems(options)
	if len(items) == 0 {
		return -1, errInvalidSelection
	}

	prompt := promptui.Select{
		Label: label,
		Items: items,
		Size:  10,
		Templates: &promptui.SelectTemplates{
			Label:    "{{ . }}:",
			Active:   "▶ {{ . | cyan }}",
			Inactive: "  {{ . }}",
			Selected: "✅ {{ . | green }}",
			Help:     "{{ \"Navigate:\" | faint }} {{ .NextKey }} {{ .PrevKey }} {{ \"|\" | faint }} {{ \"Exit:\" | faint }} Ctrl + C",
		},
		Stdin:  m.stdin,
		Stdout: m.stdout,
	}

	index, _, err := prompt.Run()
	if err != nil {
		return -1, err
	}

	return selectedIndex(index, indexes)
}

func selectedIndex(index int, indexes []int) (int, error) {
	if index >= 0 && index < len(indexes) {
		return indexes[index], nil
	}
	return -1, errInvalidSelection
}

func formatMenuItems(options []MenuOption) ([]string, []int) {
	entries := buildMenuEntries(options)
	if len(entries) == 0 {
		return nil, nil
	}

	maxPrefixWidth := 0
	maxNumberWidth := 0
	maxTextWidth := 0
	for _, entry := range entries {
		if width := runewidth.StringWidth(entry.prefix); width > maxPrefixWidth {
			maxPrefixWidth = width
		}
		if len(entry.numberPart) > maxNumberWidth {
			maxNumberWidth = len(entry.numberPart)
		}
		if width := runewidth.StringWidth(entry.textPart); width > maxTextWidth {
			maxTextWidth = width
		}
	}

	items := make([]string, 0, len(entries))
	indexes := make([]int, 0, len(entries))

	for _, entry := range entries {
		prefix := runewidth.FillRight(entry.prefix, maxPrefixWidth)

		numberColumn := ""
		if entry.numberPart != "" {
			numberColumn = fmt.Sprintf("%*s. ", maxNumberWidth, entry.numberPart)
		} else if maxNumberWidth > 0 {
			numberColumn = strings.Repeat(" ", maxNumberWidth+2)
		}

		text := entry.textPart
		if entry.description != "" {
			text = runewidth.FillRight(text, maxTextWidth) + "  " + entry.description
		}

		items = append(items, fmt.Sprintf("%s %s%s", prefix, numberColumn, text))
		indexes = append(indexes, entry.originalIndex)
	}

	return items, indexes
}

type menuEntry struct {
	prefix        string
	numberPart    string
	textPart      string
	description   string
	originalIndex int
}

func buildMenuEntries(options []MenuOption) []menuEntry {
	entries := make([]menuEntry, 0, len(options))

	for idx, option := range options {
		if !option.Enabled {
			continue
		}

		numberPart := ""
		textPart := option.Label
		if matches := numberPattern.FindStringSubmatch(option.Label); len(matches) == 3 {
			numberPart = matches[1]
			textPart = matches[2]
		}

		entries = append(entries, menuEntry{
			prefix:        statusPrefix(option.Color),
			numberPart:    numberPart,
			textPart:      textPart,
			description:   option.Description,
			originalIndex: idx,
		})
	}

	return entries
}

func statusPrefix(color string) string {
	switch color {
	case "red":
		return "🔴"
	case "green":
		return "🟢"
	case "yellow":
		return "🟡"
	case "cyan":
		return "🔵"
	default:
		return "⚪"
	}
}

// validateVersionID accepts a version id or one of the latest aliases.
func validateVersionID(input string) error {
	input = strings.TrimSpace(input)
	if input == "" {
		return errors.New("version must not be empty")
	}
	if strings.ContainsAny(input, `/\`) || strings.Contains(input, "..") {
		return errors.New("version must not contain path separators")
	}
	return nil
}

func (m *Menu) promptVersion() (string, error) {
	prompt := promptui.Prompt{
		Label:    "Version to download (id, release or snapshot)",
		Default:  "release",
		Validate: validateVersionID,
		Stdin:    m.stdin,
		Stdout:   m.stdout,
	}

	version, err := prompt.Run()
	return strings.TrimSpace(version), err
}

func (m *Menu) waitForUserInput(message string) {
	prompt := promptui.Prompt{Label: message, Stdin: m.stdin, Stdout: m.stdout}
	_, _ = prompt.Run()
}
