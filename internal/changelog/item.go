package changelog

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/galaxyproject/galaxy-release-util/internal/version"
)

// HistoryTemplate heads every package HISTORY.rst file.
const HistoryTemplate = `History
-------

.. to_doc

`

// FirstReleaseText is the changelog body used for a package's first release.
const FirstReleaseText = "First release"

// NoChangesText is the changelog body used when a package has no commits
// since its last release.
const NoChangesText = "No recorded changes since last release"

// Item is one release section of a package HISTORY.rst file. Changes hold
// preformatted RST lines: bullets, kind subsection headers, or raw
// paragraph lines. A missing date marks an unreleased dev section.
type Item struct {
	Version version.Version
	Date    string
	Changes []string
}

// IsEmptyDevRelease reports whether the item is a dev release section with
// no recorded changes.
func (item Item) IsEmptyDevRelease() bool {
	return item.Version.IsDev() && len(item.Changes) == 0
}

// Time parses the item's release date.
func (item Item) Time() (time.Time, error) {
	if item.Date == "" {
		return time.Time{}, fmt.Errorf("changelog item for version %s is missing date", item.Version)
	}
	return time.Parse("2006-01-02", item.Date)
}

func (item Item) String() string {
	versionLine := item.Version.String()
	if item.Date != "" {
		versionLine = fmt.Sprintf("%s (%s)", item.Version, item.Date)
	}
	rule := strings.Repeat("-", len(versionLine))
	return fmt.Sprintf("%s\n%s\n%s\n\n%s\n", rule, versionLine, rule, strings.Join(item.Changes, "\n"))
}

// RenderHistory formats a package changelog as HISTORY.rst contents.
func RenderHistory(items []Item) string {
	sections := make([]string, len(items))
	for i, item := range items {
		sections[i] = item.String()
	}
	return HistoryTemplate + strings.Join(sections, "\n")
}

// KindHeader formats a subsection header ("Bug fixes", "Enhancements") as
// the single changes entry it is stored as.
func KindHeader(kind string) string {
	rule := strings.Repeat("=", len(kind))
	return fmt.Sprintf("\n%s\n%s\n%s\n", rule, kind, rule)
}

func isRule(line string, mark byte) bool {
	if line == "" {
		return false
	}
	for i := 0; i < len(line); i++ {
		if line[i] != mark {
			return false
		}
	}
	return true
}

// ParseHistory parses HISTORY.rst contents into release sections, in file
// order and unfiltered. Each section is an overlined-and-underlined dashed
// header holding "version (date)" or a bare version, followed by bullets,
// raw paragraph lines and "="-delimited kind subsections.
func ParseHistory(text string) ([]Item, error) {
	lines := strings.Split(text, "\n")
	var items []Item
	current := -1

	appendChange := func(change string) {
		items[current].Changes = append(items[current].Changes, change)
	}

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if isRule(line, '-') && i+2 < len(lines) && lines[i+1] != "" && isRule(lines[i+2], '-') {
			header := lines[i+1]
			versionStr, date := header, ""
			if idx := strings.Index(header, " ("); idx >= 0 {
				versionStr = header[:idx]
				date = strings.TrimSuffix(header[idx+2:], ")")
			}
			v, err := version.Parse(versionStr)
			if err != nil {
				return nil, fmt.Errorf("invalid changelog section header %q: %w", header, err)
			}
			items = append(items, Item{Version: v, Date: date})
			current = len(items) - 1
			i += 2
			continue
		}
		if current < 0 {
			// preamble: title, to_doc comment, blank lines
			continue
		}
		switch {
		case isRule(line, '=') && i+2 < len(lines) && lines[i+1] != "" && isRule(lines[i+2], '='):
			appendChange(KindHeader(lines[i+1]))
			i += 2
		case strings.HasPrefix(line, "* "):
			change := line
			for i+1 < len(lines) && strings.HasPrefix(lines[i+1], "  ") {
				change += "\n" + lines[i+1]
				i++
			}
			appendChange(change)
		case strings.TrimSpace(line) != "":
			appendChange(line)
		}
	}
	return items, nil
}

// IsNewHistory reports whether a parsed history describes a package that
// has never been released: a single undated dev section.
func IsNewHistory(items []Item) bool {
	return len(items) == 1 && items[0].Version.IsDev() && items[0].Date == ""
}

// CleanItems drops unreleased dev sections (all sections for a new
// package) and returns the remainder ordered newest first. A dated entry
// is required for every surviving section.
func CleanItems(items []Item, isNew bool) ([]Item, error) {
	var clean []Item
	for _, item := range items {
		if item.IsEmptyDevRelease() || isNew {
			continue
		}
		if item.Date == "" {
			return nil, fmt.Errorf(
				"changelog entry for non-dev version '%s' has no date but contains changes, fix this manually", item.Version)
		}
		clean = append(clean, item)
	}
	if err := sortByDate(clean); err != nil {
		return nil, err
	}
	return clean, nil
}

func sortByDate(items []Item) error {
	var sortErr error
	sort.SliceStable(items, func(i, j int) bool {
		ti, err := items[i].Time()
		if err != nil && sortErr == nil {
			sortErr = err
		}
		tj, err := items[j].Time()
		if err != nil && sortErr == nil {
			sortErr = err
		}
		return ti.After(tj)
	})
	return sortErr
}

func equalChanges(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ReconcileHistories combines a package's history from two branches after
// a merge. Sections present on both sides must agree, undated empty dev
// sections are dropped, and a fresh section for devVersion is placed on
// top.
func ReconcileHistories(name string, previous, merged []Item, devVersion version.Version) ([]Item, error) {
	combined := append(append([]Item(nil), previous...), merged...)
	sort.SliceStable(combined, func(i, j int) bool {
		return combined[j].Version.Less(combined[i].Version)
	})
	var history []Item
	for _, item := range combined {
		if len(history) > 0 && item.Version.Equal(history[len(history)-1].Version) {
			last := history[len(history)-1]
			if !equalChanges(last.Changes, item.Changes) {
				return nil, fmt.Errorf(
					"changelog differs for version %s of package %s, you have to fix this manually.\nOffending lines are %v and %v",
					item.Version, name, last.Changes, item.Changes)
			}
			continue
		}
		if item.Date == "" && len(item.Changes) == 0 {
			// unreleased dev section, reinjected below
			continue
		}
		history = append(history, item)
	}
	if err := sortByDate(history); err != nil {
		return nil, err
	}
	return append([]Item{{Version: devVersion}}, history...), nil
}
