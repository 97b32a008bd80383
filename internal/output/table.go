// Package output renders terminal tables for npmtrack. Rendering uses ASCII
// layout with ANSI colors when stdout is a TTY and NO_COLOR is unset.
package output

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/registrykit/npmtrack/internal/store"
)

const (
	colorReset = "\033[0m"
	colorGreen = "\033[32m"
	colorGray  = "\033[90m"
)

// IsColorEnabled returns true if ANSI color codes should be emitted.
// It checks that os.Stdout is a TTY and that the NO_COLOR env var is not set.
func IsColorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

// RenderPackageTable renders the tracked packages with their categories and
// active status. categories maps package name to its category names.
func RenderPackageTable(packages []*store.Package, categories map[string][]string) string {
	if len(packages) == 0 {
		return "No packages found.\n"
	}

	sorted := make([]*store.Package, len(packages))
	copy(sorted, packages)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%-32s %-12s %-14s %-10s %s\n",
		"Package", "Created", "Last Publish", "Status", "Categories"))
	sb.WriteString(strings.Repeat("─", 92))
	sb.WriteString("\n")

	for _, pkg := range sorted {
		status := "inactive"
		statusColor := colorGray
		if pkg.IsActive {
			status = "active"
			statusColor = colorGreen
		}

		cats := "—"
		if names := categories[pkg.Name]; len(names) > 0 {
			cats = strings.Join(names, ", ")
		}

		if IsColorEnabled() {
			sb.WriteString(fmt.Sprintf("%-32s %-12s %-14s %s%-10s%s %s\n",
				truncate(pkg.Name, 32),
				pkg.CreationDate.Format("2006-01-02"),
				formatRelativeTime(pkg.LastPublishDate),
				statusColor, status, colorReset,
				cats))
		} else {
			sb.WriteString(fmt.Sprintf("%-32s %-12s %-14s %-10s %s\n",
				truncate(pkg.Name, 32),
				pkg.CreationDate.Format("2006-01-02"),
				formatRelativeTime(pkg.LastPublishDate),
				status,
				cats))
		}
	}

	return sb.String()
}

// formatRelativeTime converts a timestamp to relative time (e.g., "2 days ago").
func formatRelativeTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}

	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", mins)
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	case diff < 7*24*time.Hour:
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	case diff < 30*24*time.Hour:
		weeks := int(diff.Hours() / 24 / 7)
		if weeks == 1 {
			return "1 week ago"
		}
		return fmt.Sprintf("%d weeks ago", weeks)
	case diff < 365*24*time.Hour:
		months := int(diff.Hours() / 24 / 30)
		if months == 1 {
			return "1 month ago"
		}
		return fmt.Sprintf("%d months ago", months)
	default:
		years := int(diff.Hours() / 24 / 365)
		if years == 1 {
			return "1 year ago"
		}
		return fmt.Sprintf("%d years ago", years)
	}
}

// truncate truncates a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
