package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"

	"centrifuge/internal/placement"
	"centrifuge/internal/reconcile"
	"centrifuge/internal/textutil"
	"centrifuge/internal/validation"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
)

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func paint(line, color string, colorize bool) string {
	if !colorize || color == "" {
		return line
	}
	return color + line + ansiReset
}

func printValidate(out io.Writer, report reconcile.Report, showViolations, colorize bool) {
	for _, entry := range report.Entries {
		n := len(entry.Violations)
		line := fmt.Sprintf("%d violations: %s", n, entry.Path)
		fmt.Fprintln(out, paint(line, textutil.Ternary(n == 0, ansiGreen, ansiRed), colorize))
		if showViolations {
			printViolations(out, "  ", entry.Violations)
		}
	}
}

func printFix(out io.Writer, report reconcile.Report, showViolations, colorize bool) {
	for _, group := range report.Discs {
		if group.Skipped != "" {
			fmt.Fprintln(out, paint(fmt.Sprintf("discs not assembled into %s: %s", group.Container, group.Skipped), ansiYellow, colorize))
			continue
		}
		fmt.Fprintf(out, "%s -> %s\n", strings.Join(group.Discs, ", "), group.Container)
	}
	for _, entry := range report.Entries {
		before, after := len(entry.Before), len(entry.Violations)
		color := ansiYellow
		switch {
		case after == 0:
			color = ansiGreen
		case after >= before:
			color = ansiRed
		}
		line := fmt.Sprintf("%d -> %d violations: %s", before, after, entry.Path)
		fmt.Fprintln(out, paint(line, color, colorize))
		if entry.Destination != "" && entry.Destination != entry.Path {
			fmt.Fprintf(out, "  %s -> %s\n", entry.Path, entry.Destination)
		}
		if entry.Decision != "" {
			fmt.Fprintf(out, "  decision: %s\n", entry.Decision)
		}
		if entry.DuplicateOf != "" {
			fmt.Fprintf(out, "  duplicate of: %s\n", entry.DuplicateOf)
		}
		for _, problem := range entry.Problems {
			fmt.Fprintln(out, paint("  problem: "+problem, ansiRed, colorize))
		}
		if showViolations {
			fmt.Fprintln(out, "  Before:")
			printViolations(out, "    ", entry.Before)
			fmt.Fprintln(out, "  After:")
			printViolations(out, "    ", entry.Violations)
		}
	}
	counts := report.Counts()
	if len(counts) > 0 {
		fmt.Fprintf(out, "Placed: %d  Skipped: %d  Duplicates: %d  Invalid: %d  Review: %d  Left: %d\n",
			counts[placement.DecisionPlace], counts[placement.DecisionSkip], counts[placement.DecisionDuplicate],
			counts[placement.DecisionInvalid], counts[placement.DecisionReview], counts[placement.DecisionLeave])
	}
}

func printViolations(out io.Writer, indent string, violations []validation.Violation) {
	for _, v := range violations {
		fmt.Fprintf(out, "%s- %s\n", indent, v)
	}
}

func printReleases(out io.Writer, report reconcile.Report, asTable bool) {
	if asTable {
		headers := []string{"Artist", "Year", "Title", "Category", "Source", "Encoder", "Tracks", "Path"}
		rows := make([][]string, 0, len(report.Entries))
		for _, entry := range report.Entries {
			s := entry.Release
			if s == nil {
				continue
			}
			rows = append(rows, []string{
				s.Artist, s.Year, s.Title, string(s.Category), string(s.Source), s.Encoder,
				strconv.Itoa(s.Tracks), entry.Path,
			})
		}
		aligns := []columnAlignment{alignLeft, alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft}
		fmt.Fprintln(out, renderTable(headers, rows, aligns))
		fmt.Fprintf(out, "Total: %d\n", len(report.Entries))
		return
	}
	fmt.Fprintln(out, "Found release directories:")
	for _, entry := range report.Entries {
		fmt.Fprintln(out, entry.Path)
	}
	fmt.Fprintf(out, "Total: %d\n", len(report.Entries))
}
