package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"cutroom/internal/render"
)

var titleCaser = cases.Title(language.Und)

// statusLabel converts a wire status into a display label.
func statusLabel(status render.Status) string {
	return titleCaser.String(strings.ReplaceAll(string(status), "-", " "))
}

func formatProgress(progress float64) string {
	return strconv.FormatFloat(progress*100, 'f', 1, 64) + "%"
}

func formatFrames(current, total int) string {
	if total <= 0 {
		return "-"
	}
	return fmt.Sprintf("%d/%d", current, total)
}

func formatETA(seconds float64) string {
	if seconds <= 0 {
		return "-"
	}
	return (time.Duration(seconds * float64(time.Second))).Round(100 * time.Millisecond).String()
}

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Local().Format("2006-01-02 15:04:05")
}

func isInteractive(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
