package output

import (
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
)

const (
	compactThreshold = 100 // Terminal width below which compact mode kicks in
	defaultWidth     = 120
)

// terminalWidth returns the width to lay tables out for. COLUMNS wins;
// output that is not a terminal gets the default width.
func terminalWidth() int {
	if cols := strings.TrimSpace(os.Getenv("COLUMNS")); cols != "" {
		if width, err := strconv.Atoi(cols); err == nil && width > 0 {
			return width
		}
	}

	fd := os.Stdout.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		return defaultWidth
	}
	if width, ok := ttyWidth(); ok {
		return width
	}
	return defaultWidth
}
