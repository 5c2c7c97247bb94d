package templates

import (
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/dustin/go-humanize"
)

//go:embed *.html partials/*.html
var FS embed.FS

// Parse returns the parsed templates with custom functions
func Parse() (*template.Template, error) {
	funcMap := template.FuncMap{
		"formatNumber":  formatNumber,
		"formatMinutes": formatMinutes,
		"formatKg":      formatKg,
		"timeAgo":       timeAgo,
	}

	return template.New("").Funcs(funcMap).ParseFS(FS, "*.html", "partials/*.html")
}

func formatNumber(n int) string {
	return humanize.Comma(int64(n))
}

func formatMinutes(m int) string {
	if m < 60 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh%02dm", m/60, m%60)
}

func formatKg(kg float64) string {
	return humanize.FormatFloat("#,###.##", kg) + " kg"
}

func timeAgo(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.Time(t)
}
