package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/doanphungtu/tudp-rn-debugger/interfaces/go/client"
	"github.com/doanphungtu/tudp-rn-debugger/internal/domain"
	"github.com/doanphungtu/tudp-rn-debugger/pkg/shared/curl"
	"github.com/doanphungtu/tudp-rn-debugger/pkg/shared/format"
)

var (
	methodStyle = lipgloss.NewStyle().Bold(true)
	timeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6272A4"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color(format.ColorError)).Bold(true)
	dimStyle    = lipgloss.NewStyle().Faint(true)
)

func shouldUseColor(w io.Writer) bool {
	if noColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

type printer struct {
	w     io.Writer
	color bool
}

func newPrinter(w io.Writer) *printer {
	return &printer{w: w, color: shouldUseColor(w)}
}

func (p *printer) paint(s lipgloss.Style, text string) string {
	if !p.color {
		return text
	}
	return s.Render(text)
}

func (p *printer) status(r domain.Record) string {
	switch {
	case r.Error != nil:
		return p.paint(errorStyle, "ERR")
	case r.Status == nil:
		return p.paint(dimStyle, "...")
	}
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(format.StatusColor(r.Status)))
	return p.paint(style, fmt.Sprintf("%d", *r.Status))
}

// line prints the one-line summary used by list and fetch.
func (p *printer) line(r domain.Record) {
	fmt.Fprintf(p.w, "%s %s %-7s %s %s\n",
		p.paint(timeStyle, format.Timestamp(r.Timestamp)),
		p.status(r),
		p.paint(methodStyle, r.Method),
		r.URL,
		p.paint(dimStyle, format.Duration(r.Duration)),
	)
	if r.Error != nil {
		fmt.Fprintf(p.w, "  %s\n", p.paint(errorStyle, *r.Error))
	}
}

// detail prints headers, bodies and the curl reproduction of one record.
func (p *printer) detail(r domain.Record) {
	p.line(r)
	p.headers("request headers", r.RequestHeaders)
	p.body("request body", r.RequestBody)
	p.headers("response headers", r.ResponseHeaders)
	if r.Error == nil {
		p.body("response body", r.ResponseBody)
	}
	fmt.Fprintf(p.w, "%s\n  %s\n", p.paint(dimStyle, "curl"), curl.Generate(r))
}

func (p *printer) headers(title string, h map[string]string) {
	if len(h) == 0 {
		return
	}
	fmt.Fprintln(p.w, p.paint(dimStyle, title))
	for _, k := range sortedKeys(h) {
		fmt.Fprintf(p.w, "  %s: %s\n", k, h[k])
	}
}

func (p *printer) body(title string, b *string) {
	if b == nil || *b == "" {
		return
	}
	fmt.Fprintln(p.w, p.paint(dimStyle, title))
	for _, l := range strings.Split(*b, "\n") {
		fmt.Fprintf(p.w, "  %s\n", l)
	}
}

func sortedKeys(h map[string]string) []string {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func recordOf(r client.Request) domain.Record {
	return domain.Record{
		ID:              r.ID,
		URL:             r.URL,
		Method:          r.Method,
		Status:          r.Status,
		Duration:        r.Duration,
		RequestBody:     r.RequestBody,
		ResponseBody:    r.ResponseBody,
		RequestHeaders:  r.RequestHeaders,
		ResponseHeaders: r.ResponseHeaders,
		StartTime:       r.StartTime,
		EndTime:         r.EndTime,
		Timestamp:       r.Timestamp,
		Error:           r.Error,
	}
}
