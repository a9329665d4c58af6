package summarizer

import (
	"fmt"
	"strings"
	"time"
)

// MarkdownFormatter renders a Summary as a Markdown report.
type MarkdownFormatter struct {
	translate func(string) string
	version   string
}

// MarkdownOption configures a MarkdownFormatter.
type MarkdownOption func(*MarkdownFormatter)

// WithTranslator sets the function used to translate labels.
func WithTranslator(fn func(string) string) MarkdownOption {
	return func(f *MarkdownFormatter) {
		f.translate = fn
	}
}

// WithVersion adds the tool version to the footer.
func WithVersion(version string) MarkdownOption {
	return func(f *MarkdownFormatter) {
		f.version = version
	}
}

// NewMarkdownFormatter creates a formatter with English labels by default.
func NewMarkdownFormatter(opts ...MarkdownOption) *MarkdownFormatter {
	f := &MarkdownFormatter{
		translate: func(s string) string { return s },
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format implements Formatter.
func (f *MarkdownFormatter) Format(s *Summary) string {
	t := f.translate
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", t("Portrait Batch Summary"))

	fmt.Fprintf(&b, "| %s | %s |\n|---|---|\n", t("Item"), t("Value"))
	row := func(label, value string) {
		fmt.Fprintf(&b, "| %s | %s |\n", t(label), cell(value))
	}
	row("Generated", s.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	row("Input", s.InputDir)
	row("Output", s.OutputDir)
	row("Canvas", fmt.Sprintf("%dx%d", s.CanvasWidth, s.CanvasHeight))
	if s.Segmenter != "" {
		row("Segmenter", s.Segmenter)
	}
	row("Images", fmt.Sprint(s.Totals.Total))
	row("Succeeded", fmt.Sprint(s.Totals.Succeeded))
	row("Failed", fmt.Sprint(s.Totals.Failed))
	row("Duration", formatDuration(s.Totals.Duration))

	fmt.Fprintf(&b, "\n## %s\n\n", t("Images"))
	if len(s.Entries) == 0 {
		fmt.Fprintf(&b, "%s\n", t("No images were processed."))
	} else {
		fmt.Fprintf(&b, "| # | %s | %s | %s | %s | %s | %s |\n",
			t("File"), t("Status"), t("Output"), t("Scale"), t("Placement"), t("Error"))
		b.WriteString("|---|---|---|---|---|---|---|\n")
		for i, e := range s.Entries {
			if e.OK {
				fmt.Fprintf(&b, "| %d | %s | %s | %s | %.4f | %s | |\n",
					i+1, cell(e.Name), t("OK"), cell(e.Output), e.Scale,
					fmt.Sprintf("%dx%d @ (%d,%d)", e.Width, e.Height, e.OffsetX, e.OffsetY))
			} else {
				fmt.Fprintf(&b, "| %d | %s | %s | | | | %s |\n",
					i+1, cell(e.Name), t("Failed"), cell(e.Kind+": "+e.Error))
			}
		}
	}

	if f.version != "" {
		fmt.Fprintf(&b, "\n---\n%s\n", fmt.Sprintf(t("Generated by portrait %s"), f.version))
	}

	return b.String()
}

// cell makes s safe inside a Markdown table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%d ms", d.Milliseconds())
	}
	return fmt.Sprintf("%.2f s", d.Seconds())
}
