// Package console renders a probe run for a human at a terminal.
package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/hamed0406/metaprobe/internal/domain"
)

const separatorWidth = 50

// Reporter writes one line per event. It is not safe for concurrent use;
// the runner is sequential.
type Reporter struct {
	w       io.Writer
	verbose bool

	ok   *color.Color
	bad  *color.Color
	warn *color.Color
	dim  *color.Color
}

type Options struct {
	// NoColor forces plain output; otherwise fatih/color decides from the TTY.
	NoColor bool
	// Verbose adds description, domain, thumbnail and a markdown link to successes.
	Verbose bool
}

func New(w io.Writer, opts Options) *Reporter {
	r := &Reporter{
		w:       w,
		verbose: opts.Verbose,
		ok:      color.New(color.FgGreen),
		bad:     color.New(color.FgRed),
		warn:    color.New(color.FgYellow),
		dim:     color.New(color.Faint),
	}
	if opts.NoColor {
		for _, c := range []*color.Color{r.ok, r.bad, r.warn, r.dim} {
			c.DisableColor()
		}
	}
	return r
}

func (r *Reporter) separator() {
	fmt.Fprintln(r.w, strings.Repeat("=", separatorWidth))
}

func (r *Reporter) Banner(endpoint string, targets int) {
	fmt.Fprintln(r.w, "🧪 Testing URL Metadata Extraction")
	r.dim.Fprintf(r.w, "   endpoint: %s  targets: %d\n", endpoint, targets)
	r.separator()
}

func (r *Reporter) Attempt(url string) {
	fmt.Fprintf(r.w, "🔍 Testing: %s\n", url)
}

func (r *Reporter) Outcome(o domain.Outcome) {
	switch o.Kind {
	case domain.KindSuccess:
		r.ok.Fprintf(r.w, "✅ SUCCESS: %s\n", o.Title)
		if r.verbose {
			r.details(o)
		}
	case domain.KindApplicationFailure:
		r.bad.Fprintf(r.w, "❌ FAILED: %s\n", o.Error)
	case domain.KindTransportFailure:
		r.bad.Fprintf(r.w, "❌ HTTP ERROR: %d\n", o.StatusCode)
	case domain.KindNetworkFailure:
		r.bad.Fprintf(r.w, "❌ NETWORK ERROR: %s\n", o.Message)
	}
}

func (r *Reporter) details(o domain.Outcome) {
	desc := o.Description
	if rs := []rune(desc); len(rs) > 100 {
		desc = string(rs[:100]) + "..."
	}
	thumb := "No"
	if o.Thumbnail != "" {
		thumb = "Yes"
	}
	r.dim.Fprintf(r.w, "   Description: %s\n", orNA(desc))
	r.dim.Fprintf(r.w, "   Domain: %s\n", orNA(o.Domain))
	r.dim.Fprintf(r.w, "   Thumbnail: %s\n", thumb)
	r.dim.Fprintf(r.w, "   Markdown: %s\n", o.Markdown())
}

func (r *Reporter) Summary(s domain.Summary) {
	r.separator()
	fmt.Fprintf(r.w, "🎯 Results: %d/%d URLs extracted successfully\n", s.Passed, s.Total)
	if s.AllPassed() {
		r.ok.Fprintln(r.w, "🎉 All tests passed! The metadata endpoint is working correctly.")
		return
	}
	r.warn.Fprintln(r.w, "⚠️  Some tests failed. Check the backend and CORS settings.")
}

// Instructions is printed when the host did not ask for a run.
func Instructions(w io.Writer, program string) {
	fmt.Fprintf(w, "Run this probe explicitly: %s --run (or set PROBE_AUTO_RUN=true)\n", program)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
