package render

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/DeafMist/score-inspector/internal/pipeline"
)

// Text writes a terminal listing of the report. Styling is dropped when w
// is not a terminal.
func Text(w io.Writer, rep *pipeline.Report) error {
	r := lipgloss.NewRenderer(w)
	var (
		header   = r.NewStyle().Bold(true)
		headline = r.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
		meta     = r.NewStyle().Foreground(lipgloss.Color("86"))
		dim      = r.NewStyle().Faint(true)
		failure  = r.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	)

	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, header.Render(fmt.Sprintf("run %s  index=%s  total=%d  hits=%d  took=%s",
		rep.RunID, rep.Index, rep.Total, rep.Hits, rep.Took)))

	for i, card := range rep.Cards {
		fmt.Fprintln(bw)
		fmt.Fprintf(bw, "[%d] %s\n", i+1, headline.Render(singleLine(card.Record.Title)))
		fmt.Fprintf(bw, "    %s\n", card.Record.ClickURL)
		fmt.Fprintf(bw, "    image: %s (%dx%d)\n", card.Record.ImageURL, card.Record.ImageWidth, card.Record.ImageHeight)
		fmt.Fprintf(bw, "    logo:  %s\n", card.ChannelLogo)
		fmt.Fprintf(bw, "    %s\n", meta.Render(singleLine(card.Meta())))
		for _, f := range card.Fields {
			fmt.Fprintf(bw, "    %s: %s\n", f.Name, f.Value)
		}
		for _, line := range strings.Split(card.Raw, "\n") {
			fmt.Fprintf(bw, "    %s\n", dim.Render(line))
		}
	}

	if rep.Err != nil {
		fmt.Fprintln(bw)
		fmt.Fprintln(bw, failure.Render(fmt.Sprintf("presentation stopped after %d of %d hits: %v",
			len(rep.Cards), rep.Hits, rep.Err)))
	}

	return bw.Flush()
}

// singleLine keeps lipgloss from padding multi-line values into a block.
func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
