package render_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DeafMist/score-inspector/internal/pipeline"
	"github.com/DeafMist/score-inspector/internal/presenter"
	"github.com/DeafMist/score-inspector/internal/render"
	"github.com/stretchr/testify/require"
)

const hit = `{"_id": "77", "sort": [4.25], "fields": {"ctr": [0.02]}, "_source": {
  "id": 77, "title": "Cheap <flights>", "description": "d", "click_url": "https://e.com/77",
  "image": "https://i.e.com/77.jpg", "image_height": 100, "image_width": 200,
  "published_at": "2018-05-19T12:00:00", "categories": ["travel"],
  "channel": {"logo": "https://i.e.com/logo.png", "id": "c1", "name": "Radar"}}}`

func report(t *testing.T, withErr bool) *pipeline.Report {
	t.Helper()
	now := time.Date(2018, 5, 21, 12, 0, 0, 0, time.UTC)
	card, err := presenter.Present(json.RawMessage(hit), now)
	require.NoError(t, err)

	rep := &pipeline.Report{
		RunID: "2f0b7a4e-run",
		Index: "buzzscreen-production-2018-05-21",
		Took:  15 * time.Millisecond,
		Total: 40,
		Hits:  2,
		Cards: []presenter.Card{card},
	}
	if withErr {
		rep.Err = &presenter.RecordError{Index: 1, Err: errors.New("missing required field: title")}
	}
	return rep
}

func TestTextListsCards(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, render.Text(&buf, report(t, false)))

	out := buf.String()
	require.Contains(t, out, "run 2f0b7a4e-run  index=buzzscreen-production-2018-05-21  total=40  hits=2  took=15ms")
	require.Contains(t, out, "[1] Cheap <flights>")
	require.Contains(t, out, "    https://e.com/77\n")
	require.Contains(t, out, "image: https://i.e.com/77.jpg (200x100)")
	require.Contains(t, out, "Radar - travel - [4.25] - 2 days ago - 77")
	require.Contains(t, out, "ctr: [0.02]")
	require.Contains(t, out, `"_id": "77"`)
	require.NotContains(t, out, "presentation stopped")
	require.NotContains(t, out, "\x1b[")
}

func TestTextReportsEarlyStop(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, render.Text(&buf, report(t, true)))

	out := buf.String()
	require.Contains(t, out, "[1] Cheap <flights>")
	require.Contains(t, out, "presentation stopped after 1 of 2 hits: present hit 1: missing required field: title")
}

func TestHTMLPage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, render.HTML(&buf, report(t, false)))

	out := buf.String()
	require.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	require.Contains(t, out, `data-run-id="2f0b7a4e-run"`)
	require.Contains(t, out, `<img src="https://i.e.com/77.jpg" height="100" width="200">`)
	require.Contains(t, out, `<a href="https://e.com/77" target="_blank"><h1>Cheap &lt;flights&gt;</h1></a>`)
	require.Contains(t, out, `<img src="https://i.e.com/logo.png" height="64" width="64"><div>Radar - travel - [4.25] - 2 days ago - 77</div>`)
	require.Contains(t, out, `id="c_2f0b7a4e-run_0"`)
	require.Contains(t, out, "<div>ctr: [0.02]</div>")
	require.Contains(t, out, "&#34;_source&#34;")
	require.NotContains(t, out, `class="error"`)
}

func TestHTMLReportsEarlyStop(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, render.HTML(&buf, report(t, true)))
	require.Contains(t, buf.String(), `<div class="error">presentation stopped after 1 of 2 hits: present hit 1: missing required field: title</div>`)
}
