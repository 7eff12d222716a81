package presenter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/DeafMist/score-inspector/internal/elapsed"
	"github.com/DeafMist/score-inspector/internal/models"
)

// Placeholders used when a hit carries no channel or no sort values.
const (
	NoChannelLogo = "no channel img"
	NoChannelID   = "no id"
	NoChannelName = "no channel name"
	NoScore       = "no score"
)

// Field is one script_fields value returned with a hit.
type Field struct {
	Name  string
	Value string
}

// Card is the display-ready form of one search hit.
type Card struct {
	Record models.ContentRecord

	ChannelLogo string
	ChannelID   string
	ChannelName string
	Category    string
	Score       string
	Elapsed     elapsed.Label
	Fields      []Field

	// Raw is the indented JSON of the whole hit.
	Raw string
}

// RecordError stops a presentation pass at the hit that failed.
type RecordError struct {
	Index int
	Err   error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("present hit %d: %v", e.Index, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// Present turns one raw hit into a Card, labelling its age relative to now.
func Present(raw json.RawMessage, now time.Time) (Card, error) {
	rec, err := models.DecodeContentRecord(raw)
	if err != nil {
		return Card{}, err
	}

	card := Card{
		Record:      rec,
		ChannelLogo: NoChannelLogo,
		ChannelID:   NoChannelID,
		ChannelName: NoChannelName,
		Category:    rec.Categories.String(),
		Score:       NoScore,
		Raw:         indent(raw),
	}

	if rec.Channel != nil {
		card.ChannelLogo = rec.Channel.Logo
		card.ChannelID = rec.Channel.ID
		card.ChannelName = rec.Channel.Name
	}

	if rec.Sort != nil {
		card.Score = formatList(rec.Sort)
	}

	card.Elapsed, err = elapsed.Format(rec.PublishedAt, now)
	if err != nil {
		return Card{}, err
	}

	for name, v := range rec.Fields {
		card.Fields = append(card.Fields, Field{Name: name, Value: formatValue(v)})
	}
	sort.Slice(card.Fields, func(i, j int) bool { return card.Fields[i].Name < card.Fields[j].Name })

	return card, nil
}

// PresentAll presents hits in order and stops at the first failure. The
// cards built before the failure are returned with the error.
func PresentAll(raws []json.RawMessage, now time.Time) ([]Card, error) {
	cards := make([]Card, 0, len(raws))
	for i, raw := range raws {
		card, err := Present(raw, now)
		if err != nil {
			return cards, &RecordError{Index: i, Err: err}
		}
		cards = append(cards, card)
	}
	return cards, nil
}

// Meta is the "channel - category - score - elapsed - id" summary line.
func (c Card) Meta() string {
	return strings.Join([]string{
		c.ChannelName,
		c.Category,
		c.Score,
		c.Elapsed.String(),
		c.Record.ID,
	}, " - ")
}

// ImageHTML renders the content image at its stored size.
func (c Card) ImageHTML() template.HTML {
	return template.HTML(fmt.Sprintf(`<img src="%s" height="%d" width="%d">`,
		attr(c.Record.ImageURL), c.Record.ImageHeight, c.Record.ImageWidth))
}

// HeadlineHTML renders the title linked to the click URL.
func (c Card) HeadlineHTML() template.HTML {
	return template.HTML(fmt.Sprintf(`<a href="%s" target="_blank"><h1>%s</h1></a>`,
		attr(c.Record.ClickURL), template.HTMLEscapeString(c.Record.Title)))
}

// MetaHTML renders the channel logo followed by the summary line.
func (c Card) MetaHTML() template.HTML {
	return template.HTML(fmt.Sprintf(`<img src="%s" height="64" width="64"><div>%s</div>`,
		attr(c.ChannelLogo), template.HTMLEscapeString(c.Meta())))
}

// attr escapes a URL attribute and blanks schemes other than http(s).
// Placeholder text such as "no channel img" passes through as a relative
// reference.
func attr(raw string) string {
	if u, err := url.Parse(raw); err != nil || (u.Scheme != "" && u.Scheme != "http" && u.Scheme != "https") {
		return "about:blank"
	}
	return template.HTMLEscapeString(raw)
}

func formatList(values []any) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, formatValue(v))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func formatValue(v any) string {
	switch t := v.(type) {
	case []any:
		return formatList(t)
	case string:
		return t
	case nil:
		return "null"
	default:
		return fmt.Sprint(t)
	}
}

func indent(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}
