package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMissingField is wrapped by MissingFieldError.
var ErrMissingField = errors.New("missing required field")

// MissingFieldError names a required key that a search hit did not carry.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingField, e.Field)
}

func (e *MissingFieldError) Unwrap() error {
	return ErrMissingField
}

// SearchResponse is the part of a _search reply the inspector reads.
// Hits are kept raw so each one can be decoded and dumped on its own.
type SearchResponse struct {
	Took     int64 `json:"took"`
	TimedOut bool  `json:"timed_out"`
	Hits     struct {
		Total Total             `json:"total"`
		Hits  []json.RawMessage `json:"hits"`
	} `json:"hits"`
}

// Total accepts both the legacy number and the {"value": n} object form.
type Total int64

func (t *Total) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.HasPrefix(data, []byte("{")) {
		var obj struct {
			Value int64 `json:"value"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		*t = Total(obj.Value)
		return nil
	}
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*t = Total(n)
	return nil
}

// DecodeSearchResponse parses a raw _search body.
func DecodeSearchResponse(data []byte) (*SearchResponse, error) {
	var resp SearchResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return &resp, nil
}

// Channel is the publisher of a content campaign.
type Channel struct {
	Logo string
	ID   string
	Name string
}

// Categories holds either a single category string or a list of them.
type Categories []string

func (c *Categories) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*c = nil
	case bytes.HasPrefix(data, []byte("[")):
		var list []string
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*c = list
	default:
		var one string
		if err := json.Unmarshal(data, &one); err != nil {
			return err
		}
		*c = Categories{one}
	}
	return nil
}

func (c Categories) String() string {
	return strings.Join(c, ", ")
}

// ContentRecord is one content_campaign hit.
type ContentRecord struct {
	ID          string
	Title       string
	Description string
	ClickURL    string
	ImageURL    string
	ImageHeight int
	ImageWidth  int
	PublishedAt string
	Categories  Categories

	// Channel is nil when the source has no channel.
	Channel *Channel
	// Sort is nil when the request carried no sort clause.
	Sort []any
	// Fields holds script_fields output, if any was requested.
	Fields map[string]any

	DocID string
	Index string
	Raw   json.RawMessage
}

type rawHit struct {
	Index  string                     `json:"_index"`
	ID     string                     `json:"_id"`
	Source map[string]json.RawMessage `json:"_source"`
	Sort   json.RawMessage            `json:"sort"`
	Fields json.RawMessage            `json:"fields"`
}

// DecodeContentRecord reads one hit. Required source keys must be present;
// channel, sort and fields are optional.
func DecodeContentRecord(raw json.RawMessage) (ContentRecord, error) {
	var hit rawHit
	if err := json.Unmarshal(raw, &hit); err != nil {
		return ContentRecord{}, fmt.Errorf("decode hit: %w", err)
	}
	if hit.Source == nil {
		return ContentRecord{}, &MissingFieldError{Field: "_source"}
	}

	rec := ContentRecord{DocID: hit.ID, Index: hit.Index, Raw: raw}
	src := hit.Source

	required := []struct {
		key    string
		decode func(json.RawMessage) error
	}{
		{"id", textInto(&rec.ID)},
		{"title", textInto(&rec.Title)},
		{"description", textInto(&rec.Description)},
		{"click_url", textInto(&rec.ClickURL)},
		{"image", textInto(&rec.ImageURL)},
		{"image_height", intInto(&rec.ImageHeight)},
		{"image_width", intInto(&rec.ImageWidth)},
		{"published_at", textInto(&rec.PublishedAt)},
		{"categories", func(v json.RawMessage) error { return json.Unmarshal(v, &rec.Categories) }},
	}
	for _, f := range required {
		v, ok := src[f.key]
		if !ok {
			return ContentRecord{}, &MissingFieldError{Field: f.key}
		}
		if err := f.decode(v); err != nil {
			return ContentRecord{}, fmt.Errorf("decode %s: %w", f.key, err)
		}
	}

	if v, ok := src["channel"]; ok && !isNull(v) {
		ch, err := decodeChannel(v)
		if err != nil {
			return ContentRecord{}, err
		}
		rec.Channel = ch
	}

	if len(hit.Sort) > 0 && !isNull(hit.Sort) {
		rec.Sort = []any{}
		if err := decodeNumbers(hit.Sort, &rec.Sort); err != nil {
			return ContentRecord{}, fmt.Errorf("decode sort: %w", err)
		}
	}

	if len(hit.Fields) > 0 && !isNull(hit.Fields) {
		if err := decodeNumbers(hit.Fields, &rec.Fields); err != nil {
			return ContentRecord{}, fmt.Errorf("decode fields: %w", err)
		}
	}

	return rec, nil
}

func decodeChannel(raw json.RawMessage) (*Channel, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("decode channel: %w", err)
	}

	ch := &Channel{}
	for _, f := range []struct {
		key string
		dst *string
	}{
		{"logo", &ch.Logo},
		{"id", &ch.ID},
		{"name", &ch.Name},
	} {
		v, ok := fields[f.key]
		if !ok {
			return nil, &MissingFieldError{Field: "channel." + f.key}
		}
		if err := textInto(f.dst)(v); err != nil {
			return nil, fmt.Errorf("decode channel.%s: %w", f.key, err)
		}
	}
	return ch, nil
}

// textInto accepts strings and numbers alike; ids are numeric in older
// indices.
func textInto(dst *string) func(json.RawMessage) error {
	return func(v json.RawMessage) error {
		v = bytes.TrimSpace(v)
		switch {
		case isNull(v):
			*dst = ""
			return nil
		case bytes.HasPrefix(v, []byte(`"`)):
			return json.Unmarshal(v, dst)
		default:
			var n json.Number
			if err := json.Unmarshal(v, &n); err != nil {
				return err
			}
			*dst = n.String()
			return nil
		}
	}
}

func intInto(dst *int) func(json.RawMessage) error {
	return func(v json.RawMessage) error {
		if isNull(v) {
			*dst = 0
			return nil
		}
		var f float64
		if err := json.Unmarshal(v, &f); err != nil {
			return err
		}
		*dst = int(f)
		return nil
	}
}

func decodeNumbers(raw json.RawMessage, dst any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(dst)
}

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}
