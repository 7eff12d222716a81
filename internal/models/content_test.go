package models_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/DeafMist/score-inspector/internal/models"
	"github.com/stretchr/testify/require"
)

const fullHit = `{
  "_index": "buzzscreen-production-2018-05-21",
  "_type": "content_campaign",
  "_id": "1042",
  "_score": null,
  "_source": {
    "id": 1042,
    "title": "Weekend deals",
    "description": "Short trips",
    "click_url": "https://example.com/c/1042",
    "image": "https://img.example.com/1042.jpg",
    "image_height": 360,
    "image_width": 720,
    "published_at": "2018-05-21T09:00:00.000+09:00",
    "categories": ["travel", "deals"],
    "channel": {"logo": "https://img.example.com/logo.png", "id": 7, "name": "Tour Radar"}
  },
  "sort": [12.5],
  "fields": {"ctr": [0.031]}
}`

func TestDecodeContentRecord(t *testing.T) {
	rec, err := models.DecodeContentRecord(json.RawMessage(fullHit))
	require.NoError(t, err)

	require.Equal(t, "1042", rec.ID)
	require.Equal(t, "1042", rec.DocID)
	require.Equal(t, "buzzscreen-production-2018-05-21", rec.Index)
	require.Equal(t, "Weekend deals", rec.Title)
	require.Equal(t, "Short trips", rec.Description)
	require.Equal(t, "https://example.com/c/1042", rec.ClickURL)
	require.Equal(t, "https://img.example.com/1042.jpg", rec.ImageURL)
	require.Equal(t, 360, rec.ImageHeight)
	require.Equal(t, 720, rec.ImageWidth)
	require.Equal(t, "2018-05-21T09:00:00.000+09:00", rec.PublishedAt)
	require.Equal(t, models.Categories{"travel", "deals"}, rec.Categories)
	require.Equal(t, "travel, deals", rec.Categories.String())

	require.NotNil(t, rec.Channel)
	require.Equal(t, "7", rec.Channel.ID)
	require.Equal(t, "Tour Radar", rec.Channel.Name)

	require.Equal(t, []any{json.Number("12.5")}, rec.Sort)
	require.Contains(t, rec.Fields, "ctr")
	require.JSONEq(t, fullHit, string(rec.Raw))
}

func TestDecodeContentRecordOptionalFields(t *testing.T) {
	raw := `{"_id": "a", "_source": {
		"id": "a", "title": "t", "description": "d", "click_url": "c", "image": "i",
		"image_height": 10, "image_width": 20, "published_at": "2018-05-21T09:00:00",
		"categories": "news"
	}}`

	rec, err := models.DecodeContentRecord(json.RawMessage(raw))
	require.NoError(t, err)
	require.Nil(t, rec.Channel)
	require.Nil(t, rec.Sort)
	require.Nil(t, rec.Fields)
	require.Equal(t, models.Categories{"news"}, rec.Categories)
}

func TestDecodeContentRecordMissingRequired(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		field string
	}{
		{name: "no source", raw: `{"_id": "x"}`, field: "_source"},
		{name: "no title", raw: `{"_source": {"id": 1}}`, field: "title"},
		{
			name: "no categories",
			raw: `{"_source": {"id": 1, "title": "t", "description": "d", "click_url": "c", "image": "i",
				"image_height": 1, "image_width": 1, "published_at": "2018-05-21T09:00:00"}}`,
			field: "categories",
		},
		{
			name: "channel without name",
			raw: `{"_source": {"id": 1, "title": "t", "description": "d", "click_url": "c", "image": "i",
				"image_height": 1, "image_width": 1, "published_at": "2018-05-21T09:00:00", "categories": "x",
				"channel": {"logo": "l", "id": 2}}}`,
			field: "channel.name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := models.DecodeContentRecord(json.RawMessage(tt.raw))
			require.ErrorIs(t, err, models.ErrMissingField)

			var missing *models.MissingFieldError
			require.True(t, errors.As(err, &missing))
			require.Equal(t, tt.field, missing.Field)
		})
	}
}

func TestDecodeSearchResponseTotals(t *testing.T) {
	legacy, err := models.DecodeSearchResponse([]byte(`{"took": 7, "hits": {"total": 3, "hits": [{}, {}, {}]}}`))
	require.NoError(t, err)
	require.Equal(t, int64(7), legacy.Took)
	require.Equal(t, models.Total(3), legacy.Hits.Total)
	require.Len(t, legacy.Hits.Hits, 3)

	modern, err := models.DecodeSearchResponse([]byte(`{"hits": {"total": {"value": 120, "relation": "gte"}, "hits": []}}`))
	require.NoError(t, err)
	require.Equal(t, models.Total(120), modern.Hits.Total)

	_, err = models.DecodeSearchResponse([]byte(`<html>`))
	require.Error(t, err)
}
