package pipeline

import (
	"context"
	"io"
	"log/slog"

	"github.com/DeafMist/score-inspector/internal/cache"
	"github.com/DeafMist/score-inspector/internal/elasticsearch"
)

// ClientSearcher sends bodies through the Elasticsearch client.
type ClientSearcher struct {
	Client  *elasticsearch.Client
	Options elasticsearch.SearchOptions
}

func (s ClientSearcher) Search(ctx context.Context, body []byte) ([]byte, error) {
	return s.Client.SearchRaw(ctx, body, s.Options)
}

// CachingSearcher answers repeated identical bodies from a response cache.
type CachingSearcher struct {
	Next  Searcher
	Cache *cache.Cache
	Log   *slog.Logger
}

func (s *CachingSearcher) Search(ctx context.Context, body []byte) ([]byte, error) {
	log := s.Log
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	key := cache.Key(body)
	if data, ok := s.Cache.Get(key); ok {
		log.Debug("search served from cache", slog.String("key", key))
		return data, nil
	}

	data, err := s.Next.Search(ctx, body)
	if err != nil {
		return nil, err
	}
	s.Cache.Put(key, data)
	return data, nil
}
