// Package search mirrors products into Elasticsearch for fuzzy name search.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/google/uuid"

	"github.com/Skotchmaster/till_shop/internal/models"
)

// ErrUnavailable means no index is configured; callers fall back to the DB.
var ErrUnavailable = errors.New("search index unavailable")

type Index interface {
	Upsert(ctx context.Context, p models.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	// Search returns matching product ids, best match first, and the total.
	Search(ctx context.Context, ownerID uuid.UUID, query, category string, from, size int) (int64, []uuid.UUID, error)
}

type Nop struct{}

func (Nop) Upsert(context.Context, models.Product) error { return nil }
func (Nop) Delete(context.Context, uuid.UUID) error      { return nil }
func (Nop) Search(context.Context, uuid.UUID, string, string, int, int) (int64, []uuid.UUID, error) {
	return 0, nil, ErrUnavailable
}

type Config struct {
	URL      string
	User     string
	Password string
	Index    string
	// Transport is only set by tests.
	Transport http.RoundTripper
}

type ESIndex struct {
	es    *elasticsearch.Client
	index string
}

type document struct {
	ID       string `json:"id"`
	OwnerID  string `json:"owner_id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Price    string `json:"price"`
	Quantity int    `json:"quantity"`
}

func NewClient(cfg Config) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.User,
		Password:  cfg.Password,
		Transport: cfg.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}
	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("elasticsearch info: %s: %s", res.Status(), body)
	}
	return client, nil
}

// New returns Nop when no URL is configured.
func New(cfg Config) (Index, error) {
	if cfg.URL == "" {
		return Nop{}, nil
	}
	client, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return &ESIndex{es: client, index: cfg.Index}, nil
}

func (x *ESIndex) Upsert(ctx context.Context, p models.Product) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(document{
		ID:       p.ID.String(),
		OwnerID:  p.OwnerID.String(),
		Name:     p.Name,
		Category: p.Category,
		Price:    p.Price.StringFixed(2),
		Quantity: p.Quantity,
	}); err != nil {
		return err
	}

	res, err := x.es.Index(x.index, &buf,
		x.es.Index.WithContext(ctx),
		x.es.Index.WithDocumentID(p.ID.String()),
		x.es.Index.WithRefresh("wait_for"),
	)
	if err != nil {
		return fmt.Errorf("index product %s: %w", p.ID, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index product %s: %s", p.ID, res.Status())
	}
	return nil
}

func (x *ESIndex) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := x.es.Delete(x.index, id.String(), x.es.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("delete product %s: %s", id, res.Status())
	}
	return nil
}

func searchBody(ownerID uuid.UUID, query, category string, from, size int) map[string]any {
	filter := []any{
		map[string]any{"term": map[string]any{"owner_id.keyword": ownerID.String()}},
	}
	if category != "" && category != "All" {
		filter = append(filter, map[string]any{"term": map[string]any{"category.keyword": category}})
	}
	return map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"must": map[string]any{
					"multi_match": map[string]any{
						"query":     query,
						"fields":    []string{"name^2", "category"},
						"fuzziness": "AUTO",
					},
				},
				"filter": filter,
			},
		},
		"_source": []string{"id"},
		"from":    from,
		"size":    size,
	}
}

func (x *ESIndex) Search(ctx context.Context, ownerID uuid.UUID, query, category string, from, size int) (int64, []uuid.UUID, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(searchBody(ownerID, query, category, from, size)); err != nil {
		return 0, nil, err
	}

	res, err := x.es.Search(
		x.es.Search.WithContext(ctx),
		x.es.Search.WithIndex(x.index),
		x.es.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("search: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct{ Value int64 } `json:"total"`
			Hits  []struct {
				Source document `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, err
	}

	ids := make([]uuid.UUID, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		id, err := uuid.Parse(hit.Source.ID)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return r.Hits.Total.Value, ids, nil
}
