// Package search keeps the secondary full-text copy of the catalog.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/chchsunny/PcWeb/internal/catalog"
)

var (
	ErrUnavailable     = errors.New("search index unavailable")
	ErrDocumentMissing = errors.New("search document missing")
)

const DefaultIndex = "parts"

// partsMapping is the field mapping derived from catalog.Part.
const partsMapping = `{
  "mappings": {
    "properties": {
      "id":       {"type": "integer"},
      "name":     {"type": "text", "fields": {"keyword": {"type": "keyword", "ignore_above": 256}}},
      "category": {"type": "text", "fields": {"keyword": {"type": "keyword", "ignore_above": 256}}},
      "price":    {"type": "double"}
    }
  }
}`

type ElasticConfig struct {
	URL   string
	Index string
}

// Elastic is the Elasticsearch-backed index. Documents are keyed by part id.
type Elastic struct {
	es    *elasticsearch.Client
	index string
}

func NewElastic(cfg ElasticConfig) (*Elastic, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
	})
	if err != nil {
		return nil, err
	}

	index := cfg.Index
	if index == "" {
		index = DefaultIndex
	}
	return &Elastic{es: es, index: index}, nil
}

// EnsureIndex creates the index with its mapping when it does not exist and
// reports whether it did so.
func (e *Elastic) EnsureIndex(ctx context.Context) (bool, error) {
	res, err := e.es.Indices.Exists([]string{e.index}, e.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	drain(res)

	switch res.StatusCode {
	case http.StatusOK:
		return false, nil
	case http.StatusNotFound:
	default:
		return false, fmt.Errorf("%w: exists %s", ErrUnavailable, res.Status())
	}

	res, err = e.es.Indices.Create(e.index,
		e.es.Indices.Create.WithBody(bytes.NewReader([]byte(partsMapping))),
		e.es.Indices.Create.WithContext(ctx),
	)
	if err := check(res, err, "create index"); err != nil {
		return false, err
	}
	return true, nil
}

// IndexMany bulk-indexes parts, replacing any documents with the same ids.
func (e *Elastic) IndexMany(ctx context.Context, parts []catalog.Part) error {
	if len(parts) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, p := range parts {
		meta := map[string]any{"index": map[string]any{"_id": docID(p.ID)}}
		if err := enc.Encode(meta); err != nil {
			return err
		}
		if err := enc.Encode(p); err != nil {
			return err
		}
	}

	res, err := e.es.Bulk(&buf,
		e.es.Bulk.WithIndex(e.index),
		e.es.Bulk.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer drain(res)
	if res.IsError() {
		return fmt.Errorf("%w: bulk %s", ErrUnavailable, res.Status())
	}

	var out struct {
		Errors bool `json:"errors"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return err
	}
	if out.Errors {
		return errors.New("bulk index: some documents were rejected")
	}
	return nil
}

func (e *Elastic) Index(ctx context.Context, p catalog.Part) error {
	body, err := json.Marshal(p)
	if err != nil {
		return err
	}

	res, err := e.es.Index(e.index, bytes.NewReader(body),
		e.es.Index.WithDocumentID(docID(p.ID)),
		e.es.Index.WithContext(ctx),
	)
	return check(res, err, "index")
}

// Update patches an existing document; a missing document is an error, not
// an upsert.
func (e *Elastic) Update(ctx context.Context, p catalog.Part) error {
	body, err := json.Marshal(map[string]any{"doc": p})
	if err != nil {
		return err
	}

	res, err := e.es.Update(e.index, docID(p.ID), bytes.NewReader(body),
		e.es.Update.WithContext(ctx),
	)
	return check(res, err, "update")
}

func (e *Elastic) Delete(ctx context.Context, id int) error {
	res, err := e.es.Delete(e.index, docID(id),
		e.es.Delete.WithContext(ctx),
	)
	return check(res, err, "delete")
}

// Search runs a fuzzy multi_match over name and category.
func (e *Elastic) Search(ctx context.Context, q string, size int) ([]catalog.Part, error) {
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     q,
				"fields":    []string{"name", "category"},
				"fuzziness": "AUTO",
			},
		},
	}
	body, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}

	res, err := e.es.Search(
		e.es.Search.WithContext(ctx),
		e.es.Search.WithIndex(e.index),
		e.es.Search.WithBody(bytes.NewReader(body)),
		e.es.Search.WithSize(size),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer drain(res)
	if res.IsError() {
		return nil, fmt.Errorf("%w: search %s", ErrUnavailable, res.Status())
	}

	var out struct {
		Hits struct {
			Hits []struct {
				Source catalog.Part `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}

	parts := make([]catalog.Part, 0, len(out.Hits.Hits))
	for _, h := range out.Hits.Hits {
		parts = append(parts, h.Source)
	}
	return parts, nil
}

func check(res *esapi.Response, err error, op string) error {
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
	}
	defer drain(res)

	switch {
	case res.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrDocumentMissing, op)
	case res.IsError():
		return fmt.Errorf("%w: %s %s", ErrUnavailable, op, res.Status())
	}
	return nil
}

func drain(res *esapi.Response) {
	if res == nil || res.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, res.Body)
	_ = res.Body.Close()
}

func docID(id int) string {
	return strconv.Itoa(id)
}
