package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/w-h-a/faqchat/index"
)

// pineconeIndex talks to the Pinecone data plane over HTTP. Location is
// the index host, e.g. https://faq-abc123.svc.us-east-1-aws.pinecone.io
type pineconeIndex struct {
	options index.Options
	client  *http.Client
}

func (p *pineconeIndex) Upsert(ctx context.Context, records []index.Record) error {
	vectors := make([]pineconeVector, 0, len(records))

	for _, rec := range records {
		if len(rec.Values) != p.options.Dimension {
			return &index.Error{
				Message: fmt.Sprintf("record %s has dimension %d, index expects %d", rec.Id, len(rec.Values), p.options.Dimension),
			}
		}

		vectors = append(vectors, pineconeVector{
			Id:     rec.Id,
			Values: rec.Values,
			Metadata: map[string]string{
				"kind":       rec.Metadata.Kind,
				"text":       rec.Metadata.Text,
				"pairedText": rec.Metadata.PairedText,
			},
		})
	}

	req := upsertRequest{
		Vectors:   vectors,
		Namespace: p.options.Namespace,
	}

	var rsp upsertResponse

	if err := p.do(ctx, "/vectors/upsert", req, &rsp); err != nil {
		return &index.Error{Message: err.Error()}
	}

	return nil
}

func (p *pineconeIndex) Query(ctx context.Context, vector []float32, k int, opts ...index.QueryOption) ([]index.Result, error) {
	if k < 1 {
		return nil, nil
	}

	options := index.NewQueryOptions(opts...)

	req := queryRequest{
		Vector:          vector,
		TopK:            k,
		IncludeMetadata: true,
		Namespace:       p.options.Namespace,
	}

	if len(options.Kinds) > 0 {
		req.Filter = map[string]any{
			"kind": map[string]any{"$in": options.Kinds},
		}
	}

	var rsp queryResponse

	if err := p.do(ctx, "/query", req, &rsp); err != nil {
		return nil, &index.Error{Message: err.Error()}
	}

	results := make([]index.Result, 0, len(rsp.Matches))

	for _, match := range rsp.Matches {
		results = append(results, index.Result{
			Id:    match.Id,
			Text:  match.Metadata["text"],
			Score: match.Score,
			Metadata: index.Metadata{
				Kind:       match.Metadata["kind"],
				Text:       match.Metadata["text"],
				PairedText: match.Metadata["pairedText"],
			},
		})
	}

	return results, nil
}

func (p *pineconeIndex) Stats(ctx context.Context) (index.Stats, error) {
	var rsp statsResponse

	if err := p.do(ctx, "/describe_index_stats", struct{}{}, &rsp); err != nil {
		return index.Stats{}, &index.Error{Message: err.Error()}
	}

	namespaces := make([]string, 0, len(rsp.Namespaces))
	for ns := range rsp.Namespaces {
		namespaces = append(namespaces, ns)
	}
	sort.Strings(namespaces)

	return index.Stats{
		Count:      rsp.TotalVectorCount,
		Dimension:  rsp.Dimension,
		Namespaces: namespaces,
	}, nil
}

func (p *pineconeIndex) do(ctx context.Context, path string, req any, rsp any) error {
	data, err := json.Marshal(req)
	if err != nil {
		return err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, p.options.Location+path, bytes.NewReader(data))
	if err != nil {
		return err
	}

	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Api-Key", p.options.ApiKey)

	response, err := p.client.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	payload, err := io.ReadAll(response.Body)
	if err != nil {
		return err
	}

	if response.StatusCode >= 400 {
		var perr pineconeError
		if err := json.Unmarshal(payload, &perr); err == nil && len(perr.Message) > 0 {
			return fmt.Errorf("pinecone http %d: %s", response.StatusCode, perr.Message)
		}
		return fmt.Errorf("pinecone http %d: %s", response.StatusCode, string(payload))
	}

	if rsp != nil && len(payload) > 0 {
		if err := json.Unmarshal(payload, rsp); err != nil {
			return err
		}
	}

	return nil
}

func NewIndex(opts ...index.Option) index.Index {
	options := index.NewOptions(opts...)

	if len(options.Location) == 0 || len(options.ApiKey) == 0 {
		panic("missing location or api key for pinecone index")
	}

	client := &http.Client{
		Timeout: 15 * time.Second,
	}

	p := &pineconeIndex{
		options: options,
		client:  client,
	}

	return p
}
