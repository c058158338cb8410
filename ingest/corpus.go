package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrMalformedCorpus rejects input that is not a non-empty
// {faqs: [{question, answer}, ...]} document. It fires before any
// provider call is made.
var ErrMalformedCorpus = errors.New("malformed corpus")

// FAQ is one source-of-truth entry. Immutable once loaded for a run.
type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type corpusFile struct {
	FAQs *[]FAQ `json:"faqs"`
}

// ParseCorpus validates and decodes a corpus document.
func ParseCorpus(data []byte) ([]FAQ, error) {
	var file corpusFile

	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCorpus, err)
	}

	if file.FAQs == nil {
		return nil, fmt.Errorf("%w: missing 'faqs' key", ErrMalformedCorpus)
	}

	faqs := *file.FAQs

	if len(faqs) == 0 {
		return nil, fmt.Errorf("%w: 'faqs' is empty", ErrMalformedCorpus)
	}

	for i, faq := range faqs {
		if len(strings.TrimSpace(faq.Question)) == 0 || len(strings.TrimSpace(faq.Answer)) == 0 {
			return nil, fmt.Errorf("%w: entry %d is missing a question or answer", ErrMalformedCorpus, i)
		}
	}

	return faqs, nil
}

// LoadCorpus reads and validates a corpus document from disk.
func LoadCorpus(path string) ([]FAQ, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseCorpus(data)
}
