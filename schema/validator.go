package schema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed news_item.schema.json
var newsItemSchemaJSON string

// NewsItem is the v1 ingest payload accepted by POST /ingest/news.
type NewsItem struct {
	PayloadVersion string   `json:"payload_version"`
	Source         string   `json:"source"`
	SourceItemID   string   `json:"source_item_id"`
	Title          string   `json:"title"`
	URL            *string  `json:"url,omitempty"`
	PublishedAt    *string  `json:"published_at,omitempty"`
	BodyText       *string  `json:"body_text,omitempty"`
	Summary        *string  `json:"summary,omitempty"`
	Language       *string  `json:"language,omitempty"`
	SourceDomain   *string  `json:"source_domain,omitempty"`
	Authors        []string `json:"authors,omitempty"`
	Tags           []string `json:"tags,omitempty"`
	ImageURL       *string  `json:"image_url,omitempty"`
	Category       *string  `json:"category,omitempty"`
}

var (
	compileOnce       sync.Once
	compiledSchema    *jsonschema.Schema
	compiledSchemaErr error
)

// ValidateNewsItemPayload checks a raw payload against the embedded v1 schema
// plus semantic rules the schema cannot express, and decodes it.
func ValidateNewsItemPayload(payload json.RawMessage) (*NewsItem, error) {
	value, err := decodeStrictJSON(payload)
	if err != nil {
		return nil, fmt.Errorf("decode payload JSON: %w", err)
	}

	schema, err := loadSchema()
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}

	if err := schema.Validate(value); err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	normalized, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("normalize payload JSON: %w", err)
	}

	var item NewsItem
	if err := json.Unmarshal(normalized, &item); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}

	if err := validateSemantics(&item); err != nil {
		return nil, err
	}

	return &item, nil
}

func loadSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		compiler.AssertFormat = true

		if err := compiler.AddResource("news_item.schema.json", strings.NewReader(newsItemSchemaJSON)); err != nil {
			compiledSchemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}

		schema, err := compiler.Compile("news_item.schema.json")
		if err != nil {
			compiledSchemaErr = fmt.Errorf("compile schema: %w", err)
			return
		}

		compiledSchema = schema
	})

	if compiledSchemaErr != nil {
		return nil, compiledSchemaErr
	}
	if compiledSchema == nil {
		return nil, fmt.Errorf("schema not initialized")
	}
	return compiledSchema, nil
}

func decodeStrictJSON(raw []byte) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("payload is empty")
	}

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}

	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("payload contains trailing content")
	}

	return value, nil
}

func validateSemantics(item *NewsItem) error {
	if item == nil {
		return fmt.Errorf("payload is nil")
	}

	if strings.TrimSpace(item.Source) == "" {
		return fmt.Errorf("source must not be empty")
	}
	if strings.TrimSpace(item.SourceItemID) == "" {
		return fmt.Errorf("source_item_id must not be empty")
	}
	if strings.TrimSpace(item.Title) == "" {
		return fmt.Errorf("title must not be empty")
	}
	if strings.TrimSpace(item.PayloadVersion) != "v1" {
		return fmt.Errorf("payload_version must be v1")
	}

	if item.URL != nil {
		if err := validateURI("url", *item.URL); err != nil {
			return err
		}
	}
	if item.ImageURL != nil {
		if err := validateURI("image_url", *item.ImageURL); err != nil {
			return err
		}
	}
	if item.PublishedAt != nil {
		if _, err := time.Parse(time.RFC3339, strings.TrimSpace(*item.PublishedAt)); err != nil {
			return fmt.Errorf("published_at must be RFC3339: %w", err)
		}
	}

	for i, author := range item.Authors {
		if strings.TrimSpace(author) == "" {
			return fmt.Errorf("authors[%d] must not be empty", i)
		}
	}
	for i, tag := range item.Tags {
		if strings.TrimSpace(tag) == "" {
			return fmt.Errorf("tags[%d] must not be empty", i)
		}
	}

	return nil
}

func validateURI(fieldName, value string) error {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fmt.Errorf("%s must not be empty", fieldName)
	}
	if _, err := url.ParseRequestURI(trimmed); err != nil {
		return fmt.Errorf("%s is not a valid URI: %w", fieldName, err)
	}
	return nil
}
