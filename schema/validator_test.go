package schema

import (
	"strings"
	"testing"
)

func TestValidateNewsItemPayload_Valid(t *testing.T) {
	t.Parallel()

	payload := []byte(`{
		"payload_version": "v1",
		"source": "example-wire",
		"source_item_id": "item-42",
		"title": "Acme launches orbital drone program",
		"url": "https://news.example.com/acme-drone",
		"published_at": "2026-03-01T10:00:00Z",
		"body_text": "Acme Corp announced a new program.",
		"language": "en",
		"tags": ["tech", "aerospace"]
	}`)

	item, err := ValidateNewsItemPayload(payload)
	if err != nil {
		t.Fatalf("expected valid payload, got %v", err)
	}
	if item.Source != "example-wire" || item.SourceItemID != "item-42" {
		t.Fatalf("unexpected decoded item: %+v", item)
	}
	if item.URL == nil || *item.URL != "https://news.example.com/acme-drone" {
		t.Fatalf("unexpected URL: %v", item.URL)
	}
}

func TestValidateNewsItemPayload_MissingRequired(t *testing.T) {
	t.Parallel()

	payload := []byte(`{"payload_version":"v1","source":"example-wire","title":"no id"}`)
	if _, err := ValidateNewsItemPayload(payload); err == nil {
		t.Fatalf("expected error for missing source_item_id")
	}
}

func TestValidateNewsItemPayload_WrongVersion(t *testing.T) {
	t.Parallel()

	payload := []byte(`{"payload_version":"v2","source":"s","source_item_id":"i","title":"t"}`)
	if _, err := ValidateNewsItemPayload(payload); err == nil {
		t.Fatalf("expected error for unsupported payload_version")
	}
}

func TestValidateNewsItemPayload_UnknownField(t *testing.T) {
	t.Parallel()

	payload := []byte(`{"payload_version":"v1","source":"s","source_item_id":"i","title":"t","bogus":true}`)
	if _, err := ValidateNewsItemPayload(payload); err == nil {
		t.Fatalf("expected error for unknown field")
	}
}

func TestValidateNewsItemPayload_BadTimestamp(t *testing.T) {
	t.Parallel()

	payload := []byte(`{"payload_version":"v1","source":"s","source_item_id":"i","title":"t","published_at":"yesterday"}`)
	if _, err := ValidateNewsItemPayload(payload); err == nil {
		t.Fatalf("expected error for non-RFC3339 published_at")
	}
}

func TestValidateNewsItemPayload_TrailingContent(t *testing.T) {
	t.Parallel()

	payload := []byte(`{"payload_version":"v1","source":"s","source_item_id":"i","title":"t"} extra`)
	if _, err := ValidateNewsItemPayload(payload); err == nil {
		t.Fatalf("expected error for trailing content")
	}
}

func TestValidateNewsItemPayload_Empty(t *testing.T) {
	t.Parallel()

	if _, err := ValidateNewsItemPayload([]byte("  ")); err == nil {
		t.Fatalf("expected error for empty payload")
	}
	if _, err := ValidateNewsItemPayload([]byte(strings.Repeat(" ", 3))); err == nil {
		t.Fatalf("expected error for blank payload")
	}
}
