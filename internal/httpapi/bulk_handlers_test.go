package httpapi

import "testing"

func TestValidateBulkRequestNormalizesOperation(t *testing.T) {
	t.Parallel()

	req := bulkRequest{Operation: "  Set_Status ", IDs: []int64{1, 2}}
	if fields := validateBulkRequest(&req, "set_status", "delete"); fields != nil {
		t.Fatalf("unexpected validation errors: %v", fields)
	}
	if req.Operation != "set_status" {
		t.Fatalf("operation not normalized: %q", req.Operation)
	}
}

func TestValidateBulkRequestRejectsUnknownOperation(t *testing.T) {
	t.Parallel()

	req := bulkRequest{Operation: "archive", IDs: []int64{1}}
	fields := validateBulkRequest(&req, "set_status", "delete")
	if fields == nil {
		t.Fatalf("expected validation error for unknown operation")
	}
	if _, ok := fields["operation"]; !ok {
		t.Fatalf("expected operation field error, got %v", fields)
	}
}

func TestValidateBulkRequestRejectsBadIDs(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		ids  []int64
	}{
		{name: "empty", ids: nil},
		{name: "zero", ids: []int64{0}},
		{name: "negative", ids: []int64{-1}},
		{name: "duplicate", ids: []int64{3, 3}},
	}

	for _, tc := range cases {
		req := bulkRequest{Operation: "delete", IDs: tc.ids}
		if fields := validateBulkRequest(&req, "delete"); fields == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}

func TestValidateBulkRequestRejectsOversizedBatch(t *testing.T) {
	t.Parallel()

	ids := make([]int64, maxBulkIDs+1)
	for i := range ids {
		ids[i] = int64(i + 1)
	}
	req := bulkRequest{Operation: "delete", IDs: ids}
	if fields := validateBulkRequest(&req, "delete"); fields == nil {
		t.Fatalf("expected validation error for oversized batch")
	}
}
