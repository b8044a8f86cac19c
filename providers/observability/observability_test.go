package observability

import (
	"errors"
	"testing"
	"time"
)

// TestAttributeConstructors checks every constructor keeps key and value.
func TestAttributeConstructors(t *testing.T) {
	tests := []struct {
		name      string
		attr      Attribute
		wantKey   string
		wantValue any
	}{
		{"String", String(AttrLLMProvider, "anthropic"), AttrLLMProvider, "anthropic"},
		{"Int", Int(AttrHTTPStatusCode, 429), AttrHTTPStatusCode, 429},
		{"Int64", Int64("bytes", 1<<40), "bytes", int64(1 << 40)},
		{"Float64", Float64("ratio", 0.5), "ratio", 0.5},
		{"Bool", Bool("streamed", true), "streamed", true},
		{"Duration", Duration(AttrDuration, 2*time.Second), AttrDuration, 2 * time.Second},
		{"Error", Error(errors.New("boom")), AttrError, "boom"},
		{"Error nil", Error(nil), AttrError, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.attr.Key != tt.wantKey {
				t.Errorf("key = %q, want %q", tt.attr.Key, tt.wantKey)
			}
			if tt.attr.Value != tt.wantValue {
				t.Errorf("value = %v (%T), want %v (%T)", tt.attr.Value, tt.attr.Value, tt.wantValue, tt.wantValue)
			}
		})
	}
}

// TestStatusCode_Values pins the status ordering.
func TestStatusCode_Values(t *testing.T) {
	if StatusUnset != 0 || StatusOK != 1 || StatusError != 2 {
		t.Errorf("unexpected status codes %d %d %d", StatusUnset, StatusOK, StatusError)
	}
}
