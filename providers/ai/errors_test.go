package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

// TestHTTPStatus maps each kind to the status returned to callers.
func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"foreign error", errors.New("boom"), http.StatusInternalServerError},
		{"malformed", NewError(KindMalformedMessage, "x"), http.StatusBadRequest},
		{"unsupported role", NewError(KindUnsupportedRole, "x"), http.StatusBadRequest},
		{"missing credential", MissingCredentialError(VendorMistral), http.StatusUnauthorized},
		{"upstream 429", UpstreamError(VendorOpenAI, http.StatusTooManyRequests, nil), http.StatusTooManyRequests},
		{"upstream without status", UpstreamError(VendorOpenAI, 0, errors.New("dial")), http.StatusInternalServerError},
		{"wrapped upstream", fmt.Errorf("round one: %w", UpstreamError(VendorAnthropic, 529, nil)), 529},
		{"deadline", fmt.Errorf("stream: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{"upstream deadline", UpstreamError(VendorOpenAI, 0, context.DeadlineExceeded), http.StatusGatewayTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatus(tt.err); got != tt.want {
				t.Errorf("HTTPStatus = %d, want %d", got, tt.want)
			}
		})
	}
}

// TestUpstreamError_401IsInvalidCredential verifies the 401 classification and
// the vendor-specific user message.
func TestUpstreamError_401IsInvalidCredential(t *testing.T) {
	err := UpstreamError(VendorMistral, http.StatusUnauthorized, errors.New("unauthorized"))
	if err.Kind != KindInvalidCredential {
		t.Fatalf("expected InvalidCredential, got %s", err.Kind)
	}
	want := "Mistral API Key is incorrect. Please fix it in your profile settings."
	if got := UserMessage(err); got != want {
		t.Errorf("UserMessage = %q, want %q", got, want)
	}
}

// TestMissingCredentialError_Message checks the profile-settings wording.
func TestMissingCredentialError_Message(t *testing.T) {
	got := UserMessage(MissingCredentialError(VendorAnthropic))
	want := "Anthropic API Key not found. Please set it in your profile settings."
	if got != want {
		t.Errorf("UserMessage = %q, want %q", got, want)
	}
}

// TestError_UnwrapAndKind verifies errors.As/Is work through wrapping layers.
func TestError_UnwrapAndKind(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("dispatch: %w", WrapError(KindUpstreamRequest, cause, "call failed"))

	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable with errors.Is")
	}
	if KindOf(err) != KindUpstreamRequest {
		t.Errorf("KindOf = %q", KindOf(err))
	}
	if KindOf(errors.New("plain")) != "" {
		t.Error("expected empty kind for foreign errors")
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("expected cause in message, got %q", err.Error())
	}
}

// TestError_Fatal separates tool-local kinds from request-fatal ones.
func TestError_Fatal(t *testing.T) {
	local := []ErrorKind{KindSchemaConversion, KindArgumentParse, KindUnknownFunction, KindMissingPathParameter}
	for _, kind := range local {
		if (&Error{Kind: kind}).Fatal() {
			t.Errorf("%s should not be fatal", kind)
		}
	}
	fatal := []ErrorKind{KindMissingCredential, KindInvalidCredential, KindUpstreamRequest, KindMalformedMessage, KindUnsupportedRole}
	for _, kind := range fatal {
		if !(&Error{Kind: kind}).Fatal() {
			t.Errorf("%s should be fatal", kind)
		}
	}
}

// TestParseVendor accepts known names case-insensitively.
func TestParseVendor(t *testing.T) {
	if vendor, ok := ParseVendor(" OpenRouter "); !ok || vendor != VendorOpenRouter {
		t.Errorf("ParseVendor = %q, %v", vendor, ok)
	}
	if _, ok := ParseVendor("gemini"); ok {
		t.Error("expected unknown vendor to be rejected")
	}
	if VendorAnthropic.OpenAICompatible() || !VendorAzure.OpenAICompatible() {
		t.Error("unexpected OpenAICompatible classification")
	}
}

// TestLookupModel covers the token ceiling and image flag table.
func TestLookupModel(t *testing.T) {
	spec, ok := LookupModel("claude-3-5-sonnet-20241022")
	if !ok {
		t.Fatal("expected model to be known")
	}
	if spec.ID != "claude-3-5-sonnet-20241022" || spec.Vendor != VendorAnthropic || spec.MaxOutputTokens != 8192 || !spec.ImageInput {
		t.Errorf("unexpected spec %+v", spec)
	}
	if MaxOutputTokens("not-a-model") != 0 {
		t.Error("expected 0 for unknown model")
	}
	if spec, _ := LookupModel("gpt-3.5-turbo"); spec.ImageInput {
		t.Error("gpt-3.5-turbo should not accept images")
	}

	models := Models()
	for i := 1; i < len(models); i++ {
		prev, cur := models[i-1], models[i]
		if prev.Vendor > cur.Vendor || (prev.Vendor == cur.Vendor && prev.ID >= cur.ID) {
			t.Fatalf("Models not sorted at %d: %s/%s then %s/%s", i, prev.Vendor, prev.ID, cur.Vendor, cur.ID)
		}
	}
}
