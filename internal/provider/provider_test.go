package provider

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/encoding/simplifiedchinese"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func testTracer() trace.Tracer {
	return trace.NewNoopTracerProvider().Tracer("test")
}

func respond(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     make(http.Header),
	}
}

func stubClient(fn func(req *http.Request) (*http.Response, error)) *http.Client {
	return &http.Client{Transport: roundTripFunc(fn)}
}

func gbk(t *testing.T, s string) string {
	t.Helper()
	out, err := simplifiedchinese.GBK.NewEncoder().String(s)
	if err != nil {
		t.Fatalf("gbk encode: %v", err)
	}
	return out
}

func TestFlexFloat(t *testing.T) {
	var v struct {
		A flexFloat `json:"a"`
		B flexFloat `json:"b"`
		C flexFloat `json:"c"`
	}
	if err := json.Unmarshal([]byte(`{"a":"12.50","b":3,"c":null}`), &v); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.A != 12.5 || v.B != 3 || v.C != 0 {
		t.Fatalf("unexpected values: %+v", v)
	}
	if err := json.Unmarshal([]byte(`{"a":"abc"}`), &v); err == nil {
		t.Fatal("expected error for non-numeric string")
	}
}

func TestValidPriceAndParseNumber(t *testing.T) {
	if validPrice(0) || validPrice(-1) {
		t.Fatal("non-positive prices must be invalid")
	}
	if !validPrice(0.01) {
		t.Fatal("expected positive price to be valid")
	}
	if v, ok := parseNumber(" 1.25% "); !ok || v != 1.25 {
		t.Fatalf("expected 1.25, got %v %v", v, ok)
	}
	if _, ok := parseNumber("NaN"); ok {
		t.Fatal("expected NaN to be rejected")
	}
}

func TestFetchNon200IsError(t *testing.T) {
	client := stubClient(func(req *http.Request) (*http.Response, error) {
		return respond(http.StatusServiceUnavailable, "busy"), nil
	})
	if _, err := fetch(t.Context(), client, "x", "http://example/x", fetchOptions{}); err == nil {
		t.Fatal("expected error for non-200 status")
	}
}
