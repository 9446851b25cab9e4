package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := New(Config{
		APIKey:     "sk-operator",
		BaseURL:    srv.URL,
		HTTPClient: srv.Client(),
	})
	return c, srv
}

func TestGenerateImagesReturnsURLs(t *testing.T) {
	var gotAuth string
	var gotReq generateRequest

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/images/generations" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"created": 1700000000,
			"data": []map[string]string{
				{"url": "https://img.example/1.png"},
				{"url": "https://img.example/2.png"},
			},
		})
	})

	res, err := c.GenerateImages(context.Background(), "a red fox", 2, "512x512", "")
	if err != nil {
		t.Fatalf("GenerateImages: %v", err)
	}
	if len(res.URLs) != 2 {
		t.Fatalf("got %d urls, want 2", len(res.URLs))
	}
	if gotAuth != "Bearer sk-operator" {
		t.Errorf("auth header = %q, want operator key fallback", gotAuth)
	}
	if gotReq.N != 2 || gotReq.Size != "512x512" || gotReq.Prompt != "a red fox" {
		t.Errorf("request = %+v", gotReq)
	}
}

func TestGenerateImagesUsesUserKey(t *testing.T) {
	var gotAuth string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]string{{"url": "https://img.example/1.png"}},
		})
	})

	if _, err := c.GenerateImages(context.Background(), "p", 1, "256x256", "sk-user"); err != nil {
		t.Fatalf("GenerateImages: %v", err)
	}
	if gotAuth != "Bearer sk-user" {
		t.Errorf("auth header = %q, want user key", gotAuth)
	}
}

func TestGenerateImagesUnauthorized(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{
				"type":    "invalid_request_error",
				"message": "Incorrect API key provided",
			},
		})
	})

	_, err := c.GenerateImages(context.Background(), "p", 1, "512x512", "sk-bad")
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type = %T, want *Error", err)
	}
	if !apiErr.Unauthorized() {
		t.Errorf("Unauthorized() = false, status = %d", apiErr.Status)
	}
	if apiErr.Code() != "OPENAI_UNAUTHORIZED" {
		t.Errorf("Code() = %q", apiErr.Code())
	}
}

func TestGenerateImagesEmptyPrompt(t *testing.T) {
	c := New(Config{APIKey: "sk"})
	if _, err := c.GenerateImages(context.Background(), "   ", 1, "512x512", ""); err == nil {
		t.Fatal("expected error for empty prompt")
	}
}

func TestGenerateImagesClampsCount(t *testing.T) {
	var gotReq generateRequest
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]string{{"url": "https://img.example/1.png"}},
		})
	})

	if _, err := c.GenerateImages(context.Background(), "p", 99, "512x512", ""); err != nil {
		t.Fatalf("GenerateImages: %v", err)
	}
	if gotReq.N != maxImagesPerRequest {
		t.Errorf("n = %d, want clamp to %d", gotReq.N, maxImagesPerRequest)
	}
}

func TestValidateAPIKey(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.Header.Get("Authorization") == "Bearer sk-good" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	})

	if err := c.ValidateAPIKey(context.Background(), "sk-good"); err != nil {
		t.Fatalf("valid key rejected: %v", err)
	}
	if err := c.ValidateAPIKey(context.Background(), "sk-bad"); err == nil {
		t.Fatal("invalid key accepted")
	}
	if err := c.ValidateAPIKey(context.Background(), ""); err == nil {
		t.Fatal("empty key accepted")
	}
}
