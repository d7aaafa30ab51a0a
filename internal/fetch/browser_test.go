package fetch

import (
	"encoding/base64"
	"errors"
	"net/http"
	"testing"

	"github.com/go-rod/rod/lib/proto"
)

func TestCheckDocument(t *testing.T) {
	tests := []struct {
		status  int
		wantErr bool
	}{
		{http.StatusOK, false},
		{http.StatusNoContent, false},
		{http.StatusNotFound, true},
		{http.StatusServiceUnavailable, true},
		{http.StatusMovedPermanently, true},
	}

	for _, tt := range tests {
		err := checkDocument("https://example.org/c/1", &proto.NetworkResponse{Status: tt.status})
		if (err != nil) != tt.wantErr {
			t.Fatalf("status %d: err = %v", tt.status, err)
		}
		if err == nil {
			continue
		}
		var netErr *NetworkError
		if !errors.As(err, &netErr) || netErr.Status != tt.status {
			t.Fatalf("status %d: expected NetworkError with status, got %v", tt.status, err)
		}
	}
}

func TestIsHTML(t *testing.T) {
	tests := map[string]bool{
		"text/html":                true,
		"text/html; charset=utf-8": true,
		"application/xhtml+xml":    true,
		"":                         true,
		"image/png":                false,
		"image/jpeg":               false,
		"application/json":         false,
	}
	for in, want := range tests {
		if got := isHTML(in); got != want {
			t.Errorf("isHTML(%q) = %t, want %t", in, got, want)
		}
	}
}

func TestDecodeBody(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n")

	got, err := decodeBody(&proto.NetworkGetResponseBodyResult{
		Body:          base64.StdEncoding.EncodeToString(png),
		Base64Encoded: true,
	})
	if err != nil || string(got) != string(png) {
		t.Fatalf("decodeBody(base64) = %q, %v", got, err)
	}

	got, err = decodeBody(&proto.NetworkGetResponseBodyResult{Body: "plain"})
	if err != nil || string(got) != "plain" {
		t.Fatalf("decodeBody(plain) = %q, %v", got, err)
	}
}
