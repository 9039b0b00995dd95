package dispatch

import (
	"errors"
	"testing"

	"github.com/docuflow/docstate/internal/core"
)

func TestParseUploadKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		want    string
		wantErr string // "", "filter", or an error code
	}{
		{name: "well formed", key: "uploads/doc-1/scan.pdf", want: "doc-1"},
		{name: "nested object path", key: "uploads/doc-1/pages/0001.png", want: "doc-1"},
		{name: "wrong prefix", key: "thumbnails/doc-1/small.png", wantErr: "filter"},
		{name: "bare prefix", key: "uploads", wantErr: core.ErrCodeMalformedKey},
		{name: "too few segments", key: "uploads/doc-1", wantErr: core.ErrCodeMalformedKey},
		{name: "empty document id", key: "uploads//scan.pdf", wantErr: core.ErrCodeMalformedKey},
		{name: "dotted document id", key: "uploads/doc.1/scan.pdf", wantErr: core.ErrCodeMalformedKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseUploadKey(tt.key)
			switch tt.wantErr {
			case "":
				if err != nil {
					t.Fatalf("ParseUploadKey(%q) error = %v", tt.key, err)
				}
				if got != tt.want {
					t.Errorf("ParseUploadKey(%q) = %q, want %q", tt.key, got, tt.want)
				}
			case "filter":
				if !errors.Is(err, ErrNotUploadKey) {
					t.Errorf("ParseUploadKey(%q) error = %v, want ErrNotUploadKey", tt.key, err)
				}
			default:
				var coreErr *core.Error
				if !errors.As(err, &coreErr) || coreErr.Code != tt.wantErr {
					t.Errorf("ParseUploadKey(%q) error = %v, want code %q", tt.key, err, tt.wantErr)
				}
			}
		})
	}
}

func TestDecodeEvent(t *testing.T) {
	evt, err := DecodeEvent([]byte(`{"bucket":"ocr-inbox","key":"uploads/doc-1/scan.pdf"}`))
	if err != nil {
		t.Fatalf("DecodeEvent() error = %v", err)
	}
	if evt.Bucket != "ocr-inbox" || evt.Key != "uploads/doc-1/scan.pdf" {
		t.Errorf("DecodeEvent() = %+v", evt)
	}

	if _, err := DecodeEvent([]byte(`{"bucket":"ocr-inbox"}`)); err == nil {
		t.Error("DecodeEvent() without key expected error")
	}
	if _, err := DecodeEvent([]byte(`{{`)); err == nil {
		t.Error("DecodeEvent() with invalid JSON expected error")
	}
}
