package dispatch

import (
	"errors"
	"strings"

	"github.com/docuflow/docstate/internal/core"
)

// Upload object keys have a fixed shape: uploads/<document_id>/<object>.
const (
	uploadPrefix = "uploads"
	minKeyDepth  = 3
	docIDSegment = 1
)

// ErrNotUploadKey marks object keys outside the upload prefix. Such
// notifications are for other consumers and are dropped without being
// counted as malformed.
var ErrNotUploadKey = errors.New("object key is not under the uploads prefix")

// ParseUploadKey extracts the document ID from an upload object key.
// Keys under the upload prefix with too few segments, or with a document-id
// segment unusable as a record partition key, are malformed: retrying them
// can never succeed.
func ParseUploadKey(key string) (string, error) {
	segments := strings.Split(key, "/")
	if segments[0] != uploadPrefix {
		return "", ErrNotUploadKey
	}
	if len(segments) < minKeyDepth {
		return "", core.NewMalformedKeyError(key, "too few path segments")
	}
	documentID := segments[docIDSegment]
	if documentID == "" {
		return "", core.NewMalformedKeyError(key, "empty document id segment")
	}
	// '.' separates partition key from sort key in record store keys.
	if strings.Contains(documentID, ".") {
		return "", core.NewMalformedKeyError(key, "document id segment contains '.'")
	}
	return documentID, nil
}
