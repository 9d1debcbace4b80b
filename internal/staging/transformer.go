package staging

import (
	"bytes"
	"context"
	"encoding/base64"
)

// Request is one transform call against the external image service.
type Request struct {
	Image       []byte // source or prior-result image
	Instruction string // full instruction text, see BuildInstruction
	AspectRatio string // concrete ratio, e.g. "4:3"
	RoomType    string
	Model       string
	Resolution  string // "1K", "2K", "4K"
}

// Transformer performs a single image transform round-trip. Implementations
// return sentinel errors from internal/errs so callers can branch on the
// failure class.
type Transformer interface {
	Transform(ctx context.Context, req Request) ([]byte, error)
}

var dataURIPrefix = []byte("data:image/")

// normalizeImagePayload strips a data-URI wrapper if present and returns the
// raw image bytes. Payloads that are already raw pass through unchanged.
func normalizeImagePayload(img []byte) []byte {
	if !bytes.HasPrefix(img, dataURIPrefix) {
		return img
	}
	comma := bytes.IndexByte(img, ',')
	if comma < 0 {
		return img
	}
	raw, err := base64.StdEncoding.DecodeString(string(img[comma+1:]))
	if err != nil {
		return img
	}
	return raw
}
