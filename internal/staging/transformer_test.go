package staging

import (
	"bytes"
	"encoding/base64"
	"testing"
)

func TestNormalizeImagePayload(t *testing.T) {
	raw := []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10}

	t.Run("raw bytes pass through", func(t *testing.T) {
		if got := normalizeImagePayload(raw); !bytes.Equal(got, raw) {
			t.Errorf("got %x", got)
		}
	})

	t.Run("data URI unwrapped", func(t *testing.T) {
		uri := []byte("data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(raw))
		if got := normalizeImagePayload(uri); !bytes.Equal(got, raw) {
			t.Errorf("got %x", got)
		}
	})

	t.Run("malformed URI left alone", func(t *testing.T) {
		bad := []byte("data:image/jpeg;base64,!!!not-base64!!!")
		if got := normalizeImagePayload(bad); !bytes.Equal(got, bad) {
			t.Errorf("got %q", got)
		}
		noComma := []byte("data:image/jpeg;base64")
		if got := normalizeImagePayload(noComma); !bytes.Equal(got, noComma) {
			t.Errorf("got %q", got)
		}
	})
}
