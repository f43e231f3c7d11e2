package md2conf

import (
	"bytes"
	"compress/flate"
	"encoding/base64"
	"fmt"
)

const (
	liveEditorPrefix  = "https://mermaid.live/edit#pako:"
	hostedImagePrefix = "https://mermaid.ink/img/pako:"
)

// EditorURL builds a mermaid.live editor link that opens the given
// diagram source. The payload is raw-deflate compressed and URL-safe
// base64 encoded, the pako scheme the editor expects.
func EditorURL(code string) (string, error) {
	enc, err := deflateBase64(code)
	if err != nil {
		return "", err
	}
	return liveEditorPrefix + enc, nil
}

// HostedImageURL builds a mermaid.ink URL that serves the diagram as a
// rendered PNG, using the same pako encoding as the live editor.
func HostedImageURL(code string) (string, error) {
	enc, err := deflateBase64(code)
	if err != nil {
		return "", err
	}
	return hostedImagePrefix + enc + "?type=png", nil
}

// deflateBase64 compresses s with a raw deflate stream (no zlib
// header) and encodes the result with URL-safe base64.
func deflateBase64(s string) (string, error) {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		return "", fmt.Errorf("deflate init: %w", err)
	}
	if _, err := w.Write([]byte(s)); err != nil {
		return "", fmt.Errorf("deflate write: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("deflate close: %w", err)
	}
	return base64.URLEncoding.EncodeToString(buf.Bytes()), nil
}
