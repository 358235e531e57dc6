// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

package store

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ulikunitz/xz"
)

// CompressTexture xz-compresses a texture blob before it is handed to a
// TextureStore for persistence.
func CompressTexture(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		return nil, fmt.Errorf("open xz writer: %w", err)
	}
	if _, err := w.Write(raw); err != nil {
		return nil, fmt.Errorf("xz compress texture: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close xz writer: %w", err)
	}
	return buf.Bytes(), nil
}

// DecompressTexture reverses CompressTexture.
func DecompressTexture(compressed []byte) ([]byte, error) {
	r, err := xz.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("open xz reader: %w", err)
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("xz decompress texture: %w", err)
	}
	return raw, nil
}
