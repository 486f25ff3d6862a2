// Package qrimg renders attendance URLs as QR code PNG images.
package qrimg

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
)

const DefaultSize = 400

// PNG encodes content as a QR code scaled to size x size pixels.
// Medium error correction, same as the codes the scanning widget expects.
func PNG(content string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultSize
	}

	code, err := qr.Encode(content, qr.M, qr.Auto)
	if err != nil {
		return nil, fmt.Errorf("error while encoding qr code. Err: %w", err)
	}

	scaled, err := barcode.Scale(code, size, size)
	if err != nil {
		return nil, fmt.Errorf("error while scaling qr code. Err: %w", err)
	}

	buf := &bytes.Buffer{}
	if err := png.Encode(buf, scaled); err != nil {
		return nil, fmt.Errorf("error while rendering qr png. Err: %w", err)
	}

	return buf.Bytes(), nil
}

// DataURL renders content as a PNG data URL ready to drop into an <img> tag
func DataURL(content string, size int) (string, error) {
	data, err := PNG(content, size)
	if err != nil {
		return "", err
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(data), nil
}
