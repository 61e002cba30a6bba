// utils/qrcode.go
package utils

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
)

// GeneratePaymentQR encodes a hive:// transfer link (account, amount,
// currency, memo) as a base64 PNG QR code for the checkout view.
func GeneratePaymentQR(escrowAccount string, amount float64, currency, memo string) (string, error) {
	payload := fmt.Sprintf("hive://transfer?to=%s&amount=%.3f%%20%s&memo=%s", escrowAccount, amount, currency, memo)

	code, err := qr.Encode(payload, qr.M, qr.Auto)
	if err != nil {
		return "", fmt.Errorf("failed to encode payment QR: %w", err)
	}

	code, err = barcode.Scale(code, 256, 256)
	if err != nil {
		return "", fmt.Errorf("failed to scale payment QR: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, code); err != nil {
		return "", fmt.Errorf("failed to render payment QR: %w", err)
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
