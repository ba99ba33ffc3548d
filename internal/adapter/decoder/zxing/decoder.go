// Package zxing decodes QR codes from frame images using the gozxing port of
// the ZXing library.
package zxing

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"

	"github.com/framescan/framescan/internal/domain"
	"github.com/framescan/framescan/internal/port"
)

type Decoder struct {
	hints map[gozxing.DecodeHintType]interface{}
}

func NewDecoder() *Decoder {
	return &Decoder{
		hints: map[gozxing.DecodeHintType]interface{}{
			gozxing.DecodeHintType_TRY_HARDER: true,
		},
	}
}

// Decode reads the image at path and returns the QR payload, or
// domain.ErrNoBarcode when the frame holds no readable code.
func (d *Decoder) Decode(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open frame: %w", err)
	}
	defer file.Close() //nolint:errcheck

	img, _, err := image.Decode(file)
	if err != nil {
		return "", fmt.Errorf("decode frame image: %w", err)
	}

	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", fmt.Errorf("binarize frame: %w", err)
	}

	// A fresh reader per call; gozxing readers are not safe for the parallel
	// decode fan-out.
	result, err := qrcode.NewQRCodeReader().Decode(bmp, d.hints)
	if err != nil {
		if _, ok := err.(gozxing.NotFoundException); ok {
			return "", domain.ErrNoBarcode
		}
		return "", fmt.Errorf("decode qr: %w", err)
	}
	if result.GetText() == "" {
		return "", domain.ErrNoBarcode
	}
	return result.GetText(), nil
}

var _ port.FrameDecoder = (*Decoder)(nil)
