package pdf

import (
	"bytes"
	"image/png"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"
)

var (
	logoOnce sync.Once
	logoData []byte
)

// logoPNG returns the brand mark stamped on every page footer. It is drawn
// once at first use: a rounded indigo tile with the "BX" monogram, rendered
// at 4x the placed size so it stays crisp in print.
func logoPNG() []byte {
	logoOnce.Do(func() {
		const size = 128
		dc := gg.NewContext(size, size)

		dc.DrawRoundedRectangle(4, 4, size-8, size-8, 24)
		dc.SetRGB(0.29, 0.34, 0.84)
		dc.Fill()

		f, err := truetype.Parse(goregular.TTF)
		if err != nil {
			return
		}
		dc.SetFontFace(truetype.NewFace(f, &truetype.Options{Size: 56}))
		dc.SetRGB(1, 1, 1)
		dc.DrawStringAnchored("BX", size/2, size/2, 0.5, 0.5)

		var buf bytes.Buffer
		if err := png.Encode(&buf, dc.Image()); err != nil {
			return
		}
		logoData = buf.Bytes()
	})
	return logoData
}
