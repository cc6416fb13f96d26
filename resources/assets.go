package resources

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"runtime"
	"sync"
)

const iconSize = 32

// Icon identifies a tray icon variant.
type Icon string

const (
	IconArmed      Icon = "armed"
	IconMonitoring Icon = "monitoring"
	IconPending    Icon = "pending"
)

var iconColors = map[Icon]color.NRGBA{
	IconArmed:      {R: 0x8a, G: 0x8f, B: 0x98, A: 0xff},
	IconMonitoring: {R: 0x2f, G: 0x7d, B: 0xe1, A: 0xff},
	IconPending:    {R: 0xd9, G: 0x3b, B: 0x3b, A: 0xff},
}

var iconCache sync.Map

// TrayIcon returns icon bytes in the format the host tray expects: ICO on
// Windows, PNG elsewhere.
func TrayIcon(icon Icon) ([]byte, error) {
	return loadIcon(icon, runtime.GOOS == "windows")
}

// MustTrayIcon returns icon bytes or panics on error.
func MustTrayIcon(icon Icon) []byte {
	data, err := TrayIcon(icon)
	if err != nil {
		panic(err)
	}
	return data
}

func loadIcon(icon Icon, asICO bool) ([]byte, error) {
	key := fmt.Sprintf("%s/%t", icon, asICO)
	if cached, ok := iconCache.Load(key); ok {
		return cached.([]byte), nil
	}

	fill, ok := iconColors[icon]
	if !ok {
		return nil, fmt.Errorf("load icon %s: unknown icon", icon)
	}
	data, err := renderPNG(fill)
	if err != nil {
		return nil, fmt.Errorf("load icon %s: %w", icon, err)
	}
	if asICO {
		data = wrapICO(data, iconSize)
	}

	iconCache.Store(key, data)
	return data, nil
}

// renderPNG draws a filled disc with a lighter ring, sized for tray use.
func renderPNG(fill color.NRGBA) ([]byte, error) {
	img := image.NewNRGBA(image.Rect(0, 0, iconSize, iconSize))
	ring := color.NRGBA{R: lighten(fill.R), G: lighten(fill.G), B: lighten(fill.B), A: 0xff}

	center := float64(iconSize-1) / 2
	outer := float64(iconSize)/2 - 1
	inner := outer - 3
	for y := 0; y < iconSize; y++ {
		for x := 0; x < iconSize; x++ {
			dx, dy := float64(x)-center, float64(y)-center
			distance := dx*dx + dy*dy
			switch {
			case distance <= inner*inner:
				img.SetNRGBA(x, y, fill)
			case distance <= outer*outer:
				img.SetNRGBA(x, y, ring)
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func lighten(channel uint8) uint8 {
	return channel + (0xff-channel)/2
}

// wrapICO embeds a PNG in a single-image ICO container.
func wrapICO(pngData []byte, size int) []byte {
	const headerSize = 6 + 16
	var buf bytes.Buffer
	write := func(value any) { _ = binary.Write(&buf, binary.LittleEndian, value) }

	write(uint16(0)) // reserved
	write(uint16(1)) // type: icon
	write(uint16(1)) // image count

	dimension := uint8(size)
	if size >= 256 {
		dimension = 0
	}
	write(dimension)            // width
	write(dimension)            // height
	write(uint8(0))             // palette
	write(uint8(0))             // reserved
	write(uint16(1))            // color planes
	write(uint16(32))           // bits per pixel
	write(uint32(len(pngData))) // image size
	write(uint32(headerSize))   // image offset
	buf.Write(pngData)
	return buf.Bytes()
}
