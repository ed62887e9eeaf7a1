package devices

import (
	"encoding/json"
	"fmt"
	"image"
	"log"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

const (
	displayWidth  = 128
	displayHeight = 64
	lineHeight    = 13
	maxLineChars  = 16
)

// Screen is the part of *ssd1306.Dev the status display needs.
type Screen interface {
	Bounds() image.Rectangle
	Draw(r image.Rectangle, src image.Image, sp image.Point) error
}

// StatusDisplay shows the emotion reported by the vision module and the
// glove's motion state.
type StatusDisplay struct {
	Screen Screen
}

// ParseEmotion extracts data.emotion, defaulting to "No emotion".
func ParseEmotion(payload []byte) (string, error) {
	var msg struct {
		Data struct {
			Emotion string `json:"emotion"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &msg); err != nil {
		return "", fmt.Errorf("display: %w", err)
	}
	if msg.Data.Emotion == "" {
		return "No emotion", nil
	}
	return msg.Data.Emotion, nil
}

// Ready shows the startup screen.
func (d *StatusDisplay) Ready() error {
	return d.Show("Display Ready...", "Waiting...")
}

// ShowEmotion renders "Emotion:" and the first 16 characters of e.
func (d *StatusDisplay) ShowEmotion(e string) error {
	if err := d.Show("Emotion:", e); err != nil {
		return err
	}
	log.Printf("display: showing emotion %q", e)
	return nil
}

// Show draws up to four lines, each cut to 16 characters.
func (d *StatusDisplay) Show(lines ...string) error {
	return d.Screen.Draw(d.Screen.Bounds(), Render(lines...), image.Point{})
}

// Render draws lines in the 7x13 basic font on a blank 128x64 frame.
func Render(lines ...string) *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, displayWidth, displayHeight))
	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	for i, line := range lines {
		y := (i + 1) * lineHeight
		if y > displayHeight {
			break
		}
		drawer.Dot = fixed.P(0, y)
		drawer.DrawString(truncate(line, maxLineChars))
	}
	return img
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		return string(r[:n])
	}
	return s
}
