package display

import (
	"fmt"
	"image"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/inconsolata"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// Panel is the part of the SSD1306 driver the renderer uses.
type Panel interface {
	Bounds() image.Rectangle
	Draw(r image.Rectangle, src image.Image, sp image.Point) error
}

// OLED renders views on a 128x64 monochrome panel.
type OLED struct {
	panel Panel
}

func NewOLED(panel Panel) *OLED {
	return &OLED{panel: panel}
}

// OpenSSD1306 connects to the panel on bus, pulsing its reset line first when one is wired.
func OpenSSD1306(bus i2c.Bus, reset gpio.PinOut) (*ssd1306.Dev, error) {
	if reset != nil {
		if err := reset.Out(gpio.Low); err != nil {
			return nil, fmt.Errorf("oled reset low: %w", err)
		}
		time.Sleep(50 * time.Millisecond)
		if err := reset.Out(gpio.High); err != nil {
			return nil, fmt.Errorf("oled reset high: %w", err)
		}
	}
	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return nil, fmt.Errorf("open ssd1306: %w", err)
	}
	return dev, nil
}

func (o *OLED) Render(v View) error {
	img := Compose(v, o.panel.Bounds())
	return o.panel.Draw(img.Bounds(), img, image.Point{})
}

// field rows are at the same heights the selection markers use
var fieldRows = [3]int{10, 31, 52}

const (
	fieldX  = 76
	markerX = 68
)

// Compose draws v into a fresh frame buffer.
func Compose(v View, bounds image.Rectangle) *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(bounds)

	if v.Page == PageError {
		text(img, inconsolata.Bold8x16, 0, 14, v.Headline)
		for i, line := range wrap(v.Error, (bounds.Dx())/7, 3) {
			text(img, basicfont.Face7x13, 0, 32+i*14, line)
		}
		return img
	}

	text(img, inconsolata.Bold8x16, 0, 14, v.Headline)
	text(img, basicfont.Face7x13, 8, 42, v.Metering)
	if v.MeteringSelected {
		circle(img, 3, 38, 3)
	}
	text(img, basicfont.Face7x13, 4, 62, v.EV+" EV")

	for slot, f := range v.Fields {
		text(img, basicfont.Face7x13, fieldX, fieldRows[slot]+4, f.Value)
	}
	if v.Selected >= 0 && v.Selected < len(fieldRows) {
		circle(img, markerX, fieldRows[v.Selected], 3)
	}
	return img
}

func text(img *image1bit.VerticalLSB, face font.Face, x, y int, s string) {
	d := font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{C: image1bit.On},
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

func circle(img *image1bit.VerticalLSB, cx, cy, r int) {
	x, y, d := r, 0, 1-r
	for x >= y {
		for _, p := range [][2]int{{x, y}, {y, x}, {-y, x}, {-x, y}, {-x, -y}, {-y, -x}, {y, -x}, {x, -y}} {
			pt := image.Pt(cx+p[0], cy+p[1])
			if pt.In(img.Rect) {
				img.SetBit(pt.X, pt.Y, image1bit.On)
			}
		}
		y++
		if d < 0 {
			d += 2*y + 1
		} else {
			x--
			d += 2*(y-x) + 1
		}
	}
}

// wrap splits s into at most lines chunks of width characters.
func wrap(s string, width, lines int) []string {
	if width <= 0 {
		return nil
	}
	runes := []rune(s)
	var out []string
	for len(runes) > 0 && len(out) < lines {
		n := min(width, len(runes))
		out = append(out, string(runes[:n]))
		runes = runes[n:]
	}
	return out
}
