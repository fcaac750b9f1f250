package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/soderasen-au/go-common/util"
	"github.com/xuri/excelize/v2"
)

type ARGBColor struct {
	A int
	R int
	G int
	B int
}

var (
	PredefinedColorMap = map[string]*ARGBColor{
		"yellow":       {R: 255, G: 255, B: 0},
		"white":        {R: 255, G: 255, B: 255},
		"red":          {R: 255, G: 0, B: 0},
		"darkred":      {R: 128, G: 0, B: 0},
		"magenta":      {R: 128, G: 0, B: 128},
		"lightmagenta": {R: 255, G: 0, B: 255},
		"lightgreen":   {R: 0, G: 255, B: 0},
		"lightgray":    {R: 192, G: 192, B: 192},
		"lightcyan":    {R: 0, G: 255, B: 255},
		"lightblue":    {R: 0, G: 0, B: 255},
		"green":        {R: 0, G: 238, B: 0},
		"darkgray":     {R: 128, G: 128, B: 128},
		"cyan":         {R: 0, G: 128, B: 128},
		"brown":        {R: 128, G: 128, B: 0},
		"blue":         {R: 0, G: 0, B: 128},
		"black":        {R: 0, G: 0, B: 0},
	}

	ColorWhite = ARGBColor{R: 255, G: 255, B: 255}
	ColorBlack = ARGBColor{}
)

func (c ARGBColor) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

func (c ARGBColor) Luminance() float64 {
	return (0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)) / 255.0
}

// Contrast is black on light colours and white on dark ones.
func (c ARGBColor) Contrast() ARGBColor {
	if c.Luminance() > 0.5 {
		return ColorBlack
	}
	return ColorWhite
}

func (c ARGBColor) AssignBgStyle(excelStyle *excelize.Style) {
	excelStyle.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{c.Hex()}}
	c.AssignLuminanceFont(excelStyle)
}

func (c ARGBColor) AssignLuminanceFont(excelStyle *excelize.Style) {
	c.Contrast().AssignFontStyle(excelStyle)
}

func (c ARGBColor) AssignFontStyle(excelStyle *excelize.Style) {
	if excelStyle.Font == nil {
		excelStyle.Font = &excelize.Font{}
	}
	excelStyle.Font.Color = c.Hex()
}

func parseChannels(op, body string, n int) ([]int, *util.Result) {
	cv := strings.Split(body, ",")
	if len(cv) != n {
		return nil, util.MsgError(op, "invalid color sections")
	}
	ret := make([]int, n)
	for i, s := range cv {
		v, err := strconv.Atoi(s)
		if err != nil {
			return nil, util.MsgError(op, fmt.Sprintf("invalid color code '%s'", s))
		}
		if v < 0 || v > 255 {
			return nil, util.MsgError(op, fmt.Sprintf("color code %d out of range", v))
		}
		ret[i] = v
	}
	return ret, nil
}

// NewARGBFromColor parses "#RRGGBB", "RGB(r,g,b)", "ARGB(a,r,g,b)" or a colour name.
// An empty text gives a nil colour.
func NewARGBFromColor(t string) (*ARGBColor, *util.Result) {
	t = strings.ToUpper(strings.ReplaceAll(t, " ", ""))
	if t == "" {
		return nil, nil
	}

	switch {
	case strings.HasPrefix(t, "#"):
		if len(t) != 7 {
			return nil, util.MsgError("ParseColor", fmt.Sprintf("invalid hex color '%s'", t))
		}
		v, err := strconv.ParseUint(t[1:], 16, 32)
		if err != nil {
			return nil, util.Error("ParseColor", err)
		}
		return &ARGBColor{A: 255, R: int(v >> 16 & 0xFF), G: int(v >> 8 & 0xFF), B: int(v & 0xFF)}, nil
	case strings.HasPrefix(t, "ARGB(") && strings.HasSuffix(t, ")"):
		cv, res := parseChannels("ParseColor", t[5:len(t)-1], 4)
		if res != nil {
			return nil, res
		}
		return &ARGBColor{A: cv[0], R: cv[1], G: cv[2], B: cv[3]}, nil
	case strings.HasPrefix(t, "RGB(") && strings.HasSuffix(t, ")"):
		cv, res := parseChannels("ParseColor", t[4:len(t)-1], 3)
		if res != nil {
			return nil, res
		}
		return &ARGBColor{A: 255, R: cv[0], G: cv[1], B: cv[2]}, nil
	}

	if c, ok := PredefinedColorMap[strings.ToLower(t)]; ok {
		ret := *c
		ret.A = 255
		return &ret, nil
	}
	return nil, util.MsgError("ParseColor", fmt.Sprintf("unknown color '%s'", t))
}

// ColorOr parses t, falling back to def when t is empty or invalid.
func ColorOr(t string, def ARGBColor) ARGBColor {
	c, res := NewARGBFromColor(t)
	if res != nil || c == nil {
		return def
	}
	return *c
}
