package tracker

// emoji maps step tags to the glyphs shown on a terminal.
var emoji = map[string]string{
	"sunny":                 "☀️",
	"desktop_computer":      "\U0001f5a5️",
	"mag_right":             "\U0001f50e",
	"heavy_plus_sign":       "➕",
	"wrench":                "\U0001f527",
	"arrow_down_small":      "\U0001f53d",
	"eight_spoked_asterisk": "✳️",
	"arrow_double_up":       "⏫",
	"unicorn_face":          "\U0001f984",
	"gear":                  "⚙️",
	"bulb":                  "\U0001f4a1",
	"boom":                  "\U0001f4a5",
	"ballot_box_with_check": "☑️",
	"x":                     "❌",
	"white_check_mark":      "✅",
}

const (
	checkMark = "[OK]"
	crossMark = "[!!]"
	tagMark   = "[..]"
)

// glyph returns the glyph for tag, falling back to an ASCII mark.
func glyph(tag string, useEmoji bool) string {
	if !useEmoji {
		return tagMark
	}
	if g, ok := emoji[tag]; ok {
		return g
	}
	return tagMark
}
