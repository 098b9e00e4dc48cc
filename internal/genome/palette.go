package genome

// DefaultPalette is the fixed set of default CDS colors, cycled per gene.
var DefaultPalette = []string{
	"#60AA9E", "#D9AD3D", "#5097BA", "#E67030", "#8EBC66",
	"#E59637", "#AABD52", "#DF4327", "#C4B945", "#75B681",
}

// FallbackColor is used when the palette is empty.
const FallbackColor = "#000"

// colorCycle hands out palette colors in order, wrapping at the end.
// A new cycle is created for every parse so results are deterministic.
type colorCycle struct {
	palette []string
	next    int
}

func newColorCycle(palette []string, start int) *colorCycle {
	return &colorCycle{palette: palette, next: start}
}

// Next returns the next color and advances the counter.
func (c *colorCycle) Next() string {
	if len(c.palette) == 0 {
		return FallbackColor
	}
	color := c.palette[c.next%len(c.palette)]
	c.next++
	return color
}
