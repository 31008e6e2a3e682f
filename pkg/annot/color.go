package annot

// Color is a display color assigned to a label. The name is kept for
// UI toolkits that address colors symbolically; the RGB components feed
// the PNG and PDF exporters directly.
type Color struct {
	Name string
	R    uint8
	G    uint8
	B    uint8
}

// ColorCycle is the fixed palette labels are assigned from, in order of
// first appearance. Once every entry has been handed out the assignment
// wraps around and colors repeat.
var ColorCycle = []Color{
	{Name: "red", R: 255, G: 0, B: 0},
	{Name: "blue", R: 0, G: 0, B: 255},
	{Name: "green", R: 0, G: 255, B: 0},
	{Name: "orange", R: 255, G: 165, B: 0},
	{Name: "purple", R: 160, G: 32, B: 240},
	{Name: "yellow", R: 255, G: 255, B: 0},
	{Name: "grey", R: 190, G: 190, B: 190},
	{Name: "cyan", R: 0, G: 255, B: 255},
	{Name: "pink", R: 255, G: 192, B: 203},
	{Name: "light sea green", R: 32, G: 178, B: 170},
	{Name: "indian red", R: 255, G: 106, B: 106},
	{Name: "dark khaki", R: 189, G: 183, B: 107},
}
