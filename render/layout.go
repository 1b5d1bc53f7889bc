package render

import (
	"fmt"

	"github.com/harveysanders/envdisplay/scroll"
)

// Layout is the geometry of the metric list.
type Layout struct {
	Name        string
	Header      int16 // Height of the title area; the list starts here.
	Inset       int16 // Gap between the header and the first item.
	ItemHeight  int16
	ItemSpacing int16
	Padding     int16
	Cards       bool // Draw each metric on a rounded card.
}

var (
	// Rows is the compact one-line-per-metric layout.
	Rows = Layout{
		Name:       "rows",
		Header:     30,
		Inset:      10,
		ItemHeight: 20,
		Padding:    20,
	}
	// Cards draws each metric on a card with its label, value and bar.
	Cards = Layout{
		Name:        "cards",
		Header:      45,
		Inset:       4,
		ItemHeight:  36,
		ItemSpacing: 8,
		Padding:     10,
		Cards:       true,
	}
)

// LayoutByName returns the layout called name.
func LayoutByName(name string) (Layout, error) {
	switch name {
	case Rows.Name:
		return Rows, nil
	case Cards.Name:
		return Cards, nil
	}
	return Layout{}, fmt.Errorf("unknown layout %q (allowed: rows, cards)", name)
}

// Pitch is the distance between consecutive items.
func (l Layout) Pitch() int16 { return l.ItemHeight + l.ItemSpacing }

// Geometry returns the scroll geometry for itemCount items on a panel of
// the given height.
func (l Layout) Geometry(itemCount int, screenHeight int16) scroll.Geometry {
	return scroll.Geometry{
		ItemCount:   itemCount,
		ItemHeight:  int(l.ItemHeight),
		ItemSpacing: int(l.ItemSpacing),
		Padding:     int(l.Padding),
		Viewport:    int(screenHeight - l.Header),
		TopMargin:   int(l.Header),
		MinThumb:    minThumb,
	}.Normalize()
}

const minThumb = 10
