package ui

import (
	"hash/fnv"

	"github.com/charmbracelet/lipgloss"
	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/gamut"
)

// tagColor picks a stable colour for a payload tag: the hue comes from the
// tag's hash, and the light-background variant is a darker shade of it.
func tagColor(tag string) lipgloss.AdaptiveColor {
	h := fnv.New32a()
	_, _ = h.Write([]byte(tag))
	hue := float64(h.Sum32() % 360)

	dark := colorful.Hsv(hue, 0.55, 0.95)
	light, ok := colorful.MakeColor(gamut.Darker(dark, 0.4))
	if !ok {
		light = dark
	}
	return lipgloss.AdaptiveColor{Light: light.Hex(), Dark: dark.Hex()}
}

func tagBadge(tag string) string {
	if tag == "" {
		tag = "?"
	}
	return lipgloss.NewStyle().Foreground(tagColor(tag)).Bold(true).Render(tag)
}
