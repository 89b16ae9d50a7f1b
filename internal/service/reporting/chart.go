package reporting

import (
	"bytes"
	"fmt"
	"image/color"

	"github.com/fogleman/gg"

	"github.com/mamadbah2/shiftboard/internal/service/analysis"
)

const (
	chartWidth   = 800
	chartHeight  = 400
	chartMargin  = 48.0
	maxLabelRune = 14
)

var (
	barColor   = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	curveColor = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}
	axisColor  = color.RGBA{R: 0x44, G: 0x44, B: 0x44, A: 0xff}
)

// RenderChart draws the Pareto breakdown as bars (minutes) with a cumulative percentage curve
// and returns it as PNG.
func RenderChart(result analysis.ParetoResult) ([]byte, error) {
	dc := gg.NewContext(chartWidth, chartHeight)
	dc.SetColor(color.White)
	dc.Clear()

	plotW := float64(chartWidth) - 2*chartMargin
	plotH := float64(chartHeight) - 2*chartMargin
	left, bottom := chartMargin, float64(chartHeight)-chartMargin

	dc.SetColor(axisColor)
	dc.SetLineWidth(1)
	dc.DrawLine(left, bottom, left+plotW, bottom)
	dc.DrawLine(left, bottom, left, bottom-plotH)
	dc.DrawLine(left+plotW, bottom, left+plotW, bottom-plotH)
	dc.Stroke()

	dc.DrawStringAnchored(fmt.Sprintf("%s min", formatNumber(analysis.RoundTo(result.TotalMinutes, 1))), left, chartMargin/2, 0, 0.5)
	dc.DrawStringAnchored("100%", left+plotW, chartMargin/2, 1, 0.5)

	groups := result.Groups
	if len(groups) == 0 {
		dc.DrawStringAnchored("no stoppages", float64(chartWidth)/2, float64(chartHeight)/2, 0.5, 0.5)
		return encode(dc)
	}

	maxMinutes := groups[0].Minutes
	for _, g := range groups {
		if g.Minutes > maxMinutes {
			maxMinutes = g.Minutes
		}
	}
	if maxMinutes <= 0 {
		maxMinutes = 1
	}

	slot := plotW / float64(len(groups))
	barW := slot * 0.7

	for i, g := range groups {
		h := g.Minutes / maxMinutes * plotH
		x := left + float64(i)*slot + (slot-barW)/2
		dc.SetColor(barColor)
		dc.DrawRectangle(x, bottom-h, barW, h)
		dc.Fill()

		dc.SetColor(axisColor)
		dc.DrawStringAnchored(truncate(g.Key), x+barW/2, bottom+12, 0.5, 0.5)
	}

	dc.SetColor(curveColor)
	dc.SetLineWidth(2)
	for i, g := range groups {
		x := left + float64(i)*slot + slot/2
		y := bottom - g.CumulativePercent/100*plotH
		if i == 0 {
			dc.MoveTo(x, y)
		} else {
			dc.LineTo(x, y)
		}
	}
	dc.Stroke()
	for i, g := range groups {
		x := left + float64(i)*slot + slot/2
		y := bottom - g.CumulativePercent/100*plotH
		dc.DrawCircle(x, y, 3)
		dc.Fill()
	}

	return encode(dc)
}

func encode(dc *gg.Context) ([]byte, error) {
	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode chart png: %w", err)
	}
	return buf.Bytes(), nil
}

func truncate(label string) string {
	runes := []rune(label)
	if len(runes) <= maxLabelRune {
		return label
	}
	return string(runes[:maxLabelRune-3]) + "..."
}
