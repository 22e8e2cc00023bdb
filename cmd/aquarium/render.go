package main

import (
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/folio-site/folio-backend/internal/aquarium"
)

type cellStyle int

const (
	styleWater cellStyle = iota
	styleBubble
	styleResting
	styleHighlight
	styleDragging
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	liveStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	statusStyle = lipgloss.NewStyle().Faint(true)

	cellStyles = map[cellStyle]lipgloss.Style{
		styleWater:     lipgloss.NewStyle(),
		styleBubble:    lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		styleResting:   lipgloss.NewStyle().Foreground(lipgloss.Color("67")),
		styleHighlight: lipgloss.NewStyle().Foreground(lipgloss.Color("81")).Bold(true),
		styleDragging:  lipgloss.NewStyle().Foreground(lipgloss.Color("213")).Bold(true),
	}
)

// Bubbles with a highlight at or above this intensity use styleHighlight.
const highlightCutoff = 0.1

const maxLabel = 6

type cell struct {
	ch    rune
	style cellStyle
}

// renderTank draws bubbles onto a cols x rows grid. Later bubbles are drawn on
// top of earlier ones.
func renderTank(bubbles []aquarium.Bubble, radius float64, cols, rows int) string {
	if cols <= 0 || rows <= 0 {
		return ""
	}

	grid := make([][]cell, rows)
	for r := range grid {
		grid[r] = make([]cell, cols)
		for c := range grid[r] {
			grid[r][c] = cell{ch: ' ', style: styleWater}
		}
	}

	for _, b := range bubbles {
		drawBubble(grid, b, radius)
	}

	var sb strings.Builder
	for _, row := range grid {
		writeRow(&sb, row)
		sb.WriteByte('\n')
	}
	return sb.String()
}

func bubbleStyle(b aquarium.Bubble) cellStyle {
	switch {
	case b.Dragging:
		return styleDragging
	case b.Highlight >= highlightCutoff:
		return styleHighlight
	case !b.Ambient:
		return styleResting
	}
	return styleBubble
}

func drawBubble(grid [][]cell, b aquarium.Bubble, radius float64) {
	rows, cols := len(grid), len(grid[0])
	centre := b.Centre()
	style := bubbleStyle(b)

	top := int((centre.Y - radius) / cellHeight)
	bottom := int((centre.Y + radius) / cellHeight)
	left := int((centre.X - radius) / cellWidth)
	right := int((centre.X + radius) / cellWidth)

	for r := max(top, 0); r <= bottom && r < rows; r++ {
		for c := max(left, 0); c <= right && c < cols; c++ {
			dx := ((float64(c)+0.5)*cellWidth - centre.X) / radius
			dy := ((float64(r)+0.5)*cellHeight - centre.Y) / radius
			n := dx*dx + dy*dy
			switch {
			case n > 1:
				continue
			case n > 0.55:
				grid[r][c] = cell{ch: '•', style: style}
			default:
				grid[r][c] = cell{ch: ' ', style: style}
			}
		}
	}

	label := []rune(b.Item.Name)
	if len(label) > maxLabel {
		label = label[:maxLabel]
	}
	row := int(centre.Y / cellHeight)
	start := int(centre.X/cellWidth) - len(label)/2
	if row < 0 || row >= rows {
		return
	}
	for i, ch := range label {
		c := start + i
		if c >= 0 && c < cols {
			grid[row][c] = cell{ch: ch, style: style}
		}
	}
}

// writeRow renders runs of equally styled cells with one Render call each.
func writeRow(sb *strings.Builder, row []cell) {
	run := make([]byte, 0, len(row))
	current := row[0].style

	flush := func() {
		if len(run) == 0 {
			return
		}
		if current == styleWater {
			sb.Write(run)
		} else {
			sb.WriteString(cellStyles[current].Render(string(run)))
		}
		run = run[:0]
	}

	for _, c := range row {
		if c.style != current {
			flush()
			current = c.style
		}
		run = utf8.AppendRune(run, c.ch)
	}
	flush()
}
