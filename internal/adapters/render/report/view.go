package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/bnema/anicord/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

type RenderOptions struct {
	Title string
	// CatalogScore is the catalog-wide mean score, 0 when unknown.
	CatalogScore  int
	Members       int
	DropThreshold int
}

func renderBucket(bucket domain.BucketLines, s styles) string {
	parts := []string{s.bucket.Render(fmt.Sprintf("%s (%d)", bucket.Bucket, len(bucket.Lines)))}
	for _, line := range bucket.Lines {
		parts = append(parts, s.line.Render(line))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func reportTitle(title string, media domain.MediaRef) string {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return fmt.Sprintf("%s #%d", media.Type, media.ID)
	}
	return trimmed
}

func scoreLine(label string, score int, s styles) string {
	scoreStyle := lipgloss.NewStyle().Foreground(interpolateColor(float64(score), 0, 100))
	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		fmt.Sprintf("%-13s", label),
		" ",
		renderScoreBar(score, 20, s),
		" ",
		scoreStyle.Render(fmt.Sprintf("%d/100", score)),
	)
}

func dropFooter(mediaType domain.MediaType, threshold int) string {
	unit := "episodes"
	if mediaType == domain.MediaTypeManga {
		unit = "chapters"
	}
	return fmt.Sprintf("Dropped entries count toward the server score after %d %s.", threshold, unit)
}

func renderScoreBar(score, width int, s styles) string {
	if width <= 0 {
		return ""
	}

	filled := int(math.Round(float64(width) * clampScore(float64(score)) / 100))
	empty := width - filled

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		s.barFill.Render(strings.Repeat("=", filled)),
		s.barEmpty.Render(strings.Repeat("-", empty)),
		s.barBracket.Render("]"),
	)
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func interpolateColor(value, min, max float64) lipgloss.Color {
	if max == min {
		return lipgloss.Color("255")
	}

	normalized := (value - min) / (max - min)
	if normalized < 0 {
		normalized = 0
	}
	if normalized > 1 {
		normalized = 1
	}

	// ANSI 256 greyscale ramp from 240 (faded) to 255 (bright white).
	interpolated := 240.0 + 15.0*normalized
	return lipgloss.Color(fmt.Sprintf("%d", int(interpolated)))
}
