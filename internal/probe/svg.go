package probe

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// SVGSize measures an SVG document from the width, height and viewBox
// attributes of its root element. A missing dimension is derived from the
// viewBox aspect ratio.
func SVGSize(r io.Reader) (uint, uint, error) {
	decoder := xml.NewDecoder(r)
	decoder.Strict = false

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			return 0, 0, errors.New("no svg element found")
		}
		if err != nil {
			return 0, 0, fmt.Errorf("parsing svg: %w", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if start.Name.Local != "svg" {
			return 0, 0, fmt.Errorf("unexpected root element <%s>", start.Name.Local)
		}

		return svgRootSize(start.Attr)
	}
}

func svgRootSize(attrs []xml.Attr) (uint, uint, error) {
	var width, height, vbWidth, vbHeight float64
	for _, a := range attrs {
		switch a.Name.Local {
		case "width":
			width = svgLength(a.Value)
		case "height":
			height = svgLength(a.Value)
		case "viewBox":
			vbWidth, vbHeight = svgViewBox(a.Value)
		}
	}

	hasViewBox := vbWidth > 0 && vbHeight > 0
	switch {
	case width > 0 && height > 0:
	case width > 0 && hasViewBox:
		height = width * vbHeight / vbWidth
	case height > 0 && hasViewBox:
		width = height * vbWidth / vbHeight
	case hasViewBox:
		width, height = vbWidth, vbHeight
	default:
		return 0, 0, errors.New("svg has neither explicit dimensions nor a viewBox")
	}

	return uint(math.Round(width)), uint(math.Round(height)), nil
}

// svgLength parses absolute lengths; relative units yield 0.
func svgLength(v string) float64 {
	v = strings.TrimSuffix(strings.TrimSpace(v), "px")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return 0
	}
	return f
}

func svgViewBox(v string) (float64, float64) {
	parts := strings.FieldsFunc(v, func(r rune) bool {
		return r == ' ' || r == ',' || r == '\t' || r == '\n'
	})
	if len(parts) != 4 {
		return 0, 0
	}
	w, errW := strconv.ParseFloat(parts[2], 64)
	h, errH := strconv.ParseFloat(parts[3], 64)
	if errW != nil || errH != nil {
		return 0, 0
	}
	return w, h
}
