package layout

import (
	"fmt"
	"strconv"
	"strings"
)

// This file defines unit helpers shared by the raster, SVG and PDF outputs.

// Unit represents the unit a length was written in.
type Unit int

const (
	UnitPX Unit = iota // CSS pixels, the default
	UnitPT             // points
	UnitMM             // millimeters
)

// Conversion constants between pt and mm.
const (
	PtToMm = 0.352777
	MmToPt = 1.0 / PtToMm
	// PxToPt CSS 像素与点的换算（96dpi）。
	PxToPt = 0.75
)

// UnitToString returns a short string for a Unit value.
func UnitToString(u Unit) string {
	switch u {
	case UnitPT:
		return "pt"
	case UnitMM:
		return "mm"
	default:
		return "px"
	}
}

// Length preserves a numeric value with its unit.
type Length struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

// Px converts the length to CSS pixels.
func (l Length) Px() float64 {
	switch l.Unit {
	case UnitPT:
		return l.Value / PxToPt
	case UnitMM:
		return l.Value * MmToPt / PxToPt
	default:
		return l.Value
	}
}

func (l Length) String() string {
	return strconv.FormatFloat(l.Value, 'f', -1, 64) + UnitToString(l.Unit)
}

// ParseLength 解析 "28"、"28px"、"21pt"、"7.4mm" 形式的长度，无单位按像素处理。
func ParseLength(value string) (Length, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return Length{}, fmt.Errorf("长度为空")
	}
	unit := UnitPX
	for _, suf := range []struct {
		s string
		u Unit
	}{{"px", UnitPX}, {"pt", UnitPT}, {"mm", UnitMM}} {
		if strings.HasSuffix(v, suf.s) {
			unit = suf.u
			v = strings.TrimSpace(strings.TrimSuffix(v, suf.s))
			break
		}
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return Length{}, fmt.Errorf("解析长度 %q 失败: %w", value, err)
	}
	return Length{Value: f, Unit: unit}, nil
}

// CanvasToMm 矢量文档中画布坐标按 1 单位 = 1pt 输出，与度量后端的换算保持一致。
func CanvasToMm(v float64) float64 { return v * PtToMm }

// MmToCanvas is the inverse of CanvasToMm.
func MmToCanvas(v float64) float64 { return v * MmToPt }
