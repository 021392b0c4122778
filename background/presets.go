package background

import (
	"math/rand/v2"
	"strings"
)

// Preset 预设渐变：左上到右下两色。
type Preset struct {
	Name string `json:"name"`
	From string `json:"from"`
	To   string `json:"to"`
}

// DefaultPreset 图片解码失败或未指定背景时使用。
const DefaultPreset = "Blue"

var presets = []Preset{
	{Name: "Blue", From: "#4facfe", To: "#00f2fe"},
	{Name: "Green Teal", From: "#43e97b", To: "#38f9d7"},
	{Name: "Pink Yellow", From: "#fa709a", To: "#fee140"},
	{Name: "Teal Purple", From: "#30cfd0", To: "#330867"},
	{Name: "Soft Pink", From: "#ff9a9e", To: "#fad0c4"},
	{Name: "Sky Blue", From: "#a1c4fd", To: "#c2e9fb"},
	{Name: "Violet", From: "#667eea", To: "#764ba2"},
	{Name: "Pastel", From: "#fddb92", To: "#d1fdff"},
}

// Presets returns a copy of the built-in gradient palette.
func Presets() []Preset {
	out := make([]Preset, len(presets))
	copy(out, presets)
	return out
}

// PresetByName 按名称查找预设，忽略大小写、空格与连字符。
func PresetByName(name string) (Preset, bool) {
	key := presetKey(name)
	for _, p := range presets {
		if presetKey(p.Name) == key {
			return p, true
		}
	}
	return Preset{}, false
}

// RandomPreset 从预设中随机挑选一个；rng 为 nil 时使用全局随机源。
func RandomPreset(rng *rand.Rand) Preset {
	if rng == nil {
		return presets[rand.IntN(len(presets))]
	}
	return presets[rng.IntN(len(presets))]
}

// Spec returns the gradient background for this preset.
func (p Preset) Spec() Spec { return Spec{Kind: KindGradient, Preset: p.Name} }

func presetKey(name string) string {
	r := strings.NewReplacer(" ", "", "-", "", "_", "")
	return strings.ToLower(r.Replace(strings.TrimSpace(name)))
}
