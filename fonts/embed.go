package fonts

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
)

// 内置字体族名。
const (
	Sans = "Go"
	Mono = "Go Mono"
)

// Variant 字重与字形组合。
type Variant struct {
	Bold   bool
	Italic bool
}

func (v Variant) String() string {
	switch {
	case v.Bold && v.Italic:
		return "bold-italic"
	case v.Bold:
		return "bold"
	case v.Italic:
		return "italic"
	default:
		return "regular"
	}
}

var (
	mu       sync.RWMutex
	families = map[string]map[Variant][]byte{
		Sans: {
			{}:                         goregular.TTF,
			{Bold: true}:               gobold.TTF,
			{Italic: true}:             goitalic.TTF,
			{Bold: true, Italic: true}: gobolditalic.TTF,
		},
		Mono: {
			{}:                         gomono.TTF,
			{Bold: true}:               gomonobold.TTF,
			{Italic: true}:             gomonoitalic.TTF,
			{Bold: true, Italic: true}: gomonobolditalic.TTF,
		},
	}
	// byFold 以小写族名索引 families，大小写不同的名称视为同一族。
	byFold = map[string]string{
		strings.ToLower(Sans): Sans,
		strings.ToLower(Mono): Mono,
	}
	// 常见 CSS 字体名映射到内置字体，其余名称退回无衬线。
	aliases = map[string]string{
		"monospace":       Mono,
		"courier":         Mono,
		"courier new":     Mono,
		"consolas":        Mono,
		"menlo":           Mono,
		"monaco":          Mono,
		"source code pro": Mono,
		"go mono":         Mono,
		"gomono":          Mono,
	}
)

// Resolve 将用户给出的字体族名（可为 CSS 字体栈）归一为已注册的族名。
func Resolve(family string) string {
	mu.RLock()
	defer mu.RUnlock()
	for _, part := range strings.Split(family, ",") {
		name := strings.Trim(strings.TrimSpace(part), `"'`)
		if name == "" {
			continue
		}
		if registered, ok := byFold[strings.ToLower(name)]; ok {
			return registered
		}
		if alias, ok := aliases[strings.ToLower(name)]; ok {
			return alias
		}
	}
	return Sans
}

// Load 返回字体族某一变体的 TTF 数据；缺少该变体时依次退回粗体/常规。
func Load(family string, v Variant) ([]byte, error) {
	name := Resolve(family)
	mu.RLock()
	defer mu.RUnlock()
	set := families[name]
	for _, cand := range []Variant{v, {Bold: v.Bold}, {}} {
		if data, ok := set[cand]; ok && len(data) > 0 {
			return data, nil
		}
	}
	return nil, fmt.Errorf("读取字体 %s (%s) 失败: 未注册常规字重", name, v)
}

// Register 注册外部字体数据，同名族的同一变体会被覆盖。
// 族名不区分大小写：与已注册族只差大小写时并入该族，沿用首次注册的写法。
func Register(family string, v Variant, data []byte) error {
	family = strings.TrimSpace(family)
	if family == "" {
		return fmt.Errorf("注册字体失败: 族名为空")
	}
	if len(data) == 0 {
		return fmt.Errorf("注册字体 %s 失败: 数据为空", family)
	}
	mu.Lock()
	defer mu.Unlock()
	if canonical, ok := byFold[strings.ToLower(family)]; ok {
		family = canonical
	} else {
		byFold[strings.ToLower(family)] = family
	}
	set, ok := families[family]
	if !ok {
		set = map[Variant][]byte{}
		families[family] = set
	}
	set[v] = data
	return nil
}

// Families 返回已注册的字体族名，按字母排序。
func Families() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(families))
	for name := range families {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
