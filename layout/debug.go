package layout

import (
	"encoding/json"
	"io"
	"os"
)

// debugLine 在排版结果之外附加每行的实际坐标，方便与渲染输出对照。
type debugLine struct {
	Text     string    `json:"text"`
	X        float64   `json:"x"`
	Baseline float64   `json:"baseline"`
	Width    float64   `json:"width"`
	RunXs    []float64 `json:"runXs,omitempty"`
}

type debugDoc struct {
	*Result
	Placed []debugLine `json:"placed"`
}

// EncodeDebugJSON 将排版结果连同各行坐标编码为缩进 JSON。
func EncodeDebugJSON(w io.Writer, res *Result) error {
	if res == nil {
		return nil
	}
	doc := debugDoc{Result: res, Placed: make([]debugLine, len(res.Lines))}
	for i, ln := range res.Lines {
		doc.Placed[i] = debugLine{
			Text:     ln.Text(),
			X:        res.LineX(i),
			Baseline: res.Baseline(i),
			Width:    ln.Width,
			RunXs:    res.RunXs(i),
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// WriteDebugJSON 将布局结果输出为 JSON 文件，便于调试或可视化。
func WriteDebugJSON(res *Result, path string) error {
	if res == nil {
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := EncodeDebugJSON(f, res); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
