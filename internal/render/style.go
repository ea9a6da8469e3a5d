// 包 render：要素样式与弹窗内容的纯函数
package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"github.com/paulmach/orb/geojson"
)

// Style：前端绘制参数（与 Leaflet path options 对齐）
type Style struct {
	Color       string  `json:"color"`
	Weight      int     `json:"weight"`
	FillOpacity float64 `json:"fillOpacity"`
}

const (
	// DemoType：本地数据集中使用强调色的类别
	DemoType = "Demo"

	FallbackName      = "Uten navn"
	FallbackMatchName = "Treff"
	FallbackType      = "ukjent"
	LocalPointRadius  = 8
	colorDemo         = "#0077ff"
	colorOther        = "#ff5500"
)

var (
	RemoteStyle = Style{Color: "#1f78b4", Weight: 1, FillOpacity: 0.1}
	BufferStyle = Style{Color: "#9467bd", Weight: 2, FillOpacity: 0.05}
	MatchStyle  = Style{Color: "#17becf", Weight: 3, FillOpacity: 0.2}
)

// LocalStyle：本地要素样式，仅由 type 属性决定
func LocalStyle(props geojson.Properties) Style {
	color := colorOther
	if TypeOf(props) == DemoType {
		color = colorDemo
	}
	return Style{Color: color, Weight: 2, FillOpacity: 0.4}
}

// TypeOf：type 属性文本，缺失时为 ukjent
func TypeOf(props geojson.Properties) string {
	return prop(props, "type", FallbackType)
}

// LocalPopup：本地图层弹窗，显示 navn 与 type
func LocalPopup(props geojson.Properties) string {
	return namedPopup(props, FallbackName)
}

// MatchPopup：筛选结果弹窗，名称缺失时显示 Treff
func MatchPopup(props geojson.Properties) string {
	return namedPopup(props, FallbackMatchName)
}

// RemotePopup：远端要素弹窗，完整属性以缩进 JSON 展示
// 约束：仅在没有原始属性文本时使用；键按字母序输出
func RemotePopup(props geojson.Properties) string {
	if props == nil {
		props = geojson.Properties{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	text := fmt.Sprint(map[string]any(props))
	if err := enc.Encode(props); err == nil {
		text = strings.TrimRight(buf.String(), "\n")
	}
	return preBlock(text)
}

// RawPopup：以远端返回的原始 properties 文本生成弹窗
// 约束：键顺序与数字写法保持源文本原样；缺失时为 {}
func RawPopup(raw json.RawMessage) string {
	if len(bytes.TrimSpace(raw)) == 0 {
		return preBlock("{}")
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return preBlock(string(raw))
	}
	return preBlock(buf.String())
}

func preBlock(text string) string {
	return `<pre style="margin:0">` + html.EscapeString(text) + `</pre>`
}

// NameOf：navn 属性文本，缺失或 null 时返回 fallback
func NameOf(props geojson.Properties, fallback string) string {
	return prop(props, "navn", fallback)
}

func namedPopup(props geojson.Properties, fallbackName string) string {
	return fmt.Sprintf("<b>%s</b><br/>Type: %s",
		html.EscapeString(NameOf(props, fallbackName)),
		html.EscapeString(TypeOf(props)))
}

// prop：读取属性文本；缺失或 null 时返回 def，非字符串值按默认格式输出
func prop(props geojson.Properties, key, def string) string {
	v, ok := props[key]
	if !ok || v == nil {
		return def
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
