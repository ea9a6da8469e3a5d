package render

import (
	"encoding/json"
	"testing"

	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
)

func TestLocalStyleDependsOnlyOnType(t *testing.T) {
	a := LocalStyle(geojson.Properties{"type": "Demo", "navn": "Park A"})
	b := LocalStyle(geojson.Properties{"type": "Demo", "navn": "Park B", "extra": 1})
	assert.Equal(t, a, b)
	assert.Equal(t, "#0077ff", a.Color)

	other := LocalStyle(geojson.Properties{"type": "Skog"})
	assert.Equal(t, "#ff5500", other.Color)

	missing := LocalStyle(nil)
	assert.Equal(t, other, missing)
	assert.Equal(t, LocalStyle(geojson.Properties{"type": FallbackType}), missing)
}

func TestLocalPopup(t *testing.T) {
	assert.Equal(t, "<b>Park A</b><br/>Type: Demo", LocalPopup(geojson.Properties{"navn": "Park A", "type": "Demo"}))
	assert.Equal(t, "<b>Uten navn</b><br/>Type: ukjent", LocalPopup(geojson.Properties{}))
	assert.Equal(t, "<b>Uten navn</b><br/>Type: 3", LocalPopup(geojson.Properties{"navn": nil, "type": 3}))
	assert.Equal(t, "<b>&lt;i&gt;</b><br/>Type: ukjent", LocalPopup(geojson.Properties{"navn": "<i>"}))
}

func TestMatchPopup(t *testing.T) {
	assert.Equal(t, "<b>Treff</b><br/>Type: Demo", MatchPopup(geojson.Properties{"type": "Demo"}))
}

func TestRemotePopup(t *testing.T) {
	got := RemotePopup(geojson.Properties{"id": 7, "name": "a&b"})
	assert.Equal(t, "<pre style=\"margin:0\">{\n  &#34;id&#34;: 7,\n  &#34;name&#34;: &#34;a&amp;b&#34;\n}</pre>", got)
	assert.Equal(t, `<pre style="margin:0">{}</pre>`, RemotePopup(nil))
}

func TestRawPopupKeepsSourceText(t *testing.T) {
	got := RawPopup(json.RawMessage(`{"name":"a<b","id":7.50,"big":12345678901234567890}`))
	want := "<pre style=\"margin:0\">{\n  &#34;name&#34;: &#34;a&lt;b&#34;,\n  &#34;id&#34;: 7.50,\n  &#34;big&#34;: 12345678901234567890\n}</pre>"
	assert.Equal(t, want, got)

	assert.Equal(t, `<pre style="margin:0">{}</pre>`, RawPopup(nil))
	assert.Equal(t, `<pre style="margin:0">null</pre>`, RawPopup(json.RawMessage(`null`)))
}

func TestNameOf(t *testing.T) {
	assert.Equal(t, "Park A", NameOf(geojson.Properties{"navn": "Park A"}, FallbackMatchName))
	assert.Equal(t, "Treff", NameOf(geojson.Properties{"navn": nil}, FallbackMatchName))
	assert.Equal(t, "Uten navn", NameOf(nil, FallbackName))
	assert.Equal(t, "42", NameOf(geojson.Properties{"navn": 42}, FallbackName))
}
