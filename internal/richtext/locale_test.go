package richtext

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestResolve(t *testing.T) {
	content := LocalizedContent{
		English: RawString("Hello"),
		French:  nil,
		Arabic:  nil,
	}
	if got := Resolve(content, French); got != RawString("Hello") {
		t.Errorf("Resolve(fr) = %v, want Hello", got)
	}

	empty := LocalizedContent{English: nil, French: nil, Arabic: nil}
	if got := Resolve(empty, Arabic); got != nil {
		t.Errorf("Resolve(ar) = %v, want nil", got)
	}
}

func TestResolveWithFallback(t *testing.T) {
	doc := NewDocument(Paragraph("Bonjour"))
	tests := []struct {
		name     string
		content  LocalizedContent
		active   Locale
		fallback Locale
		want     Raw
		meta     Resolution
	}{
		{
			name:     "active present",
			content:  LocalizedContent{French: doc, English: RawString("Hello")},
			active:   French,
			fallback: English,
			want:     doc,
			meta:     Resolution{Requested: French, Resolved: French},
		},
		{
			name:     "empty string falls back",
			content:  LocalizedContent{French: RawString(""), English: RawString("Hello")},
			active:   French,
			fallback: English,
			want:     RawString("Hello"),
			meta:     Resolution{Requested: French, Resolved: English, FallbackUsed: true},
		},
		{
			name:     "nil document falls back",
			content:  LocalizedContent{French: (*Document)(nil), English: RawString("Hello")},
			active:   French,
			fallback: English,
			want:     RawString("Hello"),
			meta:     Resolution{Requested: French, Resolved: English, FallbackUsed: true},
		},
		{
			name:     "custom fallback",
			content:  LocalizedContent{French: RawString("Salut"), English: RawString("Hello")},
			active:   Arabic,
			fallback: French,
			want:     RawString("Salut"),
			meta:     Resolution{Requested: Arabic, Resolved: French, FallbackUsed: true},
		},
		{
			name:     "no chain beyond fallback",
			content:  LocalizedContent{French: RawString("Salut")},
			active:   Arabic,
			fallback: English,
			want:     nil,
			meta:     Resolution{Requested: Arabic, Missing: true},
		},
		{
			name:     "active equals fallback",
			content:  LocalizedContent{English: RawString("Hello")},
			active:   English,
			fallback: English,
			want:     RawString("Hello"),
			meta:     Resolution{Requested: English, Resolved: English},
		},
		{
			name:     "nil map",
			content:  nil,
			active:   English,
			fallback: English,
			want:     nil,
			meta:     Resolution{Requested: English, Missing: true},
		},
		{
			name:     "empty object is still content",
			content:  LocalizedContent{Arabic: RawObject{}},
			active:   Arabic,
			fallback: English,
			want:     RawObject{},
			meta:     Resolution{Requested: Arabic, Resolved: Arabic},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveWithFallback(tt.content, tt.active, tt.fallback)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ResolveWithFallback() mismatch (-want +got):\n%s", diff)
			}
			meta := ResolveMeta(tt.content, tt.active, tt.fallback)
			meta.Value = nil
			if diff := cmp.Diff(tt.meta, meta); diff != "" {
				t.Errorf("ResolveMeta() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLocalizedContentJSON(t *testing.T) {
	var content LocalizedContent
	payload := `{"en":"Hello","fr":{"type":"doc","content":[]},"ar":null,"de":[1,2]}`
	if err := json.Unmarshal([]byte(payload), &content); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	want := LocalizedContent{
		English:       RawString("Hello"),
		French:        RawObject{"type": "doc", "content": []any{}},
		Arabic:        nil,
		Locale("de"):  nil,
	}
	if diff := cmp.Diff(want, content); diff != "" {
		t.Errorf("Unmarshal() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]Locale{English, French}, content.Locales()); diff != "" {
		t.Errorf("Locales() mismatch (-want +got):\n%s", diff)
	}

	encoded, err := json.Marshal(content)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var decoded LocalizedContent
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		t.Fatalf("Unmarshal(round trip) error = %v", err)
	}
	if diff := cmp.Diff(content, decoded); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestLocalizedTextResolve(t *testing.T) {
	text := LocalizedText{English: "Projects", French: "Projets", Arabic: ""}
	if got, from := text.Resolve(French, English); got != "Projets" || from != French {
		t.Errorf("Resolve(fr) = %q, %q", got, from)
	}
	if got, from := text.Resolve(Arabic, English); got != "Projects" || from != English {
		t.Errorf("Resolve(ar) = %q, %q", got, from)
	}
	if got, from := (LocalizedText{}).Resolve(Arabic, English); got != "" || from != "" {
		t.Errorf("Resolve(empty) = %q, %q", got, from)
	}
}

func TestNegotiateLocale(t *testing.T) {
	supported := []Locale{English, French, Arabic}
	tests := []struct {
		name      string
		requested string
		accept    string
		want      Locale
	}{
		{"explicit", "fr", "", French},
		{"explicit wins over header", "ar", "fr-FR,fr;q=0.9", Arabic},
		{"regional header", "", "fr-CA,fr;q=0.8,en;q=0.5", French},
		{"arabic header", "", "ar-EG", Arabic},
		{"unsupported request uses header", "de", "fr", French},
		{"nothing", "", "", English},
		{"unsupported everything", "de", "ja", English},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NegotiateLocale(tt.requested, tt.accept, supported, English); got != tt.want {
				t.Errorf("NegotiateLocale() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDirection(t *testing.T) {
	tests := map[Locale]string{
		Arabic:   "rtl",
		"ar-EG":  "rtl",
		"he":     "rtl",
		English:  "ltr",
		French:   "ltr",
		"":       "ltr",
	}
	for locale, want := range tests {
		if got := locale.Direction(); got != want {
			t.Errorf("Direction(%q) = %q, want %q", locale, got, want)
		}
	}
}

func TestParseLocales(t *testing.T) {
	got := ParseLocales(" en, FR ,ar,,en")
	if diff := cmp.Diff([]Locale{English, French, Arabic}, got); diff != "" {
		t.Errorf("ParseLocales() mismatch (-want +got):\n%s", diff)
	}
}
