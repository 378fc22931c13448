package markup_test

import (
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"quizbuilder/internal/domain"
	"quizbuilder/internal/editor"
	"quizbuilder/internal/markup"
)

func docWithRedText(t *testing.T) (*domain.Document, string) {
	t.Helper()
	doc, id, _ := editor.AddElement(domain.NewDocument("quiz"), domain.ElementText, domain.SectionBody, "")
	doc, _ = editor.UpdateElement(doc, id, editor.ElementPatch{Styles: domain.Style{"color": "#ff0000"}})
	return doc, id
}

func findDelta(deltas []markup.Delta, id string) (markup.Delta, bool) {
	for _, d := range deltas {
		if d.ID == id {
			return d, true
		}
	}
	return markup.Delta{}, false
}

// ─── Generate ────────────────────────────────────────────────────────────

func TestGenerate_Structure(t *testing.T) {
	doc, id := docWithRedText(t)
	proj, err := markup.Generate(doc, "")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	scr := doc.Screens[0]
	for _, want := range []string{
		`id="quiz-screen"`,
		`data-screen-id="` + scr.ID + `"`,
		`id="section-body"`,
		`data-direction="column"`,
		`<p id="` + id + `" data-type="text" style="color: #ff0000">Text</p>`,
	} {
		if !strings.Contains(proj.Markup, want) {
			t.Errorf("markup missing %s\n%s", want, proj.Markup)
		}
	}
	if strings.Contains(proj.Markup, "section-header") {
		t.Error("disabled header must not be emitted")
	}
	wantRule := `#quiz-screen[data-screen-id="` + scr.ID + `"] #` + id + " {\n  color: #ff0000;\n}"
	if !strings.Contains(proj.Stylesheet, wantRule) {
		t.Errorf("stylesheet missing rule\n%s", proj.Stylesheet)
	}
}

func TestGenerate_UnknownScreen(t *testing.T) {
	if _, err := markup.Generate(domain.NewDocument("quiz"), "nope"); err == nil {
		t.Fatal("expected an error for an unknown screen")
	}
}

func TestGenerate_ResolvesThemeRefs(t *testing.T) {
	doc := domain.NewDocument("quiz")
	doc, _ = editor.SetActiveTheme(doc, "light")
	doc, id, _ := editor.AddElement(doc, domain.ElementButton, domain.SectionBody, "")

	el, _ := domain.FindElement(doc, id)
	if el.Styles["backgroundColor"] != domain.ThemeRef("primary") {
		t.Fatalf("expected a symbolic background, got %q", el.Styles["backgroundColor"])
	}

	proj, err := markup.Generate(doc, "")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if strings.Contains(proj.Markup, "var(--theme-") || strings.Contains(proj.Stylesheet, "var(--theme-") {
		t.Error("theme references must be resolved in the projection")
	}
	if !strings.Contains(proj.Stylesheet, "background-color: #3b82f6") {
		t.Errorf("expected the resolved primary colour\n%s", proj.Stylesheet)
	}
}

func TestGenerate_NestedGroup(t *testing.T) {
	doc := domain.NewDocument("quiz")
	doc, a, _ := editor.AddElement(doc, domain.ElementButton, domain.SectionBody, "")
	doc, b, _ := editor.AddElement(doc, domain.ElementText, domain.SectionBody, "")
	doc, g, _ := editor.GroupElements(doc, []string{a, b})

	proj, err := markup.Generate(doc, "")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	gi := strings.Index(proj.Markup, `id="`+g+`"`)
	ai := strings.Index(proj.Markup, `id="`+a+`"`)
	bi := strings.Index(proj.Markup, `id="`+b+`"`)
	if gi < 0 || !(gi < ai && ai < bi) {
		t.Fatalf("children must follow their group in order\n%s", proj.Markup)
	}
	if !strings.Contains(proj.Markup, `data-wrap="wrap"`) {
		t.Error("group layout attributes missing")
	}
}

// ─── Parse ───────────────────────────────────────────────────────────────

func TestRoundTrip_RedText(t *testing.T) {
	doc, id := docWithRedText(t)
	proj, err := markup.Generate(doc, "")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	deltas := markup.NewParser(zaptest.NewLogger(t)).Parse(proj.Markup, proj.Stylesheet)
	d, ok := findDelta(deltas, id)
	if !ok {
		t.Fatalf("no delta for %s in %+v", id, deltas)
	}
	if d.SectionID != domain.SectionBody {
		t.Errorf("section %q, want body", d.SectionID)
	}
	if d.Type != domain.ElementText {
		t.Errorf("type %q, want text", d.Type)
	}
	if d.Styles["color"] != "#ff0000" {
		t.Errorf("color %q, want #ff0000", d.Styles["color"])
	}

	out, n := markup.Apply(doc, deltas)
	if n != 0 || out != doc {
		t.Fatalf("an unedited projection must not change the document, %d updates", n)
	}
}

func TestRoundTrip_EditedProjection(t *testing.T) {
	doc, id := docWithRedText(t)
	proj, _ := markup.Generate(doc, "")

	edited := strings.Replace(proj.Markup, ">Text<", ">Hello &amp; welcome<", 1)
	css := strings.Replace(proj.Stylesheet, "color: #ff0000;", "color: #00ff00;\n  font-weight: bold !important;", 1)

	out, n := markup.Apply(doc, markup.NewParser(nil).Parse(edited, css))
	if n != 1 {
		t.Fatalf("expected 1 updated element, got %d", n)
	}
	el, _ := domain.FindElement(out, id)
	if el.Content != "Hello & welcome" {
		t.Errorf("content %q", el.Content)
	}
	if el.Styles["color"] != "#00ff00" || el.Styles["fontWeight"] != "bold" {
		t.Errorf("styles %v", el.Styles)
	}
	if el.SectionID != domain.SectionBody {
		t.Errorf("section changed to %q", el.SectionID)
	}
}

func groupedDoc(t *testing.T) (*domain.Document, string) {
	t.Helper()
	doc := domain.NewDocument("quiz")
	doc, a, _ := editor.AddElement(doc, domain.ElementText, domain.SectionBody, "")
	doc, b, _ := editor.AddElement(doc, domain.ElementButton, domain.SectionBody, "")
	doc, g, desc := editor.GroupElements(doc, []string{a, b})
	if desc == "" {
		t.Fatal("GroupElements was a no-op")
	}
	return doc, g
}

func TestRoundTrip_GroupUnchanged(t *testing.T) {
	doc, g := groupedDoc(t)
	proj, _ := markup.Generate(doc, "")

	out, n := markup.Apply(doc, markup.NewParser(nil).Parse(proj.Markup, proj.Stylesheet))
	if n != 0 || out != doc {
		t.Fatalf("an unedited group must not change the document, %d updates", n)
	}
	el, _ := domain.FindElement(out, g)
	if len(el.Styles) != 0 {
		t.Errorf("layout leaked into styles: %v", el.Styles)
	}
}

func TestRoundTrip_GroupLayoutEdit(t *testing.T) {
	doc, g := groupedDoc(t)
	proj, _ := markup.Generate(doc, "")

	css := strings.Replace(proj.Stylesheet, "flex-direction: row;", "flex-direction: column;", 1)
	out, n := markup.Apply(doc, markup.NewParser(nil).Parse(proj.Markup, css))
	if n != 1 {
		t.Fatalf("expected 1 updated element, got %d", n)
	}
	el, _ := domain.FindElement(out, g)
	if el.Layout == nil || el.Layout.Direction != "column" {
		t.Fatalf("layout not updated: %+v", el.Layout)
	}
	if len(el.Styles) != 0 {
		t.Errorf("layout leaked into styles: %v", el.Styles)
	}

	// The new direction is the only one in the regenerated rule.
	proj, _ = markup.Generate(out, "")
	if strings.Contains(proj.Stylesheet, "flex-direction: row;") {
		t.Errorf("stale direction in stylesheet\n%s", proj.Stylesheet)
	}
	if _, n := markup.Apply(out, markup.NewParser(nil).Parse(proj.Markup, proj.Stylesheet)); n != 0 {
		t.Errorf("regenerated projection reported %d updates", n)
	}
}

func TestRoundTrip_KeepsThemeReference(t *testing.T) {
	doc := domain.NewDocument("quiz")
	doc, _ = editor.SetActiveTheme(doc, "light")
	doc, id, _ := editor.AddElement(doc, domain.ElementButton, domain.SectionBody, "")

	proj, _ := markup.Generate(doc, "")
	out, n := markup.Apply(doc, markup.NewParser(nil).Parse(proj.Markup, proj.Stylesheet))
	if n != 0 {
		t.Fatalf("resolved theme values must not count as edits, got %d", n)
	}
	el, _ := domain.FindElement(out, id)
	if el.Styles["backgroundColor"] != domain.ThemeRef("primary") {
		t.Errorf("symbolic reference lost: %q", el.Styles["backgroundColor"])
	}
}

func TestParse_SectionInference(t *testing.T) {
	m := `<div id="quiz-screen">
  <p id="loose">Before any section</p>
  <div id="section-header"><button id="b1">Go</button></div>
  <div id="section-footer"><a id="l1" href="/next">Next</a><img id="i1" src="x.png" alt="x"/></div>
</div>`
	deltas := markup.NewParser(nil).Parse(m, "")

	want := map[string]string{"loose": "body", "b1": "header", "l1": "footer", "i1": "footer"}
	for id, sec := range want {
		d, ok := findDelta(deltas, id)
		if !ok {
			t.Errorf("missing %s", id)
			continue
		}
		if d.SectionID != sec {
			t.Errorf("%s: section %q, want %q", id, d.SectionID, sec)
		}
	}
	if d, _ := findDelta(deltas, "l1"); d.Attributes["href"] != "/next" || d.Type != domain.ElementLink {
		t.Errorf("link delta %+v", d)
	}
	if d, _ := findDelta(deltas, "i1"); d.Content != nil || d.Attributes["src"] != "x.png" {
		t.Errorf("image delta %+v", d)
	}
}

func TestParse_MalformedInput(t *testing.T) {
	p := markup.NewParser(zaptest.NewLogger(t))
	cases := []struct {
		name, markup, css string
	}{
		{"empty", "", ""},
		{"unclosed tags", `<p id="x">dangling <div <span id=`, ""},
		{"broken rules", "", `#x { color: red; ; : ; } }} garbage { #y {`},
		{"unknown tags", `<marquee id="m">hi</marquee>`, `@media print { #m { color: red } }`},
		{"binary noise", "\x00<\xff>\x01", "\x00{\xff}"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_ = p.Parse(tc.markup, tc.css)
		})
	}

	deltas := p.Parse(`<p id="x">kept</p>`, `#x { color: red; ; } #ghost { color: blue; }`)
	if d, ok := findDelta(deltas, "x"); !ok || d.Styles["color"] != "red" {
		t.Errorf("well-formed parts must survive, got %+v", deltas)
	}
	if _, ok := findDelta(deltas, "m"); ok {
		t.Error("unrecognised tags must be skipped")
	}

	doc := domain.NewDocument("quiz")
	if _, n := markup.Apply(doc, deltas); n != 0 {
		t.Error("unknown ids must be ignored")
	}
}
