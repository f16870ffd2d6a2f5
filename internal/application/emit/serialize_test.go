package emit

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"vault2notion/internal/application"
	"vault2notion/internal/domain"
	"vault2notion/internal/ports"
)

func body(t *testing.T, obj ports.BlockObject) ports.BlockObject {
	t.Helper()
	typ, ok := obj["type"].(string)
	if !ok {
		t.Fatalf("object without type: %v", obj)
	}
	b, ok := obj[typ].(ports.BlockObject)
	if !ok {
		t.Fatalf("object %s without body", typ)
	}
	return b
}

func richText(t *testing.T, obj ports.BlockObject) []ports.BlockObject {
	t.Helper()
	rich, ok := body(t, obj)["rich_text"].([]ports.BlockObject)
	if !ok {
		t.Fatalf("object without rich_text: %v", obj)
	}
	return rich
}

func children(t *testing.T, obj ports.BlockObject) []ports.BlockObject {
	t.Helper()
	c, _ := body(t, obj)["children"].([]ports.BlockObject)
	return c
}

func href(rt ports.BlockObject) string {
	link, ok := rt["text"].(ports.BlockObject)["link"].(ports.BlockObject)
	if !ok {
		return ""
	}
	return link["url"].(string)
}

func TestSerializer_BlockTypes(t *testing.T) {
	blocks := []domain.Block{
		domain.Heading{Level: 2, Runs: []domain.TextRun{domain.Plain("h")}},
		domain.Paragraph{Runs: []domain.TextRun{domain.Plain("p")}},
		domain.ToDo{Checked: true, Runs: []domain.TextRun{domain.Plain("t")}},
		domain.NumberedItem{Runs: []domain.TextRun{domain.Plain("n")}},
		domain.Quote{Runs: []domain.TextRun{domain.Plain("q")}},
		domain.CodeBlock{Language: "py", Text: "x = 1"},
		domain.Divider{},
		domain.Image{URL: "https://cdn/a.png", Caption: "cap"},
		domain.File{URL: "https://cdn/a.pdf", Name: "a.pdf", Class: domain.AssetPDF},
		domain.File{URL: "https://cdn/a.zip", Name: "a.zip", Class: domain.AssetOther},
	}
	wantTypes := []string{"heading_2", "paragraph", "to_do", "numbered_list_item", "quote", "code", "divider", "image", "pdf", "file"}

	items, err := NewSerializer(nil).Serialize(blocks)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != len(wantTypes) {
		t.Fatalf("items = %d, want %d", len(items), len(wantTypes))
	}
	for i, it := range items {
		if it.Object["type"] != wantTypes[i] || it.Object["object"] != "block" {
			t.Errorf("item %d type = %v, want %s", i, it.Object["type"], wantTypes[i])
		}
	}

	if checked := body(t, items[2].Object)["checked"]; checked != true {
		t.Errorf("to_do checked = %v", checked)
	}
	if lang := body(t, items[5].Object)["language"]; lang != "python" {
		t.Errorf("code language = %v, want python", lang)
	}
	img := body(t, items[7].Object)
	if img["external"].(ports.BlockObject)["url"] != "https://cdn/a.png" {
		t.Errorf("image = %v", img)
	}
}

func TestSerializer_NestsListItems(t *testing.T) {
	item := func(depth int, text string) domain.Block {
		return domain.BulletItem{Depth: depth, Runs: []domain.TextRun{domain.Plain(text)}}
	}
	blocks := []domain.Block{
		item(0, "a"),
		item(1, "b"),
		item(2, "c"),
		item(3, "d"),
		item(1, "e"),
		item(0, "f"),
	}

	items, err := NewSerializer(nil).Serialize(blocks)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("top-level items = %d, want 2", len(items))
	}
	if items[0].Sources != 5 || items[0].Size != 5 {
		t.Errorf("first item sources = %d size = %d, want 5 and 5", items[0].Sources, items[0].Size)
	}

	level1 := children(t, items[0].Object)
	if len(level1) != 2 {
		t.Fatalf("children of a = %d, want 2", len(level1))
	}
	level2 := children(t, level1[0])
	if len(level2) != 2 {
		t.Fatalf("children of b = %d, want 2 (c and clamped d)", len(level2))
	}
	if got := firstText(level2[1]); got != "d" {
		t.Errorf("clamped item = %q, want d", got)
	}
	if c := children(t, level2[0]); len(c) != 0 {
		t.Errorf("third level should be empty, got %d", len(c))
	}
}

func TestSerializer_ParagraphBreaksNesting(t *testing.T) {
	blocks := []domain.Block{
		domain.BulletItem{Depth: 0, Runs: []domain.TextRun{domain.Plain("a")}},
		domain.Paragraph{Runs: []domain.TextRun{domain.Plain("p")}},
		domain.BulletItem{Depth: 1, Runs: []domain.TextRun{domain.Plain("orphan")}},
	}

	items, err := NewSerializer(nil).Serialize(blocks)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 3 {
		t.Errorf("items = %d, want 3", len(items))
	}
}

func TestSerializer_RichText(t *testing.T) {
	linker := LinkerFunc(func(slug string) (string, bool) {
		if slug == "known" {
			return "https://www.notion.so/abc", true
		}
		return "", false
	})
	doc := func(slug string) *domain.ResolvedLink {
		l := domain.Document(slug)
		return &l
	}
	ext := func(u string) *domain.ResolvedLink {
		l := domain.External(u)
		return &l
	}

	runs := []domain.TextRun{
		{Text: "bold", Style: domain.StyleBold | domain.StyleCode},
		{Text: "known", Link: doc("known")},
		{Text: "unknown", Link: doc("missing")},
		{Text: "web", Link: ext("https://example.com")},
		{Text: "app", Link: ext("obsidian://open?vault=x")},
		{Text: "mail", Link: ext("mailto:a@b.c")},
	}

	items, err := NewSerializer(linker).Serialize([]domain.Block{domain.Paragraph{Runs: runs}})
	if err != nil {
		t.Fatal(err)
	}
	rich := richText(t, items[0].Object)
	if len(rich) != len(runs) {
		t.Fatalf("rich text = %d, want %d", len(rich), len(runs))
	}

	ann := rich[0]["annotations"].(ports.BlockObject)
	if ann["bold"] != true || ann["code"] != true || ann["italic"] != false {
		t.Errorf("annotations = %v", ann)
	}

	wantHrefs := []string{"", "https://www.notion.so/abc", "", "https://example.com", "", "mailto:a@b.c"}
	for i, want := range wantHrefs {
		if got := href(rich[i]); got != want {
			t.Errorf("run %d href = %q, want %q", i, got, want)
		}
	}
}

func TestSerializer_SplitsLongText(t *testing.T) {
	long := strings.Repeat("é", 4500)
	items, err := NewSerializer(nil).Serialize([]domain.Block{domain.CodeBlock{Text: long}})
	if err != nil {
		t.Fatal(err)
	}

	rich := richText(t, items[0].Object)
	if len(rich) != 3 {
		t.Fatalf("parts = %d, want 3", len(rich))
	}
	var joined strings.Builder
	for _, rt := range rich {
		content := rt["text"].(ports.BlockObject)["content"].(string)
		if n := len([]rune(content)); n > MaxTextLength {
			t.Errorf("part has %d characters", n)
		}
		joined.WriteString(content)
	}
	if joined.String() != long {
		t.Error("split lost content")
	}
	if lang := body(t, items[0].Object)["language"]; lang != PlainText {
		t.Errorf("language = %v, want %s", lang, PlainText)
	}
}

func TestSerializer_Table(t *testing.T) {
	table := domain.Table{HasHeader: true, Rows: [][]domain.TableCell{
		{{Runs: []domain.TextRun{domain.Plain("a")}}, {Runs: []domain.TextRun{domain.Plain("b")}}},
		{{Runs: []domain.TextRun{domain.Plain("1")}}, {}},
	}}

	items, err := NewSerializer(nil).Serialize([]domain.Block{table})
	if err != nil {
		t.Fatal(err)
	}
	b := body(t, items[0].Object)
	if b["table_width"] != 2 || b["has_column_header"] != true {
		t.Errorf("table body = %v", b)
	}
	rows := b["children"].([]ports.BlockObject)
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if items[0].Size != 3 {
		t.Errorf("Size = %d, want 3", items[0].Size)
	}
}

type bogusBlock struct{ domain.Divider }

func TestSerializer_UnknownBlock(t *testing.T) {
	_, err := NewSerializer(nil).Serialize([]domain.Block{bogusBlock{}})
	if !errors.Is(err, application.ErrUnsupportedBlock) {
		t.Errorf("err = %v, want ErrUnsupportedBlock", err)
	}
}

func TestLanguage(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"py", "python"},
		{"JS", "javascript"},
		{"cpp", "c++"},
		{"", PlainText},
		{"brainfuck", PlainText},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Language(tt.in); got != tt.want {
				t.Errorf("Language(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSerializer_ArrayLimits(t *testing.T) {
	t.Run("long rich text continues in another block", func(t *testing.T) {
		runs := make([]domain.TextRun, 150)
		for i := range runs {
			runs[i] = domain.TextRun{Text: fmt.Sprintf("r%d ", i)}
			if i%2 == 0 {
				runs[i].Style = domain.StyleBold
			}
		}

		items, err := NewSerializer(nil).Serialize([]domain.Block{domain.Paragraph{Runs: runs}})
		if err != nil {
			t.Fatal(err)
		}
		if len(items) != 2 {
			t.Fatalf("items = %d, want 2", len(items))
		}
		first, second := richText(t, items[0].Object), richText(t, items[1].Object)
		if len(first) != MaxArrayLength || len(second) != 50 {
			t.Errorf("rich text = %d + %d, want %d + 50", len(first), len(second), MaxArrayLength)
		}
		if items[1].Object["type"] != "paragraph" {
			t.Errorf("continuation type = %v, want paragraph", items[1].Object["type"])
		}
		if items[0].Sources+items[1].Sources != 1 || items[1].Sources != 1 {
			t.Errorf("sources = %d + %d, want the block counted once on its last piece", items[0].Sources, items[1].Sources)
		}
	})

	t.Run("code continuation keeps its language", func(t *testing.T) {
		long := strings.Repeat("x", MaxTextLength*MaxArrayLength+10)
		items, err := NewSerializer(nil).Serialize([]domain.Block{domain.CodeBlock{Language: "go", Text: long}})
		if err != nil {
			t.Fatal(err)
		}
		if len(items) != 2 {
			t.Fatalf("items = %d, want 2", len(items))
		}
		if items[1].Object["type"] != "code" || body(t, items[1].Object)["language"] != "go" {
			t.Errorf("continuation = %v", items[1].Object)
		}
	})

	t.Run("tall table splits and repeats the header", func(t *testing.T) {
		rows := make([][]domain.TableCell, 150)
		for i := range rows {
			rows[i] = []domain.TableCell{{Runs: []domain.TextRun{domain.Plain(fmt.Sprint(i))}}}
		}
		items, err := NewSerializer(nil).Serialize([]domain.Block{domain.Table{HasHeader: true, Rows: rows}})
		if err != nil {
			t.Fatal(err)
		}
		if len(items) != 2 {
			t.Fatalf("tables = %d, want 2", len(items))
		}
		first, second := children(t, items[0].Object), children(t, items[1].Object)
		if len(first) != MaxArrayLength || len(second) != 51 {
			t.Errorf("rows = %d + %d, want %d + 51", len(first), len(second), MaxArrayLength)
		}
		if second[0]["table_row"].(ports.BlockObject)["cells"].([]any)[0].([]ports.BlockObject)[0]["text"].(ports.BlockObject)["content"] != "0" {
			t.Error("continuation table does not start with the header row")
		}
	})

	t.Run("wide list moves overflow up a level", func(t *testing.T) {
		blocks := []domain.Block{domain.BulletItem{Runs: []domain.TextRun{domain.Plain("parent")}}}
		for i := 0; i < 150; i++ {
			blocks = append(blocks, domain.BulletItem{Depth: 1, Runs: []domain.TextRun{domain.Plain(fmt.Sprint(i))}})
		}

		items, err := NewSerializer(nil).Serialize(blocks)
		if err != nil {
			t.Fatal(err)
		}
		if len(items) != 2 {
			t.Fatalf("top-level items = %d, want 2", len(items))
		}
		if n := len(children(t, items[0].Object)); n != MaxArrayLength {
			t.Errorf("children of parent = %d, want %d", n, MaxArrayLength)
		}
		if n := len(children(t, items[1].Object)); n != 49 {
			t.Errorf("children of promoted item = %d, want 49", n)
		}
		if items[0].Sources+items[1].Sources != len(blocks) {
			t.Errorf("sources = %d, want %d", items[0].Sources+items[1].Sources, len(blocks))
		}
	})

	t.Run("long caption is capped", func(t *testing.T) {
		got := capRichText(make([]ports.BlockObject, 120, 120))
		if len(got) != MaxArrayLength {
			t.Errorf("capped = %d, want %d", len(got), MaxArrayLength)
		}
	})
}
