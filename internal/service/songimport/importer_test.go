package songimport

import (
	"strings"
	"testing"

	"go.uber.org/zap"
)

const hymnalFixture = `<!DOCTYPE html>
<html>
<head><title>Cantoral</title></head>
<body>
<h1>Sublime Gracia</h1>
<p class="author">Autor: John Newton</p>
<div class="letra">
  <div class="estrofa" data-label="Estrofa 1">
    Sublime gracia del Señor<br>
    que a un pecador salvó
  </div>
  <div class="coro">
    Gracia, gracia<br>
    Dios me la dio
  </div>
</div>
</body>
</html>`

const hymnalPreFixture = `<html>
<head><title>Cantoral</title></head>
<body>
<h1>Tal Como Soy</h1>
<pre>Tal como soy, sin más decir
que a otro yo no puedo ir

Coro:
Cordero de Dios, heme aquí</pre>
</body>
</html>`

func TestParseStructuredFixture(t *testing.T) {
	im := NewImporter("https://cantoral.example.org", nil, zap.NewNop())

	song, err := im.Parse(strings.NewReader(hymnalFixture), "https://cantoral.example.org/sublime-gracia")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if song.Title != "Sublime Gracia" {
		t.Errorf("title = %q, want %q", song.Title, "Sublime Gracia")
	}
	if song.Author != "John Newton" {
		t.Errorf("author = %q, want %q", song.Author, "John Newton")
	}
	if len(song.Sections) != 2 {
		t.Fatalf("sections = %d, want 2", len(song.Sections))
	}
	if song.Sections[0].Label != "Estrofa 1" {
		t.Errorf("first label = %q, want %q", song.Sections[0].Label, "Estrofa 1")
	}
	if song.Sections[1].Label != "Coro" {
		t.Errorf("second label = %q, want %q", song.Sections[1].Label, "Coro")
	}
	if !strings.Contains(song.Sections[0].Lines, "Sublime gracia del Señor\nque a un pecador salvó") {
		t.Errorf("verse lines not split on <br>: %q", song.Sections[0].Lines)
	}
	for i, section := range song.Sections {
		if strings.Contains(section.Lines, "\n\n") {
			t.Errorf("section %d has a phantom blank line after <br>: %q", i, section.Lines)
		}
	}
}

func TestParsePreBlockFixture(t *testing.T) {
	im := NewImporter("", nil, zap.NewNop())

	song, err := im.Parse(strings.NewReader(hymnalPreFixture), "https://example.org/tal-como-soy")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if song.Title != "Tal Como Soy" {
		t.Errorf("title = %q, want %q", song.Title, "Tal Como Soy")
	}
	if len(song.Sections) != 2 {
		t.Fatalf("sections = %d, want 2", len(song.Sections))
	}
	if song.Sections[1].Label != "Coro" {
		t.Errorf("chorus block not detected: label = %q", song.Sections[1].Label)
	}
}

const hymnalPreBrFixture = `<html>
<head><title>Cantoral</title></head>
<body>
<h1>Firmes y Adelante</h1>
<pre>Firmes y adelante<br>
huestes de la fe

Coro:
Firmes y adelante</pre>
</body>
</html>`

// A <br> followed by a source newline must not be mistaken for a stanza
// break, while the literal blank line still splits the chorus off.
func TestParsePreBlockBrDoesNotSplitStanza(t *testing.T) {
	im := NewImporter("", nil, zap.NewNop())

	song, err := im.Parse(strings.NewReader(hymnalPreBrFixture), "https://example.org/firmes")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(song.Sections) != 2 {
		t.Fatalf("sections = %d, want 2", len(song.Sections))
	}
	if song.Sections[0].Lines != "Firmes y adelante\nhuestes de la fe" {
		t.Errorf("first stanza = %q, want lines joined by a single newline", song.Sections[0].Lines)
	}
	if song.Sections[1].Label != "Coro" {
		t.Errorf("chorus block not detected: label = %q", song.Sections[1].Label)
	}
}

func TestParseRejectsUnrecognizedPage(t *testing.T) {
	im := NewImporter("", nil, zap.NewNop())

	_, err := im.Parse(strings.NewReader("<html><body><p>nothing here</p></body></html>"), "https://example.org/x")
	if err == nil {
		t.Fatal("expected structure error for page without lyrics")
	}
	if !IsStructureError(err) {
		t.Errorf("error type = %T, want *StructureChangedError", err)
	}
}
