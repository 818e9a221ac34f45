package docgen

import (
	"archive/zip"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/contractbot/contract-reminder/internal/common"
	"github.com/contractbot/contract-reminder/internal/entity"
)

func writeTemplate(t *testing.T, dir, name, documentXML string) {
	t.Helper()
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("create template: %v", err)
	}
	defer f.Close()
	w := zip.NewWriter(f)
	doc, err := w.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create entry: %v", err)
	}
	if _, err := doc.Write([]byte(documentXML)); err != nil {
		t.Fatalf("write entry: %v", err)
	}
	media, _ := w.Create("word/media/logo.bin")
	_, _ = media.Write([]byte{0x01, 0x02})
	if err := w.Close(); err != nil {
		t.Fatalf("close template: %v", err)
	}
}

func readEntry(t *testing.T, path, name string) string {
	t.Helper()
	r, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("open rendered doc: %v", err)
	}
	defer r.Close()
	for _, f := range r.File {
		if f.Name == name {
			rc, _ := f.Open()
			defer rc.Close()
			data, _ := io.ReadAll(rc)
			return string(data)
		}
	}
	t.Fatalf("entry %s not found in %s", name, path)
	return ""
}

func TestRenderExtension(t *testing.T) {
	templates := t.TempDir()
	output := t.TempDir()
	writeTemplate(t, templates, "notify_extension.docx",
		`<w:t>{{employee_full_name}} / {{organization}} / до {{contract_end_date}}</w:t>`)

	g := NewDocxRenderer(templates, output, nil)
	g.now = func() time.Time { return time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC) }

	rec := entity.ContractRecord{
		Organization: "ООО Ромашка",
		Employee:     "Иванов И.И.",
		EndDate:      time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC),
	}
	path, err := g.Render(rec, entity.DocumentExtension)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(path, "2026-08-30") {
		t.Errorf("expected date-stamped output dir, got %q", path)
	}
	if !strings.HasSuffix(path, "_extension.docx") {
		t.Errorf("expected type suffix in filename, got %q", path)
	}

	content := readEntry(t, path, "word/document.xml")
	want := "Иванов И.И. / ООО Ромашка / до 15.09.2026"
	if !strings.Contains(content, want) {
		t.Errorf("expected rendered content %q, got %q", want, content)
	}
	if strings.Contains(content, "{{") {
		t.Errorf("unreplaced placeholder left in %q", content)
	}
}

func TestRenderBinaryEntriesUntouched(t *testing.T) {
	templates := t.TempDir()
	writeTemplate(t, templates, "notify_termination.docx", `<w:t>{{employee_full_name}}</w:t>`)

	g := NewDocxRenderer(templates, t.TempDir(), nil)
	rec := entity.ContractRecord{Employee: "Петров"}
	path, err := g.Render(rec, entity.DocumentTermination)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got := readEntry(t, path, "word/media/logo.bin"); got != "\x01\x02" {
		t.Errorf("binary entry modified: %q", got)
	}
}

func TestRenderManualFieldsBlank(t *testing.T) {
	templates := t.TempDir()
	writeTemplate(t, templates, "notify_termination.docx",
		`<w:t>№{{document_number}} / {{director_name}} / {{director_signature}}</w:t>`)

	g := NewDocxRenderer(templates, t.TempDir(), nil)
	path, err := g.Render(entity.ContractRecord{Employee: "Петров"}, entity.DocumentTermination)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	content := readEntry(t, path, "word/document.xml")
	if strings.Contains(content, "{{") {
		t.Errorf("manually completed fields must render blank, got %q", content)
	}
	if want := "№ /  / "; !strings.Contains(content, want) {
		t.Errorf("expected blank substitutions, got %q", content)
	}
}

func TestRenderFailureLeavesNoArtifact(t *testing.T) {
	templates := t.TempDir()
	output := t.TempDir()

	// a template whose sole entry fails its checksum on read
	f, err := os.Create(filepath.Join(templates, "notify_extension.docx"))
	if err != nil {
		t.Fatalf("create template: %v", err)
	}
	w := zip.NewWriter(f)
	hdr := &zip.FileHeader{Name: "word/document.xml", Method: zip.Store}
	hdr.CRC32 = 0xdeadbeef
	hdr.CompressedSize64 = 4
	hdr.UncompressedSize64 = 4
	raw, err := w.CreateRaw(hdr)
	if err != nil {
		t.Fatalf("create raw entry: %v", err)
	}
	if _, err := raw.Write([]byte("abcd")); err != nil {
		t.Fatalf("write raw entry: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close template: %v", err)
	}
	_ = f.Close()

	g := NewDocxRenderer(templates, output, nil)
	g.now = func() time.Time { return time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC) }

	if _, err := g.Render(entity.ContractRecord{Employee: "Иванов"}, entity.DocumentExtension); err == nil {
		t.Fatal("expected render failure for corrupt template")
	}
	entries, _ := os.ReadDir(filepath.Join(output, "2026-08-30"))
	if len(entries) != 0 {
		t.Errorf("failed render left %d artifacts behind", len(entries))
	}
}

func TestRenderTemplateMissing(t *testing.T) {
	g := NewDocxRenderer(t.TempDir(), t.TempDir(), nil)
	_, err := g.Render(entity.ContractRecord{Employee: "X"}, entity.DocumentType("unknown"))
	if !errors.Is(err, common.ErrTemplateMissing) {
		t.Fatalf("expected ErrTemplateMissing, got %v", err)
	}
}

func TestRenderTemplateFileAbsent(t *testing.T) {
	g := NewDocxRenderer(t.TempDir(), t.TempDir(), nil)
	_, err := g.Render(entity.ContractRecord{Employee: "X"}, entity.DocumentExtension)
	if err == nil {
		t.Fatal("expected error for absent template file")
	}
}
