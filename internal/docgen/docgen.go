package docgen

import (
	"archive/zip"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/contractbot/contract-reminder/internal/common"
	"github.com/contractbot/contract-reminder/internal/entity"
	"github.com/contractbot/contract-reminder/internal/utils"
)

// Renderer produces a notification document for a contract record.
type Renderer interface {
	Render(rec entity.ContractRecord, docType entity.DocumentType) (string, error)
}

var templateNames = map[entity.DocumentType]string{
	entity.DocumentExtension:   "notify_extension.docx",
	entity.DocumentTermination: "notify_termination.docx",
}

// DocxRenderer fills {{field}} placeholders inside a .docx template.
// A .docx is a zip archive; only the XML parts are rewritten, the rest
// is copied through untouched.
type DocxRenderer struct {
	templatesDir string
	outputDir    string
	logger       *slog.Logger
	now          func() time.Time
}

func NewDocxRenderer(templatesDir, outputDir string, logger *slog.Logger) *DocxRenderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocxRenderer{
		templatesDir: templatesDir,
		outputDir:    outputDir,
		logger:       logger,
		now:          time.Now,
	}
}

func (g *DocxRenderer) Render(rec entity.ContractRecord, docType entity.DocumentType) (string, error) {
	templateName, ok := templateNames[docType]
	if !ok {
		return "", common.NewAppError("RENDER_ERROR",
			fmt.Sprintf("no template registered for %s", docType), common.ErrTemplateMissing)
	}
	templatePath := filepath.Join(g.templatesDir, templateName)
	if _, err := os.Stat(templatePath); err != nil {
		return "", common.WrapError(err, "template not found")
	}

	fields := fieldsFor(rec, docType)
	now := g.now().UTC()
	targetDir := filepath.Join(g.outputDir, now.Format("2006-01-02"))
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return "", common.WrapError(err, "create output directory")
	}
	outPath := filepath.Join(targetDir, fmt.Sprintf("%s_%s_%s.docx",
		now.Format("20060102_150405"), utils.SanitizeFilename(rec.Employee), docType))

	if err := fillTemplate(templatePath, outPath, fields); err != nil {
		return "", err
	}
	g.logger.Debug("document rendered", "type", docType, "employee", rec.Employee, "path", outPath)
	return outPath, nil
}

// fieldsFor builds the placeholder map for a document type. The
// termination notice uses a subset of the extension fields.
func fieldsFor(rec entity.ContractRecord, docType entity.DocumentType) map[string]string {
	fields := map[string]string{
		"organization":       rec.Organization,
		"employee_full_name": rec.Employee,
		"contract_number":    rec.ContractNumber,
		"contract_date":      utils.FormatDate(rec.ContractDate),
		"contract_end_date":  utils.FormatDate(rec.EndDate),
		// completed by hand on the printed document
		"document_number":    "",
		"director_name":      "",
		"director_signature": "",
	}
	if docType == entity.DocumentExtension {
		fields["position"] = rec.Position
		fields["extension_term"] = rec.ExtensionTerm
		fields["extension_start"] = utils.FormatDate(rec.ExtensionStart)
		fields["extension_end"] = utils.FormatDate(rec.ExtensionEnd)
		fields["response_deadline"] = utils.FormatDate(rec.ReminderDate)
	}
	return fields
}

func fillTemplate(templatePath, outPath string, fields map[string]string) error {
	r, err := zip.OpenReader(templatePath)
	if err != nil {
		return common.WrapError(err, "open template")
	}
	defer r.Close()

	pairs := make([]string, 0, len(fields)*2)
	for k, v := range fields {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	replacer := strings.NewReplacer(pairs...)

	out, err := os.Create(outPath)
	if err != nil {
		return common.WrapError(err, "create output document")
	}

	w := zip.NewWriter(out)
	if err := rewriteEntries(w, r.File, replacer); err != nil {
		_ = w.Close()
		_ = out.Close()
		_ = os.Remove(outPath)
		return err
	}
	if err := w.Close(); err != nil {
		_ = out.Close()
		_ = os.Remove(outPath)
		return common.WrapError(err, "finalize document")
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(outPath)
		return common.WrapError(err, "finalize document")
	}
	return nil
}

func rewriteEntries(w *zip.Writer, entries []*zip.File, replacer *strings.Replacer) error {
	for _, f := range entries {
		rc, err := f.Open()
		if err != nil {
			return common.WrapError(err, "read template entry")
		}
		data, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return common.WrapError(err, "read template entry")
		}
		if strings.HasSuffix(f.Name, ".xml") {
			data = []byte(replacer.Replace(string(data)))
		}
		dst, err := w.Create(f.Name)
		if err != nil {
			return common.WrapError(err, "write output entry")
		}
		if _, err := dst.Write(data); err != nil {
			return common.WrapError(err, "write output entry")
		}
	}
	return nil
}
