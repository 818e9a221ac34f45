package entity

import (
	"fmt"
	"strings"
	"time"
)

// DocumentType is the kind of notification document owed for a contract.
type DocumentType string

const (
	DocumentExtension   DocumentType = "extension"
	DocumentTermination DocumentType = "termination"
)

// ContractRecord is one row of the control spreadsheet.
// Zero time values mean the column was empty or unparseable.
type ContractRecord struct {
	Organization      string
	Employee          string
	Position          string
	ContractNumber    string
	ContractDate      time.Time
	StartDate         time.Time
	EndDate           time.Time
	ReminderDate      time.Time
	NotificationLabel string
	ReadinessMark     string
	ExtensionTerm     string
	ExtensionStart    time.Time
	ExtensionEnd      time.Time
	DocumentHint      string
}

// markAliases maps characters that show up in place of the canonical
// Cyrillic readiness marks: cp1251 bytes decoded as latin-1 plus plain
// keyboard look-alikes. Extend by adding entries, not conditionals.
var markAliases = map[string]string{
	"Ï": "П",
	"Í": "Н",
	"È": "И",
	"Ó": "У",
	"H": "Н",
	"N": "Н",
	"Y": "У",
}

// NormalizeMark uppercases a readiness mark and maps garbled variants
// to their canonical Cyrillic letter.
func NormalizeMark(mark string) string {
	m := strings.ToUpper(strings.TrimSpace(mark))
	if canonical, ok := markAliases[m]; ok {
		return canonical
	}
	return m
}

// Classify decides which document a record calls for.
// Precedence: readiness mark, then the free-text hint fields.
// ok is false when the record carries no usable signal; the reminder
// pipeline then deliberately considers both document types.
func (r ContractRecord) Classify() (DocumentType, bool) {
	switch NormalizeMark(r.ReadinessMark) {
	case "П", "Н":
		return DocumentExtension, true
	case "И", "У":
		return DocumentTermination, true
	}
	if t, ok := classifyHint(r.DocumentHint); ok {
		return t, ok
	}
	return classifyHint(r.NotificationLabel)
}

func classifyHint(hint string) (DocumentType, bool) {
	h := strings.ToLower(strings.TrimSpace(hint))
	switch {
	case h == "":
		return "", false
	case strings.Contains(h, "увольн"):
		return DocumentTermination, true
	case strings.Contains(h, "продл"):
		return DocumentExtension, true
	}
	return "", false
}

// HasEndDate reports whether the record carries an actionable deadline.
func (r ContractRecord) HasEndDate() bool {
	return !r.EndDate.IsZero()
}

// NotificationKey is the composite natural key of one notifiable
// obligation: employee, end date and document type. It is independent
// of the recipient.
func NotificationKey(employee string, endDate time.Time, docType DocumentType) string {
	return fmt.Sprintf("%s|%s|%s", employee, endDate.Format("2006-01-02"), docType)
}
