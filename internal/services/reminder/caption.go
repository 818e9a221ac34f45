package reminder

import (
	"fmt"
	"strings"

	"github.com/contractbot/contract-reminder/internal/entity"
	"github.com/contractbot/contract-reminder/internal/utils"
)

// buildCaption assembles the human-readable summary sent next to the
// document. Markdown, single target locale.
func buildCaption(rec entity.ContractRecord, daysLeft int, docType entity.DocumentType, link string) string {
	endDate := utils.FormatDate(rec.EndDate)
	if endDate == "" {
		endDate = "?"
	}

	action := "продление"
	if docType == entity.DocumentTermination {
		action = "увольнение"
	}
	if entity.NormalizeMark(rec.ReadinessMark) == "И" {
		action = "иное"
	}

	organization := rec.Organization
	if organization == "" {
		organization = "—"
	}

	parts := []string{
		fmt.Sprintf("*Организация:* %s", organization),
		fmt.Sprintf("*Сотрудник:* %s", rec.Employee),
		fmt.Sprintf("*Действие:* *%s*", strings.ToUpper(action)),
		fmt.Sprintf("*Контракт до:* %s (осталось %d дн.)", endDate, daysLeft),
	}

	if rec.NotificationLabel != "" {
		label := rec.NotificationLabel
		if strings.HasPrefix(label, "#") {
			// spreadsheet formula error leaked into the cell
			label = "Ошибка в формуле"
		}
		parts = append(parts, "Статус в таблице: "+label)
	}
	if link != "" {
		parts = append(parts, "Файл на диске: "+link)
	}
	return strings.Join(parts, "\n")
}
