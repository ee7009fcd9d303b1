package agenda

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kep-app/kep/internal/domain"
)

// ExportMarkdown renders items as a numbered meeting agenda.
func ExportMarkdown(items []domain.AgendaItem) string {
	var sb strings.Builder
	sb.WriteString("# Meeting Agenda\n\n")
	for i, item := range items {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, item.Content)
	}
	return sb.String()
}

// ExportJSON renders items as indented JSON.
func ExportJSON(items []domain.AgendaItem) (string, error) {
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return "", fmt.Errorf("exporting agenda: %w", err)
	}
	return string(data), nil
}
