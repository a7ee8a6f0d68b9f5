package intelligence

import (
	"regexp"
	"strings"
)

var reportRequestRules = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^\s*/?report\b`),
	regexp.MustCompile(`(?i)\b(?:final|generate|write|create|make|produce|send|need|ready for|give me)\b[^.?!\n]{0,20}\breport\b`),
	regexp.MustCompile(`(?i)(?:сделай|сформируй|напиши|нужен|готов|финальный|итоговый)[^.?!\n]{0,20}отч[её]т`),
	regexp.MustCompile(`(?i)(?:genera|haz|escribe|necesito|final)[^.?!\n]{0,20}(?:informe|reporte)|(?:informe|reporte)\s+final`),
}

// IsReportRequest reports whether technician text asks for the final report.
func IsReportRequest(technicianText string) bool {
	text := strings.TrimSpace(technicianText)
	if text == "" {
		return false
	}
	for _, re := range reportRequestRules {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}
