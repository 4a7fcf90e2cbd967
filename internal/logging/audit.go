package logging

import (
	"strconv"
	"strings"
	"time"
)

// AuditLine formats one administrative action for the audit log: tool,
// timestamp, action, user code, user name and result, space separated,
// with "-" standing in for absent values. The name is quoted because it
// may contain spaces.
func AuditLine(tool, action string, code int, name, result string) string {
	if strings.TrimSpace(tool) == "" {
		tool = "-"
	}
	if strings.TrimSpace(action) == "" {
		action = "-"
	}
	codeStr := "-"
	if code > 0 {
		codeStr = strconv.Itoa(code)
	}
	if strings.TrimSpace(result) == "" {
		result = "ok"
	}
	return strings.Join([]string{
		tool,
		time.Now().Format(time.RFC3339),
		action,
		codeStr,
		strconv.Quote(name),
		result,
	}, " ")
}
