package utils

import (
	"log"
	"strings"
)

var logSanitizer = strings.NewReplacer("\n", `\n`, "\r", `\r`)

// LogEvent prints one event line: [MODULE] action=... request_id=... msg=...
// Messages are summaries; never pass passwords or tokens.
func LogEvent(requestID, module, action, message string) {
	req := strings.TrimSpace(requestID)
	if req == "" {
		req = "-"
	}
	log.Printf("[%s] action=%s request_id=%s msg=%s", strings.ToUpper(module), action, req, logSanitizer.Replace(message))
}
