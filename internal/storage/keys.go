package storage

import (
	"fmt"
	"path"
	"strings"
)

// Storage keys are derived deterministically from the owning entity and
// the client filename, so re-presigning the same upload yields the same
// key and the public URL can be rebuilt from the row alone.

func ServiceRecordKey(homeID, recordID int64, filename string) string {
	return fmt.Sprintf("homes/%d/records/%d/%s", homeID, recordID, CleanFilename(filename))
}

func ServiceRequestKey(homeID, requestID int64, filename string) string {
	return fmt.Sprintf("homes/%d/requests/%d/%s", homeID, requestID, CleanFilename(filename))
}

func WarrantyKey(homeID, warrantyID int64, filename string) string {
	return fmt.Sprintf("homes/%d/warranties/%d/%s", homeID, warrantyID, CleanFilename(filename))
}

func ReminderKey(homeID, reminderID int64, filename string) string {
	return fmt.Sprintf("homes/%d/reminders/%d/%s", homeID, reminderID, CleanFilename(filename))
}

func MessageKey(homeID, messageID int64, filename string) string {
	return fmt.Sprintf("homes/%d/messages/%d/%s", homeID, messageID, CleanFilename(filename))
}

// CleanFilename strips any client-supplied path and maps characters
// outside a conservative set to underscores. The extension survives so
// content sniffing downstream keeps working.
func CleanFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "file"
	}

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := strings.Trim(b.String(), ".")
	if out == "" {
		return "file"
	}
	return out
}
