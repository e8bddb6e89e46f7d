package intake

import (
	"time"

	"github.com/mssola/useragent"

	"docverify/internal/verification/models"
)

// Submitter builds submitter metadata from forwarded connection details.
func Submitter(ip, userAgent string, submittedAt time.Time) models.SubmitterMetadata {
	meta := models.SubmitterMetadata{
		IP:          ip,
		UserAgent:   userAgent,
		SubmittedAt: submittedAt.UTC(),
	}
	if userAgent == "" {
		return meta
	}
	ua := useragent.New(userAgent)
	meta.Browser, meta.BrowserVersion = ua.Browser()
	meta.OS = ua.OS()
	meta.Mobile = ua.Mobile()
	return meta
}
