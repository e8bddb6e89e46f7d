package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuditEvent_Category(t *testing.T) {
	assert.Equal(t, CategoryCompliance, EventVerificationCompleted.Category())
	assert.Equal(t, CategoryCompliance, EventRetentionPurged.Category())
	assert.Equal(t, CategorySecurity, EventIntegrityMismatch.Category())
	assert.Equal(t, CategoryOperations, EventVerificationSubmitted.Category())
	assert.Equal(t, CategoryOperations, AuditEvent("something_new").Category())
}

func TestComplianceEvent_ToEvent(t *testing.T) {
	e := ComplianceEvent{
		AccountID:      "acct",
		VerificationID: "VER-ABCD1234",
		Action:         EventVerificationCompleted,
		Decision:       "approved",
	}.ToEvent()

	assert.Equal(t, CategoryCompliance, e.Category)
	assert.Equal(t, "verification_completed", e.Action)
	assert.Equal(t, "VER-ABCD1234", e.Subject)
	assert.Equal(t, "approved", e.Decision)
}
