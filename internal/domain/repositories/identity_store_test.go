package repositories

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"chamado.backend/internal/domain/entities"
)

func TestPredicates(t *testing.T) {
	lucas := &entities.UserProfile{ID: "101", Name: "Lucas Silva", Email: "lucas@missao.com", EnrollmentStatus: entities.EnrollmentApproved, PaymentStatus: entities.PaymentPaid}
	ana := &entities.UserProfile{ID: "102", Name: "Ana Costa", Email: "ana@missao.com", EnrollmentStatus: entities.EnrollmentReviewing, PaymentStatus: entities.PaymentPending}

	assert.True(t, ByID("101")(lucas))
	assert.False(t, ByID("101")(ana))

	assert.True(t, BySearch("SILVA")(lucas))
	assert.True(t, BySearch("ana@")(ana))
	assert.False(t, BySearch("pedro")(ana))
	assert.True(t, BySearch("  ")(ana))

	assert.True(t, ByPaymentStatus(entities.PaymentPaid)(lucas))
	assert.True(t, ByEnrollmentStatus(entities.EnrollmentReviewing)(ana))

	combined := All(BySearch("missao"), ByPaymentStatus(entities.PaymentPaid), nil)
	assert.True(t, combined(lucas))
	assert.False(t, combined(ana))
}
