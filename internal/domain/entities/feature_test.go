package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFeatureType_EveryFeatureHasCategory(t *testing.T) {
	for _, f := range AllFeatures {
		category, err := f.Category()
		assert.NoError(t, err, f)
		assert.NotEmpty(t, category, f)
		assert.True(t, f.Valid())
	}
}

func TestFeatureType_UnknownIsRejected(t *testing.T) {
	_, err := FeatureType("BILLING").Category()
	assert.Error(t, err)
	assert.False(t, FeatureType("").Valid())
}

func TestPatient_AgeAt(t *testing.T) {
	dob := time.Date(1960, 6, 15, 0, 0, 0, 0, time.UTC)
	p := &Patient{DateOfBirth: &dob}

	assert.Equal(t, 65, p.AgeAt(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 66, p.AgeAt(time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, -1, (&Patient{}).AgeAt(time.Now()))
}

func TestNewClinicalEvent_CopiesConsultationIdentity(t *testing.T) {
	c := &Consultation{ID: "c-1", TenantID: "t-1", BranchID: "b-1", PatientID: "p-1"}
	ev := NewClinicalEvent(ClinicalEventEncounterCompleted, c)

	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, ClinicalEventEncounterCompleted, ev.Type)
	assert.Equal(t, "t-1", ev.TenantID)
	assert.Equal(t, "b-1", ev.BranchID)
	assert.Equal(t, "c-1", ev.ConsultationID)
	assert.Equal(t, "p-1", ev.PatientID)
}
