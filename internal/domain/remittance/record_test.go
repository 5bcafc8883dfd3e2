package remittance

import (
	"errors"
	"testing"
	"time"

	"github.com/courierhub-platform/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRecord(t *testing.T) {
	t.Run("DriverInitiated", func(t *testing.T) {
		beforeCreation := time.Now()
		rec := NewRecord("dtxn-1", "driver-1", shared.RoleDriver, 180.50, "", "order-1", "corr-1")
		afterCreation := time.Now()

		require.NotNil(t, rec)
		assert.Equal(t, "dtxn-1", rec.DriverTransactionID)
		assert.Equal(t, shared.RoleDriver, rec.Actor)
		assert.Equal(t, shared.RemittanceStatusRunning, rec.Status)
		assert.Equal(t, 1, rec.Attempts, "The live call is the first attempt")
		assert.False(t, rec.CounterpartExplicit, "No explicit counterpart was supplied")
		assert.Nil(t, rec.LastAttemptAt)
		assert.WithinDuration(t, beforeCreation, rec.CreatedAt, afterCreation.Sub(beforeCreation)+time.Millisecond)
	})

	t.Run("ExplicitCounterpart", func(t *testing.T) {
		rec := NewRecord("dtxn-1", "driver-1", shared.RoleVendor, 180.50, "vtxn-9", "", "corr-1")
		assert.True(t, rec.CounterpartExplicit)
		assert.Equal(t, "vtxn-9", rec.VendorTransactionID)
	})
}

func TestRecord_RecordStep(t *testing.T) {
	rec := NewRecord("dtxn-1", "driver-1", shared.RoleDriver, 100, "", "", "")

	rec.RecordStep(StepUploadSignature, shared.StepStatusOK, nil)
	rec.RecordStep(StepResolveCounterpart, shared.StepStatusFailed, errors.New("mongo timeout"))

	require.Len(t, rec.Steps, 2)

	upload, ok := rec.StepOutcome(StepUploadSignature)
	require.True(t, ok)
	assert.Equal(t, shared.StepStatusOK, upload.Status)
	assert.Empty(t, upload.Error)
	assert.False(t, upload.At.IsZero())

	resolve, ok := rec.StepOutcome(StepResolveCounterpart)
	require.True(t, ok)
	assert.Equal(t, shared.StepStatusFailed, resolve.Status)
	assert.Equal(t, "mongo timeout", resolve.Error)

	// A retry replaces the outcome in place instead of appending a duplicate.
	rec.RecordStep(StepResolveCounterpart, shared.StepStatusOK, nil)
	require.Len(t, rec.Steps, 2)
	resolve, _ = rec.StepOutcome(StepResolveCounterpart)
	assert.Equal(t, shared.StepStatusOK, resolve.Status)
	assert.Empty(t, resolve.Error)
}

func TestRecord_Finalize(t *testing.T) {
	t.Run("AllStepsOKCompletes", func(t *testing.T) {
		rec := NewRecord("dtxn-1", "driver-1", shared.RoleDriver, 100, "", "", "")
		rec.RecordStep(StepUploadSignature, shared.StepStatusOK, nil)
		rec.RecordStep(StepResolveCounterpart, shared.StepStatusOK, nil)
		rec.RecordStep(StepUpdateDriverTransaction, shared.StepStatusOK, nil)
		rec.RecordStep(StepUpdateVendorTransaction, shared.StepStatusSkipped, nil)
		rec.RecordStep(StepBackfillLink, shared.StepStatusSkipped, nil)
		rec.RecordStep(StepDecrementCash, shared.StepStatusOK, nil)

		rec.Finalize()

		assert.Equal(t, shared.RemittanceStatusCompleted, rec.Status)
		require.NotNil(t, rec.LastAttemptAt)
	})

	t.Run("FailedUploadIsTerminal", func(t *testing.T) {
		rec := NewRecord("dtxn-1", "driver-1", shared.RoleDriver, 100, "", "", "")
		rec.RecordStep(StepUploadSignature, shared.StepStatusFailed, errors.New("bucket unreachable"))

		rec.Finalize()

		assert.Equal(t, shared.RemittanceStatusFailed, rec.Status)
	})

	t.Run("FailedDownstreamStepIsPartial", func(t *testing.T) {
		rec := NewRecord("dtxn-1", "driver-1", shared.RoleDriver, 100, "", "", "")
		rec.RecordStep(StepUploadSignature, shared.StepStatusOK, nil)
		rec.RecordStep(StepResolveCounterpart, shared.StepStatusOK, nil)
		rec.RecordStep(StepUpdateDriverTransaction, shared.StepStatusFailed, errors.New("write conflict"))

		rec.Finalize()

		assert.Equal(t, shared.RemittanceStatusPartial, rec.Status)
		assert.True(t, rec.HasFailedSteps())
	})
}

func TestRecord_IncrementAttempts(t *testing.T) {
	initialTime := time.Now().Add(-time.Hour)
	rec := &Record{
		Attempts:      1,
		LastAttemptAt: &initialTime,
	}

	time.Sleep(10 * time.Millisecond) // Ensure time changes
	beforeUpdate := time.Now()
	rec.IncrementAttempts()
	afterUpdate := time.Now()

	assert.Equal(t, 2, rec.Attempts)
	require.NotNil(t, rec.LastAttemptAt)
	assert.True(t, rec.LastAttemptAt.After(initialTime))
	assert.WithinDuration(t, beforeUpdate, *rec.LastAttemptAt, afterUpdate.Sub(beforeUpdate)+time.Millisecond)
}

func TestRecord_MarkExhausted(t *testing.T) {
	rec := NewRecord("dtxn-1", "driver-1", shared.RoleDriver, 100, "", "", "")
	rec.RecordStep(StepUploadSignature, shared.StepStatusOK, nil)
	rec.RecordStep(StepDecrementCash, shared.StepStatusFailed, errors.New("pool exhausted"))
	rec.Finalize()
	require.Equal(t, shared.RemittanceStatusPartial, rec.Status)

	rec.MarkExhausted()

	assert.Equal(t, shared.RemittanceStatusFailed, rec.Status)
	require.NotNil(t, rec.LastAttemptAt)
}
