// internal/services/signature_service_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pmdq/biodiversity-backend/internal/models"
)

func TestSignRequiresSigningIdentity(t *testing.T) {
	db, svc := newTestServices(t)
	client := createTestClient(t, db)
	bare := createTestAdmin(t, db, false)

	permit := createReleasedPermit(t, db, client.ID, models.PermitTypeLTP, 30)

	_, err := svc.signatures.Sign(models.SignatureSubjectPermit, permit.ID, bare.ID)
	var wfErr *WorkflowError
	require.ErrorAs(t, err, &wfErr)
	assert.Equal(t, GuardRejected, wfErr.Kind)
}

func TestSignIsIdempotent(t *testing.T) {
	db, svc := newTestServices(t)
	client := createTestClient(t, db)
	admin := createTestAdmin(t, db, true)

	permit := createReleasedPermit(t, db, client.ID, models.PermitTypeLTP, 30)

	first, err := svc.signatures.Sign(models.SignatureSubjectPermit, permit.ID, admin.ID)
	require.NoError(t, err)

	second, err := svc.signatures.Sign(models.SignatureSubjectPermit, permit.ID, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	count, err := svc.signatures.SignatureCount(models.SignatureSubjectPermit, permit.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestSignFreezesIdentity(t *testing.T) {
	db, svc := newTestServices(t)
	client := createTestClient(t, db)
	admin := createTestAdmin(t, db, true)

	permit := createReleasedPermit(t, db, client.ID, models.PermitTypeLTP, 30)

	signature, err := svc.signatures.Sign(models.SignatureSubjectPermit, permit.ID, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, admin.Title, signature.Title)
	assert.Equal(t, admin.SignatureImageKey, signature.SignatureImageKey)

	// A later profile change does not rewrite the signed record.
	require.NoError(t, db.Model(admin).Update("title", "Regional Director").Error)

	var reloaded models.Signature
	require.NoError(t, db.First(&reloaded, "id = ?", signature.ID).Error)
	assert.Equal(t, "Chief, Permits Section", reloaded.Title)
}

func TestSignMissingSubject(t *testing.T) {
	db, svc := newTestServices(t)
	admin := createTestAdmin(t, db, true)

	_, err := svc.signatures.Sign(models.SignatureSubjectPermit, admin.ID, admin.ID)
	var wfErr *WorkflowError
	require.ErrorAs(t, err, &wfErr)
	assert.Equal(t, MissingDependency, wfErr.Kind)
}

func TestRemoveOnlyBySigner(t *testing.T) {
	db, svc := newTestServices(t)
	client := createTestClient(t, db)
	admin := createTestAdmin(t, db, true)
	other := createTestAdmin(t, db, true)

	permit := createReleasedPermit(t, db, client.ID, models.PermitTypeLTP, 30)

	signature, err := svc.signatures.Sign(models.SignatureSubjectPermit, permit.ID, admin.ID)
	require.NoError(t, err)

	err = svc.signatures.Remove(signature.ID, other.ID)
	var wfErr *WorkflowError
	require.ErrorAs(t, err, &wfErr)
	assert.Equal(t, GuardRejected, wfErr.Kind)

	require.NoError(t, svc.signatures.Remove(signature.ID, admin.ID))

	count, err := svc.signatures.SignatureCount(models.SignatureSubjectPermit, permit.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)
}
