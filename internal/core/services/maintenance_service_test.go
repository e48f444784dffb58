package services

import (
	"context"
	"testing"
	"time"

	"tontinepro/internal/adapters/persistence/models"
	"tontinepro/internal/adapters/persistence/repositories"
	"tontinepro/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompleteExpiredTontines(t *testing.T) {
	db := newTestDB(t)
	svc := NewMaintenanceService(repositories.NewTontineRepository(db))
	manager := createTestUser(t, db, "keeper")

	past := time.Now().AddDate(0, 0, -2)
	future := time.Now().AddDate(0, 1, 0)

	expired := createTestTontine(t, db, manager.ID, domain.TontineActive, 1000)
	require.NoError(t, db.Model(expired).Update("end_date", past).Error)

	running := createTestTontine(t, db, manager.ID, domain.TontineActive, 1000)
	require.NoError(t, db.Model(running).Update("end_date", future).Error)

	openEnded := createTestTontine(t, db, manager.ID, domain.TontineActive, 1000)

	expiredDraft := createTestTontine(t, db, manager.ID, domain.TontineDraft, 1000)
	require.NoError(t, db.Model(expiredDraft).Update("end_date", past).Error)

	require.NoError(t, svc.CompleteExpiredTontines(context.Background()))

	status := func(id uint) string {
		var tontine models.Tontine
		require.NoError(t, db.First(&tontine, id).Error)
		return tontine.Status
	}

	assert.Equal(t, string(domain.TontineCompleted), status(expired.ID))
	assert.Equal(t, string(domain.TontineActive), status(running.ID))
	assert.Equal(t, string(domain.TontineActive), status(openEnded.ID))
	// Only active tontines are swept
	assert.Equal(t, string(domain.TontineDraft), status(expiredDraft.ID))
}
