package models_test

import (
	"testing"

	"pcbtrack-backend/internal/models"
	"pcbtrack-backend/internal/testdb"

	"github.com/stretchr/testify/assert"
)

func TestConsumptionHistoryTableNameSingular(t *testing.T) {
	assert.Equal(t, "consumption_history", models.ConsumptionHistory{}.TableName())

	db := testdb.Open(t)
	assert.True(t, db.Migrator().HasTable("consumption_history"))
	assert.False(t, db.Migrator().HasTable("consumption_histories"))
}
