package bom_test

import (
	"testing"

	"pcbtrack-backend/internal/bom"
	"pcbtrack-backend/internal/models"
	"pcbtrack-backend/internal/testdb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveOrdersByComponentName(t *testing.T) {
	db := testdb.Open(t)

	pcb := models.PCB{Name: "Blinker", Code: "BLK-01"}
	require.NoError(t, db.Create(&pcb).Error)

	// Kasıtlı olarak alfabetik sıranın tersine ekleniyor
	resistor := models.Component{Name: "Direnç 330R", PartNumber: "RES-330", CurrentStock: 100, MonthlyRequiredQuantity: 200}
	led := models.Component{Name: "LED Kırmızı", PartNumber: "LED-R", CurrentStock: 50, MonthlyRequiredQuantity: 100}
	require.NoError(t, db.Create(&resistor).Error)
	require.NoError(t, db.Create(&led).Error)

	require.NoError(t, db.Create(&models.PCBComponent{PCBID: pcb.ID, ComponentID: resistor.ID, QuantityPerPCB: 5}).Error)
	require.NoError(t, db.Create(&models.PCBComponent{PCBID: pcb.ID, ComponentID: led.ID, QuantityPerPCB: 3}).Error)

	lines, err := bom.Resolve(db, pcb.ID)
	require.NoError(t, err)
	require.Len(t, lines, 2)

	assert.Equal(t, "Direnç 330R", lines[0].ComponentName)
	assert.Equal(t, "LED Kırmızı", lines[1].ComponentName)

	assert.Equal(t, resistor.ID, lines[0].ComponentID)
	assert.Equal(t, 5, lines[0].QuantityPerPCB)
	assert.Equal(t, 100, lines[0].CurrentStock)
	assert.Equal(t, 200, lines[0].MonthlyRequiredQuantity)
	assert.Equal(t, "RES-330", lines[0].PartNumber)
}

func TestResolveEmptyBOM(t *testing.T) {
	db := testdb.Open(t)

	pcb := models.PCB{Name: "Boş Kart", Code: "EMP-01"}
	require.NoError(t, db.Create(&pcb).Error)

	_, err := bom.Resolve(db, pcb.ID)
	assert.ErrorIs(t, err, bom.ErrEmptyBOM)
}

func TestResolveUnknownPCB(t *testing.T) {
	db := testdb.Open(t)

	// Bilinmeyen PCB de boş BOM gibi davranır; ayrım koordinatörde yapılır
	_, err := bom.Resolve(db, 4242)
	assert.ErrorIs(t, err, bom.ErrEmptyBOM)
}
