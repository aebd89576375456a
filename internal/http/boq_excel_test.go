package httpapi

import (
	"bytes"
	"testing"

	"kimoncrm/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestGenerateBoQExport_RoundTrip(t *testing.T) {
	equipment := &service.GetEquipmentResponse{
		Equipment: []service.EquipmentView{{
			ItemID: "prod-9", SKU: "SKU-9", Name: "Install labour", Unit: "h",
			Quantity: 8, Price: 45, Margin: 0, TotalPrice: 360,
		}},
		ProposedInfrastructure: service.InfrastructureView{
			ProposedCentralRacks: []service.RackView{{
				Name: "MDF",
				AssociatedProducts: []service.EquipmentView{{
					ItemID: "prod-1", SKU: "SKU-1", Name: "Switch 48p", Brand: "Acme", Unit: "pcs",
					Quantity: 2, Price: 100, Margin: 10, TotalPrice: 220,
				}},
			}},
			ProposedRooms: []service.RoomView{{
				Name: "R101",
				AssociatedProducts: []service.EquipmentView{{
					ItemID: "prod-2", SKU: "SKU-2", Name: "Outlet kit",
					Quantity: 4, Price: 12.5, Margin: 20, TotalPrice: 60,
				}},
			}},
		},
	}

	data, err := GenerateBoQExport(equipment)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Bill of Quantities")
	require.NoError(t, err)

	// Header, three product lines, grand total
	require.Len(t, rows, 5)
	assert.Equal(t, BoQHeader, rows[0][:len(BoQHeader)])

	assert.Equal(t, "Central Rack: MDF", rows[1][0])
	assert.Equal(t, "SKU-1", rows[1][1])
	assert.Equal(t, "Room: R101", rows[2][0])
	assert.Equal(t, "Standalone", rows[3][0])

	// Grand total sums the per-line totals: 220 + 60 + 360
	last := rows[4]
	assert.Equal(t, "Grand Total", last[len(BoQHeader)-2])
	assert.Equal(t, "640", last[len(BoQHeader)-1])
}

func TestGenerateBoQExport_EmptyProjection(t *testing.T) {
	data, err := GenerateBoQExport(&service.GetEquipmentResponse{})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Bill of Quantities")
	require.NoError(t, err)

	// Header plus the zero grand total
	require.Len(t, rows, 2)
	assert.Equal(t, "Grand Total", rows[1][len(BoQHeader)-2])
}
