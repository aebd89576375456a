package httpapi

import (
	"bytes"
	"fmt"

	"kimoncrm/internal/service"

	"github.com/xuri/excelize/v2"
)

// BoQHeader bill-of-quantities column layout.
var BoQHeader = []string{
	"Location",
	"SKU",
	"Product",
	"Brand",
	"Unit",
	"Quantity",
	"Unit Price",
	"Margin %",
	"Total",
}

var boqColumnWidths = []float64{28, 16, 36, 16, 10, 10, 12, 10, 14}

// GenerateBoQExport renders the equipment projection of one survey as an
// xlsx bill of quantities, one row per product line grouped by location.
func GenerateBoQExport(equipment *service.GetEquipmentResponse) ([]byte, error) {
	f := excelize.NewFile()
	// WriteTo needs the file open, so Close only on error paths.

	sheetName := "Bill of Quantities"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, header := range BoQHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
	}

	for i := range BoQHeader {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(sheetName, col, col, boqColumnWidths[i]); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	row := 2
	var grandTotal float64

	writeLines := func(location string, lines []service.EquipmentView) error {
		for _, line := range lines {
			values := []any{
				location,
				line.SKU,
				line.Name,
				line.Brand,
				line.Unit,
				line.Quantity,
				line.Price,
				line.Margin,
				line.TotalPrice,
			}
			for col, v := range values {
				cell, err := excelize.CoordinatesToCellName(col+1, row)
				if err != nil {
					return fmt.Errorf("failed to convert coordinates: %w", err)
				}
				if err := f.SetCellValue(sheetName, cell, v); err != nil {
					return fmt.Errorf("failed to set cell %s: %w", cell, err)
				}
			}
			grandTotal += line.TotalPrice
			row++
		}
		return nil
	}

	infra := equipment.ProposedInfrastructure
	for _, rack := range infra.ProposedCentralRacks {
		if err := writeLines("Central Rack: "+rack.Name, rack.AssociatedProducts); err != nil {
			f.Close()
			return nil, err
		}
	}
	for _, rack := range infra.ProposedFloorRacks {
		if err := writeLines("Floor Rack: "+rack.Name, rack.AssociatedProducts); err != nil {
			f.Close()
			return nil, err
		}
	}
	for _, room := range infra.ProposedRooms {
		if err := writeLines("Room: "+room.Name, room.AssociatedProducts); err != nil {
			f.Close()
			return nil, err
		}
	}
	for _, conn := range infra.ProposedConnections {
		location := "Connection: " + conn.FromBuilding + " - " + conn.ToBuilding
		if err := writeLines(location, conn.AssociatedProducts); err != nil {
			f.Close()
			return nil, err
		}
	}
	if err := writeLines("Standalone", equipment.Equipment); err != nil {
		f.Close()
		return nil, err
	}

	// Grand total row
	labelCell, _ := excelize.CoordinatesToCellName(len(BoQHeader)-1, row)
	totalCell, _ := excelize.CoordinatesToCellName(len(BoQHeader), row)
	if err := f.SetCellValue(sheetName, labelCell, "Grand Total"); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to set grand total label: %w", err)
	}
	if err := f.SetCellValue(sheetName, totalCell, grandTotal); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to set grand total: %w", err)
	}
	if err := f.SetCellStyle(sheetName, labelCell, totalCell, headerStyle); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to style grand total: %w", err)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close workbook: %w", err)
	}
	return buf.Bytes(), nil
}
