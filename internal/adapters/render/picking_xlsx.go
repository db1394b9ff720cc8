package render

import (
	"dispatch-route-service/internal/domain"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const pickingSheet = "Picking List"

var pickingHeaders = []string{
	"Vehicle", "Location", "Expected Arrival", "Item", "Code", "Quantity", "Picked Quantity",
}

// PickingListXLSX writes the warehouse picking list as an Excel workbook:
// one row per delivery, in route order. The last column is left blank for
// the picker.
type PickingListXLSX struct {
	TimeLayout string
}

func NewPickingListXLSX() *PickingListXLSX {
	return &PickingListXLSX{TimeLayout: "02/01/2006 15:04"}
}

func (p *PickingListXLSX) WritePickingList(w io.Writer, plans []domain.VehiclePlan) error {
	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet(pickingSheet); err != nil {
		return fmt.Errorf("write picking list: new sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("write picking list: %w", err)
	}
	idx, err := f.GetSheetIndex(pickingSheet)
	if err != nil {
		return fmt.Errorf("write picking list: %w", err)
	}
	f.SetActiveSheet(idx)

	for i, h := range pickingHeaders {
		if err := p.set(f, i+1, 1, h); err != nil {
			return err
		}
	}
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("write picking list: header style: %w", err)
	}
	if err := f.SetRowStyle(pickingSheet, 1, 1, style); err != nil {
		return fmt.Errorf("write picking list: header style: %w", err)
	}

	row := 2
	for _, plan := range plans {
		for _, trip := range plan.Trips {
			for _, stop := range trip.Stops {
				for _, svc := range stop.Services {
					if svc.Kind != domain.Delivery {
						continue
					}
					values := []any{
						plan.Label,
						stop.Location,
						stop.ArriveAt.Format(p.TimeLayout),
						svc.Item,
						svc.Code,
						svc.Quantity,
					}
					for col, v := range values {
						if err := p.set(f, col+1, row, v); err != nil {
							return err
						}
					}
					row++
				}
			}
		}
	}

	if err := f.SetColWidth(pickingSheet, "A", "G", 18); err != nil {
		return fmt.Errorf("write picking list: %w", err)
	}
	if err := f.SetColWidth(pickingSheet, "D", "D", 48); err != nil {
		return fmt.Errorf("write picking list: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write picking list: %w", err)
	}
	return nil
}

func (p *PickingListXLSX) set(f *excelize.File, col, row int, v any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("write picking list: %w", err)
	}
	if err := f.SetCellValue(pickingSheet, cell, v); err != nil {
		return fmt.Errorf("write picking list: %s: %w", cell, err)
	}
	return nil
}
