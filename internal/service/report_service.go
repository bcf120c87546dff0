package service

import (
	"bytes"
	"context"
	"fmt"

	"github.com/trandongthanh/OEMEVWarrantyManagementSystemSWP-sub004/internal/entity"
	"github.com/xuri/excelize/v2"
)

// ReportService 报表导出
type ReportService struct {
	reservations *ReservationService
}

func NewReportService(reservations *ReservationService) *ReportService {
	return &ReportService{reservations: reservations}
}

var reservationReportHeaders = []string{
	"Reservation ID", "Status", "Component SKU", "Component Name",
	"Serial Number", "Warehouse", "Case Line", "Reserved By",
	"Picked Up By", "Picked Up At", "Installed At", "Created At",
}

// ExportReservations 导出预留清单为 xlsx
func (s *ReportService) ExportReservations(ctx context.Context, params ListReservationsParams, actor Identity) (*bytes.Buffer, error) {
	// 导出不分页，放开到上限
	params.Page = 1
	params.Limit = 100

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Reservations"
	f.SetSheetName("Sheet1", sheet)

	for i, h := range reservationReportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for {
		items, total, err := s.reservations.List(ctx, params, actor)
		if err != nil {
			return nil, err
		}
		for _, res := range items {
			writeReservationRow(f, sheet, row, &res)
			row++
		}
		if int64(params.Page*params.Limit) >= total || len(items) == 0 {
			break
		}
		params.Page++
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to build workbook: %w", err)
	}
	return buf, nil
}

func writeReservationRow(f *excelize.File, sheet string, row int, res *entity.ComponentReservation) {
	values := []interface{}{
		res.ID,
		string(res.Status),
		"", "", "", "",
		res.CaseLineID,
		res.ReservedBy,
		res.PickedUpByTechID,
		"", "",
		res.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	if res.TypeComponent != nil {
		values[2] = res.TypeComponent.SKU
		values[3] = res.TypeComponent.Name
	}
	if res.ComponentInstance != nil {
		values[4] = res.ComponentInstance.SerialNumber
	}
	if res.Warehouse != nil {
		values[5] = res.Warehouse.Code
	}
	if res.PickedUpAt != nil {
		values[9] = res.PickedUpAt.Format("2006-01-02 15:04:05")
	}
	if res.InstalledAt != nil {
		values[10] = res.InstalledAt.Format("2006-01-02 15:04:05")
	}
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		f.SetCellValue(sheet, cell, v)
	}
}
