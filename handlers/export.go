package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"p9e.in/fuelnet/middleware"
	"p9e.in/fuelnet/pkg/monitoring"
)

// ExportHandler serves filtered snapshot/history downloads in CSV, XLSX or
// JSON.
type ExportHandler struct {
	Service *monitoring.Service
}

func NewExportHandler(service *monitoring.Service) *ExportHandler {
	return &ExportHandler{Service: service}
}

// ExportFuelStocks streams the in-scope snapshot list (optionally with the
// measurement history) in the requested format.
func (h *ExportHandler) ExportFuelStocks(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r)
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = "csv"
	}
	includeHistory := r.URL.Query().Get("include_history") == "true"

	data, err := h.Service.CollectExport(scope, stockFilters(r), includeHistory)
	if err != nil {
		respondError(w, err)
		return
	}

	switch format {
	case "csv":
		payload, err := monitoring.WriteCSV(data)
		if err != nil {
			respondError(w, err)
			return
		}
		sendDownload(w, payload, "text/csv", exportFilename("fuel_stocks", "csv"))
	case "json":
		payload, err := monitoring.WriteJSON(data)
		if err != nil {
			respondError(w, err)
			return
		}
		sendDownload(w, payload, "application/json", exportFilename("fuel_stocks", "json"))
	case "xlsx":
		file, err := createExcelFile("Fuel Stocks", data)
		if err != nil {
			respondError(w, err)
			return
		}
		buffer, err := file.WriteToBuffer()
		if err != nil {
			respondError(w, err)
			return
		}
		sendDownload(w, buffer.Bytes(),
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			exportFilename("fuel_stocks", "xlsx"))
	default:
		respondBadRequest(w, "format must be csv, xlsx or json")
	}
}

func exportFilename(prefix, ext string) string {
	return fmt.Sprintf("%s_%s.%s", prefix, time.Now().Format("20060102_150405"), ext)
}

func sendDownload(w http.ResponseWriter, payload []byte, contentType, filename string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(payload)))
	w.WriteHeader(http.StatusOK)
	w.Write(payload)
}

// createExcelFile renders the export into a styled workbook: snapshot
// sheet, plus a history sheet when the history was collected.
func createExcelFile(title string, data *monitoring.ExportData) (*excelize.File, error) {
	f := excelize.NewFile()
	sheetName := "Snapshots"

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 16},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	})
	f.SetCellValue(sheetName, "A1", title)
	f.SetCellStyle(sheetName, "A1", "A1", titleStyle)
	f.SetRowHeight(sheetName, 1, 30)
	f.SetCellValue(sheetName, "A2", fmt.Sprintf("Generated: %s", time.Now().Format("2006-01-02 15:04:05")))

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#4472C4"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	headers, rows := monitoring.SnapshotTable(data)
	for colIdx, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(colIdx+1, 4)
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
		f.SetColWidth(sheetName, columnIndexToLetter(colIdx+1), columnIndexToLetter(colIdx+1), 20)
	}
	for rowIdx, row := range rows {
		for colIdx, value := range row {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+5)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	if data.History != nil {
		histSheet := "Measurement History"
		if _, err := f.NewSheet(histSheet); err != nil {
			return nil, err
		}
		histHeaders, histRows := monitoring.HistoryTable(data)
		for colIdx, header := range histHeaders {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, 1)
			f.SetCellValue(histSheet, cell, header)
			f.SetCellStyle(histSheet, cell, cell, headerStyle)
		}
		for rowIdx, row := range histRows {
			for colIdx, value := range row {
				cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
				f.SetCellValue(histSheet, cell, value)
			}
		}
	}

	f.DeleteSheet("Sheet1")
	return f, nil
}

func columnIndexToLetter(col int) string {
	result := ""
	for col > 0 {
		col--
		result = string(rune('A'+(col%26))) + result
		col /= 26
	}
	return result
}
