package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"droneFlightAuthority/internal/apperr"
	"droneFlightAuthority/internal/lifecycle"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Server) handleHistoryExport(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		s.writeError(w, apperr.Validation("flight_id", "invalid flight id %q", r.PathValue("id")))
		return
	}
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing bearer token"})
		return
	}
	actor, err := s.actor(r.Context(), strings.TrimSpace(token))
	if err != nil {
		s.writeError(w, err)
		return
	}
	hist, err := s.Flights.History(r.Context(), actor, id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	f, err := historyWorkbook(hist)
	if err != nil {
		s.writeError(w, err)
		return
	}
	defer f.Close()
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="flight-%d-history.xlsx"`, id))
	if err := f.Write(w); err != nil {
		s.logger().Error("write workbook", "flight_id", id, "error", err)
	}
}

// historyWorkbook lays a flight history out as a Waypoints and a Telemetry sheet.
func historyWorkbook(h *lifecycle.History) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", "Waypoints"); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet("Telemetry"); err != nil {
		return nil, err
	}

	if err := f.SetSheetRow("Waypoints", "A1", &[]any{"Sequence", "Latitude", "Longitude", "Altitude (m)"}); err != nil {
		return nil, err
	}
	for i, wp := range h.Plan.Waypoints {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow("Waypoints", cell, &[]any{wp.Sequence, wp.Latitude, wp.Longitude, wp.AltitudeM}); err != nil {
			return nil, err
		}
	}

	if err := f.SetSheetRow("Telemetry", "A1", &[]any{"Timestamp", "Latitude", "Longitude", "Altitude (m)", "Speed (m/s)", "Heading (deg)", "Status"}); err != nil {
		return nil, err
	}
	for i, t := range h.Telemetry {
		row := []any{t.Timestamp.UTC().Format(time.RFC3339), t.Latitude, t.Longitude, t.AltitudeM, nil, nil, t.Status}
		if t.SpeedMPS != nil {
			row[4] = *t.SpeedMPS
		}
		if t.HeadingDeg != nil {
			row[5] = *t.HeadingDeg
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow("Telemetry", cell, &row); err != nil {
			return nil, err
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}
