package adapthttp

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"carecompanion/internal/domain"
)

func (s *Server) handleDoctorPatients(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	patients, err := s.svc.Doctor.ListPatients(r.Context(), userFrom(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, patients)
}

func (s *Server) handleDoctorPatientVitals(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	_, vitals, err := s.svc.Doctor.PatientVitals(r.Context(), userFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, vitals)
}

func (s *Server) handleDoctorPatientRisk(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	a, err := s.svc.Doctor.PatientRisk(r.Context(), userFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleDoctorVitalsExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	patient, vitals, err := s.svc.Doctor.PatientVitals(r.Context(), userFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	data, err := vitalsWorkbook(patient, vitals)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	name := fmt.Sprintf("vitals-%s-%s.xlsx", patient.ID, time.Now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

var vitalsHeader = []string{
	"Timestamp (UTC)", "Heart Rate (bpm)", "Systolic", "Diastolic",
	"Temperature (°C)", "SpO2 (%)", "Sleep (h)", "Activity (min)", "Notes",
}

const vitalsSheet = "Vitals"

// vitalsWorkbook renders vitals as a single-sheet workbook with a frozen
// header row. Absent readings are left blank.
func vitalsWorkbook(patient *domain.User, vitals []domain.VitalRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(vitalsSheet)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}
	if err := f.SetDocProps(&excelize.DocProperties{Title: "Vitals for " + patient.FullName}); err != nil {
		return nil, fmt.Errorf("set doc props: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	if err := f.SetSheetRow(vitalsSheet, "A1", &vitalsHeader); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(vitalsHeader), 1)
	if err := f.SetCellStyle(vitalsSheet, "A1", last, headerStyle); err != nil {
		return nil, fmt.Errorf("style header: %w", err)
	}
	if err := f.SetColWidth(vitalsSheet, "A", "A", 22); err != nil {
		return nil, fmt.Errorf("set column width: %w", err)
	}

	for i, v := range vitals {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []any{
			v.Timestamp.UTC().Format(time.RFC3339),
			intCell(v.HeartRate), intCell(v.BloodPressureSystolic), intCell(v.BloodPressureDiastolic),
			floatCell(v.Temperature), intCell(v.OxygenSaturation), floatCell(v.SleepHours),
			intCell(v.ActivityMinutes), stringCell(v.Notes),
		}
		if err := f.SetSheetRow(vitalsSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.SetPanes(vitalsSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("freeze header: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func intCell(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func floatCell(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func stringCell(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}
