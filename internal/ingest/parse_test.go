// ABOUTME: Tests for the per-format CSV parsers.
// ABOUTME: Uses inline CSV fixtures mirroring real device and study exports.
package ingest

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/harperreed/workwell/internal/models"
)

const cgmExport = `Glucose Data,Generated on,01-10-2024 10:00
Patient report,,
Device,Serial Number,Device Timestamp,Record Type,Historic Glucose mg/dL,Scan Glucose mg/dL
FreeStyle LibreLink,ABC123,01-03-2024 08:00,0,65,
FreeStyle LibreLink,ABC123,01-03-2024 08:15,1,,110
FreeStyle LibreLink,ABC123,01-03-2024 08:30,0,182,
`

func TestCGMFileName(t *testing.T) {
	tests := []struct {
		name      string
		pid       string
		timepoint string
		wantErr   bool
	}{
		{"/data/p01_baseline.csv", "p01", "baseline", false},
		{"p02_followup_export.csv", "p02", "followup", false},
		{"p03.csv", "", "", true},
		{"_baseline.csv", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pid, tp, err := CGMFileName(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if pid != tt.pid || tp != tt.timepoint {
				t.Errorf("got (%q, %q), want (%q, %q)", pid, tp, tt.pid, tt.timepoint)
			}
		})
	}
}

func TestParseCGM(t *testing.T) {
	got, err := ParseCGM("p01_baseline.csv", strings.NewReader(cgmExport))
	if err != nil {
		t.Fatalf("ParseCGM failed: %v", err)
	}
	want := []models.GlucoseReading{
		{PID: "p01", Timepoint: "baseline", DeviceTimestamp: "01-03-2024 08:00", GlucoseMgDL: 65,
			Device: "FreeStyle LibreLink", SerialNumber: "ABC123", RecordType: 0},
		{PID: "p01", Timepoint: "baseline", DeviceTimestamp: "01-03-2024 08:30", GlucoseMgDL: 182,
			Device: "FreeStyle LibreLink", SerialNumber: "ABC123", RecordType: 0},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseCGM mismatch (-want +got):\n%s", diff)
	}
}

func TestParseCGMErrors(t *testing.T) {
	tests := []struct {
		name string
		file string
		body string
	}{
		{"missing preamble", "p01_bl.csv", "only one line\n"},
		{"missing glucose column", "p01_bl.csv", "a\nb\nDevice Timestamp,Device\n01-03-2024 08:00,x\n"},
		{"bad number", "p01_bl.csv", "a\nb\nDevice Timestamp,Historic Glucose mg/dL\n01-03-2024 08:00,high\n"},
		{"bad file name", "export.csv", cgmExport},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseCGM(tt.file, strings.NewReader(tt.body)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestParseWearTime(t *testing.T) {
	body := "pid,calendar_date,day,recorded_wear_time_hrs\n" +
		"p01,2024-01-03,Wednesday,20.5\n" +
		"p01,2024-01-04,Thursday,NA\n" +
		"p01,2024-01-05,Friday,\n" +
		"p01,2024-01-06,Saturday,0\n"
	got, err := ParseWearTime("wear.csv", strings.NewReader(body))
	if err != nil {
		t.Fatalf("ParseWearTime failed: %v", err)
	}
	// Unrecorded days are dropped; an explicit zero is kept.
	want := []models.WearTimeRecord{
		{PID: "p01", Date: "2024-01-03", Day: "Wednesday", RecordedHours: 20.5},
		{PID: "p01", Date: "2024-01-06", Day: "Saturday", RecordedHours: 0},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseWearTime mismatch (-want +got):\n%s", diff)
	}
}

func TestParseDaySummaryHeadersAreCaseInsensitive(t *testing.T) {
	body := "PID,calendar_date,dur_day_total_IN_min,dur_day_total_LIG_min,dur_day_total_MOD_min," +
		"dur_day_total_VIG_min,dur_spt_sleep_min,dur_spt_min,nonwear_perc_day_spt,sleeponset_ts,wakeup_ts,sleep_efficiency_after_onset\n" +
		"p01,2024-01-03,600,120,30,10,420,480,5,23:10:00,07:05:00,0.9\n"
	got, err := ParseDaySummary("days.csv", strings.NewReader(body))
	if err != nil {
		t.Fatalf("ParseDaySummary failed: %v", err)
	}
	want := []models.ActivitySummaryRow{{
		PID: "p01", Date: "2024-01-03",
		SedentaryMin: 600, LightMin: 120, ModerateMin: 30, VigorousMin: 10,
		SleepMin: 420, SptMin: 480, NonWearPct: 5,
		SleepOnset: "23:10:00", Wakeup: "07:05:00", SleepEfficiency: 0.9,
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseDaySummary mismatch (-want +got):\n%s", diff)
	}
}

func TestParseFileSummary(t *testing.T) {
	body := "pid,filename,file_device_id,file_size,file_start_time,file_end_time," +
		"wear_time_overall_days,non_wear_time_overall_days,good_calibration\n" +
		"p01,/raw/p01.cwa,dev-1,2097152,2024-01-03T08:00:00+00:00[UTC],2024-01-10T08:00:00+00:00[UTC],6.5,0.5,1\n" +
		"p02,p02.cwa,dev-2,1048576,,,5,2,FALSE\n"
	got, err := ParseFileSummary("files.csv", strings.NewReader(body))
	if err != nil {
		t.Fatalf("ParseFileSummary failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d rows, want 2", len(got))
	}
	if got[0].FileSizeBytes != 2097152 || !got[0].GoodCalibration || got[0].FileName != "/raw/p01.cwa" {
		t.Errorf("unexpected first row: %+v", got[0])
	}
	if got[1].GoodCalibration || got[1].WearDays != 5 {
		t.Errorf("unexpected second row: %+v", got[1])
	}
}

func TestParseFileSummaryMissingSize(t *testing.T) {
	for _, size := range []string{"", "NA", "null"} {
		body := "pid,filename,file_size\n" +
			"p01,p01.cwa,2097152\n" +
			"p02,p02.cwa," + size + "\n"
		_, err := ParseFileSummary("files.csv", strings.NewReader(body))
		if err == nil {
			t.Fatalf("file_size %q: expected error", size)
		}
		if !strings.Contains(err.Error(), "line 3") || !strings.Contains(err.Error(), "p02.cwa") {
			t.Errorf("file_size %q: error %q lacks line or file name", size, err)
		}
	}
}

func TestParseDietaryFallsBackToFilePID(t *testing.T) {
	body := "Date,Time,Raw Data,Total Carbs (g),Total Fat (g),Protein (g),Calories,GL\n" +
		"2024-01-03,12:30,chicken salad,45,12,30,520,8.5\n" +
		",,,,,,,\n"
	got, err := ParseDietary("p07_foodlog.csv", strings.NewReader(body))
	if err != nil {
		t.Fatalf("ParseDietary failed: %v", err)
	}
	want := []models.DietaryEntry{{
		PID: "p07", Date: "2024-01-03", Timestamp: "2024-01-03 12:30",
		CarbsG: 45, FatG: 12, ProteinG: 30, Calories: 520, GlycemicLoad: 8.5,
		Description: "chicken salad",
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseDietary mismatch (-want +got):\n%s", diff)
	}
}

func TestParseTrace(t *testing.T) {
	body := "pid,timestamp,sedentary,light,moderate_vigorous,sleep\n" +
		"p01,2024-01-03 00:00:00,0,0,0,1\n"
	got, err := ParseTrace("trace.csv", strings.NewReader(body))
	if err != nil {
		t.Fatalf("ParseTrace failed: %v", err)
	}
	if len(got) != 1 || got[0].Sleep != 1 {
		t.Errorf("unexpected trace: %+v", got)
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range Kinds {
		got, err := ParseKind(strings.ToUpper(string(k)))
		if err != nil || got != k {
			t.Errorf("ParseKind(%q) = %q, %v", k, got, err)
		}
	}
	if _, err := ParseKind("xlsx"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestParseDispatch(t *testing.T) {
	rows, err := Parse(KindCGM, "p01_baseline.csv", strings.NewReader(cgmExport))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if rows.Len() != 2 || len(rows.Glucose) != 2 {
		t.Errorf("unexpected rows: %+v", rows)
	}
}
