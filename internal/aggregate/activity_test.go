// ABOUTME: Tests for accelerometer aggregations.
// ABOUTME: Reshape ordering, sleep averages, activity cards, and trends.
package aggregate

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/harperreed/workwell/internal/models"
)

func TestReshapeWearNonWear(t *testing.T) {
	in := []WearSummary{
		{PID: "p2", Wear: 6.5, NonWear: 0.5},
		{PID: "p1", Wear: 7, NonWear: 0},
	}
	want := []TidyRow{
		{PID: "p2", Category: CategoryWear, Value: 6.5},
		{PID: "p2", Category: CategoryNonWear, Value: 0.5},
		{PID: "p1", Category: CategoryWear, Value: 7},
		{PID: "p1", Category: CategoryNonWear, Value: 0},
	}
	if diff := cmp.Diff(want, ReshapeWearNonWear(in)); diff != "" {
		t.Errorf("ReshapeWearNonWear mismatch (-want +got):\n%s", diff)
	}
	if got := ReshapeWearNonWear(nil); len(got) != 0 {
		t.Errorf("ReshapeWearNonWear(nil) = %v, want empty", got)
	}
}

func TestReshapeActivity(t *testing.T) {
	in := []models.ActivitySummaryRow{
		{PID: "p1", Date: "2023-05-01", SedentaryMin: 600, LightMin: 200, ModerateMin: 30, VigorousMin: 5},
	}
	got := ReshapeActivity(in)
	want := []TidyRow{
		{PID: "p1", Date: "2023-05-01", Category: "sedentary", Value: 600},
		{PID: "p1", Date: "2023-05-01", Category: "light", Value: 200},
		{PID: "p1", Date: "2023-05-01", Category: "moderate", Value: 30},
		{PID: "p1", Date: "2023-05-01", Category: "vigorous", Value: 5},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ReshapeActivity mismatch (-want +got):\n%s", diff)
	}
}

func TestAverageSleepHours(t *testing.T) {
	in := []models.ActivitySummaryRow{
		{PID: "p2", SleepMin: 480},
		{PID: "p1", SleepMin: 420},
		{PID: "p1", SleepMin: 540},
	}
	want := []ParticipantValue{{PID: "p1", Value: 8}, {PID: "p2", Value: 8}}
	if diff := cmp.Diff(want, AverageSleepHours(in)); diff != "" {
		t.Errorf("AverageSleepHours mismatch (-want +got):\n%s", diff)
	}
}

func TestParticipantActivityCard(t *testing.T) {
	rows := []models.ActivitySummaryRow{
		{PID: "p1", SedentaryMin: 600, LightMin: 100, ModerateMin: 20, VigorousMin: 0, SptMin: 480, NonWearPct: 10},
		{PID: "p1", SedentaryMin: 500, LightMin: 200, ModerateMin: 40, VigorousMin: 10, SptMin: 420, NonWearPct: 0},
		{PID: "p2", SedentaryMin: 1, LightMin: 1, ModerateMin: 1, VigorousMin: 1, SptMin: 1},
	}
	got, err := ParticipantActivityCard("p1", rows)
	if err != nil {
		t.Fatal(err)
	}
	want := ActivityCard{
		PID: "p1", Days: 2, AvgNonWearPct: 5, AvgSedentaryMin: 550, AvgLightMin: 150,
		AvgModerateMin: 30, AvgVigorousMin: 5, AvgSleepHours: 7.5,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParticipantActivityCard mismatch (-want +got):\n%s", diff)
	}

	_, err = ParticipantActivityCard("nobody", rows)
	var noData *NoDataError
	if !errors.As(err, &noData) {
		t.Errorf("error = %v, want NoDataError", err)
	}
}

func TestSleepDaysOrderedByDate(t *testing.T) {
	rows := []models.ActivitySummaryRow{
		{Date: "2023-05-02", SleepMin: 420, SleepEfficiency: 0.9},
		{Date: "2023-05-01", SleepMin: 480, SleepEfficiency: 0.8},
	}
	got := SleepDays(rows)
	if got[0].Date != "2023-05-01" || got[0].SleepHours != 8 {
		t.Errorf("first day = %+v", got[0])
	}
	if got[1].SleepHours != 7 {
		t.Errorf("second day hours = %v, want 7", got[1].SleepHours)
	}
}

func TestParticipantTrends(t *testing.T) {
	rows := []models.WearTimeRecord{
		{PID: "p2", Date: "2023-05-01 00:00:00", RecordedHours: 20},
		{PID: "p1", Date: "2023-05-02 00:00:00", RecordedHours: 23.5},
		{PID: "p1", Date: "2023-05-01 00:00:00", RecordedHours: 22},
	}
	got, err := ParticipantTrends(rows)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]Trend{
		"p1": {Dates: []string{"2023-05-01", "2023-05-02"}, WearTimes: []float64{22, 23.5}},
		"p2": {Dates: []string{"2023-05-01"}, WearTimes: []float64{20}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParticipantTrends mismatch (-want +got):\n%s", diff)
	}

	_, err = ParticipantTrends([]models.WearTimeRecord{{PID: "p1", Date: "May 1"}})
	var malformed *MalformedTimestampError
	if !errors.As(err, &malformed) {
		t.Errorf("error = %v, want MalformedTimestampError", err)
	}
}

func TestDistinctDates(t *testing.T) {
	rows := []models.WearTimeRecord{
		{Date: "2023-05-02"},
		{Date: "2023-05-01 00:00:00"},
		{Date: "2023-05-02 00:00:00"},
	}
	got, err := DistinctDates(rows)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"2023-05-01", "2023-05-02"}, got); diff != "" {
		t.Errorf("DistinctDates mismatch (-want +got):\n%s", diff)
	}
}
