package status

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fortuna/livescore/internal/scores"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		sport Sport
		raw   string
		want  Detail
	}{
		{"empty", Basketball, "  ", Detail{Status: scores.StatusScheduled}},
		{"quarter and clock", Basketball, "Q3 2:15", Detail{Status: scores.StatusInProgress, Period: 3, Clock: "2:15"}},
		{"halftime", Basketball, "Halftime", Detail{Status: scores.StatusInProgress, Period: 2, PeriodLabel: LabelHalf}},
		{"ordinal quarter", Football, "2:00 - 4th", Detail{Status: scores.StatusInProgress, Period: 4, Clock: "2:00"}},
		{"end of quarter", Basketball, "End of 3rd", Detail{Status: scores.StatusInProgress, Period: 3, PeriodLabel: LabelEnd}},
		{"overtime", Basketball, "1:12 - OT", Detail{Status: scores.StatusInProgress, Period: 5, PeriodLabel: LabelOvertime, Clock: "1:12"}},
		{"double overtime", Basketball, "2OT", Detail{Status: scores.StatusInProgress, Period: 6, PeriodLabel: "2OT"}},
		{"final", Basketball, "Final", Detail{Status: scores.StatusFinal}},
		{"final overtime", Basketball, "Final/OT", Detail{Status: scores.StatusFinal, Period: 5, PeriodLabel: "OT"}},
		{"final double overtime", Football, "Final/2OT", Detail{Status: scores.StatusFinal, Period: 6, PeriodLabel: "2OT"}},
		{"tip-off time", Basketball, "7:05 PM", Detail{Status: scores.StatusScheduled}},
		{"dated tip-off", Basketball, "Oct 4th at 7:05 p.m.", Detail{Status: scores.StatusScheduled}},
		{"postponed", Basketball, "PPD", Detail{Status: scores.StatusScheduled, PeriodLabel: LabelPostponed}},
		{"postponed beats final", Baseball, "Final - Postponed", Detail{Status: scores.StatusScheduled, PeriodLabel: LabelPostponed}},
		{"delayed", Basketball, "Delayed", Detail{Status: scores.StatusInProgress, PeriodLabel: LabelDelay}},
		{"live keyword", Football, "LIVE", Detail{Status: scores.StatusInProgress}},
		{"unknown text", Football, "TBD", Detail{Status: scores.StatusScheduled}},

		{"top of inning", Baseball, "Top 4th", Detail{Status: scores.StatusInProgress, Period: 4, PeriodLabel: LabelTop}},
		{"bottom with outs", Baseball, "Bot 9th, 2 Outs", Detail{Status: scores.StatusInProgress, Period: 9, PeriodLabel: LabelBottom, Clock: "2 Outs"}},
		{"middle of inning", Baseball, "Mid 7th", Detail{Status: scores.StatusInProgress, Period: 7, PeriodLabel: LabelMiddle}},
		{"one out", Baseball, "Top 1st, 1 Out", Detail{Status: scores.StatusInProgress, Period: 1, PeriodLabel: LabelTop, Clock: "1 Out"}},
		{"extra innings final", Baseball, "F/10", Detail{Status: scores.StatusFinal, Period: 10}},
		{"rain delay", Baseball, "Rain Delay", Detail{Status: scores.StatusInProgress, PeriodLabel: LabelDelay}},
		{"delay keeps inning", Baseball, "Delayed - Top 6th", Detail{Status: scores.StatusInProgress, Period: 6, PeriodLabel: LabelTop}},
		{"first pitch", Baseball, "1:10 PM", Detail{Status: scores.StatusScheduled}},

		{"hockey period", Hockey, "12:01 - 2nd", Detail{Status: scores.StatusInProgress, Period: 2, Clock: "12:01"}},
		{"intermission", Hockey, "2nd Intermission", Detail{Status: scores.StatusInProgress, Period: 2, PeriodLabel: LabelIntermission}},
		{"end of period", Hockey, "End of 1st", Detail{Status: scores.StatusInProgress, Period: 1, PeriodLabel: LabelIntermission}},
		{"hockey overtime", Hockey, "3:30 OT", Detail{Status: scores.StatusInProgress, Period: 4, PeriodLabel: LabelOvertime, Clock: "3:30"}},
		{"shootout", Hockey, "SO", Detail{Status: scores.StatusInProgress, Period: 5, PeriodLabel: LabelShootout}},
		{"final shootout", Hockey, "Final/SO", Detail{Status: scores.StatusFinal, Period: 5, PeriodLabel: LabelShootout}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.sport, tt.raw))
		})
	}
}

func TestSportFor(t *testing.T) {
	assert.Equal(t, Hockey, SportFor("nhl"))
	assert.Equal(t, Baseball, SportFor("MLB"))
	assert.Equal(t, Football, SportFor("NFL"))
	assert.Equal(t, Basketball, SportFor("WNBA"))
	assert.Equal(t, Basketball, SportFor("XYZ"))
}
