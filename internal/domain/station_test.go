package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCorridor_Index(t *testing.T) {
	c := NewCorridor(nil)

	assert.Equal(t, 0, c.Index("Vasai"))
	assert.Equal(t, 1, c.Index("Nalasopara"))
	assert.Equal(t, 2, c.Index("Virar"))
	assert.Equal(t, -1, c.Index("Borivali"))
}

func TestCorridor_OverlapStrength(t *testing.T) {
	c := NewCorridor(nil)

	tests := []struct {
		name string
		job  StationRange
		want float64
		work StationRange
	}{
		{
			name: "full coverage",
			job:  StationRange{From: "Vasai", To: "Virar"},
			work: StationRange{From: "Vasai", To: "Virar"},
			want: 1.0,
		},
		{
			name: "partial coverage of a three station job",
			job:  StationRange{From: "Vasai", To: "Virar"},
			work: StationRange{From: "Vasai", To: "Nalasopara"},
			want: 2.0 / 3.0,
		},
		{
			name: "single station job inside worker range",
			job:  StationRange{From: "Nalasopara", To: "Nalasopara"},
			work: StationRange{From: "Vasai", To: "Virar"},
			want: 1.0,
		},
		{
			name: "disjoint ranges",
			job:  StationRange{From: "Vasai", To: "Vasai"},
			work: StationRange{From: "Virar", To: "Virar"},
			want: 0,
		},
		{
			name: "unrecognised station",
			job:  StationRange{From: "Borivali", To: "Virar"},
			work: StationRange{From: "Vasai", To: "Virar"},
			want: 0,
		},
		{
			name: "reversed endpoints normalise",
			job:  StationRange{From: "Virar", To: "Vasai"},
			work: StationRange{From: "Nalasopara", To: "Vasai"},
			want: 2.0 / 3.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, c.OverlapStrength(tt.job, tt.work), 1e-9)
		})
	}
}

func TestCorridor_CustomStations(t *testing.T) {
	c := NewCorridor([]string{"A", "B", "C", "D", "E"})

	assert.Equal(t, 4, c.Index("E"))
	assert.True(t, c.ValidRange(StationRange{From: "B", To: "D"}))
	assert.False(t, c.ValidRange(StationRange{From: "B", To: "Z"}))
	assert.InDelta(t, 0.5, c.OverlapStrength(
		StationRange{From: "A", To: "D"},
		StationRange{From: "C", To: "E"},
	), 1e-9)
}

func TestSeverityForText(t *testing.T) {
	short := "never showed up"
	medium := make([]byte, 100)
	long := make([]byte, 250)
	for i := range medium {
		medium[i] = 'x'
	}
	for i := range long {
		long[i] = 'x'
	}

	assert.Equal(t, SeverityLow, SeverityForText(short))
	assert.Equal(t, SeverityMedium, SeverityForText(string(medium)))
	assert.Equal(t, SeverityHigh, SeverityForText(string(long)))
}
