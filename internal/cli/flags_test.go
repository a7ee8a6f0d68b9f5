package cli

import (
	"testing"

	"github.com/blackredfox/rv-service-desk-v1.0-sub002/internal/domain"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHours(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"2.5", 2.5, true},
		{"2,5", 2.5, true},
		{"3h", 3, true},
		{" 1.5 hr ", 1.5, true},
		{"4 hours", 4, true},
		{"0", 0, false},
		{"-1", 0, false},
		{"abc", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseHours(tt.in)
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStatusFlag(t *testing.T) {
	var status domain.CaseStatus
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	addStatusFlag(fs, &status)

	require.NoError(t, fs.Parse([]string{"--status", "Open"}))
	assert.Equal(t, domain.CaseOpen, status)

	require.NoError(t, fs.Set("status", "all"))
	assert.Equal(t, domain.CaseStatus(""), status)

	assert.Error(t, fs.Set("status", "archived"))
}

func TestHoursFlag_TracksWhetherSet(t *testing.T) {
	var hours hoursValue
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	addHoursFlag(fs, &hours)

	require.NoError(t, fs.Parse(nil))
	assert.False(t, hours.set)

	require.NoError(t, fs.Parse([]string{"--hours", "2.5"}))
	assert.True(t, hours.set)
	assert.Equal(t, 2.5, hours.hours)
	assert.Equal(t, "2.5", hours.String())
	assert.NoError(t, validateHours("2"))
}
