package configuration

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		input   string
		want    TimeOfDay
		wantErr assert.ErrorAssertionFunc
	}{
		{input: "08:00", want: TimeOfDay{Hour: 8, Set: true}, wantErr: assert.NoError},
		{input: "6:12", want: TimeOfDay{Hour: 6, Minute: 12, Set: true}, wantErr: assert.NoError},
		{input: "21:48:30", want: TimeOfDay{Hour: 21, Minute: 48, Set: true}, wantErr: assert.NoError},
		{input: "24:00", want: TimeOfDay{Hour: 24, Set: true}, wantErr: assert.NoError},
		{input: "24:01", wantErr: assert.Error},
		{input: "", wantErr: assert.Error},
		{input: "noon", wantErr: assert.Error},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTimeOfDay(tt.input)
			tt.wantErr(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTimeOfDay_On(t *testing.T) {
	ref := time.Date(2024, time.June, 21, 13, 37, 12, 0, time.Local)
	tod, err := ParseTimeOfDay("21:48")
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, time.June, 21, 21, 48, 0, 0, time.Local), tod.On(ref))
	assert.Equal(t, "21:48", tod.String())
	assert.Equal(t, "06:05", TimeOfDay{Hour: 6, Minute: 5}.String())

	tod, err = ParseTimeOfDay("24:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.June, 22, 0, 0, 0, 0, time.Local), tod.On(ref))
	assert.Equal(t, "24:00", tod.String())
}
