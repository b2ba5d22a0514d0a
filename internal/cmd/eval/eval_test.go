package eval

import (
	"bytes"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const weather = `{
  "liveweer": [{"plaats": "Amsterdam", "image": "zonnig", "gr": 512, "temp": 21.5, "windbft": 2, "sup": "05:21", "sunder": "21:52"}],
  "uur_verw": [
    {"uur": "01-06-2024 13:00", "image": "zonnig", "gr": 540, "temp": 22, "windbft": 2},
    {"uur": "01-06-2024 14:00", "image": "halfbewolkt", "gr": 380, "temp": 22, "windbft": 3}
  ]
}`

const sensors = `
sensors:
  - name: awning
    fromTime: "08:00"
    untilTime: "20:00"
    minSunPower: 300
    minTemperature: 15
    maxWind: 4
    sameHours: 2
  - name: screen
    fromTime: "14:00"
    untilTime: "20:00"
    minSunPower: 300
    minTemperature: 15
    maxWind: 4
`

func Test_evalSensors(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(weather))
	}))
	t.Cleanup(s.Close)

	sensorsFile := filepath.Join(t.TempDir(), "sensors.yaml")
	require.NoError(t, os.WriteFile(sensorsFile, []byte(sensors), 0o600))

	now := func() time.Time { return time.Date(2024, time.June, 1, 12, 0, 0, 0, time.Local) }

	tests := []struct {
		name string
		open bool
		want string
	}{
		{
			name: "closed",
			want: `weather: image=zonnig gr=512 temp=21.5 windbft=2 sun=06:21-20:52 forecast=2h
SENSOR               OPEN   REASON
awning               false  not sunny: hour 2: image not sunny: halfbewolkt
screen               false  outside time window
`,
		},
		{
			name: "open",
			open: true,
			want: `weather: image=zonnig gr=512 temp=21.5 windbft=2 sun=06:21-20:52 forecast=2h
SENSOR               OPEN   REASON
awning               true   sunny weather
screen               false  closed because of the upcoming sunset
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			v.Set("weerlive.apikey", "my-key")
			v.Set("weerlive.latitude", 52.37)
			v.Set("weerlive.longitude", 4.89)
			v.Set("weerlive.url", s.URL)
			v.Set("sunshineImages", "zonnig")
			v.Set("cloudedImages", "halfbewolkt")
			v.Set("sensors", sensorsFile)
			v.Set("open", tt.open)

			var output bytes.Buffer
			cmd := &cobra.Command{}
			cmd.SetContext(t.Context())
			require.NoError(t, evalSensors(&output, v, now)(cmd, nil))
			assert.Equal(t, tt.want, output.String())
		})
	}
}

func Test_evalSensors_Failure(t *testing.T) {
	v := viper.New()
	v.Set("weerlive.apikey", "my-key")
	cmd := &cobra.Command{}
	cmd.SetContext(t.Context())
	assert.Error(t, evalSensors(&bytes.Buffer{}, v, time.Now)(cmd, nil))
}
