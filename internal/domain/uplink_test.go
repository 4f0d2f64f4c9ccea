package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUplink = `{
  "end_device_ids": {"device_id": "tracker-07", "dev_eui": "70B3D57ED0000001"},
  "received_at": "2024-12-13T12:00:01.5Z",
  "uplink_message": {
    "f_cnt": 311,
    "decoded_payload": {"battery": 3.6},
    "rx_metadata": [
      {"gateway_ids": {"gateway_id": "gw-delft"}, "rssi": -80, "snr": 5,
       "location": {"latitude": 52.0, "longitude": 4.0, "altitude": 12}},
      {"gateway_ids": {"eui": "B827EBFFFE000002"}, "rssi": -60, "snr": 10,
       "location": {"latitude": 52.01, "longitude": 4.02}},
      {"gateway_ids": {"gateway_id": "gw-nosnr"}, "rssi": -101,
       "location": {"latitude": 52.2, "longitude": 4.2}},
      {"gateway_ids": {"gateway_id": "gw-nolocation"}, "rssi": -90, "snr": 2},
      null
    ]
  }
}`

func TestParseUplink(t *testing.T) {
	t.Run("webhook payload", func(t *testing.T) {
		ds, err := ParseUplink("fallback", []byte(testUplink))
		require.NoError(t, err)

		require.Len(t, ds.Receptions, 2)
		first := ds.Receptions[0]
		assert.Equal(t, "tracker-07:311", first.MessageID)
		assert.Equal(t, "gw-delft", first.GatewayID)
		assert.Equal(t, 52.0, first.Lat)
		assert.Equal(t, 4.0, first.Lng)
		assert.Equal(t, -80.0, first.RSSI)
		assert.Equal(t, 5.0, first.SNR)
		assert.Equal(t, "B827EBFFFE000002", ds.Receptions[1].GatewayID)

		require.Len(t, ds.Dropped, 2)
		assert.Equal(t, "snr", ds.Dropped[0].Field)
		assert.Equal(t, "rx_lat", ds.Dropped[1].Field)
		assert.ErrorIs(t, ds.Dropped[0], ErrMissingField)
		assert.Equal(t, []string{"tracker-07:311"}, ds.Order)
	})

	t.Run("event stream envelope", func(t *testing.T) {
		ds, err := ParseUplink("fallback", []byte(`{"name":"as.up.data.forward","data":`+testUplink+`}`))
		require.NoError(t, err)
		assert.Len(t, ds.Receptions, 2)
	})

	t.Run("fallback id without device", func(t *testing.T) {
		payload := `{"uplink_message":{"rx_metadata":[{"rssi":-70,"snr":4,"location":{"latitude":51.9,"longitude":4.4}}]}}`
		ds, err := ParseUplink("1042", []byte(payload))
		require.NoError(t, err)
		require.Len(t, ds.Receptions, 1)
		assert.Equal(t, "1042", ds.Receptions[0].MessageID)
	})

	t.Run("out of range location", func(t *testing.T) {
		payload := `{"uplink_message":{"rx_metadata":[{"rssi":-70,"snr":4,"location":{"latitude":51.9,"longitude":404.4}}]}}`
		ds, err := ParseUplink("x", []byte(payload))
		require.NoError(t, err)
		assert.Empty(t, ds.Receptions)
		require.Len(t, ds.Dropped, 1)
		assert.Equal(t, "rx_lng", ds.Dropped[0].Field)
	})

	t.Run("invalid json", func(t *testing.T) {
		_, err := ParseUplink("x", []byte("not json"))
		assert.Error(t, err)
	})
}
