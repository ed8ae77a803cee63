package provider

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTimeValueUnmarshal(t *testing.T) {
	t.Parallel()

	var v TimeValue
	require.NoError(t, json.Unmarshal([]byte(`1700000000`), &v))
	sec, ok := v.Epoch()
	require.True(t, ok)
	require.EqualValues(t, 1700000000, sec)
	require.False(t, v.IsZero())

	require.NoError(t, json.Unmarshal([]byte(`"2024-01-01T00:00:00"`), &v))
	require.Equal(t, "2024-01-01T00:00:00", v.Value())
	_, ok = v.Epoch()
	require.False(t, ok)

	require.NoError(t, json.Unmarshal([]byte(`null`), &v))
	require.True(t, v.IsZero())

	require.Error(t, json.Unmarshal([]byte(`[1,2]`), &v))
}

func TestTimeValueZeroForms(t *testing.T) {
	t.Parallel()

	require.True(t, TimeValue{}.IsZero())
	require.True(t, ISOText("").IsZero())
	require.False(t, ISOText("2024-01-01T00:00:00").IsZero())
	require.False(t, EpochSeconds(0).IsZero())
}

func TestTimeValueMarshalRoundTrip(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(EpochSeconds(1700000000))
	require.NoError(t, err)
	require.Equal(t, "1700000000", string(data))

	data, err = json.Marshal(ISOText("2024-01-01T00:00:00"))
	require.NoError(t, err)
	require.Equal(t, `"2024-01-01T00:00:00"`, string(data))
}
