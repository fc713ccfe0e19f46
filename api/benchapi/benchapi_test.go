package benchapi

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultErrorRoundTrip(t *testing.T) {
	r := Result[int]{Error: errors.New("boom")}
	raw, err := json.Marshal(&r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"boom"}`, string(raw))

	var decoded Result[int]
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Error(t, decoded.Error)
	assert.Equal(t, "boom", decoded.Error.Error())
}

func TestResultZeroValueOmitted(t *testing.T) {
	r := Result[int]{}
	raw, err := json.Marshal(&r)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(raw))
}

func TestDurationAcceptsStringAndNanos(t *testing.T) {
	var d Duration
	require.NoError(t, json.Unmarshal([]byte(`"30s"`), &d))
	assert.Equal(t, 30*time.Second, d.Duration)

	require.NoError(t, json.Unmarshal([]byte(`1000000000`), &d))
	assert.Equal(t, time.Second, d.Duration)

	require.Error(t, json.Unmarshal([]byte(`true`), &d))
}

func TestCollectValues(t *testing.T) {
	ok := Result[int]{Value: 7}
	failed := Result[int]{Error: errors.New("boom")}

	status := []WorkerStatus[Result[int]]{
		{Code: StatusIdle, Last: &ok},
		{Code: StatusIdle, Last: &failed},
		{Code: StatusBusy},
	}
	assert.Equal(t, []int{7}, CollectValues(status))
}
