package browser

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExecutionResult_JSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		res  ExecutionResult
		want string
	}{
		{
			name: "success with payload",
			res:  SuccessResult(json.RawMessage(`{"order": "ok"}`), ""),
			want: `{"status":"success","result":{"order":"ok"},"message":"Task completed"}`,
		},
		{
			name: "success without payload",
			res:  SuccessResult(nil, "done"),
			want: `{"status":"success","result":null,"message":"done"}`,
		},
		{
			name: "error omits result",
			res:  ErrorResult(MsgTimedOut),
			want: `{"status":"error","message":"Task timed out"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.res.JSON())
		})
	}
}

func TestExecutionResult_InvalidPayload(t *testing.T) {
	t.Parallel()

	res := ExecutionResult{Status: StatusSuccess, Result: json.RawMessage(`{broken`), Message: "x"}

	var decoded map[string]any
	assert.NoError(t, json.Unmarshal([]byte(res.JSON()), &decoded))
	assert.Equal(t, "error", decoded["status"])
}

func TestServiceMessage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "placed", serviceMessage(json.RawMessage(`{"message":"placed"}`)))
	assert.Empty(t, serviceMessage(json.RawMessage(`{"message":3}`)))
	assert.Empty(t, serviceMessage(json.RawMessage(`["message"]`)))
	assert.Empty(t, serviceMessage(json.RawMessage(`"message"`)))
}

func TestParseTaskID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw    string
		want   string
		wantOK bool
	}{
		{raw: `"abc"`, want: "abc", wantOK: true},
		{raw: `17`, want: "17", wantOK: true},
		{raw: `""`},
		{raw: `null`},
		{raw: ``},
		{raw: `{"id":1}`},
		{raw: `true`},
	}
	for _, tt := range tests {
		got, ok := parseTaskID(json.RawMessage(tt.raw))
		assert.Equal(t, tt.wantOK, ok, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}
}
