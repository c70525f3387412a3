package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWipeByteArray_ZerosBuffer(t *testing.T) {
	buf := []byte{1, 2, 3, 4, 5}
	WipeByteArray(buf)
	for i, v := range buf {
		if v != 0 {
			t.Fatalf("expected buf[%d]==0, got %d", i, v)
		}
	}
}

func TestWipeByteArray_NilSafe(t *testing.T) {
	WipeByteArray(nil)
}

func TestParseBearer(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		token string
		ok    bool
	}{
		{name: "canonical", in: "Bearer abc.def", token: "abc.def", ok: true},
		{name: "lowercase scheme", in: "bearer abc", token: "abc", ok: true},
		{name: "extra spaces", in: "Bearer   abc  ", token: "abc", ok: true},
		{name: "no token", in: "Bearer ", ok: false},
		{name: "other scheme", in: "Basic dXNlcg==", ok: false},
		{name: "empty", in: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, ok := ParseBearer(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.token, token)
		})
	}
}
