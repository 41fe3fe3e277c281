package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSettingValue(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want any
	}{
		{
			name: "json object",
			raw:  `{"payment_voucher": true}`,
			want: map[string]any{"payment_voucher": true},
		},
		{
			name: "json number",
			raw:  "5000",
			want: float64(5000),
		},
		{
			name: "json boolean",
			raw:  "true",
			want: true,
		},
		{
			name: "quoted string",
			raw:  `"5000.50"`,
			want: "5000.50",
		},
		{
			name: "plain string falls through",
			raw:  "not json at all",
			want: "not json at all",
		},
		{
			name: "empty string falls through",
			raw:  "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseSettingValue(tt.raw))
		})
	}
}
