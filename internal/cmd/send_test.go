package cmd_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vkbtools/vkbridge/internal/cmd"
)

func TestParseDeviceSpec(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    cmd.DeviceSpec
		wantErr bool
	}{
		{
			name: "hex vendor and product",
			in:   "1=231d:0200",
			want: cmd.DeviceSpec{ID: 1, Vendor: 0x231d, Product: 0x0200},
		},
		{
			name: "device id zero",
			in:   "0=046d:c215",
			want: cmd.DeviceSpec{ID: 0, Vendor: 0x046d, Product: 0xc215},
		},
		{
			name: "max device id",
			in:   "255=ffff:ffff",
			want: cmd.DeviceSpec{ID: 255, Vendor: 0xffff, Product: 0xffff},
		},
		{name: "missing separator", in: "231d:0200", wantErr: true},
		{name: "missing product", in: "1=231d", wantErr: true},
		{name: "id overflow", in: "256=231d:0200", wantErr: true},
		{name: "non-hex vendor", in: "1=zzzz:0200", wantErr: true},
		{name: "vendor overflow", in: "1=12345:0200", wantErr: true},
		{name: "empty", in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := cmd.ParseDeviceSpec(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
