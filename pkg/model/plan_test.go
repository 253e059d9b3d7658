package model

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatMemory(t *testing.T) {
	tests := []struct {
		memoryMB int
		want     string
	}{
		{0, "0 GB"},
		{512, "512 MB"},
		{1024, "1 GB"},
		{1536, "1536 MB"},
		{2048, "2 GB"},
		{4096, "4 GB"},
		{4097, "4097 MB"},
	}

	for _, test := range tests {
		t.Run(test.want, func(t *testing.T) {
			p := &Plan{MemoryMB: test.memoryMB}
			assert.Equal(t, test.want, p.FormatMemory())
		})
	}
}

func TestFormatMemory_WholeGigabytes(t *testing.T) {
	for n := 0; n < 64; n++ {
		p := &Plan{MemoryMB: n * 1024}
		assert.Equal(t, fmt.Sprintf("%d GB", n), p.FormatMemory())
	}
}

func TestFormatDiskAndBandwidth(t *testing.T) {
	p := &Plan{DiskGB: 2048, BandwidthGB: 1000}
	assert.Equal(t, "2 TB", p.FormatDisk())
	assert.Equal(t, "1000 GB", p.FormatBandwidth())

	p = &Plan{DiskGB: 500, BandwidthGB: 10240}
	assert.Equal(t, "500 GB", p.FormatDisk())
	assert.Equal(t, "10 TB", p.FormatBandwidth())
}

func TestFormatCost(t *testing.T) {
	tests := []struct {
		cost string
		want string
	}{
		{"20", "20.00"},
		{"20.1", "20.10"},
		{"20.151", "20.151"},
		{"20.1516", "20.152"},
		{"0", "0.00"},
		{"7.005", "7.005"},
		// half-even: 20.1525 rounds down to the even digit
		{"20.1525", "20.152"},
		{"20.1535", "20.154"},
	}

	for _, test := range tests {
		t.Run(test.cost, func(t *testing.T) {
			cost, err := decimal.NewFromString(test.cost)
			require.NoError(t, err)
			assert.Equal(t, test.want, FormatCost(cost))
		})
	}
}

func TestBillingTimeDisplayName(t *testing.T) {
	assert.Equal(t, "Hourly", BillingHourly.DisplayName())
	assert.Equal(t, "Monthly", BillingMonthly.DisplayName())
	assert.Equal(t, "Quarterly", BillingQuarterly.DisplayName())
	assert.Equal(t, "Yearly", BillingYearly.DisplayName())
	assert.Equal(t, "Biyearly", BillingBiyearly.DisplayName())
}
