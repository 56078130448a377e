package settlement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Params)
		wantErr error
	}{
		{"valid", func(p *Params) {}, nil},
		{"empty mode means automatic", func(p *Params) { p.AdvanceMode = "" }, nil},
		{"missing farm", func(p *Params) { p.FarmID = "" }, ErrNoFarmScope},
		{"missing from", func(p *Params) { p.From = time.Time{} }, ErrMissingDates},
		{"missing to", func(p *Params) { p.To = time.Time{} }, ErrMissingDates},
		{"inverted range", func(p *Params) { p.From, p.To = p.To, p.From }, ErrInvalidRange},
		{"bogus mode", func(p *Params) { p.AdvanceMode = "guesswork" }, ErrUnknownAdvMode},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := defaultParams()
			tc.mutate(&p)
			err := p.Validate()
			if tc.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.wantErr)
			}
		})
	}
}

func TestParamsModeDefaultsToAutomatic(t *testing.T) {
	p := defaultParams()
	p.AdvanceMode = ""
	assert.Equal(t, AdvanceAutomatic, p.mode())

	p.AdvanceMode = AdvanceManual
	assert.Equal(t, AdvanceManual, p.mode())
}

func TestParamsPeriodLabel(t *testing.T) {
	p := defaultParams()
	assert.Equal(t, "2025-01-01 - 2025-12-31", p.PeriodLabel())
}

func TestParamsInRangeIsInclusive(t *testing.T) {
	p := defaultParams()
	assert.True(t, p.inRange(p.From))
	assert.True(t, p.inRange(p.To))
	assert.True(t, p.inRange(day(2025, time.June, 15)))
	assert.False(t, p.inRange(p.From.AddDate(0, 0, -1)))
	assert.False(t, p.inRange(p.To.AddDate(0, 0, 1)))
}
