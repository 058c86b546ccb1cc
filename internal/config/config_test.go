package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfigIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestValidateRejectsBadShares(t *testing.T) {
	cfg := Default()
	cfg.Lottery.JackpotShare = 0.5 // 0.6 + 0.5 + 0.1 != 1.0
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsNonPositiveTunables(t *testing.T) {
	cfg := Default()
	cfg.Lottery.TicketPrice = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Lottery.DailyTicketLimit = -1
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Lottery.DailyWinnerCount = 0
	assert.Error(t, cfg.Validate())
}
