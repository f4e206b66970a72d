package env

import (
	"github.com/thatsimonsguy/light-meter/internal/config"
)

var (
	Cfg *config.Config
)
