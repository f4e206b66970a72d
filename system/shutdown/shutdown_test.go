package shutdown

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExitCodes(t *testing.T) {
	orig := ExitFunc
	defer func() { ExitFunc = orig }()

	var codes []int
	ExitFunc = func(code int) { codes = append(codes, code) }

	Shutdown()
	ShutdownWithError(errors.New("sensor missing"), "Light meter cannot start")

	assert.Equal(t, []int{0, 1}, codes)
}

func TestHooksRunNewestFirstOnce(t *testing.T) {
	orig := ExitFunc
	defer func() { ExitFunc = orig }()
	ExitFunc = func(int) {}

	var order []string
	OnExit(func() { order = append(order, "close database") })
	OnExit(func() { order = append(order, "disconnect mqtt") })

	ShutdownWithError(errors.New("sensor missing"), "Light meter cannot start")
	Shutdown()

	assert.Equal(t, []string{"disconnect mqtt", "close database"}, order)
}
