package errcode

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapMatchesCode(t *testing.T) {
	cause := errors.New("nack")
	err := Wrap(Bus, "tps55289.enable", cause)

	assert.True(t, errors.Is(err, Bus))
	assert.False(t, errors.Is(err, Timeout))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "tps55289.enable: bus_error: nack", err.Error())
}

func TestOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"nil", nil, OK},
		{"bare code", Timeout, Timeout},
		{"wrapped", Wrap(VerifyFailed, "ina226.init", nil), VerifyFailed},
		{"fmt wrapped", fmt.Errorf("hal: %w", New(OutOfRange, "set", "5 A")), OutOfRange},
		{"foreign", errors.New("x"), Error},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Of(tt.err))
		})
	}
}
