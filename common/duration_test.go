package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPrettyDurationTrimsFraction(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{1234291827 * time.Nanosecond, "1.2s"},
		{1500 * time.Millisecond, "1.5s"},
		{2 * time.Second, "2s"},
		{1234 * time.Microsecond, "1.2ms"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, PrettyDuration(c.d).String())
	}
}
