package application

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReconnectPolicy_ConstantByDefault(t *testing.T) {
	p := NewReconnectPolicy(3*time.Second, 0)

	for i := 0; i < 10; i++ {
		assert.Equal(t, 3*time.Second, p.Next(), "attempt %d", i+1)
	}
}

func TestReconnectPolicy_MaxNotAboveDelayStaysConstant(t *testing.T) {
	p := NewReconnectPolicy(3*time.Second, 3*time.Second)

	assert.Equal(t, 3*time.Second, p.Next())
	assert.Equal(t, 3*time.Second, p.Next())
}

func TestReconnectPolicy_ExponentialCapped(t *testing.T) {
	p := NewReconnectPolicy(time.Second, 5*time.Second)

	var got []time.Duration
	for i := 0; i < 6; i++ {
		got = append(got, p.Next())
	}

	assert.Equal(t, []time.Duration{
		time.Second, 2 * time.Second, 4 * time.Second, 5 * time.Second, 5 * time.Second, 5 * time.Second,
	}, got)
}

func TestReconnectPolicy_Reset(t *testing.T) {
	p := NewReconnectPolicy(time.Second, 10*time.Second)
	p.Next()
	p.Next()

	p.Reset()

	assert.Equal(t, time.Second, p.Next())
}
