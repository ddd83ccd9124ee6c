package main

import (
	"testing"
	"time"

	"github.com/Netflix/go-env"
	"github.com/stretchr/testify/require"
)

func TestConfig_Defaults(t *testing.T) {
	req := require.New(t)

	// An empty environment exercises the declared defaults regardless of
	// what is set in the test runner's environment.
	var config Config
	req.NoError(env.Unmarshal(env.EnvSet{}, &config))

	// One-second polling is the protocol's recovery cadence; a slower
	// default would stretch gap recovery after missed pushes.
	req.Equal(time.Second, config.PollInterval)
	req.Equal("localhost:8080", config.Address())
}
