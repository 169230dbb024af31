package tracing

import (
	"testing"

	"github.com/opentracing/opentracing-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct{ on bool }

func (c testConfig) Enabled() bool         { return c.on }
func (c testConfig) ServiceName() string   { return "budget-tracker" }
func (c testConfig) AgentHostPort() string { return "127.0.0.1:6831" }

func Test_OnDisabledTracing_ShouldKeepNoopTracer(t *testing.T) {
	closer, err := Init(testConfig{}, "server")
	require.NoError(t, err)
	assert.NoError(t, closer.Close())

	_, isNoop := opentracing.GlobalTracer().(opentracing.NoopTracer)
	assert.True(t, isNoop)
}
