package tracing

import (
	"io"

	"github.com/pkg/errors"
	"github.com/uber/jaeger-client-go"
	jaegercfg "github.com/uber/jaeger-client-go/config"
	jaegerzap "github.com/uber/jaeger-client-go/log/zap"
	"go.uber.org/zap"

	"max.ks1230/budget-tracker/internal/logger"
)

type config interface {
	Enabled() bool
	ServiceName() string
	AgentHostPort() string
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Init installs the global jaeger tracer. With tracing disabled the opentracing
// no-op tracer stays in place and the returned closer does nothing.
func Init(config config, component string) (io.Closer, error) {
	if !config.Enabled() {
		return nopCloser{}, nil
	}

	name := config.ServiceName() + "-" + component
	cfg := jaegercfg.Configuration{
		ServiceName: name,
		Sampler: &jaegercfg.SamplerConfig{
			Type:  jaeger.SamplerTypeConst,
			Param: 1,
		},
		Reporter: &jaegercfg.ReporterConfig{
			LocalAgentHostPort: config.AgentHostPort(),
		},
	}

	closer, err := cfg.InitGlobalTracer(name, jaegercfg.Logger(jaegerzap.NewLogger(logger.L())))
	if err != nil {
		return nil, errors.Wrap(err, "init jaeger tracer")
	}
	logger.Info("tracing enabled", zap.String("service", name), zap.String("agent", config.AgentHostPort()))
	return closer, nil
}
