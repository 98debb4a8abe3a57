package sock

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
)

var (
	operations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sock",
		Name:      "operations_total",
		Help:      "Socket operations by backend, operation and outcome.",
	}, []string{"backend", "op", "result"})

	transferred = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sock",
		Name:      "bytes_total",
		Help:      "Bytes moved through streams by backend and direction.",
	}, []string{"backend", "direction"})
)

// RegisterMetrics adds the package counters to reg. Registering twice
// with the same registry is not an error.
func RegisterMetrics(reg prometheus.Registerer) error {
	var err error
	for _, c := range []prometheus.Collector{operations, transferred} {
		if regErr := reg.Register(c); regErr != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(regErr, &already) {
				continue
			}
			err = multierr.Append(err, regErr)
		}
	}
	return err
}

// observe counts one finished operation.
func observe(op string, err error) {
	operations.WithLabelValues(BackendName, op, resultOf(err)).Inc()
}

func observeBytes(direction string, n int) {
	if n > 0 {
		transferred.WithLabelValues(BackendName, direction).Add(float64(n))
	}
}

func resultOf(err error) string {
	if err == nil {
		return "ok"
	}
	var e *Error
	if !errors.As(err, &e) {
		return "error"
	}
	if e.Reason != ReasonNone {
		return e.Reason.String()
	}
	return e.Kind.String()
}
