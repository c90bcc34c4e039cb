package http

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.dedis.ch/bazaar"
	"golang.org/x/xerrors"
)

// defines prometheus metrics
var (
	promRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bazaar_http_requests_total",
		Help: "total number of served http requests",
	}, []string{"method", "status"})
)

func init() {
	bazaar.PromCollectors = append(bazaar.PromCollectors, promRequests)
}

// NewPromHandler registers the collectors of the packages and returns the
// handler that serves the metrics of the gatherer. A collector already
// registered is kept as is.
func NewPromHandler(reg prometheus.Registerer, g prometheus.Gatherer) (http.Handler, error) {
	for _, c := range bazaar.PromCollectors {
		err := reg.Register(c)
		if err == nil {
			continue
		}

		are := prometheus.AlreadyRegisteredError{}
		if !xerrors.As(err, &are) {
			return nil, xerrors.Errorf("failed to register: %v", err)
		}
	}

	return promhttp.HandlerFor(g, promhttp.HandlerOpts{}), nil
}

func observe(method string, status int) {
	promRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}
