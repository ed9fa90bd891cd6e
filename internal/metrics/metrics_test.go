package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/car-marketplace/internal/apperr"
)

func TestMiddlewareLabelsByRoute(t *testing.T) {
	e := echo.New()
	e.Use(Middleware())
	e.GET("/api/cars/:id", func(c echo.Context) error {
		if c.Param("id") == "missing" {
			return apperr.NotFound("Car")
		}
		return c.NoContent(http.StatusOK)
	})

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/cars/:id", "200"))
	for _, id := range []string{"1", "2"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cars/"+id, nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Equal(t, before+2, testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/cars/:id", "200")))

	notFound := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/cars/:id", "404"))
	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/cars/missing", nil))
	assert.Equal(t, notFound+1, testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/cars/:id", "404")))
}

func TestDomainCounters(t *testing.T) {
	before := testutil.ToFloat64(leadsCreated)
	LeadCreated()
	assert.Equal(t, before+1, testutil.ToFloat64(leadsCreated))

	approved := testutil.ToFloat64(carsCreated.WithLabelValues("approved"))
	CarCreated("approved")
	assert.Equal(t, approved+1, testutil.ToFloat64(carsCreated.WithLabelValues("approved")))
}

func TestHandlerExposesCollectors(t *testing.T) {
	LeadCreated()
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "car_marketplace_leads_created_total")
}
