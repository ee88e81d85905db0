package helpers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewHTTPClient(HTTPConfig{BaseURL: srv.URL, Token: "secret", RatePerSecond: 100, Burst: 10}, srv.Client())
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	return client
}

func TestHTTPClientWeather(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/weather" || r.URL.Query().Get("location") != "Oslo" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		if r.Header.Get("Authorization") != "Bearer secret" {
			http.Error(w, "no token", http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"location":"Oslo","temperatureC":4.5,"condition":"Snow"}`))
	})
	forecast, err := client.Weather(context.Background(), "Oslo")
	if err != nil {
		t.Fatalf("weather: %v", err)
	}
	if forecast.Location != "Oslo" || forecast.TemperatureC != 4.5 || forecast.Condition != "Snow" {
		t.Fatalf("unexpected forecast %+v", forecast)
	}
}

func TestHTTPClientErrorMapping(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusForbidden, ErrPermissionDenied},
		{http.StatusUnauthorized, ErrPermissionDenied},
		{http.StatusNotFound, ErrNotFound},
		{http.StatusBadGateway, ErrUnavailable},
	}
	for _, tc := range cases {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		})
		_, err := client.LiveScores(context.Background(), "football")
		if !errors.Is(err, tc.want) {
			t.Fatalf("status %d: expected %v, got %v", tc.status, tc.want, err)
		}
	}
}

func TestHTTPClientGeolocatePrefersContextCoordinates(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request to %s", r.URL.Path)
	})
	ctx := WithCoordinates(context.Background(), Coordinates{Latitude: 1, Longitude: 2})
	at, err := client.Geolocate(ctx)
	if err != nil || at.Latitude != 1 || at.Longitude != 2 {
		t.Fatalf("unexpected coordinates %+v (%v)", at, err)
	}
}

func TestHTTPClientReverseGeocodeEmptyIsNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"location":""}`))
	})
	if _, err := client.ReverseGeocode(context.Background(), Coordinates{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestNewHTTPClientRejectsBadURL(t *testing.T) {
	if _, err := NewHTTPClient(HTTPConfig{BaseURL: "not a url"}, nil); err == nil {
		t.Fatalf("expected invalid url error")
	}
}

func TestUnavailableClient(t *testing.T) {
	var c Client = Unavailable{}
	if _, err := c.Weather(context.Background(), "x"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}
