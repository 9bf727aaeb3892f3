// A local stand-in for Nominatim's /reverse endpoint. Point GEOCODER_URL at it.
package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

type reverseResponse struct {
	DisplayName string `json:"display_name,omitempty"`
	Error       string `json:"error,omitempty"`
}

func reverseHandler(delay time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lat, errLat := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
		lon, errLon := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
		if errLat != nil || errLon != nil {
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}
		if delay > 0 {
			time.Sleep(delay)
		}

		resp := reverseResponse{DisplayName: fmt.Sprintf("Calle Simulada %.4f, %.4f, Lima, Perú", lat, lon)}
		// Nominatim answers 200 with an error field for points in the sea.
		if lat == 0 && lon == 0 {
			resp = reverseResponse{Error: "Unable to geocode"}
		}

		log.Info().Float64("lat", lat).Float64("lon", lon).Msg("Reverse geocode")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func main() {
	addr := pflag.String("addr", ":8081", "listen address")
	delay := pflag.Duration("delay", 0, "artificial latency per request")
	pflag.Parse()

	r := mux.NewRouter()
	r.HandleFunc("/reverse", reverseHandler(*delay)).Methods(http.MethodGet)

	log.Info().Str("addr", *addr).Msg("Geocoder mock server starting")
	log.Fatal().Err(http.ListenAndServe(*addr, r)).Msg("Geocoder mock stopped")
}
