package main

import (
	"bytes"
	"fmt"
	"math/rand/v2"
	"net/http"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/pflag"
)

func main() {
	// Configuration
	url := pflag.String("url", "http://localhost:4000/api/asistencias", "check-in endpoint")
	tokenList := pflag.String("tokens", os.Getenv("TOKENS"), "comma-separated bearer tokens, one per simulated employee")
	shifts := pflag.Int("shifts", 2, "check-in/check-out pairs per employee")
	concurrency := pflag.Int("concurrency", 50, "employees running at the same time")
	pflag.Parse()

	var tokens []string
	for _, t := range strings.Split(*tokenList, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tokens = append(tokens, t)
		}
	}
	if len(tokens) == 0 {
		fmt.Fprintln(os.Stderr, "no tokens given: pass --tokens or set TOKENS")
		os.Exit(2)
	}

	totalRequests := len(tokens) * *shifts * 2
	fmt.Printf("Starting load test: %d employees (%d requests each) to %s with concurrency %d\n", len(tokens), *shifts*2, *url, *concurrency)

	client := &http.Client{Timeout: 30 * time.Second}

	var wg sync.WaitGroup
	sem := make(chan struct{}, *concurrency) // Semaphore to limit concurrency

	var successCount int64
	var failCount int64

	startTime := time.Now()

	for _, token := range tokens {
		wg.Add(1)
		sem <- struct{}{} // Acquire token

		go func(token string) {
			defer wg.Done()
			defer func() { <-sem }() // Release token

			// Events of one employee are sent in order so kinds alternate.
			for j := 0; j < *shifts*2; j++ {
				kind := "entrada"
				if j%2 == 1 {
					kind = "salida"
				}
				payload := fmt.Sprintf(`{"tipo":%q,"ubicacion":{"latitude":%f,"longitude":%f}}`,
					kind, -12.04+rand.Float64()/100, -77.03+rand.Float64()/100)

				req, err := http.NewRequest(http.MethodPost, *url, bytes.NewBufferString(payload))
				if err != nil {
					atomic.AddInt64(&failCount, 1)
					continue
				}
				req.Header.Set("Content-Type", "application/json")
				req.Header.Set("Authorization", "Bearer "+token)

				resp, err := client.Do(req)
				if err != nil {
					atomic.AddInt64(&failCount, 1)
					continue
				}

				if resp.StatusCode >= 200 && resp.StatusCode < 300 {
					atomic.AddInt64(&successCount, 1)
				} else {
					atomic.AddInt64(&failCount, 1)
				}
				resp.Body.Close()
			}
		}(token)
	}

	wg.Wait()
	duration := time.Since(startTime)

	fmt.Println("\n--- Load Test Results ---")
	fmt.Printf("Total Duration: %v\n", duration)
	fmt.Printf("Total Requests: %d\n", totalRequests)
	fmt.Printf("Successful:     %d\n", successCount)
	fmt.Printf("Failed:         %d\n", failCount)
	fmt.Printf("Requests/Sec:   %.2f\n", float64(totalRequests)/duration.Seconds())
}
