package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"
)

// In-memory stand-in for the external calendar webhook. Point
// CALENDAR_WEBHOOK_URL at it for local development.

type event struct {
	AppointmentID string `json:"appointment_id"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	Status        string `json:"status"`
}

type store struct {
	mu     sync.Mutex
	events map[string]event // keyed by event ref
	byAppt map[string]string
	seq    int
}

func main() {
	var (
		addr     = flag.String("addr", getenv("ADDR", ":8099"), "listen address")
		token    = flag.String("token", getenv("CALENDAR_WEBHOOK_TOKEN", ""), "expected bearer token (empty disables the check)")
		failRate = flag.Int("fail-percent", 0, "percentage of requests to fail with 500 (failure-mode testing)")
	)
	flag.Parse()

	s := &store{events: map[string]event{}, byAppt: map[string]string{}}
	failCounter := 0

	authorized := func(r *http.Request) bool {
		if *token == "" {
			return true
		}
		return r.Header.Get("Authorization") == "Bearer "+*token
	}
	shouldFail := func() bool {
		if *failRate <= 0 {
			return false
		}
		failCounter++
		return failCounter%100 < *failRate
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if !authorized(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if shouldFail() {
			http.Error(w, "simulated failure", http.StatusInternalServerError)
			return
		}
		var evt event
		if err := json.NewDecoder(r.Body).Decode(&evt); err != nil || strings.TrimSpace(evt.AppointmentID) == "" {
			http.Error(w, "invalid body", http.StatusBadRequest)
			return
		}

		s.mu.Lock()
		ref, ok := s.byAppt[evt.AppointmentID]
		if !ok {
			s.seq++
			ref = fmt.Sprintf("evt-%d", s.seq)
			s.byAppt[evt.AppointmentID] = ref
		}
		s.events[ref] = evt
		s.mu.Unlock()

		fmt.Printf("%s event upserted ref=%s appointment=%s start=%s\n", time.Now().Format(time.RFC3339), ref, evt.AppointmentID, evt.StartTime)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"event_id": ref})
	})
	mux.HandleFunc("/events/delete", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if !authorized(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if shouldFail() {
			http.Error(w, "simulated failure", http.StatusInternalServerError)
			return
		}
		var req struct {
			EventID string `json:"event_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.EventID) == "" {
			http.Error(w, "invalid body", http.StatusBadRequest)
			return
		}

		s.mu.Lock()
		if evt, ok := s.events[req.EventID]; ok {
			delete(s.events, req.EventID)
			delete(s.byAppt, evt.AppointmentID)
		}
		s.mu.Unlock()

		fmt.Printf("%s event deleted ref=%s\n", time.Now().Format(time.RFC3339), req.EventID)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/events/list", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		out := make(map[string]event, len(s.events))
		for k, v := range s.events {
			out[k] = v
		}
		s.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	})

	fmt.Printf("calendar-sim listening on %s\n", *addr)
	if err := http.ListenAndServe(*addr, mux); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
