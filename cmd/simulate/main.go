// simulate hammers one doctor/time with concurrent booking requests to
// show that exactly one of them wins. Point it at a running api-server
// and a seeded database.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/clinic-booking/internal/db"
)

type bookRequest struct {
	DoctorID        string `json:"doctor_id"`
	PatientID       string `json:"patient_id"`
	AppointmentTime string `json:"appointment_time"`
}

type result struct {
	status int
	body   string
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	baseURL := getenv("API_BASE_URL", "http://localhost:8080")
	workers := getenvInt("SIM_WORKERS", 20)

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	doctorID, err := pickDoctor(ctx, pool)
	if err != nil {
		log.Fatalf("pick doctor: %v", err)
	}
	patientIDs, err := pickPatients(ctx, pool, workers)
	if err != nil {
		log.Fatalf("pick patients: %v", err)
	}

	// Tomorrow 09:00 is always on the default grid, so a doctor without
	// configured slots is guaranteed to accept it.
	tomorrow := time.Now().AddDate(0, 0, 1)
	at := time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), 9, 0, 0, 0, time.Local)

	log.Printf("firing %d concurrent bookings for doctor=%s time=%s", workers, doctorID, at.Format(time.RFC3339))

	results := make([]result, workers)
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			results[i] = book(baseURL, doctorID, patientIDs[i%len(patientIDs)], at)
		}(i)
	}

	close(start)
	wg.Wait()

	counts := map[int]int{}
	for _, r := range results {
		counts[r.status]++
	}

	fmt.Println("--- results ---")
	for status, n := range counts {
		fmt.Printf("  HTTP %d: %d\n", status, n)
	}
	if counts[http.StatusCreated] == 1 {
		fmt.Println("OK: exactly one booking won the slot")
	} else {
		fmt.Printf("UNEXPECTED: %d bookings created for the same slot\n", counts[http.StatusCreated])
		os.Exit(1)
	}
}

func book(baseURL string, doctorID, patientID uuid.UUID, at time.Time) result {
	payload, _ := json.Marshal(bookRequest{
		DoctorID:        doctorID.String(),
		PatientID:       patientID.String(),
		AppointmentTime: at.Format(time.RFC3339),
	})

	resp, err := http.Post(baseURL+"/appointments", "application/json", bytes.NewReader(payload))
	if err != nil {
		log.Printf("request error: %v", err)
		return result{status: 0}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return result{status: resp.StatusCode, body: string(body)}
}

func pickDoctor(ctx context.Context, pool *pgxpool.Pool) (uuid.UUID, error) {
	var id uuid.UUID
	err := pool.QueryRow(ctx, `
		SELECT id FROM doctors
		WHERE available_times = '{}'
		ORDER BY random() LIMIT 1
	`).Scan(&id)
	if err == nil {
		return id, nil
	}
	err = pool.QueryRow(ctx, `SELECT id FROM doctors ORDER BY random() LIMIT 1`).Scan(&id)
	return id, err
}

func pickPatients(ctx context.Context, pool *pgxpool.Pool, limit int) ([]uuid.UUID, error) {
	rows, err := pool.Query(ctx, `SELECT id FROM patients ORDER BY random() LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no patients seeded")
	}
	return ids, rows.Err()
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
