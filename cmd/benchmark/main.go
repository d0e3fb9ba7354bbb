// Benchmark tool for exercising Centinela with synthetic claim data.
//
// Usage:
//   go run cmd/benchmark/main.go -url http://localhost:8080 -count 5000
//
// This tool:
//   1. Generates synthetic claims across the supported insurers, injecting
//      documentation defects at a configurable rate
//   2. Sends each claim to Centinela for auditing
//   3. Compares Centinela's verdict (score below the flag threshold) with
//      the injected defect labels
//   4. Calculates precision, recall, F1-score, and confusion matrix
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// SyntheticClaim is one generated claim with its injected-defect label.
type SyntheticClaim struct {
	InsurerCode string
	Record      map[string]any
	HasDefects  bool
	DefectCount int
}

// AuditRequest is the Centinela API request format.
type AuditRequest struct {
	InsurerCode string         `json:"insurerCode"`
	Record      map[string]any `json:"record"`
}

// AuditResponse is the Centinela API response format.
type AuditResponse struct {
	AuditID            string `json:"auditId"`
	ClaimID            string `json:"claimId"`
	MedicalReportScore int    `json:"medicalReportScore"`
}

// Metrics tracks benchmark results.
type Metrics struct {
	TruePositives  int64 // Defective claim flagged
	FalsePositives int64 // Clean claim flagged
	TrueNegatives  int64 // Clean claim passed
	FalseNegatives int64 // Defective claim passed (missed!)

	TotalProcessed int64
	TotalDefective int64
	TotalClean     int64
	TotalErrors    int64

	ProcessingTimeMs int64
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "Centinela base URL")
	tenantID := flag.String("tenant", "benchmark-test", "Tenant ID for requests")
	count := flag.Int("count", 5000, "Number of synthetic claims to generate")
	defectRate := flag.Float64("defect-rate", 0.3, "Fraction of claims with injected defects (0.0-1.0)")
	threshold := flag.Int("threshold", 80, "Score below which a claim counts as flagged")
	workers := flag.Int("workers", 10, "Number of concurrent workers")
	seed := flag.Int64("seed", 42, "Random seed for claim generation")
	verbose := flag.Bool("verbose", false, "Print each claim result")
	flag.Parse()

	fmt.Println("╔═══════════════════════════════════════════════════════════════╗")
	fmt.Println("║        CENTINELA BENCHMARK - Synthetic Claim Auditing         ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════════╝")
	fmt.Printf("\nCentinela URL:  %s\n", *baseURL)
	fmt.Printf("Tenant ID:      %s\n", *tenantID)
	fmt.Printf("Claims:         %d\n", *count)
	fmt.Printf("Defect Rate:    %.2f\n", *defectRate)
	fmt.Printf("Flag Threshold: %d\n", *threshold)
	fmt.Printf("Workers:        %d\n", *workers)
	fmt.Println()

	// Check Centinela is running
	if err := checkHealth(*baseURL); err != nil {
		fmt.Printf("ERROR: Centinela not reachable at %s: %v\n", *baseURL, err)
		fmt.Println("\nMake sure Centinela is running:")
		fmt.Println("  cd centinela && go run cmd/centinela/main.go")
		os.Exit(1)
	}
	fmt.Println("✓ Centinela is healthy")

	// Generate synthetic claims
	fmt.Printf("\nGenerating %d synthetic claims...\n", *count)
	rng := rand.New(rand.NewSource(*seed))
	claims := make([]SyntheticClaim, 0, *count)
	defective := 0
	for i := 0; i < *count; i++ {
		claim := generateClaim(rng, rng.Float64() < *defectRate)
		if claim.HasDefects {
			defective++
		}
		claims = append(claims, claim)
	}
	fmt.Printf("✓ Generated %d claims\n", len(claims))
	fmt.Printf("  - Defective: %d (%.2f%%)\n", defective, 100*float64(defective)/float64(len(claims)))
	fmt.Printf("  - Clean:     %d (%.2f%%)\n", len(claims)-defective, 100*float64(len(claims)-defective)/float64(len(claims)))

	// Run benchmark
	fmt.Printf("\nRunning benchmark with %d workers...\n", *workers)
	startTime := time.Now()
	metrics := runBenchmark(claims, *baseURL, *tenantID, *threshold, *workers, *verbose)
	duration := time.Since(startTime)

	printResults(metrics, duration)
}

func checkHealth(baseURL string) error {
	resp, err := http.Get(baseURL + "/health")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

var firstNames = []string{"MARIA", "JOSE", "ANA", "LUIS", "CARMEN", "JORGE", "LUCIA", "PEDRO"}
var lastNames = []string{"GARCIA", "HERNANDEZ", "LOPEZ", "MARTINEZ", "RODRIGUEZ", "PEREZ"}
var diagnoses = []struct {
	Text string
	CIE  string
}{
	{"Apendicitis aguda", "K35.8"},
	{"Colecistitis cronica litiasica", "K81.1"},
	{"Hernia inguinal unilateral", "K40.9"},
	{"Fractura de radio distal", "S52.5"},
	{"Neumonia adquirida en comunidad", "J18.9"},
}

// generateClaim builds a GNP- or Mapfre-shaped raw record. Defective claims
// get documentation problems the default rule set targets: missing treating
// physician, missing policy number, or discharge before admission.
func generateClaim(rng *rand.Rand, withDefects bool) SyntheticClaim {
	name := firstNames[rng.Intn(len(firstNames))] + " " + lastNames[rng.Intn(len(lastNames))]
	dx := diagnoses[rng.Intn(len(diagnoses))]
	surgeon := 25000 + rng.Float64()*50000

	claim := SyntheticClaim{HasDefects: withDefects}

	if rng.Intn(2) == 0 {
		claim.InsurerCode = "GNP"
		claim.Record = map[string]any{
			"datos_paciente": map[string]any{
				"nombre_completo":  name,
				"fecha_nacimiento": "15/03/1980",
				"edad":             float64(30 + rng.Intn(40)),
			},
			"datos_poliza": map[string]any{"numero_poliza": fmt.Sprintf("GNP-%06d", rng.Intn(999999))},
			"diagnostico": map[string]any{
				"descripcion_diagnostico": dx.Text,
				"cie10":                   dx.CIE,
			},
			"hospitalizacion": map[string]any{
				"fecha_ingreso": "10/05/2025",
				"fecha_egreso":  "14/05/2025",
			},
			"medico_tratante": map[string]any{
				"nombre":             "DR. " + lastNames[rng.Intn(len(lastNames))],
				"cedula_profesional": fmt.Sprintf("%07d", rng.Intn(9999999)),
			},
			"honorarios": map[string]any{
				"honorarios_cirujano": fmt.Sprintf("$%.2f", surgeon),
			},
		}
		if withDefects {
			switch rng.Intn(3) {
			case 0:
				delete(claim.Record, "medico_tratante")
			case 1:
				delete(claim.Record, "datos_poliza")
			default:
				claim.Record["hospitalizacion"] = map[string]any{
					"fecha_ingreso": "14/05/2025",
					"fecha_egreso":  "10/05/2025",
				}
			}
			claim.DefectCount = 1
		}
	} else {
		claim.InsurerCode = "MAPFRE"
		claim.Record = map[string]any{
			"nombre_paciente":           name,
			"fecha_nacimiento_paciente": "22/07/1975",
			"edad_paciente":             float64(30 + rng.Intn(40)),
			"numero_poliza":             fmt.Sprintf("MF-%06d", rng.Intn(999999)),
			"diagnostico_principal":     dx.Text,
			"codigo_cie10":              dx.CIE,
			"fecha_ingreso":             "10/05/2025",
			"fecha_egreso":              "14/05/2025",
			"medico": map[string]any{
				"nombre": "DR. " + lastNames[rng.Intn(len(lastNames))],
				"cedula": fmt.Sprintf("%07d", rng.Intn(9999999)),
			},
			"costos": map[string]any{
				"cirujano": surgeon,
			},
		}
		if withDefects {
			switch rng.Intn(3) {
			case 0:
				delete(claim.Record, "medico")
			case 1:
				delete(claim.Record, "numero_poliza")
			default:
				claim.Record["fecha_ingreso"] = "14/05/2025"
				claim.Record["fecha_egreso"] = "10/05/2025"
			}
			claim.DefectCount = 1
		}
	}

	return claim
}

func runBenchmark(claims []SyntheticClaim, baseURL, tenantID string, threshold, numWorkers int, verbose bool) *Metrics {
	metrics := &Metrics{}

	work := make(chan SyntheticClaim, 100)
	var wg sync.WaitGroup

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			client := &http.Client{Timeout: 10 * time.Second}

			for claim := range work {
				start := time.Now()
				result, err := auditClaim(client, baseURL, tenantID, claim)
				elapsed := time.Since(start).Milliseconds()

				atomic.AddInt64(&metrics.ProcessingTimeMs, elapsed)
				atomic.AddInt64(&metrics.TotalProcessed, 1)

				if err != nil {
					atomic.AddInt64(&metrics.TotalErrors, 1)
					if verbose {
						fmt.Printf("ERROR: %s -> %v\n", claim.InsurerCode, err)
					}
					continue
				}

				if claim.HasDefects {
					atomic.AddInt64(&metrics.TotalDefective, 1)
				} else {
					atomic.AddInt64(&metrics.TotalClean, 1)
				}

				predicted := result.MedicalReportScore < threshold
				actual := claim.HasDefects

				if predicted && actual {
					atomic.AddInt64(&metrics.TruePositives, 1)
				} else if predicted && !actual {
					atomic.AddInt64(&metrics.FalsePositives, 1)
				} else if !predicted && !actual {
					atomic.AddInt64(&metrics.TrueNegatives, 1)
				} else {
					atomic.AddInt64(&metrics.FalseNegatives, 1)
				}

				if verbose {
					status := "✓"
					if (predicted && !actual) || (!predicted && actual) {
						status = "✗"
					}
					fmt.Printf("%s %-9s | Defective: %-5v | Score: %3d\n",
						status, claim.InsurerCode, claim.HasDefects, result.MedicalReportScore)
				}
			}
		}()
	}

	for _, claim := range claims {
		work <- claim
	}
	close(work)

	wg.Wait()

	return metrics
}

func auditClaim(client *http.Client, baseURL, tenantID string, claim SyntheticClaim) (*AuditResponse, error) {
	req := AuditRequest{
		InsurerCode: claim.InsurerCode,
		Record:      claim.Record,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequest(http.MethodPost, baseURL+"/audits", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Tenant-ID", tenantID)

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	var result AuditResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	return &result, nil
}

func printResults(m *Metrics, duration time.Duration) {
	fmt.Println("\n╔═══════════════════════════════════════════════════════════════╗")
	fmt.Println("║                      BENCHMARK RESULTS                        ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════════╝")

	fmt.Printf("\n📊 DATASET STATISTICS\n")
	fmt.Printf("   Total Processed:  %d\n", m.TotalProcessed)
	fmt.Printf("   Total Defective:  %d\n", m.TotalDefective)
	fmt.Printf("   Total Clean:      %d\n", m.TotalClean)
	fmt.Printf("   Errors:           %d\n", m.TotalErrors)

	fmt.Printf("\n📈 CONFUSION MATRIX\n")
	fmt.Println("                        Predicted")
	fmt.Println("                  Flagged      Passed")
	fmt.Println("              ┌──────────┬──────────┐")
	fmt.Printf("   Actual  D  │ %8d │ %8d │  (TP, FN)\n", m.TruePositives, m.FalseNegatives)
	fmt.Println("              ├──────────┼──────────┤")
	fmt.Printf("           C  │ %8d │ %8d │  (FP, TN)\n", m.FalsePositives, m.TrueNegatives)
	fmt.Println("              └──────────┴──────────┘")

	precision := float64(0)
	if m.TruePositives+m.FalsePositives > 0 {
		precision = float64(m.TruePositives) / float64(m.TruePositives+m.FalsePositives)
	}

	recall := float64(0)
	if m.TruePositives+m.FalseNegatives > 0 {
		recall = float64(m.TruePositives) / float64(m.TruePositives+m.FalseNegatives)
	}

	f1 := float64(0)
	if precision+recall > 0 {
		f1 = 2 * (precision * recall) / (precision + recall)
	}

	accuracy := float64(0)
	total := m.TruePositives + m.TrueNegatives + m.FalsePositives + m.FalseNegatives
	if total > 0 {
		accuracy = float64(m.TruePositives+m.TrueNegatives) / float64(total)
	}

	fmt.Printf("\n🎯 DETECTION METRICS\n")
	fmt.Printf("   Precision:  %.4f  (of flagged claims, how many had defects)\n", precision)
	fmt.Printf("   Recall:     %.4f  (of defective claims, how many were flagged)\n", recall)
	fmt.Printf("   F1-Score:   %.4f  (harmonic mean of precision & recall)\n", f1)
	fmt.Printf("   Accuracy:   %.4f  (overall correct predictions)\n", accuracy)

	fmt.Printf("\n⏱️  PERFORMANCE\n")
	fmt.Printf("   Total Duration:   %v\n", duration.Round(time.Millisecond))
	if m.TotalProcessed > 0 {
		avgMs := float64(m.ProcessingTimeMs) / float64(m.TotalProcessed)
		cps := float64(m.TotalProcessed) / duration.Seconds()
		fmt.Printf("   Avg Latency:      %.2f ms\n", avgMs)
		fmt.Printf("   Throughput:       %.2f claims/sec\n", cps)
	}

	fmt.Printf("\n💡 INTERPRETATION\n")
	if recall >= 0.9 {
		fmt.Println("   ✅ Excellent recall - catching most defective claims")
	} else if recall >= 0.7 {
		fmt.Println("   ⚠️  Good recall - but some defects slip through")
	} else {
		fmt.Println("   ❌ Poor recall - most defects are being missed; check the loaded rule set")
	}

	if precision >= 0.5 {
		fmt.Println("   ✅ Good precision - flags are meaningful")
	} else {
		fmt.Println("   ⚠️  Low precision - many clean claims flagged")
	}

	fmt.Println()
}
