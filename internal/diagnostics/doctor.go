package diagnostics

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Check statuses.
const (
	StatusOK   = "ok"
	StatusWarn = "warn"
	StatusFail = "fail"
)

// Check is one doctor finding.
type Check struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Detail string `json:"detail"`
}

// Report is the full doctor output.
type Report struct {
	Checks  []Check       `json:"checks"`
	Metrics SystemMetrics `json:"metrics"`
}

// Healthy reports whether no check failed outright.
func (r Report) Healthy() bool {
	for _, c := range r.Checks {
		if c.Status == StatusFail {
			return false
		}
	}
	return true
}

// Doctor runs readiness checks.
type Doctor struct {
	configPath string
	outputDir  string
	collector  *SystemMetricsCollector

	// Overridable for tests.
	lookupEnv func(string) (string, bool)
}

// NewDoctor creates a doctor bound to the paths a consultation will use.
func NewDoctor(configPath, outputDir string) *Doctor {
	return &Doctor{
		configPath: configPath,
		outputDir:  outputDir,
		collector:  NewSystemMetricsCollector(),
		lookupEnv:  os.LookupEnv,
	}
}

// Run executes every check and returns the report.
func (d *Doctor) Run() Report {
	metrics := d.collector.Collect()

	report := Report{Metrics: metrics}
	report.Checks = append(report.Checks, d.checkAPIKeys()...)
	report.Checks = append(report.Checks, d.checkConfigPath())
	report.Checks = append(report.Checks, d.checkOutputDir())
	report.Checks = append(report.Checks, d.checkDisk(metrics))
	report.Checks = append(report.Checks, d.checkMemory(metrics))
	return report
}

func (d *Doctor) checkAPIKeys() []Check {
	keys := []struct {
		env      string
		provider string
	}{
		{"OPENAI_API_KEY", "openai"},
		{"ANTHROPIC_API_KEY", "anthropic"},
	}

	var checks []Check
	present := 0
	for _, k := range keys {
		if v, ok := d.lookupEnv(k.env); ok && strings.TrimSpace(v) != "" {
			present++
			checks = append(checks, Check{
				Name:   "api-key-" + k.provider,
				Status: StatusOK,
				Detail: k.env + " is set",
			})
		} else {
			checks = append(checks, Check{
				Name:   "api-key-" + k.provider,
				Status: StatusWarn,
				Detail: k.env + " is not set; agents on this provider will fail",
			})
		}
	}
	if present == 0 {
		checks = append(checks, Check{
			Name:   "api-keys",
			Status: StatusFail,
			Detail: "no provider API key is set; a consultation cannot run",
		})
	}
	return checks
}

func (d *Doctor) checkConfigPath() Check {
	dir := filepath.Dir(d.configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return Check{Name: "config-path", Status: StatusFail,
			Detail: fmt.Sprintf("cannot create %s: %v", dir, err)}
	}
	probe := filepath.Join(dir, ".doctor-probe")
	if err := os.WriteFile(probe, []byte("ok"), 0o600); err != nil {
		return Check{Name: "config-path", Status: StatusFail,
			Detail: fmt.Sprintf("config dir not writable: %v", err)}
	}
	_ = os.Remove(probe)
	return Check{Name: "config-path", Status: StatusOK,
		Detail: "config dir writable: " + dir}
}

func (d *Doctor) checkOutputDir() Check {
	if err := os.MkdirAll(d.outputDir, 0o750); err != nil {
		return Check{Name: "output-dir", Status: StatusFail,
			Detail: fmt.Sprintf("cannot create %s: %v", d.outputDir, err)}
	}
	probe := filepath.Join(d.outputDir, ".doctor-probe")
	if err := os.WriteFile(probe, []byte("ok"), 0o600); err != nil {
		return Check{Name: "output-dir", Status: StatusFail,
			Detail: fmt.Sprintf("output dir not writable: %v", err)}
	}
	_ = os.Remove(probe)
	return Check{Name: "output-dir", Status: StatusOK,
		Detail: "output dir writable: " + d.outputDir}
}

func (d *Doctor) checkDisk(m SystemMetrics) Check {
	switch {
	case m.DiskTotalGB == 0:
		return Check{Name: "disk", Status: StatusWarn, Detail: "disk usage unavailable"}
	case m.DiskFreeGB < 1:
		return Check{Name: "disk", Status: StatusWarn,
			Detail: fmt.Sprintf("only %.1f GB free; result and checkpoint writes may fail", m.DiskFreeGB)}
	default:
		return Check{Name: "disk", Status: StatusOK,
			Detail: fmt.Sprintf("%.1f GB free", m.DiskFreeGB)}
	}
}

func (d *Doctor) checkMemory(m SystemMetrics) Check {
	switch {
	case m.MemTotalMB == 0:
		return Check{Name: "memory", Status: StatusWarn, Detail: "memory usage unavailable"}
	case m.MemPercent > 90:
		return Check{Name: "memory", Status: StatusWarn,
			Detail: fmt.Sprintf("memory %.0f%% used", m.MemPercent)}
	default:
		return Check{Name: "memory", Status: StatusOK,
			Detail: fmt.Sprintf("memory %.0f%% used", m.MemPercent)}
	}
}

// Render formats the report for the console.
func Render(r Report) string {
	var b strings.Builder
	for _, c := range r.Checks {
		marker := "✓"
		switch c.Status {
		case StatusWarn:
			marker = "!"
		case StatusFail:
			marker = "✗"
		}
		fmt.Fprintf(&b, "%s %-16s %s\n", marker, c.Name, c.Detail)
	}
	fmt.Fprintf(&b, "\nload %.2f/%.2f/%.2f  cpu %.0f%%\n",
		r.Metrics.LoadAvg1, r.Metrics.LoadAvg5, r.Metrics.LoadAvg15, r.Metrics.CPUPercent)
	return b.String()
}
