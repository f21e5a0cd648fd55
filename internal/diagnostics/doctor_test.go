package diagnostics

import (
	"path/filepath"
	"strings"
	"testing"
)

func testDoctor(t *testing.T, env map[string]string) *Doctor {
	t.Helper()
	dir := t.TempDir()
	d := NewDoctor(filepath.Join(dir, "conclave", "config.json"), filepath.Join(dir, "out"))
	d.lookupEnv = func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
	return d
}

func findCheck(t *testing.T, r Report, name string) Check {
	t.Helper()
	for _, c := range r.Checks {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("check %q not in report: %+v", name, r.Checks)
	return Check{}
}

func TestDoctor_AllKeysPresent(t *testing.T) {
	d := testDoctor(t, map[string]string{
		"OPENAI_API_KEY":    "sk-test",
		"ANTHROPIC_API_KEY": "sk-ant-test",
	})
	r := d.Run()

	if !r.Healthy() {
		t.Fatalf("report unhealthy: %+v", r.Checks)
	}
	if c := findCheck(t, r, "api-key-openai"); c.Status != StatusOK {
		t.Errorf("openai key check = %+v", c)
	}
	if c := findCheck(t, r, "config-path"); c.Status != StatusOK {
		t.Errorf("config path check = %+v", c)
	}
	if c := findCheck(t, r, "output-dir"); c.Status != StatusOK {
		t.Errorf("output dir check = %+v", c)
	}
}

func TestDoctor_NoKeysFails(t *testing.T) {
	d := testDoctor(t, nil)
	r := d.Run()

	if r.Healthy() {
		t.Fatal("report healthy with no API keys")
	}
	if c := findCheck(t, r, "api-keys"); c.Status != StatusFail {
		t.Errorf("api-keys check = %+v", c)
	}
	if c := findCheck(t, r, "api-key-anthropic"); c.Status != StatusWarn {
		t.Errorf("anthropic key check = %+v", c)
	}
}

func TestDoctor_OneKeyIsEnough(t *testing.T) {
	d := testDoctor(t, map[string]string{"OPENAI_API_KEY": "sk-test"})
	r := d.Run()
	if !r.Healthy() {
		t.Fatalf("one key should be enough: %+v", r.Checks)
	}
	// Whitespace-only values do not count.
	d = testDoctor(t, map[string]string{"OPENAI_API_KEY": "   "})
	if d.Run().Healthy() {
		t.Error("whitespace key counted as present")
	}
}

func TestRender(t *testing.T) {
	d := testDoctor(t, map[string]string{"OPENAI_API_KEY": "sk-test"})
	out := Render(d.Run())
	for _, want := range []string{"api-key-openai", "config-path", "output-dir", "load"} {
		if !strings.Contains(out, want) {
			t.Errorf("render missing %q:\n%s", want, out)
		}
	}
}

func TestCollector_SecondSampleHasCPU(t *testing.T) {
	c := NewSystemMetricsCollector()
	first := c.Collect()
	if first.MemTotalMB <= 0 {
		t.Skip("memory stats unavailable in this environment")
	}
	second := c.Collect()
	if second.CPUPercent < 0 || second.CPUPercent > 100 {
		t.Errorf("cpu percent out of range: %v", second.CPUPercent)
	}
}
