package hostutil

import "testing"

func TestValidateHostPort(t *testing.T) {
	valid := []string{"localhost", "localhost:8000", "10.0.0.4:8080", "worker-1.lan", "[::1]:9000", "::1"}
	for _, addr := range valid {
		if err := ValidateHostPort(addr); err != nil {
			t.Fatalf("expected %q to be valid, got %v", addr, err)
		}
	}

	invalid := []string{"", "localhost:", "localhost:0", "localhost:99999", "300.1.1.1", "bad_host", "[::1]"}
	for _, addr := range invalid {
		if err := ValidateHostPort(addr); err == nil {
			t.Fatalf("expected %q to be rejected", addr)
		}
	}
}
