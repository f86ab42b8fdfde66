package branding

import "testing"

func TestAppName(t *testing.T) {
	if AppName != "Easier Softer Meeting Manager" {
		t.Fatalf("AppName = %q, want %q", AppName, "Easier Softer Meeting Manager")
	}
}
