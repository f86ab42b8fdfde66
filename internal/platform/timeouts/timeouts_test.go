package timeouts

import "testing"

func TestTimeoutsArePositive(t *testing.T) {
	t.Parallel()

	for name, value := range map[string]int64{
		"ReadHeader": int64(ReadHeader),
		"Shutdown":   int64(Shutdown),
		"Idle":       int64(Idle),
		"StoreOpen":  int64(StoreOpen),
	} {
		if value <= 0 {
			t.Fatalf("%s = %d, want positive", name, value)
		}
	}
}
