package metrics

import "testing"

// BenchmarkCollector_LineSent measures the per-line counter overhead.
func BenchmarkCollector_LineSent(b *testing.B) {
	c := New()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.LineSent(64)
	}
}

// BenchmarkCollector_Parallel measures contention when a reader and a
// writer goroutine record lines at the same time.
func BenchmarkCollector_Parallel(b *testing.B) {
	c := New()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			c.LineReceived(64)
			c.LineSent(64)
		}
	})
}
