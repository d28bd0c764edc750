//go:build !unix

package array

// allocBlock falls back to the Go heap where anonymous mappings are not
// available. The release action only drops the reference.
func allocBlock(n int) ([]float64, func(), error) {
	data := make([]float64, n)
	return data, func() { data = nil }, nil
}
