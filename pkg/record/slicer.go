package record

import (
	"fmt"
)

// TakeN splits the first n bytes off data.
// It fails with ErrTruncatedData when data is shorter than n; it never pads.
func TakeN(n int, data []byte) (head, tail []byte, err error) {
	if n < 0 {
		return nil, data, fmt.Errorf("negative field length %d", n)
	}
	if len(data) < n {
		return nil, data, fmt.Errorf("%w: need %d bytes, have %d", ErrTruncatedData, n, len(data))
	}
	return data[:n:n], data[n:], nil
}
