package domain

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
)

// Number is a float64 that survives JSON round trips with its sentinels:
// NaN encodes as null, infinities as the strings "inf" and "-inf".
type Number float64

func (n Number) MarshalJSON() ([]byte, error) {
	v := float64(n)
	switch {
	case math.IsNaN(v):
		return []byte("null"), nil
	case math.IsInf(v, 1):
		return []byte(`"inf"`), nil
	case math.IsInf(v, -1):
		return []byte(`"-inf"`), nil
	}
	return strconv.AppendFloat(nil, v, 'f', -1, 64), nil
}

func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch string(data) {
	case "null", `"nan"`, `"NaN"`:
		*n = Number(math.NaN())
		return nil
	case `"inf"`, `"+inf"`:
		*n = Number(math.Inf(1))
		return nil
	case `"-inf"`:
		*n = Number(math.Inf(-1))
		return nil
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("%w: number %s", ErrInvalidValue, data)
	}
	*n = Number(v)
	return nil
}

// Numbers converts a float slice for encoding.
func Numbers(values []float64) []Number {
	out := make([]Number, len(values))
	for i, v := range values {
		out[i] = Number(v)
	}
	return out
}
