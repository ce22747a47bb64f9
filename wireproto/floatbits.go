package wireproto

import "math"

func uint64FromFloat64(v float64) uint64 { return math.Float64bits(v) }
func float64FromUint64(v uint64) float64 { return math.Float64frombits(v) }
