package frame

// Order selects which level of an edge comes first.
type Order uint8

const (
	OrderHighLow Order = iota
	OrderLowHigh
)

// Edge is one High run and one Low run, emitted in Order. High and Low count
// logical bits, not microseconds.
type Edge struct {
	Order Order
	High  int
	Low   int
}

// Len is the number of logical bits the edge occupies.
func (e Edge) Len() int {
	return e.High + e.Low
}

// ByteLen returns the number of bytes needed to hold bits.
func ByteLen(bits int) int {
	return (bits + 7) / 8
}

// Bit reads logical bit i, MSB first within each byte.
func Bit(buf []byte, i int) bool {
	return buf[i/8]&(1<<(7-uint(i%8))) != 0
}

// WriteLow clears n bits starting at offset and returns n.
func WriteLow(buf []byte, offset, n int) int {
	for i := offset; i < offset+n; i++ {
		buf[i/8] &^= 1 << (7 - uint(i%8))
	}
	return n
}

// WriteHigh sets n bits starting at offset and returns n.
func WriteHigh(buf []byte, offset, n int) int {
	for i := offset; i < offset+n; i++ {
		buf[i/8] |= 1 << (7 - uint(i%8))
	}
	return n
}

// WriteEdge writes e at offset and returns its length.
func WriteEdge(buf []byte, offset int, e Edge) int {
	count := offset
	if e.Order == OrderLowHigh {
		count += WriteLow(buf, count, e.Low)
		count += WriteHigh(buf, count, e.High)
	} else {
		count += WriteHigh(buf, count, e.High)
		count += WriteLow(buf, count, e.Low)
	}
	return count - offset
}

// WriteBits emits the first bitLen bits of data, MSB first, as zero or one
// edges starting at offset. It returns the number of bits written.
//
// Callers check capacity; nothing here is bounds checked beyond the slice.
func WriteBits(buf []byte, offset int, data []byte, bitLen int, zero, one Edge) int {
	count := offset
	for i := 0; i < bitLen; i++ {
		if Bit(data, i) {
			count += WriteEdge(buf, count, one)
		} else {
			count += WriteEdge(buf, count, zero)
		}
	}
	return count - offset
}

// CountOnes returns the number of set bits among the first bitLen bits.
func CountOnes(data []byte, bitLen int) int {
	ones := 0
	for i := 0; i < bitLen; i++ {
		if Bit(data, i) {
			ones++
		}
	}
	return ones
}
