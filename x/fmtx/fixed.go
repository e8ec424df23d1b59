// Package fmtx formats readout values for fixed-width display fields
// without going through fmt.
package fmtx

// Fixed renders v with the given number of decimals. The integer part is
// zero-padded to two digits so "5.000" lines up with "12.000" on screen.
// The fractional part is rounded, not truncated, so 3.3 shows as 03.300.
func Fixed(v float32, decimals uint8) string {
	var buf [24]byte
	return string(AppendFixed(buf[:0], v, decimals))
}

// AppendFixed is Fixed writing into dst.
func AppendFixed(dst []byte, v float32, decimals uint8) []byte {
	if decimals > 6 {
		decimals = 6
	}
	neg := v < 0
	if neg {
		v = -v
	}
	scale := uint64(1)
	for i := uint8(0); i < decimals; i++ {
		scale *= 10
	}
	n := uint64(float64(v)*float64(scale) + 0.5)
	ip, fp := n/scale, n%scale

	if neg && n != 0 {
		dst = append(dst, '-')
	}
	if ip < 10 {
		dst = append(dst, '0')
	}
	dst = appendUint(dst, ip, 0)
	if decimals > 0 {
		dst = append(dst, '.')
		dst = appendUint(dst, fp, int(decimals))
	}
	return dst
}

// appendUint writes n in base 10, left-padded with zeros to width.
func appendUint(dst []byte, n uint64, width int) []byte {
	var tmp [20]byte
	i := len(tmp)
	for n > 0 || i == len(tmp) {
		i--
		tmp[i] = byte('0' + n%10)
		n /= 10
	}
	for len(tmp)-i < width {
		i--
		tmp[i] = '0'
	}
	return append(dst, tmp[i:]...)
}
