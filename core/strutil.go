package core

// appendUint appends the decimal representation of n to dst without
// using the fmt package. This is a lightweight alternative for
// embedded systems; the report path allocates nothing.
func appendUint(dst []byte, n uint32) []byte {
	if n == 0 {
		return append(dst, '0')
	}

	// Build digits from right to left.
	var buf [10]byte // enough for 2^32-1
	pos := len(buf)
	for n > 0 {
		pos--
		buf[pos] = byte('0' + n%10)
		n /= 10
	}

	return append(dst, buf[pos:]...)
}
