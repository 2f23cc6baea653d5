package cpu

// asSigned interprets b as a two's-complement signed 8-bit value,
// sign-extended to 16 bits so it can be added directly to a 16-bit PC for
// branch-target arithmetic.
func asSigned(b uint8) int16 {
	return int16(int8(b))
}
