package prologix

// Escape prefixes CR, LF, ESC and '+' with ESC so they reach the instrument
// as data instead of ending the line or starting a controller command.
func Escape(data []byte) []byte {
	out := make([]byte, 0, len(data)+8)
	for _, b := range data {
		switch b {
		case charLF, charCR, charESC, charAdd:
			out = append(out, charESC)
		}
		out = append(out, b)
	}
	return out
}
