package tlv

// Fallback returns the example tree shown for input that cannot be
// structured. It is modelled on an EMV merchant-presented QR payload and is
// rebuilt on every call so callers may modify it freely.
func Fallback() []Node {
	return []Node{
		leaf("00", "01"),
		leaf("01", "12"),
		branch("29",
			leaf("00", "D15600000000"),
			leaf("05", "A93FO3230Q"),
		),
		branch("31",
			leaf("00", "D15600000000"),
			leaf("01", "93600914"),
		),
		leaf("52", "5812"),
		leaf("53", "360"),
		leaf("54", "100.00"),
		leaf("58", "ID"),
		leaf("59", "SAMPLE MERCHANT"),
		leaf("60", "JAKARTA"),
		branch("62",
			leaf("01", "INV0001"),
			leaf("07", "T001"),
		),
		leaf("63", "A13F"),
	}
}

func leaf(tag, value string) Node {
	return Node{Tag: tag, Length: len(value), Value: value, Children: []Node{}}
}

// branch sets the length to that of the encoded children, each of which
// occupies a two-character tag, a two-digit length and its value.
func branch(tag string, children ...Node) Node {
	length := 0
	for _, c := range children {
		length += 4 + c.Length
	}
	return Node{Tag: tag, Length: length, Children: children}
}
