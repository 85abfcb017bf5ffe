package comfoair

import "fmt"

// displayCells is the number of cell bytes in a CC Ease display frame.
const displayCells = 10

// cellLabels maps each display cell's bits to the icon or segment group
// shown on the CC Ease panel. Bits below a cell's digit offset form a
// seven-segment character and are decoded via segmentChars instead.
var cellLabels = [displayCells][8]string{
	{"Sa", "Su", "Mo", "Tu", "We", "Th", "Fri", ":"},
	// Cells 1-2: hour, e.g. 3, 13 or 23
	{"1ADEG", "1B", "1C", "AUTO", "MANUAL", "FILTER", "I", "E"},
	{"2A", "2B", "2C", "2D", "2E", "2F", "2G", "Ventilation"},
	// Cells 3-4: minutes, e.g. 52
	{"3A", "3B", "3C", "3D", "3E", "3F", "3G", "Extractor hood"},
	{"4A", "4B", "4C", "4D", "4E", "4F", "4G", "Pre-heater"},
	// Cell 5: level, 1, 2, 3 or A
	{"5A", "5B", "5C", "5D", "5E", "5F", "5G", "Frost"},
	// Cells 6-9: comfort temperature, e.g. 12.0°C
	{"6A", "6B", "6C", "6D", "6E", "6F", "6G", "EWT"},
	{"7A", "7B", "7C", "7D", "7E", "7F", "7G", "Post-heater"},
	{"8A", "8B", "8C", "8D", "8E", "8F", "8G", "."},
	{"°", "Bypass", "9AEF", "9G", "9D", "House", "Supply air", "Exhaust air"},
}

// segmentChars maps seven-segment patterns (bit 0 = segment A .. bit 6
// = segment G) to the character they render.
var segmentChars = map[byte]string{
	0b0000000: " ",
	0b0111111: "0",
	0b0000110: "1",
	0b1011011: "2",
	0b1001111: "3",
	0b1100110: "4",
	0b1101101: "5",
	0b1111101: "6",
	0b0000111: "7",
	0b1111111: "8",
	0b1101111: "9",
	0b1110111: "A",
	0b1111100: "B",
	0b0111001: "C",
	0b1011110: "D",
	0b1111001: "E",
	0b1110001: "F",
}

// DecodeDisplay decodes a CC Ease display frame payload into the list
// of characters and icon labels currently shown on the panel.
//
// The decoder is a pure function. A payload whose length differs from
// the fixed cell count yields a nil result and no error, since other
// frame types share the display command space. A cell whose segment
// bits form no known character yields an error identifying the cell;
// the caller isolates this per frame.
//
// Cell quirks:
//   - Cell 1 (hour tens) has only segments B and C wired individually;
//     a third bit lights segments A, D, E and G together so the cell
//     can render a "2" for hours 20-23.
//   - Cell 9 (temperature fraction) wires segments A, E and F as one
//     group and carries five icon flags in its remaining bits.
func DecodeDisplay(data []byte) ([]string, error) {
	if len(data) != displayCells {
		return nil, nil
	}

	var segments []string
	for pos, val := range data {
		offset := 0

		switch {
		case pos == 1:
			digit := val & 0b0000110
			if val&1 != 0 {
				digit |= 0b1011001
			}
			ch, ok := segmentChars[digit]
			if !ok {
				return nil, fmt.Errorf("%w: cell %d pattern %#07b", ErrUnknownSegment, pos, digit)
			}
			segments = append(segments, ch)
			offset = 3

		case pos >= 2 && pos <= 8:
			digit := val & 0x7F
			ch, ok := segmentChars[digit]
			if !ok {
				return nil, fmt.Errorf("%w: cell %d pattern %#07b", ErrUnknownSegment, pos, digit)
			}
			segments = append(segments, ch)
			offset = 7

		case pos == 9:
			var digit byte
			if val&0x04 != 0 {
				digit |= 0b0110001
			}
			if val&0x08 != 0 {
				digit |= 0b1000000
			}
			if val&0x10 != 0 {
				digit |= 0b0001000
			}
			ch, ok := segmentChars[digit]
			if !ok {
				return nil, fmt.Errorf("%w: cell %d pattern %#07b", ErrUnknownSegment, pos, digit)
			}
			segments = append(segments, ch)
			for _, i := range []int{0, 1, 5, 6, 7} {
				if val&(1<<i) != 0 {
					segments = append(segments, cellLabels[pos][i])
				}
			}
			offset = 8
		}

		for i := offset; i < 8; i++ {
			if val&(1<<i) != 0 {
				segments = append(segments, cellLabels[pos][i])
			}
		}
	}

	return segments, nil
}
