package comfoair

import (
	"bufio"
	"fmt"
	"io"
)

// ComfoAir RS-232 protocol framing bytes.
//
// Every frame starts with 0x07 0xF0 and ends with 0x07 0x0F. A bare
// 0x07 inside the data section is escaped by doubling it. The peer
// acknowledges each frame with the two-byte sequence 0x07 0xF3.
const (
	frameMarker byte = 0x07
	frameStart  byte = 0xF0
	frameEnd    byte = 0x0F
	frameAck    byte = 0xF3
)

// checksumSeed is added to the byte sum when computing a frame checksum.
const checksumSeed = 0xAD

// maxDataLen bounds the data section of a frame. The longest known
// response (CC Ease display state) carries 10 bytes; 255 is the
// protocol's own limit from the single length byte.
const maxDataLen = 255

// Frame is a single ComfoAir protocol message.
//
// The wire layout is:
//
//	0x07 0xF0 | command (2 bytes, big-endian) | length (1 byte) |
//	data (length bytes, 0x07 doubled) | checksum (1 byte) | 0x07 0x0F
//
// The checksum is computed over command, length and unescaped data,
// plus a fixed seed of 0xAD, truncated to one byte.
type Frame struct {
	// Command identifies the message (e.g. 0x00CE = ventilation levels).
	Command uint16

	// Data is the unescaped payload (may be empty).
	Data []byte
}

// Checksum computes the frame's checksum byte.
func (f Frame) Checksum() byte {
	sum := int(f.Command>>8) + int(f.Command&0xFF) + len(f.Data) + checksumSeed
	for _, b := range f.Data {
		sum += int(b)
	}
	return byte(sum)
}

// Encode serialises the frame to wire format, applying 0x07 escaping
// to the data section.
func (f Frame) Encode() []byte {
	buf := make([]byte, 0, 9+len(f.Data)*2)
	buf = append(buf, frameMarker, frameStart)
	buf = append(buf, byte(f.Command>>8), byte(f.Command&0xFF))
	buf = append(buf, byte(len(f.Data)))
	for _, b := range f.Data {
		buf = append(buf, b)
		if b == frameMarker {
			buf = append(buf, frameMarker)
		}
	}
	buf = append(buf, f.Checksum())
	buf = append(buf, frameMarker, frameEnd)
	return buf
}

// String returns a human-readable representation of the frame.
func (f Frame) String() string {
	return fmt.Sprintf("Frame{Cmd:%#06x, Data:%X}", f.Command, f.Data)
}

// ackBytes returns the two-byte acknowledgement sequence.
func ackBytes() []byte {
	return []byte{frameMarker, frameAck}
}

// frameScanner extracts frames from a raw serial byte stream.
//
// The scanner tolerates garbage between frames: it discards bytes until
// a start sequence is found, so a session can be joined mid-stream.
// ACK bytes from the unit are consumed silently.
type frameScanner struct {
	r *bufio.Reader
}

func newFrameScanner(r io.Reader) *frameScanner {
	return &frameScanner{r: bufio.NewReader(r)}
}

// Next returns the next complete frame from the stream.
//
// Recoverable framing problems (broken escape, bad checksum, missing
// end marker) are reported as errors wrapping ErrInvalidFrame or
// ErrChecksumMismatch; the caller may keep scanning afterwards as the
// scanner resynchronises on the next start sequence. I/O errors from
// the underlying reader are returned as-is and are fatal.
func (s *frameScanner) Next() (Frame, error) {
	if err := s.seekStart(); err != nil {
		return Frame{}, err
	}

	header := make([]byte, 3)
	if _, err := io.ReadFull(s.r, header); err != nil {
		return Frame{}, fmt.Errorf("read header: %w", err)
	}

	cmd := uint16(header[0])<<8 | uint16(header[1])
	dataLen := int(header[2])

	data := make([]byte, 0, dataLen)
	for len(data) < dataLen {
		b, err := s.r.ReadByte()
		if err != nil {
			return Frame{}, fmt.Errorf("read data: %w", err)
		}
		if b == frameMarker {
			// Data marker bytes arrive doubled
			next, err := s.r.ReadByte()
			if err != nil {
				return Frame{}, fmt.Errorf("read escape: %w", err)
			}
			if next != frameMarker {
				return Frame{}, fmt.Errorf("%w: broken escape sequence %#02x %#02x",
					ErrInvalidFrame, b, next)
			}
		}
		data = append(data, b)
	}

	sum, err := s.r.ReadByte()
	if err != nil {
		return Frame{}, fmt.Errorf("read checksum: %w", err)
	}

	tail := make([]byte, 2)
	if _, err := io.ReadFull(s.r, tail); err != nil {
		return Frame{}, fmt.Errorf("read end marker: %w", err)
	}
	if tail[0] != frameMarker || tail[1] != frameEnd {
		return Frame{}, fmt.Errorf("%w: missing end marker (got %#02x %#02x)",
			ErrInvalidFrame, tail[0], tail[1])
	}

	frame := Frame{Command: cmd, Data: data}
	if frame.Checksum() != sum {
		return Frame{}, fmt.Errorf("%w: frame %#04x (got %#02x, want %#02x)",
			ErrChecksumMismatch, cmd, sum, frame.Checksum())
	}

	return frame, nil
}

// seekStart discards bytes until a frame start sequence is consumed.
// ACKs from the unit are swallowed here.
func (s *frameScanner) seekStart() error {
	for {
		b, err := s.r.ReadByte()
		if err != nil {
			return err
		}
		if b != frameMarker {
			continue
		}

		next, err := s.r.ReadByte()
		if err != nil {
			return err
		}
		switch next {
		case frameStart:
			return nil
		case frameAck:
			// Command acknowledgement, nothing to deliver
			continue
		default:
			// Stray marker, keep scanning
			continue
		}
	}
}
