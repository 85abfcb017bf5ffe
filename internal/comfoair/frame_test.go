package comfoair

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestFrameChecksum(t *testing.T) {
	tests := []struct {
		name  string
		frame Frame
		want  byte
	}{
		{
			name:  "empty data",
			frame: Frame{Command: CmdGetVentilation},
			want:  0x7A, // 0x00 + 0xCD + 0x00 + 0xAD
		},
		{
			name:  "set level",
			frame: Frame{Command: CmdSetLevel, Data: []byte{0x03}},
			want:  0x4A, // 0x00 + 0x99 + 0x01 + 0x03 + 0xAD
		},
		{
			name:  "sum truncates to one byte",
			frame: Frame{Command: 0xFFFF, Data: []byte{0xFF, 0xFF}},
			want:  byte((0xFF + 0xFF + 2 + 0xFF + 0xFF + 0xAD) & 0xFF),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.frame.Checksum(); got != tt.want {
				t.Errorf("Checksum() = %#02x, want %#02x", got, tt.want)
			}
		})
	}
}

func TestFrameEncode(t *testing.T) {
	tests := []struct {
		name  string
		frame Frame
		want  []byte
	}{
		{
			name:  "command only",
			frame: Frame{Command: CmdGetVentilation},
			want:  []byte{0x07, 0xF0, 0x00, 0xCD, 0x00, 0x7A, 0x07, 0x0F},
		},
		{
			name:  "with data",
			frame: Frame{Command: CmdSetLevel, Data: []byte{0x03}},
			want:  []byte{0x07, 0xF0, 0x00, 0x99, 0x01, 0x03, 0x4A, 0x07, 0x0F},
		},
		{
			name:  "marker byte in data is doubled",
			frame: Frame{Command: 0x003C, Data: []byte{0x07}},
			want:  []byte{0x07, 0xF0, 0x00, 0x3C, 0x01, 0x07, 0x07, 0xF1, 0x07, 0x0F},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.frame.Encode(); !bytes.Equal(got, tt.want) {
				t.Errorf("Encode() = % X, want % X", got, tt.want)
			}
		})
	}
}

func TestFrameScannerRoundtrip(t *testing.T) {
	frames := []Frame{
		{Command: CmdVentilation, Data: []byte{0, 0, 0, 0, 0, 0, 45, 55, 3}},
		{Command: CmdTemperatures, Data: []byte{84, 64, 80, 82, 78}},
		{Command: CmdDisplay, Data: []byte{0, 0, 0, 0x07, 0, 0, 0, 0, 0, 0}},
	}

	var stream bytes.Buffer
	for _, f := range frames {
		stream.Write(f.Encode())
	}

	scanner := newFrameScanner(&stream)
	for i, want := range frames {
		got, err := scanner.Next()
		if err != nil {
			t.Fatalf("frame %d: Next() error: %v", i, err)
		}
		if got.Command != want.Command {
			t.Errorf("frame %d: command = %#04x, want %#04x", i, got.Command, want.Command)
		}
		if !bytes.Equal(got.Data, want.Data) {
			t.Errorf("frame %d: data = % X, want % X", i, got.Data, want.Data)
		}
	}

	if _, err := scanner.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("Next() after stream end = %v, want io.EOF", err)
	}
}

func TestFrameScannerSkipsGarbage(t *testing.T) {
	want := Frame{Command: CmdVentilation, Data: []byte{0, 0, 0, 0, 0, 0, 30, 30, 2}}

	var stream bytes.Buffer
	stream.Write([]byte{0x00, 0xFF, 0x42, 0x07, 0x99}) // noise, incl. stray marker
	stream.Write(want.Encode())

	scanner := newFrameScanner(&stream)
	got, err := scanner.Next()
	if err != nil {
		t.Fatalf("Next() error: %v", err)
	}
	if got.Command != want.Command || !bytes.Equal(got.Data, want.Data) {
		t.Errorf("Next() = %v, want %v", got, want)
	}
}

func TestFrameScannerSwallowsAcks(t *testing.T) {
	want := Frame{Command: CmdTemperatures, Data: []byte{84, 64, 80, 82, 78}}

	var stream bytes.Buffer
	stream.Write(ackBytes())
	stream.Write(ackBytes())
	stream.Write(want.Encode())

	scanner := newFrameScanner(&stream)
	got, err := scanner.Next()
	if err != nil {
		t.Fatalf("Next() error: %v", err)
	}
	if got.Command != want.Command {
		t.Errorf("command = %#04x, want %#04x", got.Command, want.Command)
	}
}

func TestFrameScannerChecksumMismatch(t *testing.T) {
	good := Frame{Command: CmdVentilation, Data: []byte{0, 0, 0, 0, 0, 0, 30, 30, 2}}

	bad := good.Encode()
	bad[len(bad)-3] ^= 0xFF // corrupt the checksum byte

	var stream bytes.Buffer
	stream.Write(bad)
	stream.Write(good.Encode())

	scanner := newFrameScanner(&stream)

	if _, err := scanner.Next(); !errors.Is(err, ErrChecksumMismatch) {
		t.Fatalf("Next() = %v, want ErrChecksumMismatch", err)
	}

	// Scanner must resynchronise on the following frame
	got, err := scanner.Next()
	if err != nil {
		t.Fatalf("Next() after corrupt frame: %v", err)
	}
	if got.Command != good.Command || !bytes.Equal(got.Data, good.Data) {
		t.Errorf("Next() = %v, want %v", got, good)
	}
}

func TestFrameScannerBrokenEscape(t *testing.T) {
	// 0x07 in data must be doubled; follow it with a different byte
	stream := bytes.NewReader([]byte{
		0x07, 0xF0, // start
		0x00, 0x3C, // command
		0x02,       // length
		0x07, 0x42, // broken escape
	})

	scanner := newFrameScanner(stream)
	if _, err := scanner.Next(); !errors.Is(err, ErrInvalidFrame) {
		t.Errorf("Next() = %v, want ErrInvalidFrame", err)
	}
}

func TestFrameScannerMissingEndMarker(t *testing.T) {
	f := Frame{Command: CmdGetVentilation}
	raw := f.Encode()
	raw[len(raw)-1] = 0x00 // clobber the end byte

	scanner := newFrameScanner(bytes.NewReader(raw))
	if _, err := scanner.Next(); !errors.Is(err, ErrInvalidFrame) {
		t.Errorf("Next() = %v, want ErrInvalidFrame", err)
	}
}

func TestFrameString(t *testing.T) {
	f := Frame{Command: CmdSetLevel, Data: []byte{0x02}}
	want := "Frame{Cmd:0x0099, Data:02}"
	if got := f.String(); got != want {
		t.Errorf("String() = %q", got)
	}
}
