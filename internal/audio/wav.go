package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// DecodeWAV parses a RIFF/WAVE stream holding 16-bit PCM. Chunks other
// than fmt and data are skipped. ffmpeg writes pipes with an unknown data
// size (0xFFFFFFFF), so such a data chunk is read until EOF.
func DecodeWAV(r io.Reader) (*Track, error) {
	var header [12]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("wav header: %w", err)
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return nil, fmt.Errorf("not a RIFF/WAVE stream")
	}

	var (
		track   *Track
		haveFmt bool
	)
	for {
		var chunk [8]byte
		if _, err := io.ReadFull(r, chunk[:]); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				break
			}
			return nil, fmt.Errorf("wav chunk header: %w", err)
		}
		id := string(chunk[0:4])
		size := binary.LittleEndian.Uint32(chunk[4:8])

		switch id {
		case "fmt ":
			var spec [16]byte
			if _, err := io.ReadFull(r, spec[:]); err != nil {
				return nil, fmt.Errorf("wav fmt chunk: %w", err)
			}
			format := binary.LittleEndian.Uint16(spec[0:2])
			channels := binary.LittleEndian.Uint16(spec[2:4])
			rate := binary.LittleEndian.Uint32(spec[4:8])
			bits := binary.LittleEndian.Uint16(spec[14:16])
			if format != 1 || bits != 16 {
				return nil, fmt.Errorf("unsupported wav encoding: format %d, %d bit", format, bits)
			}
			if channels == 0 || rate == 0 {
				return nil, fmt.Errorf("bad wav fmt: %d channels, %d Hz", channels, rate)
			}
			track = &Track{SampleRate: int(rate), Channels: int(channels)}
			haveFmt = true
			if err := skipChunk(r, int64(size)-16); err != nil {
				return nil, err
			}

		case "data":
			if !haveFmt {
				return nil, fmt.Errorf("wav data chunk before fmt")
			}
			var raw []byte
			var err error
			if size == 0xFFFFFFFF {
				raw, err = io.ReadAll(r)
			} else {
				raw = make([]byte, size)
				_, err = io.ReadFull(r, raw)
			}
			if err != nil {
				return nil, fmt.Errorf("wav data chunk: %w", err)
			}
			track.Samples = make([]int16, len(raw)/2)
			for i := range track.Samples {
				track.Samples[i] = int16(binary.LittleEndian.Uint16(raw[2*i:]))
			}
			return track, nil

		default:
			if err := skipChunk(r, int64(size)); err != nil {
				return nil, err
			}
		}
		// Chunks are word aligned.
		if size%2 == 1 {
			if err := skipChunk(r, 1); err != nil {
				return nil, err
			}
		}
	}
	return nil, fmt.Errorf("wav stream has no data chunk")
}

func skipChunk(r io.Reader, n int64) error {
	if n <= 0 {
		return nil
	}
	if _, err := io.CopyN(io.Discard, r, n); err != nil {
		return fmt.Errorf("wav chunk skip: %w", err)
	}
	return nil
}

// EncodeWAV writes the track as a canonical 44-byte-header PCM WAVE file.
func EncodeWAV(w io.Writer, t *Track) error {
	dataSize := len(t.Samples) * 2
	byteRate := t.SampleRate * t.Channels * 2

	var header [44]byte
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], uint32(36+dataSize))
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], 1)
	binary.LittleEndian.PutUint16(header[22:24], uint16(t.Channels))
	binary.LittleEndian.PutUint32(header[24:28], uint32(t.SampleRate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(header[32:34], uint16(t.Channels*2))
	binary.LittleEndian.PutUint16(header[34:36], 16)
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], uint32(dataSize))
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("wav header: %w", err)
	}

	raw := make([]byte, dataSize)
	for i, s := range t.Samples {
		binary.LittleEndian.PutUint16(raw[2*i:], uint16(s))
	}
	if _, err := w.Write(raw); err != nil {
		return fmt.Errorf("wav data: %w", err)
	}
	return nil
}

// WriteWAVFile encodes the track into a file at path.
func WriteWAVFile(path string, t *Track) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := EncodeWAV(f, t); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
