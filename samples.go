package stroke

import (
	"encoding/binary"
	"fmt"
	"math"
)

// FormatVersion is the tag in the first byte of stroke data.
const FormatVersion byte = '2'

// fieldsPerSample is the number of float64 fields in one sample row.
const fieldsPerSample = 6

// RowSize is the encoded size of one sample in bytes.
const RowSize = fieldsPerSample * 8

// Sample is one timed pointer input event.
type Sample struct {
	// DTime is the time since the previous sample in seconds. For the first
	// sample it is the time since recording started.
	DTime    float64
	X, Y     float64
	Pressure float64
	XTilt    float64
	YTilt    float64
}

// EncodeSamples returns the stroke data for samples: the version tag
// followed by one row per sample.
func EncodeSamples(samples []Sample) []byte {
	buf := make([]byte, 1, 1+len(samples)*RowSize)
	buf[0] = FormatVersion
	for _, s := range samples {
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(s.DTime))
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(s.X))
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(s.Y))
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(s.Pressure))
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(s.XTilt))
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(s.YTilt))
	}
	return buf
}

// DecodeSamples parses stroke data produced by EncodeSamples.
// It returns an error wrapping ErrCorrupt if the version tag is wrong or the
// rows are not whole; no partial result is returned in that case.
func DecodeSamples(data []byte) ([]Sample, error) {
	if err := checkSampleData(data); err != nil {
		return nil, err
	}
	rows := data[1:]
	samples := make([]Sample, len(rows)/RowSize)
	for i := range samples {
		row := rows[i*RowSize : (i+1)*RowSize]
		samples[i] = Sample{
			DTime:    readFloat64(row[0:]),
			X:        readFloat64(row[8:]),
			Y:        readFloat64(row[16:]),
			Pressure: readFloat64(row[24:]),
			XTilt:    readFloat64(row[32:]),
			YTilt:    readFloat64(row[40:]),
		}
	}
	return samples, nil
}

func checkSampleData(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: empty stroke data", ErrVersion)
	}
	if data[0] != FormatVersion {
		return fmt.Errorf("%w: got %q, want %q", ErrVersion, data[0], FormatVersion)
	}
	if n := len(data) - 1; n%RowSize != 0 {
		return fmt.Errorf("%w: %d bytes of rows", ErrTruncated, n)
	}
	return nil
}

func readFloat64(b []byte) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(b))
}

// encodeState packs a float32 state vector.
func encodeState(state []float32) []byte {
	buf := make([]byte, 0, len(state)*4)
	for _, v := range state {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
	}
	return buf
}

// decodeState unpacks a state vector packed by encodeState.
func decodeState(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrStateWidth, len(data))
	}
	state := make([]float32, len(data)/4)
	for i := range state {
		state[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return state, nil
}
