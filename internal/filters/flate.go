package filters

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
)

// Params represents decode parameters from PDF stream dictionaries.
// Common parameters include Predictor, Columns, Colors, and BitsPerComponent.
type Params map[string]interface{}

// FlateDecode decompresses Flate (zlib/deflate) compressed data and applies
// the predictor named in params, if any.
func FlateDecode(data []byte, params Params) ([]byte, error) {
	reader, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create zlib reader: %w", err)
	}
	defer reader.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, reader); err != nil {
		// Truncated streams are common in the wild; keep what inflated cleanly.
		if buf.Len() == 0 {
			return nil, fmt.Errorf("zlib decompression failed: %w", err)
		}
	}

	predictor := getIntParam(params, "Predictor", 1)
	if predictor == 1 {
		return buf.Bytes(), nil
	}

	decoded, err := applyPredictor(buf.Bytes(), predictor, params)
	if err != nil {
		return nil, fmt.Errorf("predictor failed: %w", err)
	}
	return decoded, nil
}

// FlateEncode compresses data with zlib at the best compression level.
func FlateEncode(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
	if err != nil {
		return nil, fmt.Errorf("failed to create zlib writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("zlib compression failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("zlib compression failed: %w", err)
	}
	return buf.Bytes(), nil
}

// applyPredictor undoes TIFF (2) or PNG (10-15) prediction.
func applyPredictor(data []byte, predictor int, params Params) ([]byte, error) {
	colors := getIntParam(params, "Colors", 1)
	columns := getIntParam(params, "Columns", 1)
	if bpc := getIntParam(params, "BitsPerComponent", 8); bpc != 8 {
		return nil, fmt.Errorf("only 8 bits per component is supported, got %d", bpc)
	}

	switch {
	case predictor == 2:
		return tiffPredictor(data, colors, columns)
	case predictor >= 10 && predictor <= 15:
		return pngPredictor(data, colors, columns)
	}
	return nil, fmt.Errorf("unsupported predictor: %d", predictor)
}

// tiffPredictor reverses TIFF Predictor 2: each sample is stored as the
// difference from the sample one pixel to its left.
func tiffPredictor(data []byte, colors, columns int) ([]byte, error) {
	rowSize := columns * colors
	if rowSize <= 0 || len(data)%rowSize != 0 {
		return nil, fmt.Errorf("data size %d is not a multiple of row size %d", len(data), rowSize)
	}

	out := make([]byte, len(data))
	for start := 0; start < len(data); start += rowSize {
		for col := 0; col < rowSize; col++ {
			idx := start + col
			if col < colors {
				out[idx] = data[idx]
				continue
			}
			out[idx] = data[idx] + out[idx-colors]
		}
	}
	return out, nil
}

// pngPredictor reverses PNG row filters. Every row starts with a filter-type
// byte; the output drops those bytes.
func pngPredictor(data []byte, colors, columns int) ([]byte, error) {
	rowLen := columns * colors
	stride := rowLen + 1
	if rowLen <= 0 || len(data)%stride != 0 {
		return nil, fmt.Errorf("data size %d is not a multiple of row size %d", len(data), stride)
	}

	rows := len(data) / stride
	out := make([]byte, rows*rowLen)
	prev := make([]byte, rowLen)

	for row := 0; row < rows; row++ {
		filter := data[row*stride]
		in := data[row*stride+1 : (row+1)*stride]
		cur := out[row*rowLen : (row+1)*rowLen]

		for i := range in {
			var left, upLeft byte
			if i >= colors {
				left = cur[i-colors]
				upLeft = prev[i-colors]
			}
			up := prev[i]

			switch filter {
			case 0:
				cur[i] = in[i]
			case 1:
				cur[i] = in[i] + left
			case 2:
				cur[i] = in[i] + up
			case 3:
				cur[i] = in[i] + byte((int(left)+int(up))/2)
			case 4:
				cur[i] = in[i] + paeth(left, up, upLeft)
			default:
				return nil, fmt.Errorf("unknown PNG filter %d in row %d", filter, row)
			}
		}
		prev = cur
	}
	return out, nil
}

// paeth picks whichever of left, above or upper-left is closest to
// left + above - upper-left.
func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa, pb, pc := abs(p-int(a)), abs(p-int(b)), abs(p-int(c))
	if pa <= pb && pa <= pc {
		return a
	}
	if pb <= pc {
		return b
	}
	return c
}

// getIntParam extracts an integer parameter, returning def if the parameter is
// missing or not numeric.
func getIntParam(params Params, key string, def int) int {
	if params == nil {
		return def
	}
	switch v := params[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
