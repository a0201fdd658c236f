package core

import (
	"fmt"

	"github.com/tsawler/linksheet/internal/filters"
)

// NewFlateStream returns a stream holding data compressed with FlateDecode.
// dict may be nil; /Length and /Filter are set on a copy.
func NewFlateStream(dict Dict, data []byte) (*Stream, error) {
	encoded, err := filters.FlateEncode(data)
	if err != nil {
		return nil, fmt.Errorf("compress stream: %w", err)
	}
	d := dict.Clone()
	d.Set("Filter", Name("FlateDecode"))
	d.Set("Length", Int(len(encoded)))
	d.Delete("DecodeParms")
	return &Stream{Dict: d, Data: encoded}, nil
}

// NewStream returns an uncompressed stream with /Length set.
func NewStream(dict Dict, data []byte) *Stream {
	d := dict.Clone()
	d.Set("Length", Int(len(data)))
	return &Stream{Dict: d, Data: data}
}

// Decode decodes the stream data according to the Filter(s) specified in the
// stream dictionary. Filter chains are applied in order.
func (s *Stream) Decode() ([]byte, error) {
	filterObj := s.Dict.Get("Filter")
	if filterObj == nil {
		return s.Data, nil
	}

	paramsObj := s.Dict.Get("DecodeParms")

	if filterName, ok := filterObj.(Name); ok {
		return decodeWithFilter(s.Data, string(filterName), paramsObjToDict(paramsObj))
	}

	filterArray, ok := filterObj.(Array)
	if !ok {
		return nil, fmt.Errorf("invalid Filter type: %T", filterObj)
	}

	data := s.Data
	for i, filter := range filterArray {
		filterName, ok := filter.(Name)
		if !ok {
			return nil, fmt.Errorf("filter %d is not a name: %T", i, filter)
		}

		var params Dict
		if paramsArray, ok := paramsObj.(Array); ok {
			if i < len(paramsArray) {
				params = paramsObjToDict(paramsArray[i])
			}
		} else {
			params = paramsObjToDict(paramsObj)
		}

		var err error
		data, err = decodeWithFilter(data, string(filterName), params)
		if err != nil {
			return nil, fmt.Errorf("filter %d (%s) failed: %w", i, filterName, err)
		}
	}
	return data, nil
}

// decodeWithFilter applies a single filter. Image codecs are passed through
// since only content and object streams are ever interpreted.
func decodeWithFilter(data []byte, filterName string, params Dict) ([]byte, error) {
	switch filterName {
	case "FlateDecode", "Fl":
		return filters.FlateDecode(data, dictToParams(params))
	case "ASCIIHexDecode", "AHx":
		return filters.ASCIIHexDecode(data)
	case "ASCII85Decode", "A85":
		return filters.ASCII85Decode(data)
	case "DCTDecode", "DCT", "JPXDecode", "CCITTFaxDecode", "CCF", "JBIG2Decode":
		return data, nil
	}
	return nil, fmt.Errorf("unsupported filter: %s", filterName)
}

func paramsObjToDict(obj Object) Dict {
	if dict, ok := obj.(Dict); ok {
		return dict
	}
	return nil
}

// dictToParams converts decode parameters to Go primitives.
func dictToParams(dict Dict) filters.Params {
	if dict == nil {
		return nil
	}

	params := make(filters.Params)
	for k, v := range dict {
		switch obj := v.(type) {
		case Int:
			params[k] = int(obj)
		case Real:
			params[k] = float64(obj)
		case Bool:
			params[k] = bool(obj)
		case Name:
			params[k] = string(obj)
		default:
			params[k] = v
		}
	}
	return params
}
