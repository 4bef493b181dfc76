package exiftags

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"io"
	"strings"
)

// parsePNGText walks the chunk stream of a PNG file and collects tEXt,
// iTXt and zTXt chunks as keyword -> text pairs. Generation tools embed
// their parameter block as a "parameters" text chunk.
func parsePNGText(data []byte) map[string]string {
	tags := make(map[string]string)

	pos := len(pngSignature)
	for pos+8 <= len(data) {
		length := int(binary.BigEndian.Uint32(data[pos : pos+4]))
		chunkType := string(data[pos+4 : pos+8])

		bodyStart := pos + 8
		bodyEnd := bodyStart + length
		if length < 0 || bodyEnd+4 > len(data) {
			break
		}
		body := data[bodyStart:bodyEnd]

		switch chunkType {
		case "tEXt":
			if key, text, ok := splitKeyword(body); ok {
				tags[key] = text
			}
		case "iTXt":
			if key, text, ok := parseITXt(body); ok {
				tags[key] = text
			}
		case "zTXt":
			if key, text, ok := parseZTXt(body); ok {
				tags[key] = text
			}
		case "IEND":
			return tags
		}

		pos = bodyEnd + 4 // skip CRC
	}

	return tags
}

// splitKeyword splits a tEXt chunk body at its NUL separator.
func splitKeyword(body []byte) (string, string, bool) {
	i := bytes.IndexByte(body, 0)
	if i <= 0 {
		return "", "", false
	}
	return string(body[:i]), string(body[i+1:]), true
}

// parseITXt decodes an iTXt chunk: keyword, compression flag and method,
// language tag, translated keyword, then the text itself.
func parseITXt(body []byte) (string, string, bool) {
	i := bytes.IndexByte(body, 0)
	if i <= 0 || i+2 >= len(body) {
		return "", "", false
	}
	key := string(body[:i])
	compressed := body[i+1] == 1
	rest := body[i+3:]

	// skip language tag and translated keyword
	for n := 0; n < 2; n++ {
		j := bytes.IndexByte(rest, 0)
		if j < 0 {
			return "", "", false
		}
		rest = rest[j+1:]
	}

	if !compressed {
		return key, string(rest), true
	}
	text, err := inflate(rest)
	if err != nil {
		return "", "", false
	}
	return key, text, true
}

// parseZTXt decodes a zTXt chunk: keyword, compression method, then
// zlib-compressed text.
func parseZTXt(body []byte) (string, string, bool) {
	i := bytes.IndexByte(body, 0)
	if i <= 0 || i+2 > len(body) {
		return "", "", false
	}
	text, err := inflate(body[i+2:])
	if err != nil {
		return "", "", false
	}
	return string(body[:i]), text, true
}

func inflate(data []byte) (string, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	defer r.Close()

	var sb strings.Builder
	if _, err := io.Copy(&sb, r); err != nil {
		return "", err
	}
	return sb.String(), nil
}
