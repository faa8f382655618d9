package main

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// sourceEncoding returns the decoder for a named encoding. UTF-8 returns a
// nil encoding: the bytes are used as they are.
func sourceEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.ReplaceAll(name, "_", "-")) {
	case "", "utf-8", "utf8":
		return nil, nil
	case "latin1", "latin-1", "iso-8859-1", "iso8859-1":
		return charmap.ISO8859_1, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252, nil
	case "utf-16le", "utf16le":
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM), nil
	case "utf-16be", "utf16be":
		return unicode.UTF16(unicode.BigEndian, unicode.UseBOM), nil
	}
	return nil, fmt.Errorf("unknown encoding %q", name)
}

// decodeSource converts script bytes in the named encoding to a UTF-8
// string. A UTF-8 byte order mark is dropped.
func decodeSource(data []byte, name string) (string, error) {
	enc, err := sourceEncoding(name)
	if err != nil {
		return "", err
	}
	if enc == nil {
		data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
		if !utf8.Valid(data) {
			return "", fmt.Errorf("source is not valid UTF-8; try -encoding latin1")
		}
		return string(data), nil
	}
	out, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// readSource loads and decodes a script file
func readSource(path, encodingName string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	source, err := decodeSource(data, encodingName)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	return source, nil
}
