// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package lzh

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
)

var (
	macSeps     = strings.NewReplacer(":", "/", "/", ":", `\`, "/")
	genericSeps = strings.NewReplacer(`\`, "/")
)

// decodeName returns a slash-separated path with no empty, dot or dot-dot components
func decodeName(raw []byte, os byte) string {
	var keep []string
	for _, c := range strings.Split(convertSeps(raw, os), "/") {
		if c != "" && c != "." && c != ".." {
			keep = append(keep, c)
		}
	}
	return strings.Join(keep, "/")
}

// convertSeps decodes the text of a path and turns every separator convention into a slash.
// 0xff cannot occur inside a Shift JIS character, so it is split off first.
func convertSeps(raw []byte, os byte) string {
	parts := bytes.Split(raw, []byte{0xff})
	s := make([]string, len(parts))
	for i, p := range parts {
		s[i] = decodeText(p, os)
		switch os {
		case osUnix:
		case osMac:
			s[i] = macSeps.Replace(s[i])
		default:
			s[i] = genericSeps.Replace(s[i])
		}
	}
	return strings.Join(s, "/")
}

func isSep(c byte) bool { return c == '/' || c == '\\' || c == 0xff }

// decodeText guesses the character set from the creating system.
// Most archives without a better clue come from Japan.
func decodeText(b []byte, os byte) string {
	ascii := true
	for _, c := range b {
		if c >= 0x80 {
			ascii = false
			break
		}
	}
	if ascii {
		return string(b)
	}

	switch os {
	case osMac:
		return decodeWith(charmap.Macintosh, b)
	case osAmiga:
		return decodeWith(charmap.ISO8859_1, b)
	case osUnix, osJava:
		if utf8.Valid(b) {
			return string(b)
		}
	}
	if s := decodeWith(japanese.ShiftJIS, b); !strings.ContainsRune(s, utf8.RuneError) {
		return s
	}
	return decodeWith(charmap.CodePage437, b)
}

func decodeWith(enc encoding.Encoding, b []byte) string {
	s, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return string(utf8.RuneError)
	}
	return string(s)
}

// OSName describes the system that created an entry.
func OSName(os byte) string {
	switch os {
	case osGeneric:
		return "generic"
	case osMSDOS:
		return "MS-DOS"
	case osUnix:
		return "Unix"
	case osMac:
		return "Macintosh"
	case osAmiga:
		return "Amiga"
	case osJava:
		return "Java"
	case osHuman:
		return "Human68K"
	case osWin95:
		return "Windows 95"
	case osWinNT:
		return "Windows NT"
	case '2':
		return "OS/2"
	case '9':
		return "OS-9"
	case 'K':
		return "OS/68K"
	case '3':
		return "OS/386"
	case 'C':
		return "CP/M"
	case 'F':
		return "FLEX"
	case 'R':
		return "Runser"
	case 'T':
		return "TownsOS"
	case 'X':
		return "XOSK"
	}
	return fmt.Sprintf("%q", os)
}
