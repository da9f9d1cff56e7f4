// Package codes normalizes commodity classification codes and derives their
// hierarchical prefixes (chapter, heading, subheading).
package codes

import (
	"fmt"
	"strings"
)

// Digit widths of the AHTN hierarchy
const (
	ChapterWidth    = 2
	HeadingWidth    = 4
	SubheadingWidth = 6
	TariffWidth     = 8
)

// Normalize turns a raw spreadsheet value into a canonical fixed-width code.
// A trailing ".0" left by numeric cells is dropped and spaces are removed.
// Plain codes are left-padded with zeros to width. Dotted codes
// ("0101.21.00", "0101.20") are read most significant group first: the
// leading group must hold a full heading and the digits are right-padded
// to width.
// Non-digit characters or codes longer than width are rejected.
func Normalize(raw string, width int) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("empty code")
	}
	// numeric cells read back as "1012100.0"
	if strings.Count(s, ".") == 1 && strings.HasSuffix(s, ".0") {
		s = strings.TrimSuffix(s, ".0")
	}
	s = strings.ReplaceAll(s, " ", "")
	dotted := strings.Contains(s, ".")
	if dotted && width >= HeadingWidth {
		if lead, _, _ := strings.Cut(s, "."); len(lead) != HeadingWidth {
			return "", fmt.Errorf("dotted code %q must start with a %d-digit heading", raw, HeadingWidth)
		}
	}
	s = strings.ReplaceAll(s, ".", "")

	for _, r := range s {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("code %q contains non-digit characters", raw)
		}
	}
	if width > 0 {
		if len(s) > width {
			return "", fmt.Errorf("code %q is longer than %d digits", raw, width)
		}
		pad := strings.Repeat("0", width-len(s))
		if dotted {
			s += pad
		} else {
			s = pad + s
		}
	}
	return s, nil
}

// FromDecimal normalizes a code that was stored as a decimal number, e.g. the
// subheading 0101.20 kept in a spreadsheet as 101.2. The integer part is
// left-padded to intWidth and the fraction right-padded to fracWidth.
func FromDecimal(raw string, intWidth, fracWidth int) (string, error) {
	s := strings.TrimSpace(raw)
	whole, frac, found := strings.Cut(s, ".")
	if !found {
		return Normalize(s, intWidth+fracWidth)
	}
	if len(frac) > fracWidth {
		return "", fmt.Errorf("code %q has more than %d decimals", raw, fracWidth)
	}
	whole, err := Normalize(whole, intWidth)
	if err != nil {
		return "", err
	}
	frac += strings.Repeat("0", fracWidth-len(frac))
	for _, r := range frac {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("code %q contains non-digit characters", raw)
		}
	}
	return whole + frac, nil
}

// Hierarchy holds a code together with its chapter, heading and subheading prefixes.
type Hierarchy struct {
	Code       string `json:"code"`
	Chapter    string `json:"chapter"`
	Heading    string `json:"heading"`
	Subheading string `json:"subheading"`
}

// ParseHierarchy derives the hierarchical prefixes of a code.
//
// Dotted codes ("0101.21.00") are split on dots: the chapter is the first two
// digits of the first group, the heading is the first group and the
// subheading is the first two groups concatenated. Plain codes are truncated
// to 2, 4 and 6 digits after zero-padding to the tariff width.
func ParseHierarchy(raw string) (Hierarchy, error) {
	s := strings.TrimSpace(raw)
	if strings.Count(s, ".") >= 2 {
		parts := strings.Split(s, ".")
		head, sub := parts[0], parts[1]
		if len(head) != HeadingWidth || len(sub) != SubheadingWidth-HeadingWidth {
			return Hierarchy{}, fmt.Errorf("code %q does not follow the NNNN.NN.NN layout", raw)
		}
		code, err := Normalize(s, TariffWidth)
		if err != nil {
			return Hierarchy{}, err
		}
		return Hierarchy{
			Code:       code,
			Chapter:    head[:ChapterWidth],
			Heading:    head,
			Subheading: head + sub,
		}, nil
	}

	code, err := Normalize(s, TariffWidth)
	if err != nil {
		return Hierarchy{}, err
	}
	return Split(code), nil
}

// Split derives prefixes from an already normalized code by truncation.
func Split(code string) Hierarchy {
	return Hierarchy{
		Code:       code,
		Chapter:    prefix(code, ChapterWidth),
		Heading:    prefix(code, HeadingWidth),
		Subheading: prefix(code, SubheadingWidth),
	}
}

func prefix(code string, n int) string {
	if len(code) < n {
		return code
	}
	return code[:n]
}
