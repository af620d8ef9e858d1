// Package jcampdx parses JCAMP-DX text files into spectrum.Spectrum
// values. It decodes the AFFN, PAC and SQZ XYDATA forms and the
// ##XFACTOR/##YFACTOR scaling directives; DIF and DUP compressed rows are
// rejected with an explicit error rather than silently misparsed (see
// decodeLine). Like
// ioformat/bruker, this is a shallow collaborator: read the whole file,
// parse its ##LABEL= value lines, decode the data block, scale, and hand
// the result to spectrum.New — the same "read whole file, parse field by
// field, apply scaling" shape preset.LoadJSON uses for preset files in
// this codebase, generalized from JSON key/value pairs to JCAMP-DX's
// ##KEY= VALUE convention.
package jcampdx

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/cwbudde/metabodecon/errs"
	"github.com/cwbudde/metabodecon/spectrum"
)

// Read parses the JCAMP-DX file at path into a Spectrum with the given
// signal boundaries.
func Read(path string, a, b float64) (spectrum.Spectrum, error) {
	f, err := os.Open(path)
	if err != nil {
		return spectrum.Spectrum{}, fmt.Errorf("%w: %v", errs.ErrMissingData, err)
	}
	defer f.Close()

	doc, err := parse(f)
	if err != nil {
		return spectrum.Spectrum{}, err
	}

	x, y, err := doc.axis()
	if err != nil {
		return spectrum.Spectrum{}, err
	}

	return spectrum.New(x, y, a, b, spectrum.Metadata{
		Nucleus:          doc.labels[".OBSERVENUCLEUS"],
		CarrierFrequency: doc.float(".OBSERVEFREQUENCY"),
	})
}

type document struct {
	labels map[string]string
	data   []string // raw lines within the XYDATA block
}

func parse(f *os.File) (document, error) {
	doc := document{labels: make(map[string]string)}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	inData := false
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "$$") {
			continue
		}
		if strings.HasPrefix(trimmed, "##") {
			inData = strings.HasPrefix(strings.ToUpper(trimmed), "##XYDATA")
			if !inData {
				key, val, ok := strings.Cut(strings.TrimPrefix(trimmed, "##"), "=")
				if ok {
					doc.labels[strings.ToUpper(strings.TrimSpace(key))] = strings.TrimSpace(val)
				}
			}
			if strings.HasPrefix(strings.ToUpper(trimmed), "##END") {
				break
			}
			continue
		}
		if inData {
			doc.data = append(doc.data, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return document{}, fmt.Errorf("%w: %v", errs.ErrMalformedData, err)
	}
	if len(doc.data) == 0 {
		return document{}, fmt.Errorf("%w: no XYDATA block found", errs.ErrMissingData)
	}
	return doc, nil
}

func (d document) float(key string) float64 {
	v, ok := d.labels[key]
	if !ok {
		return 0
	}
	f, _ := strconv.ParseFloat(strings.Fields(v)[0], 64)
	return f
}

// axis decodes the XYDATA block and applies XFACTOR/YFACTOR scaling. It
// supports the AFFN/PAC encoding directly (plain or signed numbers per
// line, first value on each line is the abscissa) and the SQZ pseudo-digit
// form. Rows using DIF or DUP compression are not decoded: decodeLine
// rejects them with errs.ErrMalformedData.
func (d document) axis() ([]float64, []float64, error) {
	xFactor := 1.0
	if v, ok := d.labels["XFACTOR"]; ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			xFactor = f
		}
	}
	yFactor := 1.0
	if v, ok := d.labels["YFACTOR"]; ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			yFactor = f
		}
	}

	var x, y []float64
	for _, line := range d.data {
		values, err := decodeLine(line)
		if err != nil {
			return nil, nil, err
		}
		if len(values) < 2 {
			continue
		}
		abscissa := values[0]
		for i := 1; i < len(values); i++ {
			x = append(x, (abscissa+float64(i-1))*xFactor)
			y = append(y, values[i]*yFactor)
		}
	}
	if len(x) == 0 {
		return nil, nil, fmt.Errorf("%w: no decodable XYDATA rows", errs.ErrMalformedData)
	}
	return x, y, nil
}

// decodeLine decodes one XYDATA line. AFFN (plain whitespace-separated
// numbers) and PAC (explicit sign-separated numbers) need no translation.
// SQZ compresses the leading digit of a value into a single pseudo-digit
// character and is expanded back to a digit/sign before parsing. DIF
// (delta-from-previous-value) and DUP (run-length repeat) use a disjoint
// pseudo-digit alphabet; genuinely decoding them requires carrying
// decode state across the whole XYDATA block rather than per line, which
// this shallow adapter does not attempt — a line using either is reported
// as malformed rather than silently misparsed.
func decodeLine(line string) ([]float64, error) {
	if r := firstDifOrDupMarker(line); r != 0 {
		return nil, fmt.Errorf("%w: DIF/DUP compression (marker %q) is not supported by this reader", errs.ErrMalformedData, r)
	}

	var tokens []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	for _, r := range line {
		switch {
		case isSQZDigitStart(r):
			flush()
			cur.WriteString(sqzDigitToASCII(r))
		case r == '+' || r == '-' || r == '.' || (r >= '0' && r <= '9'):
			cur.WriteRune(r)
		default:
			flush()
		}
	}
	flush()

	values := make([]float64, 0, len(tokens))
	for _, tok := range tokens {
		if tok == "" {
			continue
		}
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: unparseable XYDATA token %q", errs.ErrMalformedData, tok)
		}
		values = append(values, v)
	}
	return values, nil
}

// difDupAlphabet is the pseudo-digit character set JCAMP-DX 5.01 reserves
// for DIF (%J-R / j-r) and DUP (S-Z / s) encodings, distinct from SQZ's
// @/A-I/a-i alphabet.
const difDupAlphabet = "%JKLMNOPQRjklmnopqrSTUVWXYZs"

func firstDifOrDupMarker(line string) rune {
	for _, r := range line {
		if strings.ContainsRune(difDupAlphabet, r) {
			return r
		}
	}
	return 0
}

// isSQZDigitStart reports whether r is one of JCAMP-DX's SQZ pseudo-digit
// prefixes (@, A-I for positive, a-i for negative digits).
func isSQZDigitStart(r rune) bool {
	switch {
	case r == '@':
		return true
	case r >= 'A' && r <= 'I':
		return true
	case r >= 'a' && r <= 'i':
		return true
	}
	return false
}

// sqzDigitToASCII maps a single SQZ pseudo-digit to its ASCII
// equivalent: '@' -> "0", 'A'..'I' -> "1".."9", 'a'..'i' -> "-1".."-9".
func sqzDigitToASCII(r rune) string {
	switch {
	case r == '@':
		return "0"
	case r >= 'A' && r <= 'I':
		return string(rune('1' + (r - 'A')))
	case r >= 'a' && r <= 'i':
		return "-" + string(rune('1'+(r-'a')))
	}
	return string(r)
}
