// Package deb822 reads the RFC 822 style control paragraphs used by
// Packages indexes, Release files, the dpkg status database and
// extended_states.
package deb822

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
)

type Paragraph struct {
	Order  []string
	values map[string]string
}

func NewParagraph() *Paragraph {
	return &Paragraph{values: make(map[string]string)}
}

// Get returns the value of a field. Field names are case-insensitive.
func (p *Paragraph) Get(key string) string {
	return p.values[strings.ToLower(key)]
}

func (p *Paragraph) Lookup(key string) (string, bool) {
	v, ok := p.values[strings.ToLower(key)]
	return v, ok
}

func (p *Paragraph) Set(key, value string) {
	lower := strings.ToLower(key)
	if _, ok := p.values[lower]; !ok {
		p.Order = append(p.Order, key)
	}
	p.values[lower] = value
}

func (p *Paragraph) Len() int {
	return len(p.Order)
}

type Reader struct {
	r    *bufio.Reader
	line int
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReaderSize(r, 64*1024)}
}

// Next returns the next paragraph, or io.EOF once the input is exhausted.
func (r *Reader) Next() (*Paragraph, error) {
	var (
		para    *Paragraph
		lastKey string
	)

	for {
		raw, err := r.r.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		eof := errors.Is(err, io.EOF)
		if raw == "" && eof {
			if para != nil {
				return para, nil
			}
			return nil, io.EOF
		}
		r.line++

		line := strings.TrimRight(raw, "\r\n")

		switch {
		case strings.TrimSpace(line) == "":
			if para != nil {
				return para, nil
			}
		case strings.HasPrefix(line, "#"):
		case line[0] == ' ' || line[0] == '\t':
			if para == nil || lastKey == "" {
				return nil, fmt.Errorf("line %d: continuation line without a field", r.line)
			}
			para.Set(lastKey, para.Get(lastKey)+"\n"+line[1:])
		default:
			idx := strings.Index(line, ":")
			if idx <= 0 {
				return nil, fmt.Errorf("line %d: malformed field %q", r.line, line)
			}
			if para == nil {
				para = NewParagraph()
			}
			lastKey = line[:idx]
			para.Set(lastKey, strings.TrimSpace(line[idx+1:]))
		}

		if eof {
			if para != nil {
				return para, nil
			}
			return nil, io.EOF
		}
	}
}

func ParseAll(r io.Reader) ([]*Paragraph, error) {
	dr := NewReader(r)
	var out []*Paragraph
	for {
		p, err := dr.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
}

const (
	signedHeader    = "-----BEGIN PGP SIGNED MESSAGE-----"
	signatureHeader = "-----BEGIN PGP SIGNATURE-----"
)

// StripClearsign returns the signed payload of an OpenPGP clearsigned
// document (InRelease). Unsigned input is returned as is. The signature
// itself is not verified.
func StripClearsign(data []byte) []byte {
	trimmed := bytes.TrimLeft(data, "\r\n")
	if !bytes.HasPrefix(trimmed, []byte(signedHeader)) {
		return data
	}

	lines := strings.Split(string(trimmed), "\n")
	i := 1
	for ; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "" {
			i++
			break
		}
	}

	var buf bytes.Buffer
	for ; i < len(lines); i++ {
		line := strings.TrimRight(lines[i], "\r")
		if line == signatureHeader {
			break
		}
		buf.WriteString(strings.TrimPrefix(line, "- "))
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// SplitDescription splits a Description field into its synopsis and the
// extended text. Lines consisting of a single "." become blank lines.
func SplitDescription(value string) (summary, long string) {
	first, rest, _ := strings.Cut(value, "\n")
	summary = strings.TrimSpace(first)
	if rest == "" {
		return summary, ""
	}

	lines := strings.Split(rest, "\n")
	for i, l := range lines {
		if strings.TrimSpace(l) == "." {
			l = ""
		}
		lines[i] = l
	}
	return summary, strings.TrimRight(strings.Join(lines, "\n"), "\n")
}

// Fields splits a whitespace separated field value.
func Fields(value string) []string {
	return strings.Fields(value)
}
