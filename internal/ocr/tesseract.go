package ocr

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Tesseract runs the tesseract command line tool.
type Tesseract struct {
	Path string
	Lang string
}

// NewTesseract resolves the tesseract binary. It fails when the binary
// cannot be found.
func NewTesseract(path, lang string) (*Tesseract, error) {
	if strings.TrimSpace(path) == "" {
		path = "tesseract"
	}
	resolved, err := exec.LookPath(path)
	if err != nil {
		return nil, fmt.Errorf("tesseract: %w", err)
	}
	if strings.TrimSpace(lang) == "" {
		lang = "chi_sim+eng"
	}
	return &Tesseract{Path: resolved, Lang: lang}, nil
}

func (t *Tesseract) Name() string { return "tesseract" }

// Recognize pipes the image through tesseract in TSV mode and returns one
// fragment per recognized line.
func (t *Tesseract) Recognize(ctx context.Context, image []byte) ([]Fragment, error) {
	if len(image) == 0 {
		return nil, errors.New("empty image")
	}
	cmd := exec.CommandContext(ctx, t.Path, "stdin", "stdout", "-l", t.Lang, "tsv")
	cmd.Stdin = bytes.NewReader(image)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("tesseract: %w: %s", err, msg)
		}
		return nil, fmt.Errorf("tesseract: %w", err)
	}
	return parseTSV(stdout.Bytes())
}

type lineKey struct {
	page, block, par, line int
}

type lineAcc struct {
	words []string
	conf  float64
	n     int
}

// parseTSV groups word rows (level 5) into lines, keeping first-seen order.
func parseTSV(data []byte) ([]Fragment, error) {
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	var order []lineKey
	lines := map[lineKey]*lineAcc{}
	header := true
	for sc.Scan() {
		row := sc.Text()
		if header {
			header = false
			if strings.HasPrefix(row, "level") {
				continue
			}
		}
		cols := strings.Split(row, "\t")
		if len(cols) < 12 || cols[0] != "5" {
			continue
		}
		word := strings.TrimSpace(strings.Join(cols[11:], "\t"))
		if word == "" {
			continue
		}
		var k lineKey
		var err error
		if k.page, err = strconv.Atoi(cols[1]); err != nil {
			continue
		}
		k.block, _ = strconv.Atoi(cols[2])
		k.par, _ = strconv.Atoi(cols[3])
		k.line, _ = strconv.Atoi(cols[4])
		conf, _ := strconv.ParseFloat(cols[10], 64)
		acc, ok := lines[k]
		if !ok {
			acc = &lineAcc{}
			lines[k] = acc
			order = append(order, k)
		}
		acc.words = append(acc.words, word)
		if conf >= 0 {
			acc.conf += conf
			acc.n++
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read tsv: %w", err)
	}
	out := make([]Fragment, 0, len(order))
	for _, k := range order {
		acc := lines[k]
		f := Fragment{Text: joinWords(acc.words)}
		if acc.n > 0 {
			f.Confidence = acc.conf / float64(acc.n) / 100
		}
		out = append(out, f)
	}
	return out, nil
}

// joinWords separates words with spaces except between two Han characters,
// which tesseract reports as separate words.
func joinWords(words []string) string {
	var b strings.Builder
	for i, w := range words {
		if i > 0 {
			prev, _ := utf8.DecodeLastRuneInString(words[i-1])
			next, _ := utf8.DecodeRuneInString(w)
			if !(unicode.Is(unicode.Han, prev) && unicode.Is(unicode.Han, next)) {
				b.WriteByte(' ')
			}
		}
		b.WriteString(w)
	}
	return b.String()
}
