package dataset

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-sod/outlier/internal/geom"
)

// Reader parses numeric datasets. By default it reads whitespace separated
// columns: numeric tokens form the vector and the remaining tokens, joined by
// a space, form the label. Lines starting with '#' are comments.
type Reader struct {
	r         io.Reader
	closer    io.Closer
	comma     rune
	hasHeader bool
	startID   int
}

type Option func(*Reader)

// WithComma switches to CSV parsing with the given separator.
func WithComma(c rune) Option {
	return func(r *Reader) {
		r.comma = c
	}
}

// WithHeader indicates the CSV input has a header row.
func WithHeader(has bool) Option {
	return func(r *Reader) {
		r.hasHeader = has
	}
}

// WithStartID sets the identifier of the first point; later points are
// numbered consecutively.
func WithStartID(id int) Option {
	return func(r *Reader) {
		r.startID = id
	}
}

func NewReader(r io.Reader, opts ...Option) *Reader {
	rd := &Reader{r: r}
	for _, opt := range opts {
		opt(rd)
	}
	return rd
}

// Open opens a dataset file.
func Open(filename string, opts ...Option) (*Reader, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open dataset %s: %w", filename, err)
	}
	rd := NewReader(file, opts...)
	rd.closer = file
	return rd, nil
}

// Load reads and closes the file at filename.
func Load(filename string, opts ...Option) (*Dataset, error) {
	rd, err := Open(filename, opts...)
	if err != nil {
		return nil, err
	}
	defer rd.Close()
	return rd.Read()
}

func (r *Reader) Read() (*Dataset, error) {
	var (
		points []Point
		err    error
	)
	if r.comma != 0 {
		points, err = r.readCSV()
	} else {
		points, err = r.readFields()
	}
	if err != nil {
		return nil, err
	}
	return New(points...)
}

func (r *Reader) Close() error {
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

func (r *Reader) readFields() ([]Point, error) {
	var points []Point
	scanner := bufio.NewScanner(r.r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		p, err := parseRecord(strings.Fields(text))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		p.ID = r.startID + len(points)
		points = append(points, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan dataset: %w", err)
	}
	return points, nil
}

func (r *Reader) readCSV() ([]Point, error) {
	var points []Point
	reader := csv.NewReader(r.r)
	reader.Comma = r.comma
	reader.Comment = '#'
	reader.FieldsPerRecord = -1
	if r.hasHeader {
		if _, err := reader.Read(); err != nil {
			return nil, fmt.Errorf("read header: %w", err)
		}
	}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}
		p, err := parseRecord(record)
		if err != nil {
			line, _ := reader.FieldPos(0)
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		p.ID = r.startID + len(points)
		points = append(points, p)
	}
	return points, nil
}

func parseRecord(record []string) (Point, error) {
	var (
		vec    []float64
		labels []string
	)
	for _, field := range record {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		f, err := strconv.ParseFloat(field, 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			labels = append(labels, field)
			continue
		}
		vec = append(vec, f)
	}
	if len(vec) == 0 {
		return Point{}, fmt.Errorf("record has no numeric values")
	}
	return Point{Vec: geom.NewPoint(vec), Label: strings.Join(labels, " ")}, nil
}
