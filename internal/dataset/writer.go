package dataset

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
)

// Write stores ds in the whitespace separated format Reader parses: one point
// per line, coordinates followed by the label.
func Write(w io.Writer, ds *Dataset) error {
	bw := bufio.NewWriter(w)
	for _, p := range ds.points {
		for i, x := range p.Vec {
			if i > 0 {
				_ = bw.WriteByte(' ')
			}
			_, _ = bw.WriteString(strconv.FormatFloat(x, 'g', -1, 64))
		}
		if p.Label != "" {
			_ = bw.WriteByte(' ')
			_, _ = bw.WriteString(p.Label)
		}
		if err := bw.WriteByte('\n'); err != nil {
			return fmt.Errorf("unable to write point %d: %w", p.ID, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("unable to flush dataset: %w", err)
	}
	return nil
}
