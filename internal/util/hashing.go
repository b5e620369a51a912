package util

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"

	"github.com/go-sod/outlier/internal/byteutil"
	"github.com/go-sod/outlier/internal/dataset"
)

// HashDataset fingerprints ids, coordinates and their order.
func HashDataset(ds *dataset.Dataset) string {
	h := sha256.New()
	buffer := byteutil.GetBytesBuf()
	defer byteutil.PutBytesBuf(buffer)
	for i := 0; i < ds.Len(); i++ {
		p := ds.At(i)
		buffer.Reset()
		buffer.WriteString(strconv.Itoa(p.ID))
		buffer.WriteByte(':')
		writeVector(buffer, p.Vec)
		buffer.WriteByte(';')
		h.Write(buffer.Bytes())
	}
	return hex.EncodeToString(h.Sum(nil))
}

type stringWriter interface {
	WriteString(s string) (int, error)
	WriteByte(c byte) error
}

func writeVector(w stringWriter, vec []float64) {
	for i := range vec {
		if i > 0 {
			_ = w.WriteByte(',')
		}
		_, _ = w.WriteString(strconv.FormatFloat(vec[i], 'g', -1, 64))
	}
}
