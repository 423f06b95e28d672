package csvfile

import (
	"encoding/csv"
	"io"

	"github.com/jszwec/csvutil"
)

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	return cr
}

func newWriter(w io.Writer) *csv.Writer {
	return csv.NewWriter(w)
}

func marshal(v any) ([]byte, error) {
	return csvutil.Marshal(v)
}

func unmarshal(data []byte, v any) error {
	return csvutil.Unmarshal(data, v)
}
