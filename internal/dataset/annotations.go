package dataset

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
)

// arrayWriter streams a JSON array one element at a time, so annotation
// files never have to fit in memory.
type arrayWriter struct {
	f     *os.File
	w     *bufio.Writer
	count int
}

func createArray(path string) (*arrayWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: %w", err)
	}
	w := bufio.NewWriter(f)
	if _, err := w.WriteString("["); err != nil {
		f.Close()
		return nil, fmt.Errorf("dataset: write %s: %w", path, err)
	}
	return &arrayWriter{f: f, w: w}, nil
}

func (a *arrayWriter) append(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return a.appendRaw(data)
}

// appendRaw adds an already encoded element.
func (a *arrayWriter) appendRaw(data []byte) error {
	if a.count > 0 {
		if _, err := a.w.WriteString(", "); err != nil {
			return err
		}
	}
	if _, err := a.w.Write(data); err != nil {
		return err
	}
	a.count++
	return nil
}

// close terminates the array; the file is valid JSON afterwards.
func (a *arrayWriter) close() error {
	if _, err := a.w.WriteString("]"); err != nil {
		a.f.Close()
		return err
	}
	if err := a.w.Flush(); err != nil {
		a.f.Close()
		return err
	}
	return a.f.Close()
}
