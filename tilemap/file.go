package tilemap

import (
	"os"
	"path/filepath"
	"strings"
)

// Load reads a map file: ".bin" files use the binary layout, anything else
// is parsed as ASCII.
func Load(path string) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if strings.EqualFold(filepath.Ext(path), ".bin") {
		return ReadBinary(f)
	}
	return ParseASCII(f)
}

// Save writes g in the format chosen by the extension of path.
func (g *Grid) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if strings.EqualFold(filepath.Ext(path), ".bin") {
		err = g.WriteBinary(f)
	} else {
		_, err = f.WriteString(g.String())
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}
