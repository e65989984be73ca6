// Package poolexport writes the loaded pool catalogue as YAML, for review or
// for tools that do not read the delimited definition format.
package poolexport

import (
	"fmt"
	"io"
	"os"

	"github.com/specialistvlad/turntablepool/internal/registry"
	"gopkg.in/yaml.v3"
)

// Catalogue is the document root.
type Catalogue struct {
	Pools []Pool `yaml:"pools"`
}

// Pool is one exported turntable pool.
type Pool struct {
	Name      string  `yaml:"name"`
	Source    string  `yaml:"source"`
	WorldFile string  `yaml:"worldfile,omitempty"`
	UID       *int    `yaml:"uid,omitempty"`
	Tracks    []Track `yaml:"tracks"`
}

// Track is one connected track.
type Track struct {
	ID      string  `yaml:"id"`
	Degrees float64 `yaml:"degrees"`
}

// Build converts reg into a catalogue ordered by pool name.
func Build(reg *registry.Registry) Catalogue {
	c := Catalogue{Pools: make([]Pool, 0, reg.Len())}
	for _, name := range reg.Names() {
		rec, _ := reg.Lookup(name)
		p := Pool{
			Name:      rec.Name,
			Source:    fmt.Sprintf("%s:%d", rec.SourceFile, rec.SourceLine),
			WorldFile: rec.WorldFile,
			Tracks:    make([]Track, len(rec.Tracks)),
		}
		if rec.HasUID {
			uid := rec.UID
			p.UID = &uid
		}
		for i, t := range rec.Tracks {
			p.Tracks[i] = Track{ID: t.ID, Degrees: float64(t.Position)}
		}
		c.Pools = append(c.Pools, p)
	}
	return c
}

// Write encodes the catalogue of reg to w.
func Write(w io.Writer, reg *registry.Registry) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(Build(reg)); err != nil {
		return fmt.Errorf("failed to encode pool catalogue: %w", err)
	}
	return enc.Close()
}

// WriteFile writes the catalogue of reg to path, replacing any existing file.
func WriteFile(path string, reg *registry.Registry) error {
	fh, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := Write(fh, reg); err != nil {
		fh.Close()
		return err
	}
	if err := fh.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}

// Read decodes a catalogue previously written by Write.
func Read(r io.Reader) (Catalogue, error) {
	var c Catalogue
	if err := yaml.NewDecoder(r).Decode(&c); err != nil {
		return Catalogue{}, fmt.Errorf("failed to decode pool catalogue: %w", err)
	}
	return c, nil
}
