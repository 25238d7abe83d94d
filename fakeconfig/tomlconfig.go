// Package fakeconfig loads per-table/per-column generation overrides
// from a TOML file, the file-backed counterpart to handing a
// FakeTable map to the engine as Go literals.
package fakeconfig

import (
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/ordinaryparksee/dancer"
)

// tomlFile is the top-level document: one [tables.<name>] section per
// overridden table.
type tomlFile struct {
	Tables map[string]tomlTable `toml:"tables"`
}

// tomlTable maps [tables.<name>].
type tomlTable struct {
	NumOfRows int                   `toml:"num_of_rows"`
	Columns   map[string]tomlColumn `toml:"columns"`
}

// tomlColumn maps [tables.<name>.columns.<col>]. Exactly one of
// Constant/Method should be set; Constant wins if both are present.
type tomlColumn struct {
	Constant any            `toml:"constant"`
	Method   string         `toml:"method"`
	Args     map[string]any `toml:"args"`
}

// LoadFile reads path and returns the FakeTable overrides it declares,
// keyed by table name, ready to hand to dancer.NewFakeFactory.
func LoadFile(path string) (map[string]dancer.FakeTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("fakeconfig: open %q: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}

// Load reads TOML content from r and returns the FakeTable overrides
// it declares.
func Load(r io.Reader) (map[string]dancer.FakeTable, error) {
	var doc tomlFile
	if _, err := toml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("fakeconfig: decode error: %w", err)
	}

	out := make(map[string]dancer.FakeTable, len(doc.Tables))
	for name, t := range doc.Tables {
		ft := dancer.FakeTable{
			Table:     name,
			NumOfRows: t.NumOfRows,
			Columns:   make(map[string]dancer.FakeColumnOverride, len(t.Columns)),
		}
		for colName, c := range t.Columns {
			switch {
			case c.Constant != nil:
				ft.Columns[colName] = dancer.ConstantOverride(c.Constant)
			case c.Method != "":
				ft.Columns[colName] = dancer.KeywordOverrideFunc(c.Method, c.Args)
			}
		}
		out[name] = ft
	}
	return out, nil
}
