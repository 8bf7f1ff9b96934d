// Package yaml loads dataset profiles from YAML documents.
package yaml

import (
	"bytes"
	"errors"
	"io"
	"os"
	"sort"

	"github.com/fwojciec/tablescrape"
	yaml "gopkg.in/yaml.v3"
)

// profileFile is the top-level document layout.
//
//	datasets:
//	  live-market:
//	    url: https://www.nepalstock.com/live-market
//	    markers: ["table.table"]
type profileFile struct {
	Datasets map[string]yaml.Node `yaml:"datasets"`
}

// LoadDatasets reads dataset profiles from the file at path.
func LoadDatasets(path string) (map[string]*tablescrape.Dataset, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, tablescrape.Errorf(tablescrape.ENOTFOUND, "profiles file %s not found", path)
	} else if err != nil {
		return nil, tablescrape.Wrapf(err, tablescrape.EIO, "opening profiles file %s", path)
	}
	defer f.Close()

	return DecodeDatasets(f)
}

// DecodeDatasets decodes dataset profiles. Every profile starts from
// tablescrape.DefaultDataset, so a profile only lists what it changes.
// Unknown keys are rejected.
func DecodeDatasets(r io.Reader) (map[string]*tablescrape.Dataset, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var pf profileFile
	if err := dec.Decode(&pf); err != nil && !errors.Is(err, io.EOF) {
		return nil, tablescrape.Wrapf(err, tablescrape.EINVALID, "decoding profiles")
	}

	out := make(map[string]*tablescrape.Dataset, len(pf.Datasets))
	for name, node := range pf.Datasets {
		ds, err := decodeDataset(&node)
		if err != nil {
			return nil, tablescrape.Wrapf(err, tablescrape.EINVALID, "dataset %q", name)
		}
		ds.Name = name
		out[name] = ds
	}
	return out, nil
}

// decodeDataset decodes node onto the defaults. The node is re-encoded so the
// strict decoder, which only exists on yaml.Decoder, sees it.
func decodeDataset(node *yaml.Node) (*tablescrape.Dataset, error) {
	b, err := yaml.Marshal(node)
	if err != nil {
		return nil, err
	}
	ds := tablescrape.DefaultDataset()
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(ds); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return ds, nil
}

// EncodeDatasets writes datasets as a profiles document that DecodeDatasets
// accepts.
func EncodeDatasets(w io.Writer, datasets map[string]*tablescrape.Dataset) error {
	names := make([]string, 0, len(datasets))
	for name := range datasets {
		names = append(names, name)
	}
	sort.Strings(names)

	// Build the mapping by hand to keep the names sorted.
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, name := range names {
		var v yaml.Node
		if err := v.Encode(datasets[name]); err != nil {
			return tablescrape.Wrapf(err, tablescrape.EINTERNAL, "encoding dataset %q", name)
		}
		root.Content = append(root.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: name}, &v)
	}
	doc := &yaml.Node{Kind: yaml.MappingNode, Content: []*yaml.Node{
		{Kind: yaml.ScalarNode, Value: "datasets"},
		root,
	}}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return tablescrape.Wrapf(err, tablescrape.EIO, "writing profiles")
	}
	return enc.Close()
}
