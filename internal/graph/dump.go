package graph

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/olekukonko/tablewriter"
)

// NodeExport is the diagnostic view of one array.
type NodeExport struct {
	ID           uint64         `json:"id" cbor:"1,keyasint"`
	Kind         Kind           `json:"kind" cbor:"2,keyasint"`
	Shape        []int          `json:"shape" cbor:"3,keyasint"`
	DType        string         `json:"dtype" cbor:"4,keyasint"`
	Device       string         `json:"device" cbor:"5,keyasint"`
	Materialized bool           `json:"materialized" cbor:"6,keyasint"`
	Inputs       []uint64       `json:"inputs,omitempty" cbor:"7,keyasint,omitempty"`
	Params       map[string]any `json:"params,omitempty" cbor:"8,keyasint,omitempty"`
}

// Export is a snapshot of the graph reachable from a set of targets.
type Export struct {
	Targets []uint64     `json:"targets" cbor:"1,keyasint"`
	Nodes   []NodeExport `json:"nodes" cbor:"2,keyasint"`
}

// Snapshot walks every array reachable from targets, in dependency order.
func Snapshot(targets ...*Array) (*Export, error) {
	nodes, err := Walk(targets...)
	if err != nil {
		return nil, err
	}
	ex := &Export{Nodes: make([]NodeExport, 0, len(nodes))}
	for _, t := range targets {
		ex.Targets = append(ex.Targets, t.id)
	}
	for _, n := range nodes {
		ne := NodeExport{
			ID:           n.id,
			Kind:         n.Kind(),
			Shape:        append([]int{}, n.spec.Shape...),
			DType:        n.spec.DType.String(),
			Device:       n.spec.Device.String(),
			Materialized: n.IsMaterialized(),
		}
		prim, inputs := n.Producer()
		for _, in := range inputs {
			ne.Inputs = append(ne.Inputs, in.id)
		}
		if d, ok := prim.(Describer); ok {
			ne.Params = d.Params()
		}
		ex.Nodes = append(ex.Nodes, ne)
	}
	return ex, nil
}

// IndentedJSON encodes the snapshot as indented JSON.
func (e *Export) IndentedJSON() ([]byte, error) {
	return json.MarshalIndent(e, "", "  ")
}

// MarshalCBOR encodes the snapshot as CBOR.
func (e *Export) MarshalCBOR() ([]byte, error) {
	type plain Export
	return cbor.Marshal((*plain)(e))
}

// Dump writes a table of the graph reachable from targets.
func Dump(w io.Writer, targets ...*Array) error {
	ex, err := Snapshot(targets...)
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "KIND", "SHAPE", "DTYPE", "DEVICE", "STATE", "INPUTS", "PARAMS"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")

	data := make([][]string, 0, len(ex.Nodes))
	for _, n := range ex.Nodes {
		state := "pending"
		if n.Materialized {
			state = "materialized"
		}
		inputs := make([]string, len(n.Inputs))
		for i, id := range n.Inputs {
			inputs[i] = strconv.FormatUint(id, 10)
		}
		data = append(data, []string{
			strconv.FormatUint(n.ID, 10),
			string(n.Kind),
			fmt.Sprint(n.Shape),
			n.DType,
			n.Device,
			state,
			strings.Join(inputs, ","),
			formatParams(n.Params),
		})
	}
	table.AppendBulk(data)
	table.Render()
	return nil
}

func formatParams(p map[string]any) string {
	if len(p) == 0 {
		return ""
	}
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, p[k])
	}
	return strings.Join(parts, " ")
}
