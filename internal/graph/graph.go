package graph

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

var (
	ErrDuplicateNode = errors.New("graph: duplicate node id")
	ErrUnknownNode   = errors.New("graph: unknown node")
	ErrEmptyID       = errors.New("graph: empty node id")
)

type Node struct {
	ID     string   `json:"id"`
	X      *float64 `json:"x,omitempty"`
	Y      *float64 `json:"y,omitempty"`
	Mass   float64  `json:"mass,omitempty"`
	Radius float64  `json:"radius,omitempty"`
	Fixed  bool     `json:"fixed,omitempty"`
	Group  string   `json:"group,omitempty"`
}

// Placed reports whether the node carries both coordinates.
func (n Node) Placed() bool { return n.X != nil && n.Y != nil }

type Link struct {
	Source    string   `json:"source"`
	Target    string   `json:"target"`
	Length    *float64 `json:"length,omitempty"`
	Stiffness *float64 `json:"stiffness,omitempty"`
	Damping   *float64 `json:"damping,omitempty"`
	Rigid     bool     `json:"rigid,omitempty"`
}

type Graph struct {
	Nodes []Node `json:"nodes"`
	Links []Link `json:"links"`
}

// Validate checks node ids are unique and links reference known nodes.
func (g *Graph) Validate() error {
	seen := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		if n.ID == "" {
			return ErrEmptyID
		}
		if seen[n.ID] {
			return fmt.Errorf("node %s: %w", n.ID, ErrDuplicateNode)
		}
		seen[n.ID] = true
	}
	for _, l := range g.Links {
		for _, id := range [...]string{l.Source, l.Target} {
			if !seen[id] {
				return fmt.Errorf("link %s->%s: %w: %s", l.Source, l.Target, ErrUnknownNode, id)
			}
		}
	}
	return nil
}

// Degree returns the number of links touching each node.
func (g *Graph) Degree() map[string]int {
	deg := make(map[string]int, len(g.Nodes))
	for _, l := range g.Links {
		deg[l.Source]++
		deg[l.Target]++
	}
	return deg
}

// ReadJSON decodes and validates a graph. It does not close r.
func ReadJSON(r io.Reader) (*Graph, error) {
	var g Graph
	if err := json.NewDecoder(r).Decode(&g); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return &g, nil
}

// ImportJSON reads a graph file.
func ImportJSON(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}

// WriteJSON encodes g with indentation. Output can be read back by ReadJSON.
func WriteJSON(g *Graph, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(g); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

func ExportJSON(g *Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteJSON(g, f)
}
