package testing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-drift/hookwire/pkg/host"
)

// UpdateSnapshotsEnv is the environment variable that makes MatchesFile
// rewrite golden files instead of comparing against them.
const UpdateSnapshotsEnv = "HOOKWIRE_UPDATE_SNAPSHOTS"

// TestingT is the subset of *testing.T used by MatchesFile, allowing
// test doubles to intercept failures.
type TestingT interface {
	Helper()
	Fatalf(format string, args ...any)
	Errorf(format string, args ...any)
	Name() string
}

// Snapshot captures what the host has rendered: every container with its
// tree and the component units mounted from it.
type Snapshot struct {
	Containers []*ContainerNode `json:"containers"`
}

// ContainerNode is one render target in a snapshot.
type ContainerNode struct {
	Container string      `json:"container"`
	Tree      any         `json:"tree"`
	Units     []*UnitNode `json:"units,omitempty"`
}

// UnitNode is one mounted component unit in a snapshot.
type UnitNode struct {
	ID       string      `json:"id"`
	Renders  int         `json:"renders"`
	Hooks    []HookNode  `json:"hooks,omitempty"`
	Output   any         `json:"output,omitempty"`
	Children []*UnitNode `json:"children,omitempty"`
}

// HookNode is one hook slot of a unit.
type HookNode struct {
	Kind  string `json:"kind"`
	Value string `json:"value,omitempty"`
}

// CaptureSnapshot captures every mounted container.
func (t *HostTester) CaptureSnapshot() *Snapshot {
	h := t.host
	snap := &Snapshot{Containers: []*ContainerNode{}}
	counter := &typeCounter{}
	for _, c := range h.order {
		root := h.roots[c]
		node := &ContainerNode{
			Container: fmt.Sprint(c),
			Tree:      serializeTree(h.trees[c]),
		}
		for _, u := range root.children {
			node.Units = append(node.Units, captureUnit(u, counter))
		}
		snap.Containers = append(snap.Containers, node)
	}
	return snap
}

// MatchesFile compares this snapshot against a golden file. On mismatch it
// reports a diff and instructions for updating. When
// HOOKWIRE_UPDATE_SNAPSHOTS=1 is set, the file is silently updated instead.
func (s *Snapshot) MatchesFile(t TestingT, path string) {
	t.Helper()

	if os.Getenv(UpdateSnapshotsEnv) == "1" {
		if err := s.UpdateFile(path); err != nil {
			t.Fatalf("failed to update snapshot: %v", err)
		}
		return
	}

	expected, err := loadSnapshot(path)
	if err != nil {
		if os.IsNotExist(err) {
			t.Fatalf("snapshot file missing: %s\n\nTo create: %s=1 go test -run %s", path, UpdateSnapshotsEnv, t.Name())
			return
		}
		t.Fatalf("failed to load snapshot: %v", err)
		return
	}

	if diff := s.Diff(expected); diff != "" {
		t.Errorf("snapshot mismatch: %s\n%s\n\nTo update: %s=1 go test -run %s", path, diff, UpdateSnapshotsEnv, t.Name())
	}
}

// UpdateFile writes this snapshot to the given path, creating directories
// as needed.
func (s *Snapshot) UpdateFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := marshalSnapshot(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Diff returns a unified diff between this snapshot and other. Returns
// empty string if equal.
func (s *Snapshot) Diff(other *Snapshot) string {
	a, _ := marshalSnapshot(s)
	b, _ := marshalSnapshot(other)
	if bytes.Equal(a, b) {
		return ""
	}
	return unifiedDiff(string(b), string(a))
}

// --- Internal ---

// typeCounter assigns stable IDs like "Counter#0", "Counter#1".
type typeCounter struct {
	counts map[string]int
}

func (c *typeCounter) next(name string) string {
	if c.counts == nil {
		c.counts = make(map[string]int)
	}
	id := fmt.Sprintf("%s#%d", name, c.counts[name])
	c.counts[name]++
	return id
}

func captureUnit(u *Unit, counter *typeCounter) *UnitNode {
	node := &UnitNode{
		ID:      counter.next(u.Name()),
		Renders: u.renders,
		Output:  serializeTree(u.output),
	}
	for _, slot := range u.hooks {
		node.Hooks = append(node.Hooks, captureHook(slot))
	}
	for _, child := range u.children {
		node.Children = append(node.Children, captureUnit(child, counter))
	}
	return node
}

func captureHook(slot any) HookNode {
	switch s := slot.(type) {
	case *stateSlot:
		return HookNode{Kind: "state", Value: formatValue(s.value)}
	case *host.Ref:
		return HookNode{Kind: "ref", Value: formatValue(s.Current)}
	default:
		return HookNode{Kind: "effect"}
	}
}

// serializeTree converts a rendered tree into JSON-safe values.
func serializeTree(tree any) any {
	switch t := tree.(type) {
	case nil:
		return nil
	case *Node:
		out := map[string]any{"type": serializeTree(t.Type)}
		if len(t.Props) > 0 {
			props := make(map[string]any, len(t.Props))
			for k, v := range t.Props {
				props[k] = serializeTree(v)
			}
			out["props"] = props
		}
		if len(t.Children) > 0 {
			children := make([]any, len(t.Children))
			for i, c := range t.Children {
				children[i] = serializeTree(c)
			}
			out["children"] = children
		}
		return out
	case *Component:
		return "<" + t.Name + ">"
	case []any:
		out := make([]any, len(t))
		for i, c := range t {
			out[i] = serializeTree(c)
		}
		return out
	case string, bool, int, int64, float64:
		return t
	default:
		return formatValue(t)
	}
}

func formatValue(v any) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

func loadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("invalid snapshot JSON: %w", err)
	}
	return &snap, nil
}

func marshalSnapshot(s *Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// unifiedDiff produces a simple line-oriented diff.
func unifiedDiff(expected, actual string) string {
	expectedLines := strings.Split(expected, "\n")
	actualLines := strings.Split(actual, "\n")

	var buf strings.Builder
	buf.WriteString("--- expected\n+++ actual\n")

	maxLen := len(expectedLines)
	if len(actualLines) > maxLen {
		maxLen = len(actualLines)
	}

	for i := 0; i < maxLen; i++ {
		var e, a string
		if i < len(expectedLines) {
			e = expectedLines[i]
		}
		if i < len(actualLines) {
			a = actualLines[i]
		}
		if e != a {
			if i < len(expectedLines) {
				fmt.Fprintf(&buf, "-%s\n", e)
			}
			if i < len(actualLines) {
				fmt.Fprintf(&buf, "+%s\n", a)
			}
		}
	}

	return buf.String()
}
