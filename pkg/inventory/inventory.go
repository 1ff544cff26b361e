// Package inventory flattens nested host/group inventory dumps into flat
// lookup tables: all hosts, group membership, host variables and group
// variables.
package inventory

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// maxDepth bounds the recursive walk so a pathologically nested (or, through
// an aliasing bug upstream, cyclic) document cannot exhaust the stack.
const maxDepth = 256

// MalformedNodeError records a subtree that was skipped during normalization.
// The walk continues with the siblings of the offending node.
type MalformedNodeError struct {
	Group  string // group whose node contained the bad subtree
	Key    string // key under which the subtree was found
	Reason string
}

func (e *MalformedNodeError) Error() string {
	return fmt.Sprintf("group %q: skipping %q: %s", e.Group, e.Key, e.Reason)
}

// Tables holds the four lookup tables produced by normalization. A zero
// Tables is not usable; call NewTables. The same Tables may be fed several
// documents, merging them under the usual last-seen-wins rule for variables.
type Tables struct {
	// Hosts lists every host seen under any "hosts" key, deduplicated,
	// in first-seen order.
	Hosts []string
	// Groups maps group name to its members (hosts and subgroup names)
	// in encounter order.
	Groups map[string][]string
	// HostVars and GroupVars map owner name to its variables. Values are
	// opaque and passed through unchanged.
	HostVars  map[string]map[string]any
	GroupVars map[string]map[string]any

	hostSeen   map[string]bool
	groupOrder []string
}

func NewTables() *Tables {
	return &Tables{
		Groups:    map[string][]string{},
		HostVars:  map[string]map[string]any{},
		GroupVars: map[string]map[string]any{},
		hostSeen:  map[string]bool{},
	}
}

// GroupNames returns the group names in the order they were first
// encountered during normalization.
func (t *Tables) GroupNames() []string {
	return t.groupOrder
}

// Normalize walks the inventory document rooted at doc and merges what it
// finds into the tables. doc must be a mapping of top-level group name to
// sub-document (inventory dumps typically have a single synthetic "all"
// group at the top).
//
// Malformed subtrees are skipped, not fatal: the returned errors describe
// every branch the walk gave up on, and the tables still hold everything
// gathered from the well-formed parts of the document.
func (t *Tables) Normalize(doc *yaml.Node) []error {
	root := unwrapDocument(doc)
	if root == nil || root.Kind != yaml.MappingNode {
		return []error{&MalformedNodeError{Group: "", Key: "", Reason: "document root is not a mapping"}}
	}

	var errs []error
	mappingPairs(root)(func(name string, node *yaml.Node) bool {
		errs = append(errs, t.parseGroup(name, node, 0)...)
		return true
	})
	return errs
}

// parseGroup handles one (group name, node) pair of the walk.
func (t *Tables) parseGroup(group string, node *yaml.Node, depth int) []error {
	if depth > maxDepth {
		return []error{&MalformedNodeError{Group: group, Key: "", Reason: "nesting exceeds maximum depth"}}
	}
	node = resolveAlias(node)
	if node.Kind != yaml.MappingNode {
		return []error{&MalformedNodeError{Group: group, Key: "", Reason: "group node is not a mapping"}}
	}

	t.touchGroup(group)

	var errs []error
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		val := resolveAlias(node.Content[i+1])

		switch key {
		case "hosts":
			if val.Kind != yaml.SequenceNode {
				errs = append(errs, &MalformedNodeError{Group: group, Key: key, Reason: "hosts is not a sequence"})
				continue
			}
			for _, item := range val.Content {
				t.addHost(group, resolveAlias(item).Value)
			}

		case "children":
			if val.Kind != yaml.MappingNode {
				errs = append(errs, &MalformedNodeError{Group: group, Key: key, Reason: "children is not a mapping"})
				continue
			}
			mappingPairs(val)(func(sub string, subnode *yaml.Node) bool {
				t.Groups[group] = append(t.Groups[group], sub)
				errs = append(errs, t.parseGroup(sub, subnode, depth+1)...)
				return true
			})

		case "hostvars":
			errs = append(errs, t.mergeVars(t.HostVars, group, key, val)...)

		case "vars":
			vars, verrs := decodeVarMap(group, key, val)
			errs = append(errs, verrs...)
			for _, v := range vars {
				t.setVar(t.GroupVars, group, v.name, v.value)
			}

		case "groupvars":
			// Routed into GroupVars alongside "vars"; the shape mirrors
			// hostvars (group name -> variable map).
			errs = append(errs, t.mergeVars(t.GroupVars, group, key, val)...)

		default:
			// Any unrecognized key names a nested group.
			errs = append(errs, t.parseGroup(key, val, depth+1)...)
		}
	}
	return errs
}

// mergeVars merges an owner -> variable-map mapping (the hostvars/groupvars
// shape) into the given table, last-seen value winning per variable.
func (t *Tables) mergeVars(table map[string]map[string]any, group, key string, node *yaml.Node) []error {
	if node.Kind != yaml.MappingNode {
		return []error{&MalformedNodeError{Group: group, Key: key, Reason: key + " is not a mapping"}}
	}
	var errs []error
	mappingPairs(node)(func(owner string, varsNode *yaml.Node) bool {
		vars, verrs := decodeVarMap(group, key+"/"+owner, varsNode)
		errs = append(errs, verrs...)
		for _, v := range vars {
			t.setVar(table, owner, v.name, v.value)
		}
		return true
	})
	return errs
}

func (t *Tables) addHost(group, host string) {
	if !t.hostSeen[host] {
		t.hostSeen[host] = true
		t.Hosts = append(t.Hosts, host)
	}
	t.Groups[group] = append(t.Groups[group], host)
}

func (t *Tables) touchGroup(group string) {
	if _, ok := t.Groups[group]; !ok {
		t.Groups[group] = []string{}
		t.groupOrder = append(t.groupOrder, group)
	}
}

func (t *Tables) setVar(table map[string]map[string]any, owner, name string, value any) {
	if table[owner] == nil {
		table[owner] = map[string]any{}
	}
	table[owner][name] = value
}

// decodeVarMap decodes one variable-name -> value mapping, in key order.
// Pairs whose value cannot be decoded are skipped individually.
func decodeVarMap(group, key string, node *yaml.Node) ([]orderedVar, []error) {
	if node.Kind != yaml.MappingNode {
		return nil, []error{&MalformedNodeError{Group: group, Key: key, Reason: "variable block is not a mapping"}}
	}
	var (
		vars []orderedVar
		errs []error
	)
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		var value any
		if err := node.Content[i+1].Decode(&value); err != nil {
			errs = append(errs, &MalformedNodeError{Group: group, Key: key, Reason: fmt.Sprintf("variable %q: %v", name, err)})
			continue
		}
		vars = append(vars, orderedVar{name: name, value: value})
	}
	return vars, errs
}

type orderedVar struct {
	name  string
	value any
}

// mappingPairs iterates the key/value pairs of a mapping node in document
// order. Mapping order is why the walk works on yaml.Node rather than
// map[string]any: Go map iteration would make "last seen wins" and the
// report ordering nondeterministic.
func mappingPairs(node *yaml.Node) func(yield func(string, *yaml.Node) bool) {
	return func(yield func(string, *yaml.Node) bool) {
		for i := 0; i+1 < len(node.Content); i += 2 {
			if !yield(node.Content[i].Value, resolveAlias(node.Content[i+1])) {
				return
			}
		}
	}
}

func unwrapDocument(node *yaml.Node) *yaml.Node {
	if node == nil {
		return nil
	}
	if node.Kind == yaml.DocumentNode && len(node.Content) == 1 {
		return resolveAlias(node.Content[0])
	}
	return resolveAlias(node)
}

func resolveAlias(node *yaml.Node) *yaml.Node {
	if node != nil && node.Kind == yaml.AliasNode && node.Alias != nil {
		return node.Alias
	}
	return node
}
