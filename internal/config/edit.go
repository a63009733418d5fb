// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// document wraps the raw yaml.Node tree read from disk, kept alive for the
// comment-preserving single-key edit path. The typed Config struct is
// decoded from the same bytes for the read path and is never used to
// produce writes: re-serialising a typed struct would lose every comment
// and the original key ordering.
type document struct {
	path string
	root yaml.Node
}

// openDocument reads path into a live node tree. A missing file yields an
// empty mapping document so the first `team add` on a fresh $IRIS_HOME
// still has something to edit.
func openDocument(path string) (*document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		data = []byte("settings: {}\nteams: {}\n")
	}

	d := &document{path: path}
	if err := yaml.Unmarshal(data, &d.root); err != nil {
		return nil, fmt.Errorf("parse yaml config: %w", err)
	}
	if d.root.Kind == 0 {
		// Unmarshal of truly empty content leaves a zero Node; rebuild a
		// minimal document node so the mapping lookups below have
		// something to walk.
		if err := yaml.Unmarshal([]byte("settings: {}\nteams: {}\n"), &d.root); err != nil {
			return nil, fmt.Errorf("parse yaml config: %w", err)
		}
	}
	return d, nil
}

func (d *document) save() error {
	out, err := yaml.Marshal(&d.root)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	tmp := d.path + ".tmp"
	if err := os.WriteFile(tmp, out, 0644); err != nil {
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := os.Rename(tmp, d.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}

// documentRoot returns the top-level mapping node (the node tree's root is
// a DocumentNode wrapping exactly one mapping).
func (d *document) documentRoot() (*yaml.Node, error) {
	if d.root.Kind == yaml.DocumentNode && len(d.root.Content) == 1 {
		return d.root.Content[0], nil
	}
	if d.root.Kind == yaml.MappingNode {
		return &d.root, nil
	}
	return nil, fmt.Errorf("config: unexpected root node kind %v", d.root.Kind)
}

// mappingValue finds the value node for key within a mapping node,
// creating it (and appending the key node) if absent.
func mappingValue(mapping *yaml.Node, key string, createKind yaml.Kind, createTag string) (*yaml.Node, error) {
	if mapping.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("config: expected mapping node for key %q", key)
	}
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1], nil
		}
	}

	keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}
	valNode := &yaml.Node{Kind: createKind, Tag: createTag}
	mapping.Content = append(mapping.Content, keyNode, valNode)
	return valNode, nil
}

// deleteMappingKey removes key from mapping if present. Returns whether it
// was found.
func deleteMappingKey(mapping *yaml.Node, key string) bool {
	if mapping.Kind != yaml.MappingNode {
		return false
	}
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			mapping.Content = append(mapping.Content[:i], mapping.Content[i+2:]...)
			return true
		}
	}
	return false
}

func teamsNode(root *yaml.Node) (*yaml.Node, error) {
	return mappingValue(root, "teams", yaml.MappingNode, "!!map")
}

// SetTeam writes (or replaces) the team named name with the given config,
// preserving every comment and every other key in the file untouched.
func SetTeam(path, name string, team TeamConfig) error {
	d, err := openDocument(path)
	if err != nil {
		return err
	}

	root, err := d.documentRoot()
	if err != nil {
		return err
	}
	teams, err := teamsNode(root)
	if err != nil {
		return err
	}

	var teamNode yaml.Node
	if err := teamNode.Encode(team); err != nil {
		return fmt.Errorf("encode team: %w", err)
	}

	// Replace the existing entry's value node in place if present, so its
	// surrounding comments (attached to the key node) survive; otherwise
	// append a new key/value pair.
	for i := 0; i+1 < len(teams.Content); i += 2 {
		if teams.Content[i].Value == name {
			teams.Content[i+1] = &teamNode
			return d.save()
		}
	}
	keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: name}
	teams.Content = append(teams.Content, keyNode, &teamNode)
	return d.save()
}

// RemoveTeam deletes a team entry. A no-op, not an error, if the team does
// not exist.
func RemoveTeam(path, name string) error {
	d, err := openDocument(path)
	if err != nil {
		return err
	}
	root, err := d.documentRoot()
	if err != nil {
		return err
	}
	teams, err := teamsNode(root)
	if err != nil {
		return err
	}
	if !deleteMappingKey(teams, name) {
		return nil
	}
	return d.save()
}

// SetTeamField edits a single scalar field (by its yaml key, e.g.
// "skipPermissions") on an existing team without touching any other field,
// key, or comment in the document.
func SetTeamField(path, teamName, field, value string) error {
	d, err := openDocument(path)
	if err != nil {
		return err
	}
	root, err := d.documentRoot()
	if err != nil {
		return err
	}
	teams, err := teamsNode(root)
	if err != nil {
		return err
	}

	var teamNode *yaml.Node
	for i := 0; i+1 < len(teams.Content); i += 2 {
		if teams.Content[i].Value == teamName {
			teamNode = teams.Content[i+1]
			break
		}
	}
	if teamNode == nil {
		return fmt.Errorf("config: team %q not found", teamName)
	}

	fieldVal, err := mappingValue(teamNode, field, yaml.ScalarNode, "")
	if err != nil {
		return err
	}
	// Leave Tag empty so the encoder infers !!bool/!!int/!!str from the
	// value's shape on write, the same implicit typing plain YAML scalars
	// get when hand-written.
	fieldVal.Kind = yaml.ScalarNode
	fieldVal.Tag = ""
	fieldVal.Value = value
	fieldVal.Style = 0
	return d.save()
}
