package main

import (
	"bytes"
	"cmp"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/natefinch/atomic"
	"github.com/sugawarayuuta/sonnet"
	"gopkg.in/yaml.v3"
)

// snapshot is the on-disk form of a set: its keys in sorted order plus an
// identifier so two saves of the same content can be told apart.
type snapshot[K cmp.Ordered] struct {
	ID   string `json:"id"   yaml:"id"`
	Set  string `json:"set"  yaml:"set"`
	Kind string `json:"kind" yaml:"kind"`
	Keys []K    `json:"keys" yaml:"keys"`
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}

func encodeSnapshot[K cmp.Ordered](path string, snap snapshot[K]) ([]byte, error) {
	if isYAML(path) {
		return yaml.Marshal(snap)
	}
	data, err := sonnet.Marshal(snap)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func decodeSnapshot[K cmp.Ordered](path string, data []byte) (snapshot[K], error) {
	var snap snapshot[K]
	var err error
	if isYAML(path) {
		err = yaml.Unmarshal(data, &snap)
	} else {
		err = sonnet.Unmarshal(data, &snap)
	}
	return snap, err
}

func (r *REPL[K]) cmdSave(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: save <file>", errUsage)
	}
	path := args[0]
	keys := r.set.Keys()
	slices.Sort(keys)
	snap := snapshot[K]{
		ID:   uuid.NewString(),
		Set:  r.name,
		Kind: r.keys.kind,
		Keys: keys,
	}
	data, err := encodeSnapshot(path, snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	r.log.Debug("snapshot saved", "path", path, "id", snap.ID, "keys", len(keys))
	fmt.Fprintf(r.out, "saved %d keys to %s\n", len(keys), path)
	return nil
}

func (r *REPL[K]) cmdLoad(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: load <file>", errUsage)
	}
	path := args[0]
	data, err := os.ReadFile(path) //nolint:gosec // path is intentionally user-controlled
	if err != nil {
		return fmt.Errorf("reading snapshot: %w", err)
	}
	snap, err := decodeSnapshot[K](path, data)
	if err != nil {
		return fmt.Errorf("decoding snapshot %s: %w", path, err)
	}
	if snap.Kind != "" && snap.Kind != r.keys.kind {
		return fmt.Errorf("snapshot %s holds %s keys, set holds %s keys", path, snap.Kind, r.keys.kind)
	}
	r.set.Reserve(r.set.Len() + len(snap.Keys))
	n := r.set.InsertAll(snap.Keys...)
	r.log.Debug("snapshot loaded", "path", path, "id", snap.ID, "keys", len(snap.Keys), "added", n)
	fmt.Fprintf(r.out, "loaded %d keys, added %d\n", len(snap.Keys), n)
	return nil
}
