package weight_inspect

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/weightops/weight-inspect-go/util/json"
	"github.com/weightops/weight-inspect-go/util/osx"
	"github.com/weightops/weight-inspect-go/util/stringx"
)

var (
	ErrArtifactCacheDisabled  = errors.New("artifact cache disabled")
	ErrArtifactCacheMissed    = errors.New("artifact cache missed")
	ErrArtifactCacheCorrupted = errors.New("artifact cache corrupted")
)

// ArtifactCache is a directory holding parsed Artifacts keyed by
// source URL, so that repeated remote inspections skip the network.
// The empty string disables it.
type ArtifactCache string

func (c ArtifactCache) getKeyPath(key string) string {
	k := stringx.SumByFNV64a(key)
	return filepath.Join(string(c), k[:1], k)
}

func (c ArtifactCache) Get(key string, exp time.Duration) (*Artifact, error) {
	if c == "" {
		return nil, ErrArtifactCacheDisabled
	}

	if key == "" {
		return nil, ErrArtifactCacheMissed
	}

	p := c.getKeyPath(key)
	if !osx.Exists(p, func(stat os.FileInfo) bool {
		if !stat.Mode().IsRegular() {
			return false
		}
		return exp == 0 || time.Since(stat.ModTime()) < exp
	}) {
		return nil, ErrArtifactCacheMissed
	}

	var af Artifact
	{
		bs, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("artifact cache get: %w", err)
		}
		if err = json.Unmarshal(bs, &af); err != nil {
			_ = os.Remove(p)
			return nil, ErrArtifactCacheCorrupted
		}

		// Empty metadata and tensors are legal, e.g. a GGUF whose
		// header sections are both zero-length, so a real entry is
		// told apart from junk by the presence of the format field.
		var env struct {
			Format *Format `json:"format"`
		}
		if err = json.Unmarshal(bs, &env); err != nil || env.Format == nil {
			_ = os.Remove(p)
			return nil, ErrArtifactCacheCorrupted
		}
	}

	return &af, nil
}

func (c ArtifactCache) Put(key string, af *Artifact) error {
	if c == "" {
		return ErrArtifactCacheDisabled
	}

	if key == "" || af == nil {
		return nil
	}

	bs, err := json.Marshal(af)
	if err != nil {
		return fmt.Errorf("artifact cache put: %w", err)
	}

	p := c.getKeyPath(key)
	if err = osx.WriteFile(p, bs, 0o600); err != nil {
		return fmt.Errorf("artifact cache put: %w", err)
	}
	return nil
}

func (c ArtifactCache) Delete(key string) error {
	if c == "" {
		return ErrArtifactCacheDisabled
	}

	if key == "" {
		return ErrArtifactCacheMissed
	}

	p := c.getKeyPath(key)
	if !osx.ExistsFile(p) {
		return ErrArtifactCacheMissed
	}

	if err := os.Remove(p); err != nil {
		return fmt.Errorf("artifact cache delete: %w", err)
	}
	return nil
}
