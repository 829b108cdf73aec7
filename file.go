package weight_inspect

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/weightops/weight-inspect-go/util/funcx"
	"github.com/weightops/weight-inspect-go/util/httpx"
	"github.com/weightops/weight-inspect-go/util/osx"
)

// DetectFormat sniffs the container format from the first bytes of a
// model file: the GGUF magic marks GGUF, a JSON object brace right
// after the 8-byte length prefix marks safetensors.
func DetectFormat(bs []byte) (Format, error) {
	if len(bs) >= 4 {
		switch GGUFMagic(binary.LittleEndian.Uint32(bs)) {
		case GGUFMagicGGUFLe, GGUFMagicGGUFBe, GGUFMagicGGML, GGUFMagicGGMF, GGUFMagicGGJT:
			return FormatGGUF, nil
		}
	}
	if len(bs) >= 9 && bs[8] == '{' {
		return FormatSafetensors, nil
	}
	return 0, fmt.Errorf("%w: unrecognized file prefix", ErrInvalidMagic)
}

// ParseBytes parses the header of a model file byte stream,
// detecting the container format from its leading bytes,
// and returns an Artifact, or an error if any.
func ParseBytes(bs []byte) (*Artifact, error) {
	fm, err := DetectFormat(bs)
	if err != nil {
		return nil, err
	}
	if fm == FormatGGUF {
		return ParseGGUF(bs)
	}
	return ParseSafetensors(bs)
}

func parseAuto(s int64, f io.ReadSeeker) (*Artifact, error) {
	p := make([]byte, 9)
	n, err := io.ReadFull(f, p)
	if err != nil && n < 4 {
		return nil, fmt.Errorf("read file prefix: %w", _EOFToTruncated(err))
	}
	fm, err := DetectFormat(p[:n])
	if err != nil {
		return nil, err
	}
	if _, err = f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek file start: %w", err)
	}
	if fm == FormatGGUF {
		return parseGGUF(s, f)
	}
	return parseSafetensors(s, f)
}

// ParseFile parses the header of a local model file,
// detecting the container format from its leading bytes,
// and returns an Artifact, or an error if any.
func ParseFile(path string, opts ...ReadOption) (*Artifact, error) {
	return parseFile(path, parseAuto, opts...)
}

// ParseGGUFFile parses the header of a local GGUF file,
// and returns an Artifact, or an error if any.
func ParseGGUFFile(path string, opts ...ReadOption) (*Artifact, error) {
	return parseFile(path, parseGGUF, opts...)
}

// ParseSafetensorsFile parses the header of a local safetensors file,
// and returns an Artifact, or an error if any.
func ParseSafetensorsFile(path string, opts ...ReadOption) (*Artifact, error) {
	return parseFile(path, parseSafetensors, opts...)
}

func parseFile(path string, parse func(int64, io.ReadSeeker) (*Artifact, error), opts ...ReadOption) (*Artifact, error) {
	var o _ReadOptions
	for _, opt := range opts {
		opt(&o)
	}

	var (
		f io.ReadSeeker
		s int64
	)
	if o.MMap {
		mf, err := osx.OpenMmapFile(path)
		if err != nil {
			return nil, fmt.Errorf("open mmap file: %w", err)
		}
		defer osx.Close(mf)
		f = io.NewSectionReader(mf, 0, mf.Len())
		s = mf.Len()
	} else {
		ff, err := osx.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open file: %w", err)
		}
		defer osx.Close(ff)
		f = ff
		s = funcx.MustNoError(ff.Stat()).Size()
	}

	return parse(s, f)
}

// ParseFileRemote parses the header of a remote model file,
// detecting the container format from its leading bytes,
// and returns an Artifact, or an error if any.
//
// Only the bytes the header requires travel over the network, the
// weight data section is never fetched.
func ParseFileRemote(ctx context.Context, url string, opts ...ReadOption) (*Artifact, error) {
	return parseFileRemote(ctx, url, parseAuto, opts...)
}

// ParseGGUFFileRemote parses the header of a remote GGUF file,
// and returns an Artifact, or an error if any.
func ParseGGUFFileRemote(ctx context.Context, url string, opts ...ReadOption) (*Artifact, error) {
	return parseFileRemote(ctx, url, parseGGUF, opts...)
}

// ParseSafetensorsFileRemote parses the header of a remote safetensors file,
// and returns an Artifact, or an error if any.
func ParseSafetensorsFileRemote(ctx context.Context, url string, opts ...ReadOption) (*Artifact, error) {
	return parseFileRemote(ctx, url, parseSafetensors, opts...)
}

// ParseGGUFFileFromHuggingFace parses the header of a GGUF file hosted
// on Hugging Face(https://huggingface.co/),
// and returns an Artifact, or an error if any.
func ParseGGUFFileFromHuggingFace(ctx context.Context, repo, file string, opts ...ReadOption) (*Artifact, error) {
	ep := osx.Getenv("HF_ENDPOINT", "https://huggingface.co")
	return ParseGGUFFileRemote(ctx, fmt.Sprintf("%s/%s/resolve/main/%s", ep, repo, file), opts...)
}

// ParseSafetensorsFileFromHuggingFace parses the header of a
// safetensors file hosted on Hugging Face(https://huggingface.co/),
// and returns an Artifact, or an error if any.
func ParseSafetensorsFileFromHuggingFace(ctx context.Context, repo, file string, opts ...ReadOption) (*Artifact, error) {
	ep := osx.Getenv("HF_ENDPOINT", "https://huggingface.co")
	return ParseSafetensorsFileRemote(ctx, fmt.Sprintf("%s/%s/resolve/main/%s", ep, repo, file), opts...)
}

// ParseFileFromModelScope parses the header of a model file hosted on
// Model Scope(https://modelscope.cn/),
// and returns an Artifact, or an error if any.
func ParseFileFromModelScope(ctx context.Context, repo, file string, opts ...ReadOption) (*Artifact, error) {
	ep := osx.Getenv("MS_ENDPOINT", "https://modelscope.cn")
	opts = append(opts[:len(opts):len(opts)], SkipRangeDownloadDetection())
	return ParseFileRemote(ctx, fmt.Sprintf("%s/models/%s/resolve/master/%s", ep, repo, file), opts...)
}

func parseFileRemote(ctx context.Context, url string, parse func(int64, io.ReadSeeker) (*Artifact, error), opts ...ReadOption) (af *Artifact, err error) {
	var o _ReadOptions
	for _, opt := range opts {
		opt(&o)
	}

	// Cache.
	{
		c := ArtifactCache("")
		if o.CachePath != "" {
			c = ArtifactCache(filepath.Join(o.CachePath, "remote"))
		}

		// Get from cache.
		if af, err = c.Get(url, o.CacheExpiration); err == nil {
			return af, nil
		}

		// Put to cache.
		defer func() {
			if err == nil {
				_ = c.Put(url, af)
			}
		}()
	}

	cli := httpx.Client(
		httpx.ClientOptions().
			WithUserAgent("weight-inspect-go").
			If(o.Debug,
				func(x *httpx.ClientOption) *httpx.ClientOption {
					return x.WithDebug()
				},
			).
			If(o.BearerAuthToken != "",
				func(x *httpx.ClientOption) *httpx.ClientOption {
					return x.WithBearerAuth(o.BearerAuthToken)
				},
			).
			WithTimeout(0).
			WithTransport(
				httpx.TransportOptions().
					WithoutKeepalive().
					TimeoutForDial(5*time.Second).
					TimeoutForTLSHandshake(5*time.Second).
					TimeoutForResponseHeader(5*time.Second).
					If(o.SkipProxy,
						func(x *httpx.TransportOption) *httpx.TransportOption {
							return x.WithoutProxy()
						},
					).
					If(o.ProxyURL != nil,
						func(x *httpx.TransportOption) *httpx.TransportOption {
							return x.WithProxy(http.ProxyURL(o.ProxyURL))
						},
					).
					If(o.SkipTLSVerification || !strings.HasPrefix(url, "https://"),
						func(x *httpx.TransportOption) *httpx.TransportOption {
							return x.WithoutInsecureVerify()
						},
					).
					If(o.SkipDNSCache,
						func(x *httpx.TransportOption) *httpx.TransportOption {
							return x.WithoutDNSCache()
						},
					),
			),
	)

	req, err := httpx.NewGetRequestWithContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}

	sf, err := httpx.OpenSeekerFile(cli, req,
		httpx.SeekerFileOptions().
			If(o.BufferSize > 0,
				func(x *httpx.SeekerFileOption) *httpx.SeekerFileOption {
					return x.WithBufferSize(o.BufferSize)
				},
			).
			If(o.SkipRangeDownloadDetect,
				func(x *httpx.SeekerFileOption) *httpx.SeekerFileOption {
					return x.WithoutRangeDownloadDetect()
				},
			))
	if err != nil {
		return nil, fmt.Errorf("open http file: %w", err)
	}
	defer osx.Close(sf)

	if o.MaxSize > 0 && uint64(sf.Len()) > o.MaxSize {
		return nil, fmt.Errorf("remote file is %d bytes, exceeds the %d bytes limit", sf.Len(), o.MaxSize)
	}

	return parse(sf.Len(), io.NewSectionReader(sf, 0, sf.Len()))
}
