package weight_inspect

import (
	"net/url"
	"time"
)

type (
	_ReadOptions struct {
		Debug           bool
		CachePath       string
		CacheExpiration time.Duration

		// Local.
		MMap bool

		// Remote.
		BearerAuthToken         string
		ProxyURL                *url.URL
		SkipProxy               bool
		SkipTLSVerification     bool
		SkipDNSCache            bool
		BufferSize              int
		SkipRangeDownloadDetect bool
		MaxSize                 uint64
	}
	ReadOption func(o *_ReadOptions)
)

// UseDebug uses debug mode to read the file,
// which logs the HTTP exchanges of remote reads.
func UseDebug() ReadOption {
	return func(o *_ReadOptions) {
		o.Debug = true
	}
}

// UseCache caches the parsed result under the given path,
// and reuses it until the expiration passes.
//
// Only remote reads consult the cache.
func UseCache(path string, exp time.Duration) ReadOption {
	return func(o *_ReadOptions) {
		o.CachePath = path
		o.CacheExpiration = exp
	}
}

// UseMMap uses mmap to read the local file.
func UseMMap() ReadOption {
	return func(o *_ReadOptions) {
		o.MMap = true
	}
}

// UseBearerAuth uses the given token as a bearer auth when reading from a remote URL.
func UseBearerAuth(token string) ReadOption {
	return func(o *_ReadOptions) {
		o.BearerAuthToken = token
	}
}

// UseProxy uses the given url as a proxy when reading from a remote URL.
func UseProxy(url *url.URL) ReadOption {
	return func(o *_ReadOptions) {
		o.ProxyURL = url
	}
}

// SkipProxy skips the proxy when reading from a remote URL.
func SkipProxy() ReadOption {
	return func(o *_ReadOptions) {
		o.SkipProxy = true
	}
}

// SkipTLSVerification skips the TLS verification when reading from a remote URL.
func SkipTLSVerification() ReadOption {
	return func(o *_ReadOptions) {
		o.SkipTLSVerification = true
	}
}

// SkipDNSCache skips the DNS cache when reading from a remote URL.
func SkipDNSCache() ReadOption {
	return func(o *_ReadOptions) {
		o.SkipDNSCache = true
	}
}

// UseBufferSize sets the buffer size when reading from a remote URL.
func UseBufferSize(size int) ReadOption {
	const minSize = 32 * 1024
	if size < minSize {
		size = minSize
	}
	return func(o *_ReadOptions) {
		o.BufferSize = size
	}
}

// SkipRangeDownloadDetection skips the range download detection when reading from a remote URL.
func SkipRangeDownloadDetection() ReadOption {
	return func(o *_ReadOptions) {
		o.SkipRangeDownloadDetect = true
	}
}

// UseMaxSize rejects a remote file whose content size exceeds the
// given number of bytes before any header bytes are fetched.
func UseMaxSize(size uint64) ReadOption {
	return func(o *_ReadOptions) {
		o.MaxSize = size
	}
}
