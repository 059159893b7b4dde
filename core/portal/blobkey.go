package portal

import (
	"math/rand/v2"
	"net/url"
	"path"
	"strconv"
	"strings"
)

// newBlobKey builds a storage key from the current time and a random suffix, keeping the file extension.
func newBlobKey(fileName string) string {
	key := strconv.FormatInt(NowFunc().UnixMilli(), 10) + "-" + strconv.FormatUint(rand.Uint64(), 36)
	if i := strings.LastIndex(fileName, "."); i >= 0 && i < len(fileName)-1 {
		key += "." + fileName[i+1:]
	}
	return key
}

// blobKeyFromURL returns the last path segment of a public blob URL.
func blobKeyFromURL(fileURL string) string {
	p := fileURL
	if u, err := url.Parse(fileURL); err == nil && u.Path != "" {
		p = u.Path
	}
	p = strings.TrimRight(p, "/")
	if p == "" {
		return ""
	}
	key := path.Base(p)
	if key == "." || key == "/" {
		return ""
	}
	if unescaped, err := url.PathUnescape(key); err == nil {
		return unescaped
	}
	return key
}
