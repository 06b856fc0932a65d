package stream

import (
	"net/url"
	"path"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/MrSnakeDoc/clipsort/internal/domain"
)

// Schemes are the private URL schemes older UI builds used for previews.
// They are accepted as prefixes of the media path.
var Schemes = []string{"video", "local-video"}

// RoutePrefix is where the streamer is mounted.
const RoutePrefix = "/media/"

var driveLetter = regexp.MustCompile(`^([a-zA-Z])/`)

// URLFor returns the preview URL for an absolute filesystem path.
func URLFor(absPath string) string {
	return RoutePrefix + url.PathEscape(absPath)
}

// ResolvePath turns the percent-encoded tail of a media URL into an
// absolute filesystem path for the running platform.
func ResolvePath(raw string) (string, error) {
	p, err := resolvePath(raw, runtime.GOOS)
	if err != nil {
		return "", err
	}
	return filepath.FromSlash(p), nil
}

func resolvePath(raw, goos string) (string, error) {
	p, err := url.PathUnescape(raw)
	if err != nil {
		return "", domain.Validation("invalid media path: %v", err)
	}

	lower := strings.ToLower(p)
	for _, scheme := range Schemes {
		prefix := scheme + "://"
		if strings.HasPrefix(lower, prefix) {
			p = p[len(prefix):]
			break
		}
	}

	if goos == "windows" {
		p = strings.ReplaceAll(p, `\`, "/")
		p = strings.TrimLeft(p, "/")
		p = driveLetter.ReplaceAllString(p, "$1:/")
	} else {
		p = "/" + strings.TrimLeft(p, "/")
	}

	p = path.Clean(p)
	if p == "/" || p == "." {
		return "", domain.Validation("media path is empty")
	}
	return p, nil
}
