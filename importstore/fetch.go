package importstore

import (
	"context"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-getter"
	"go.uber.org/zap"

	"github.com/teranos/taxgraph/errors"
	"github.com/teranos/taxgraph/logger"
)

// Fetch resolves src to a local import store file. Local paths are returned
// as absolute paths without copying; anything go-getter can detect (http,
// s3, gcs, git, archives) is downloaded into dstDir.
func Fetch(ctx context.Context, src, dstDir string, log *zap.SugaredLogger) (string, error) {
	if log == nil {
		log = logger.Logger
	}
	log = log.Named("fetch")

	pwd, err := os.Getwd()
	if err != nil {
		pwd = "."
	}

	detected, err := getter.Detect(src, pwd, getter.Detectors)
	if err != nil {
		return "", errors.Wrapf(err, "detect source %s", src)
	}
	log.Debugw("go-getter detected source", "input", src, "detected", detected)

	u, err := url.Parse(detected)
	if err != nil {
		return "", errors.Wrapf(err, "parse detected source %s", detected)
	}
	if u.Scheme == "" || u.Scheme == "file" {
		local := src
		if u.Scheme == "file" {
			local = u.Path
		}
		if !filepath.IsAbs(local) {
			local = filepath.Join(pwd, local)
		}
		if _, err := os.Stat(local); err != nil {
			return "", errors.Wrapf(err, "import store %s", local)
		}
		return local, nil
	}

	if err := os.MkdirAll(dstDir, 0o750); err != nil {
		return "", errors.Wrapf(err, "create fetch dir %s", dstDir)
	}
	dst := filepath.Join(dstDir, fetchName(u))

	log.Infow("fetching import store", "source", detected, logger.FieldPath, dst)
	client := &getter.Client{
		Ctx:     ctx,
		Src:     detected,
		Dst:     dst,
		Pwd:     pwd,
		Mode:    getter.ClientModeFile,
		Getters: getter.Getters,
	}
	if err := client.Get(); err != nil {
		os.Remove(dst)
		return "", errors.Wrapf(err, "fetch %s", src)
	}
	log.Infow("fetch completed", logger.FieldPath, dst)
	return dst, nil
}

// fetchName picks a file name for a downloaded store.
func fetchName(u *url.URL) string {
	name := path.Base(strings.TrimSuffix(u.Path, "/"))
	if name == "" || name == "." || name == "/" {
		name = u.Host
	}
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		}
		return '_'
	}, name)
	if !strings.HasSuffix(name, ".db") {
		name += ".db"
	}
	return name
}
