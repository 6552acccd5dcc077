package git

import (
	stderrors "errors"
	"net/url"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"git.home.luguber.info/inful/docpublisher/internal/foundation/errors"
)

// DefaultRemote is the remote whose URL identifies the repository.
const DefaultRemote = "origin"

// Info describes a local checkout.
type Info struct {
	// Repository is the normalized origin, e.g. "github.com/acme/handbook".
	Repository string
	// Commit is the HEAD commit hash, empty for a repository without commits.
	Commit string
}

// Inspect opens the repository containing dir (searching parent
// directories) and reads its origin and HEAD.
func Inspect(dir string) (Info, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return Info{}, errors.GitError("failed to open git repository").
			WithCause(err).
			WithContext("dir", dir).
			Build()
	}

	var info Info
	remote, err := repo.Remote(DefaultRemote)
	if err != nil {
		return Info{}, errors.ConfigError("repository has no origin remote; set repository in the config").
			WithCause(err).
			WithContext("dir", dir).
			Build()
	}
	if urls := remote.Config().URLs; len(urls) > 0 {
		info.Repository = NormalizeRemoteURL(urls[0])
	}
	if info.Repository == "" {
		return Info{}, errors.ConfigError("origin remote has no usable URL").WithContext("dir", dir).Build()
	}

	head, err := repo.Head()
	switch {
	case err == nil:
		info.Commit = head.Hash().String()
	case stderrors.Is(err, plumbing.ErrReferenceNotFound):
		// no commits yet
	default:
		return Info{}, errors.GitError("failed to resolve HEAD").WithCause(err).WithContext("dir", dir).Build()
	}
	return info, nil
}

// NormalizeRemoteURL reduces the common git URL forms to host/path without
// scheme, credentials, port or ".git" suffix. The host is lower-cased.
//
//	git@github.com:acme/docs.git        -> github.com/acme/docs
//	https://tok@github.com/acme/docs/   -> github.com/acme/docs
//	ssh://git@git.example.com:22/a/b    -> git.example.com/a/b
func NormalizeRemoteURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	var host, path string
	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil {
			return ""
		}
		host, path = u.Hostname(), u.Path
		if u.Scheme == "file" {
			host = ""
		}
	} else if at := strings.Index(raw, ":"); at > 0 && !strings.Contains(raw[:at], "/") {
		host, path = raw[:at], raw[at+1:]
		if i := strings.LastIndex(host, "@"); i >= 0 {
			host = host[i+1:]
		}
	} else {
		path = raw
	}

	path = strings.Trim(path, "/")
	path = strings.TrimSuffix(path, ".git")
	if host == "" {
		return path
	}
	if path == "" {
		return strings.ToLower(host)
	}
	return strings.ToLower(host) + "/" + path
}
