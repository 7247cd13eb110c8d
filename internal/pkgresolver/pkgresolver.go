// Package pkgresolver implements the default ports.PackageResolver: given a
// kit package name (e.g. "owner/hyper-kit-react"), it checks a local cache
// directory first and otherwise confirms the package exists as a GitHub
// repository so the caller can report a clear "not installed" error instead
// of a bare filesystem miss. Grounded in tsukumogami-tsuku's
// internal/version.Resolver: the same github.NewClient + oauth2 token
// source and hardened http.Client construction, narrowed to "does this kit
// exist" rather than full version/tag resolution.
package pkgresolver

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
)

// GitHubResolver is the default ports.PackageResolver.
type GitHubResolver struct {
	client    *github.Client
	cacheDirs []string
}

// Option configures a GitHubResolver.
type Option func(*GitHubResolver)

// WithCacheDirs overrides the directories searched for an already-installed
// kit, in priority order (first match wins).
func WithCacheDirs(dirs ...string) Option {
	return func(r *GitHubResolver) { r.cacheDirs = dirs }
}

// New builds the default resolver. If GITHUB_TOKEN is set, GitHub API
// requests are authenticated, same as the teacher's version.Resolver.
func New(opts ...Option) *GitHubResolver {
	httpClient := &http.Client{Timeout: 30 * time.Second, Transport: hardenedTransport()}
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
		httpClient = oauth2.NewClient(ctx, ts)
	}

	r := &GitHubResolver{
		client:    github.NewClient(httpClient),
		cacheDirs: defaultCacheDirs(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func defaultCacheDirs() []string {
	dirs := []string{filepath.Join(".hyper", "packages")}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".hyper", "packages"))
	}
	return dirs
}

// hardenedTransport mirrors the teacher's newHTTPClient: disabled
// compression (decompression-bomb hardening) and conservative timeouts.
// GitHub API calls here never follow a user-controlled redirect chain, so
// the full SSRF redirect-validation logic isn't needed, but the timeout and
// compression hardening still apply.
func hardenedTransport() *http.Transport {
	return &http.Transport{
		DisableCompression: true,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
	}
}

// LocalPathFor implements ports.PackageResolver. It first checks the cache
// directories for a directory named after the package's bare name (the
// part after any "@scope/" or "owner/" prefix); if absent, it confirms the
// package exists as a GitHub repository (owner/repo form) so callers can
// report "found upstream, not installed" distinctly from "no such package".
func (r *GitHubResolver) LocalPathFor(ctx context.Context, packageName string) (string, bool, error) {
	localName := bareName(packageName)
	for _, dir := range r.cacheDirs {
		candidate := filepath.Join(dir, localName)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate, true, nil
		}
	}

	owner, repo, ok := githubSlug(packageName)
	if !ok {
		return "", false, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_, _, err := r.client.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return "", false, nil
	}
	return "", false, fmt.Errorf("kit %q found on GitHub but not installed locally; expected it under one of: %v", packageName, r.cacheDirs)
}

// bareName strips an npm-style scope ("@hyper-kits/react" -> "react") so
// the cache lookup matches how kits are laid out on disk.
func bareName(packageName string) string {
	if idx := strings.LastIndex(packageName, "/"); idx != -1 {
		return packageName[idx+1:]
	}
	return packageName
}

// githubSlug interprets a package name as an "owner/repo" GitHub slug,
// stripping a leading "@" scope marker if present.
func githubSlug(packageName string) (owner, repo string, ok bool) {
	trimmed := strings.TrimPrefix(packageName, "@")
	parts := strings.Split(trimmed, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
