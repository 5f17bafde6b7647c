package materialize

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/PentesterFlow/routescan/internal/errors"
)

// GitHubRepo extracts owner and repository from a github.com URL.
func GitHubRepo(locator string) (owner, repo string, ok bool) {
	u, err := url.Parse(locator)
	if err != nil {
		return "", "", false
	}
	host := strings.ToLower(u.Hostname())
	if host != "github.com" && host != "www.github.com" {
		return "", "", false
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], strings.TrimSuffix(parts[1], ".git"), true
}

// apiHeaders go on every archive request.
var apiHeaders = map[string]string{
	"Accept":               "application/vnd.github+json",
	"X-GitHub-Api-Version": "2022-11-28",
}

// TarballURL returns the API endpoint serving a gzip tarball of the repository.
func (m *Materializer) TarballURL(owner, repo, ref string) string {
	u := fmt.Sprintf("%s/repos/%s/%s/tarball",
		strings.TrimRight(m.cfg.APIBase, "/"), url.PathEscape(owner), url.PathEscape(repo))
	if ref != "" {
		u += "/" + url.PathEscape(ref)
	}
	return u
}

func (m *Materializer) fetchArchive(ctx context.Context, owner, repo string, creds *Credentials, dir string) error {
	target := m.TarballURL(owner, repo, creds.Ref)
	resp, err := m.client.GetWithRetry(ctx, target, map[string]string{
		"Authorization": "Bearer " + creds.Token,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	n, err := extractTarGz(resp.Body, dir)
	if err != nil {
		if ctx.Err() != nil {
			return errors.NewCancelledError(target, "extract")
		}
		return err
	}
	m.log.WithField("files", n).Debug("Extracted archive")
	return nil
}

// extractTarGz unpacks a gzip tarball into dest, dropping the leading path
// component every entry shares. Entries resolving outside dest are rejected;
// links are skipped. It returns the number of regular files written.
func extractTarGz(r io.Reader, dest string) (int, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return 0, errors.NewNetworkError(dest, "extract", fmt.Errorf("open gzip stream: %w", err))
	}
	defer gz.Close()

	root, err := filepath.Abs(dest)
	if err != nil {
		return 0, errors.NewFileSystemError(dest, "abs", err)
	}

	files := 0
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return files, nil
		}
		// ErrInsecurePath comes with a usable header; within rejects the entry.
		if err != nil && err != tar.ErrInsecurePath {
			return files, errors.NewNetworkError(dest, "extract", fmt.Errorf("read tar entry: %w", err))
		}

		rel := stripFirst(hdr.Name)
		if rel == "" {
			continue
		}
		target := filepath.Join(root, filepath.FromSlash(rel))
		if !within(root, target) {
			return files, errors.NewScanError(errors.FileSystem, hdr.Name, "extract", "archive entry escapes destination", nil)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return files, errors.NewFileSystemError(target, "mkdir", err)
			}
		case tar.TypeReg:
			if err := writeFile(target, tr, hdr.FileInfo().Mode().Perm()|0o600); err != nil {
				return files, err
			}
			files++
		}
	}
}

func stripFirst(name string) string {
	name = strings.TrimPrefix(name, "./")
	i := strings.IndexByte(name, '/')
	if i < 0 {
		return ""
	}
	return name[i+1:]
}

func within(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func writeFile(target string, r io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return errors.NewFileSystemError(target, "mkdir", err)
	}
	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return errors.NewFileSystemError(target, "create", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return errors.NewNetworkError(target, "extract", err)
	}
	if err := f.Close(); err != nil {
		return errors.NewFileSystemError(target, "close", err)
	}
	return nil
}
