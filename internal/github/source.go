package github

import (
	"context"
	"encoding/base64"
	"fmt"
	"path"
	"strings"

	"github.com/google/go-github/v81/github"
)

// RemoteFile is one markdown file pulled from the rules repository.
type RemoteFile struct {
	Path    string // Relative path within the base directory
	Content string // Full markdown content, frontmatter included
	SHA     string // Git blob SHA
	URL     string // Raw URL for provenance
}

// RuleSource lists and fetches markdown from one directory of a GitHub
// repository.
type RuleSource struct {
	client   *Client
	owner    string
	repo     string
	basePath string
}

// NewRuleSource creates a source rooted at owner/repo:basePath.
func NewRuleSource(client *Client, owner, repo, basePath string) *RuleSource {
	return &RuleSource{
		client:   client,
		owner:    owner,
		repo:     repo,
		basePath: basePath,
	}
}

// List returns the relative paths of all markdown files under the base
// path, recursively.
func (s *RuleSource) List(ctx context.Context) ([]string, error) {
	return s.listRecursive(ctx, s.basePath, "")
}

func (s *RuleSource) listRecursive(ctx context.Context, fullPath, relativePath string) ([]string, error) {
	var files []string

	_, dirContents, _, err := s.client.Repositories.GetContents(ctx, s.owner, s.repo, fullPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get contents of %s: %w", fullPath, err)
	}

	for _, item := range dirContents {
		if item.Type == nil || item.Name == nil {
			continue
		}

		itemRelPath := path.Join(relativePath, *item.Name)

		switch *item.Type {
		case "file":
			if strings.HasSuffix(*item.Name, ".md") {
				files = append(files, itemRelPath)
			}
		case "dir":
			itemFullPath := path.Join(fullPath, *item.Name)
			subFiles, err := s.listRecursive(ctx, itemFullPath, itemRelPath)
			if err != nil {
				return nil, err
			}
			files = append(files, subFiles...)
		}
	}

	return files, nil
}

// Fetch retrieves one markdown file by its relative path.
func (s *RuleSource) Fetch(ctx context.Context, relativePath string) (*RemoteFile, error) {
	fullPath := path.Join(s.basePath, relativePath)

	fileContent, _, _, err := s.client.Repositories.GetContents(ctx, s.owner, s.repo, fullPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get content of %s: %w", fullPath, err)
	}
	if fileContent == nil {
		return nil, fmt.Errorf("no file content returned for %s", fullPath)
	}

	content, err := base64.StdEncoding.DecodeString(*fileContent.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to decode content of %s: %w", fullPath, err)
	}

	rawURL := fmt.Sprintf("https://raw.githubusercontent.com/%s/%s/main/%s", s.owner, s.repo, fullPath)

	return &RemoteFile{
		Path:    relativePath,
		Content: string(content),
		SHA:     *fileContent.SHA,
		URL:     rawURL,
	}, nil
}

// LatestCommitSHA returns the SHA of the most recent commit touching the
// base path.
func (s *RuleSource) LatestCommitSHA(ctx context.Context) (string, error) {
	commits, _, err := s.client.Repositories.ListCommits(ctx, s.owner, s.repo, &github.CommitsListOptions{
		Path: s.basePath,
		ListOptions: github.ListOptions{
			PerPage: 1,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to get latest commit: %w", err)
	}
	if len(commits) == 0 {
		return "", fmt.Errorf("no commits found for path %s", s.basePath)
	}
	if commits[0].SHA == nil {
		return "", fmt.Errorf("commit SHA is nil")
	}

	return *commits[0].SHA, nil
}
