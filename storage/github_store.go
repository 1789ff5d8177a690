package storage

import (
	"context"
	"os"

	"github.com/google/go-github/github"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"

	"github.com/gitpress/gitpress/model"
)

// GitHubStore keeps records as files in a GitHub repository, one commit per
// write, using the repository contents API. The file blob SHA doubles as the
// revision token.
type GitHubStore struct {
	client *github.Client
	owner  string
	repo   string
}

// NewGitHubStore builds a store for owner/repo authenticated by a personal
// access token.
func NewGitHubStore(owner string, repo string, token string) *GitHubStore {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(context.Background(), ts)
	return &GitHubStore{
		client: github.NewClient(tc),
		owner:  owner,
		repo:   repo,
	}
}

// NewGitHubStoreFromEnv reads GITHUB_OWNER, GITHUB_REPO and GITHUB_TOKEN.
// All three are required; the durable store is not optional infrastructure.
func NewGitHubStoreFromEnv() (*GitHubStore, error) {
	owner := os.Getenv("GITHUB_OWNER")
	repo := os.Getenv("GITHUB_REPO")
	token := os.Getenv("GITHUB_TOKEN")
	if owner == "" || repo == "" || token == "" {
		return nil, errors.New("GITHUB_OWNER, GITHUB_REPO and GITHUB_TOKEN must all be set")
	}
	return NewGitHubStore(owner, repo, token), nil
}

func isGitHubNotFound(resp *github.Response, err error) bool {
	if resp != nil && resp.StatusCode == 404 {
		return true
	}
	if errResp, ok := err.(*github.ErrorResponse); ok {
		return errResp.Response != nil && errResp.Response.StatusCode == 404
	}
	return false
}

func (s *GitHubStore) Read(ctx context.Context, path string) ([]byte, error) {
	file, _, resp, err := s.client.Repositories.GetContents(ctx, s.owner, s.repo, path, nil)
	if err != nil {
		if isGitHubNotFound(resp, err) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(err, "github read %s", path)
	}
	if file == nil {
		// path resolved to a directory
		return nil, ErrNotFound
	}
	content, err := file.GetContent()
	if err != nil {
		return nil, errors.Wrapf(err, "github decode %s", path)
	}
	return []byte(content), nil
}

func (s *GitHubStore) Write(ctx context.Context, path string, content []byte, message string, revisionToken string, author *model.Author) error {
	opts := &github.RepositoryContentFileOptions{
		Message: github.String(message),
		Content: content,
	}
	if author != nil {
		opts.Committer = &github.CommitAuthor{
			Name:  github.String(author.Name),
			Email: github.String(author.Email),
		}
	}

	var err error
	if revisionToken == "" {
		_, _, err = s.client.Repositories.CreateFile(ctx, s.owner, s.repo, path, opts)
	} else {
		opts.SHA = github.String(revisionToken)
		_, _, err = s.client.Repositories.UpdateFile(ctx, s.owner, s.repo, path, opts)
	}
	if err != nil {
		return errors.Wrapf(err, "github write %s", path)
	}
	return nil
}

func (s *GitHubStore) Delete(ctx context.Context, path string, revisionToken string, message string, author *model.Author) error {
	opts := &github.RepositoryContentFileOptions{
		Message: github.String(message),
		SHA:     github.String(revisionToken),
	}
	if author != nil {
		opts.Committer = &github.CommitAuthor{
			Name:  github.String(author.Name),
			Email: github.String(author.Email),
		}
	}
	_, resp, err := s.client.Repositories.DeleteFile(ctx, s.owner, s.repo, path, opts)
	if err != nil {
		if isGitHubNotFound(resp, err) {
			return ErrNotFound
		}
		return errors.Wrapf(err, "github delete %s", path)
	}
	return nil
}

func (s *GitHubStore) ListDirectory(ctx context.Context, path string) ([]Entry, error) {
	_, dir, resp, err := s.client.Repositories.GetContents(ctx, s.owner, s.repo, path, nil)
	if err != nil {
		if isGitHubNotFound(resp, err) {
			return []Entry{}, nil
		}
		return nil, errors.Wrapf(err, "github list %s", path)
	}
	entries := []Entry{}
	for _, item := range dir {
		if item.GetType() != "file" {
			continue
		}
		entries = append(entries, Entry{Name: item.GetName(), Path: item.GetPath()})
	}
	return entries, nil
}

func (s *GitHubStore) GetRevisionToken(ctx context.Context, path string) (string, error) {
	file, _, resp, err := s.client.Repositories.GetContents(ctx, s.owner, s.repo, path, nil)
	if err != nil {
		if isGitHubNotFound(resp, err) {
			return "", ErrNotFound
		}
		return "", errors.Wrapf(err, "github revision %s", path)
	}
	if file == nil {
		return "", ErrNotFound
	}
	return file.GetSHA(), nil
}
