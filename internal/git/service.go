// Package git keeps the local copy of the analytics model repository in
// sync with its remote.
package git

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"

	"petalbrew/pkg/errors"
	"petalbrew/pkg/models"
)

// Service provides model repository operations
type Service struct {
	cacheDir string
}

// NewService creates a new git service
func NewService() *Service {
	return &Service{cacheDir: GetCacheDirectory()}
}

// GetCacheDirectory returns the default local directory for synced repos.
func GetCacheDirectory() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".petalbrew", "repos")
}

// LocalPath returns where a repository URL is synced to.
func (s *Service) LocalPath(gitURL string) string {
	name := strings.TrimSuffix(filepath.Base(gitURL), ".git")
	if name == "" || name == "." {
		name = "models"
	}
	return filepath.Join(s.cacheDir, name)
}

// Sync clones the configured model repository, or pulls if it already
// exists locally, and checks out the configured branch. Returns the local
// path. Network failures are retried with backoff.
func (s *Service) Sync(ctx context.Context, repo models.ModelRepo) (string, error) {
	if repo.GitURL == "" {
		return "", errors.New(errors.ErrCodeRepoNotFound, "no model repository configured").
			WithSuggestions("Set model_repo.git_url in the config, or run 'petalbrew setup'")
	}

	localPath := s.LocalPath(repo.GitURL)

	err := errors.RetryWithBackoff(ctx, func(ctx context.Context) error {
		if err := cloneOrPull(ctx, repo, localPath); err != nil {
			if strings.Contains(err.Error(), "connection") ||
				strings.Contains(err.Error(), "timeout") ||
				strings.Contains(err.Error(), "unreachable") {
				return errors.Wrap(err, errors.ErrCodeNetworkUnavailable,
					"network error while syncing model repository").
					WithContext("url", repo.GitURL).
					AsRecoverable()
			}
			if strings.Contains(err.Error(), "authentication") ||
				strings.Contains(err.Error(), "authorization") {
				return errors.Wrap(err, errors.ErrCodeRepoSyncFailed,
					"authentication failed for model repository").
					WithContext("url", repo.GitURL).
					WithSuggestions(
						"Check your Git credentials",
						"Set model_repo.auth_token or GIT_USERNAME/GIT_PASSWORD",
					)
			}
			return errors.Wrap(err, errors.ErrCodeRepoSyncFailed,
				"failed to sync model repository").
				WithContext("url", repo.GitURL)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return localPath, nil
}

func cloneOrPull(ctx context.Context, repo models.ModelRepo, localPath string) error {
	auth := authMethod(repo)

	if _, err := os.Stat(filepath.Join(localPath, ".git")); err == nil {
		existing, err := git.PlainOpen(localPath)
		if err != nil {
			return fmt.Errorf("failed to open existing repository: %w", err)
		}
		worktree, err := existing.Worktree()
		if err != nil {
			return fmt.Errorf("failed to get worktree: %w", err)
		}
		pullOpts := &git.PullOptions{RemoteName: "origin", Auth: auth}
		if repo.Branch != "" {
			pullOpts.ReferenceName = plumbing.NewBranchReferenceName(repo.Branch)
		}
		if err := worktree.PullContext(ctx, pullOpts); err != nil && err != git.NoErrAlreadyUpToDate {
			return fmt.Errorf("failed to pull updates: %w", err)
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	cloneOpts := &git.CloneOptions{URL: repo.GitURL, Auth: auth}
	if repo.Branch != "" {
		cloneOpts.ReferenceName = plumbing.NewBranchReferenceName(repo.Branch)
		cloneOpts.SingleBranch = true
	}
	if _, err := git.PlainCloneContext(ctx, localPath, false, cloneOpts); err != nil {
		return fmt.Errorf("failed to clone repository: %w", err)
	}
	return nil
}

// authMethod picks credentials for the repository URL: the configured token,
// then environment credentials, then the default SSH key.
func authMethod(repo models.ModelRepo) transport.AuthMethod {
	if strings.HasPrefix(repo.GitURL, "git@") || strings.HasPrefix(repo.GitURL, "ssh://") {
		sshKeyPath := filepath.Join(os.Getenv("HOME"), ".ssh", "id_rsa")
		if _, err := os.Stat(sshKeyPath); err == nil {
			if auth, err := ssh.NewPublicKeysFromFile("git", sshKeyPath, ""); err == nil {
				return auth
			}
		}
		return nil
	}

	if repo.AuthToken != "" {
		return &http.BasicAuth{Username: "token", Password: repo.AuthToken}
	}
	if username, password := os.Getenv("GIT_USERNAME"), os.Getenv("GIT_PASSWORD"); username != "" && password != "" {
		return &http.BasicAuth{Username: username, Password: password}
	}
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		return &http.BasicAuth{Username: "token", Password: token}
	}
	return nil
}
