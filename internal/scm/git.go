package scm

import (
	"fmt"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	berrors "github.com/berthrelease/berth/internal/errors"
)

// GitAdapter implements Adapter against a go-git repository.
type GitAdapter struct {
	repo       *git.Repository
	signerName string
	signerMail string
}

// Open opens the git repository rooted at workingDir.
func Open(workingDir string) (*GitAdapter, error) {
	if workingDir == "" {
		workingDir = "."
	}
	repo, err := git.PlainOpen(workingDir)
	if err != nil {
		return nil, berrors.NewAnalysisError(fmt.Sprintf("failed to open git repository at %s", workingDir), err)
	}

	a := &GitAdapter{repo: repo, signerName: "berth", signerMail: "berth@localhost"}
	if cfg, err := repo.Config(); err == nil {
		if cfg.User.Name != "" {
			a.signerName = cfg.User.Name
		}
		if cfg.User.Email != "" {
			a.signerMail = cfg.User.Email
		}
	}
	return a, nil
}

func (a *GitAdapter) ResolveSha(ref string) (string, error) {
	hash, err := a.repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return "", berrors.NewAnalysisError(fmt.Sprintf("failed to resolve ref %q", ref), err)
	}
	return hash.String(), nil
}

func (a *GitAdapter) commitTree(ref string) (*object.Commit, error) {
	hash, err := a.repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve ref %q: %w", ref, err)
	}
	commit, err := a.repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("failed to load commit %q: %w", ref, err)
	}
	return commit, nil
}

// DiffFiles returns every path that differs between base and head.
func (a *GitAdapter) DiffFiles(base, head string) ([]string, error) {
	baseCommit, err := a.commitTree(base)
	if err != nil {
		return nil, berrors.NewAnalysisError("failed to resolve diff base", err)
	}
	headCommit, err := a.commitTree(head)
	if err != nil {
		return nil, berrors.NewAnalysisError("failed to resolve diff head", err)
	}

	baseTree, err := baseCommit.Tree()
	if err != nil {
		return nil, berrors.NewAnalysisError("failed to load base tree", err)
	}
	headTree, err := headCommit.Tree()
	if err != nil {
		return nil, berrors.NewAnalysisError("failed to load head tree", err)
	}

	changes, err := baseTree.Diff(headTree)
	if err != nil {
		return nil, berrors.NewAnalysisError("failed to diff trees", err)
	}

	seen := make(map[string]bool)
	var paths []string
	for _, change := range changes {
		for _, path := range []string{change.From.Name, change.To.Name} {
			if path == "" || seen[path] {
				continue
			}
			seen[path] = true
			paths = append(paths, path)
		}
	}
	return paths, nil
}

// Log returns commit messages reachable from head but not from base,
// oldest first.
func (a *GitAdapter) Log(base, head string) ([]string, error) {
	baseHash, err := a.repo.ResolveRevision(plumbing.Revision(base))
	if err != nil {
		return nil, berrors.NewAnalysisError(fmt.Sprintf("failed to resolve base ref %q", base), err)
	}
	headHash, err := a.repo.ResolveRevision(plumbing.Revision(head))
	if err != nil {
		return nil, berrors.NewAnalysisError(fmt.Sprintf("failed to resolve head ref %q", head), err)
	}

	ancestors, err := a.ancestorSet(*baseHash)
	if err != nil {
		return nil, berrors.NewAnalysisError("failed to walk base ancestry", err)
	}

	var messages []string
	visited := make(map[plumbing.Hash]bool)
	var walk func(h plumbing.Hash) error
	walk = func(h plumbing.Hash) error {
		if visited[h] || ancestors[h] {
			return nil
		}
		visited[h] = true

		commit, err := a.repo.CommitObject(h)
		if err != nil {
			return err
		}
		for _, parent := range commit.ParentHashes {
			if err := walk(parent); err != nil {
				return err
			}
		}
		messages = append(messages, commit.Message)
		return nil
	}

	if err := walk(*headHash); err != nil {
		return nil, berrors.NewAnalysisError("failed to walk head ancestry", err)
	}
	return messages, nil
}

func (a *GitAdapter) ancestorSet(start plumbing.Hash) (map[plumbing.Hash]bool, error) {
	set := make(map[plumbing.Hash]bool)
	var walk func(h plumbing.Hash) error
	walk = func(h plumbing.Hash) error {
		if set[h] {
			return nil
		}
		set[h] = true
		commit, err := a.repo.CommitObject(h)
		if err != nil {
			return err
		}
		for _, parent := range commit.ParentHashes {
			if err := walk(parent); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(start); err != nil {
		return nil, err
	}
	return set, nil
}

func (a *GitAdapter) AddPaths(paths []string) error {
	worktree, err := a.repo.Worktree()
	if err != nil {
		return berrors.NewRecordError("failed to get worktree", err)
	}
	for _, path := range paths {
		if _, err := worktree.Add(path); err != nil {
			return berrors.NewRecordError(fmt.Sprintf("failed to stage path %s", path), err)
		}
	}
	return nil
}

func (a *GitAdapter) Commit(message string) (string, error) {
	worktree, err := a.repo.Worktree()
	if err != nil {
		return "", berrors.NewRecordError("failed to get worktree", err)
	}

	hash, err := worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  a.signerName,
			Email: a.signerMail,
			When:  time.Now(),
		},
	})
	if err != nil {
		return "", berrors.NewRecordError("failed to create commit", err)
	}
	return hash.String(), nil
}

func (a *GitAdapter) TagExists(name string) (string, bool, error) {
	ref, err := a.repo.Tag(name)
	if err != nil {
		if err == git.ErrTagNotFound {
			return "", false, nil
		}
		return "", false, berrors.NewRecordError(fmt.Sprintf("failed to look up tag %s", name), err)
	}

	// Resolve annotated tag objects to the commit they point at.
	if tagObj, err := a.repo.TagObject(ref.Hash()); err == nil {
		return tagObj.Target.String(), true, nil
	}
	return ref.Hash().String(), true, nil
}

func (a *GitAdapter) CreateAnnotatedTag(name, message string) error {
	head, err := a.repo.Head()
	if err != nil {
		return berrors.NewRecordError("failed to resolve HEAD for tagging", err)
	}

	existingSha, exists, err := a.TagExists(name)
	if err != nil {
		return err
	}
	if exists {
		if existingSha == head.Hash().String() {
			return nil
		}
		return berrors.NewRecordError(fmt.Sprintf("tag %s already exists pointing at a different commit", name), nil)
	}

	_, err = a.repo.CreateTag(name, head.Hash(), &git.CreateTagOptions{
		Tagger: &object.Signature{
			Name:  a.signerName,
			Email: a.signerMail,
			When:  time.Now(),
		},
		Message: message,
	})
	if err != nil {
		return berrors.NewRecordError(fmt.Sprintf("failed to create tag %s", name), err)
	}
	return nil
}

func (a *GitAdapter) Push(remote string, refs []string) error {
	remoteObj, err := a.repo.Remote(remote)
	if err != nil {
		return berrors.NewRecordError(fmt.Sprintf("failed to resolve remote %s", remote), err)
	}

	specs := make([]gitconfig.RefSpec, 0, len(refs))
	for _, ref := range refs {
		specs = append(specs, gitconfig.RefSpec(fmt.Sprintf("+%s:%s", ref, ref)))
	}

	err = remoteObj.Push(&git.PushOptions{RefSpecs: specs})
	if err != nil && err != git.NoErrAlreadyUpToDate {
		return berrors.NewRecordError(fmt.Sprintf("failed to push to %s", remote), err)
	}
	return nil
}
