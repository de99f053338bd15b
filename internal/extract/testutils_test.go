package extract

import (
	"context"
	"fmt"

	"github.com/mcpdir/ingest-server/internal/github"
)

// fakeFetcher is a github.Client test double serving canned content.
type fakeFetcher struct {
	descriptor *github.Descriptor
	files      map[string][]byte
	readme     string
	hasReadme  bool

	descriptorErr error
	fileErrs      map[string]error
	readmeErr     error

	fileCalls   []string
	readmeCalls int
}

var _ github.Client = (*fakeFetcher)(nil)

func (f *fakeFetcher) GetDescriptor(_ context.Context, owner, repo string) (*github.Descriptor, error) {
	if f.descriptorErr != nil {
		return nil, f.descriptorErr
	}
	if f.descriptor == nil {
		return nil, fmt.Errorf("%w: %s/%s", github.ErrRepoNotFound, owner, repo)
	}
	return f.descriptor, nil
}

func (f *fakeFetcher) GetFileContent(_ context.Context, _, _, path string) ([]byte, bool, error) {
	f.fileCalls = append(f.fileCalls, path)
	if err := f.fileErrs[path]; err != nil {
		return nil, false, err
	}
	data, ok := f.files[path]
	if !ok {
		return nil, false, nil
	}
	return data, true, nil
}

func (f *fakeFetcher) GetReadme(_ context.Context, _, _ string) (string, bool, error) {
	f.readmeCalls++
	if f.readmeErr != nil {
		return "", false, f.readmeErr
	}
	return f.readme, f.hasReadme, nil
}
