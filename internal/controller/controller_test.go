package controller_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/quantmind-br/remotetheme-go/internal/controller"
	"github.com/quantmind-br/remotetheme-go/internal/domain"
	"github.com/quantmind-br/remotetheme-go/internal/mocks"
	"github.com/quantmind-br/remotetheme-go/internal/testutil"
	"github.com/quantmind-br/remotetheme-go/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type fixture struct {
	ctrl      *controller.Controller
	fetcher   *mocks.MockArchiveFetcher
	extractor *mocks.MockExtractor
	tempDir   string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	mockCtrl := gomock.NewController(t)
	fetcher := mocks.NewMockArchiveFetcher(mockCtrl)
	extractor := mocks.NewMockExtractor(mockCtrl)
	fetcher.EXPECT().ArchiveURL(gomock.Any()).Return("https://codeload.github.com/acme/site-theme/zip/HEAD").AnyTimes()
	extractor.EXPECT().Name().Return("mock").AnyTimes()

	tempDir := testutil.TempDir(t)
	c, err := controller.New(controller.Options{
		Fetcher:   fetcher,
		Extractor: extractor,
		TempDir:   tempDir,
		Logger:    testutil.NewTestLogger(t),
	})
	require.NoError(t, err)

	return &fixture{ctrl: c, fetcher: fetcher, extractor: extractor, tempDir: tempDir}
}

func writeArchive(_ context.Context, _ *domain.ThemeReference, dst io.Writer) error {
	_, err := dst.Write([]byte("PK archive"))
	return err
}

// extractTo returns an Extract stub that lays out files relative to destDir
// and records the paths it was called with.
func extractTo(files map[string]string, gotArchive, gotDest *string) func(context.Context, string, string) error {
	return func(_ context.Context, archivePath, destDir string) error {
		if gotArchive != nil {
			*gotArchive = archivePath
		}
		if gotDest != nil {
			*gotDest = destDir
		}
		for rel, content := range files {
			path := filepath.Join(destDir, filepath.FromSlash(rel))
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return err
			}
			if err := os.WriteFile(path, []byte(content), 0644); err != nil {
				return err
			}
		}
		return nil
	}
}

func TestNew_RequiresCollaborators(t *testing.T) {
	mockCtrl := gomock.NewController(t)

	_, err := controller.New(controller.Options{Extractor: mocks.NewMockExtractor(mockCtrl)})
	assert.Error(t, err)

	_, err = controller.New(controller.Options{Fetcher: mocks.NewMockArchiveFetcher(mockCtrl)})
	assert.Error(t, err)
}

func TestRun_MixedCaseRoot(t *testing.T) {
	f := newFixture(t)
	ref := domain.NewThemeReference("acme", "mytheme", "main")

	var archivePath, destDir string
	f.fetcher.EXPECT().Fetch(gomock.Any(), ref, gomock.Any()).DoAndReturn(writeArchive)
	f.extractor.EXPECT().Extract(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(extractTo(map[string]string{"MyTheme-main/index.html": "hi"}, &archivePath, &destDir))

	require.NoError(t, f.ctrl.Run(context.Background(), ref))

	root := ref.Root()
	assert.Equal(t, filepath.Join(destDir, "MyTheme-main"), root)
	assert.Equal(t, "MyTheme-main", filepath.Base(root))

	canonical, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	assert.Equal(t, canonical, root)
	assert.True(t, filepath.IsAbs(root))

	assert.Equal(t, controller.StateComplete, f.ctrl.State(ref))
	assert.Equal(t, f.tempDir, filepath.Dir(destDir))
	assert.Contains(t, filepath.Base(destDir), controller.DefaultTempPrefix)
	assert.Equal(t, ".zip", filepath.Ext(archivePath))
	testutil.AssertNotExists(t, archivePath)
	testutil.AssertFileEquals(t, filepath.Join(root, "index.html"), "hi")
}

func TestRun_Idempotent(t *testing.T) {
	f := newFixture(t)
	ref := domain.NewThemeReference("acme", "site-theme", "")

	f.fetcher.EXPECT().Fetch(gomock.Any(), ref, gomock.Any()).DoAndReturn(writeArchive).Times(1)
	f.extractor.EXPECT().Extract(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(extractTo(map[string]string{"site-theme-HEAD/_config.yml": "x"}, nil, nil)).Times(1)

	require.NoError(t, f.ctrl.Run(context.Background(), ref))
	root := ref.Root()
	require.NotEmpty(t, root)

	require.NoError(t, f.ctrl.Run(context.Background(), ref))
	assert.Equal(t, root, ref.Root())
	assert.Equal(t, controller.StateComplete, f.ctrl.State(ref))
}

func TestRun_ExistingRootSkipsWork(t *testing.T) {
	f := newFixture(t)
	existing := testutil.TempDir(t)
	testutil.WriteFile(t, existing, "_layouts/default.html", "{{ content }}")

	ref := domain.NewThemeReference("acme", "site-theme", "v1")
	require.NoError(t, ref.SetRoot(existing))

	// no Fetch or Extract expectations: any call fails the test
	require.NoError(t, f.ctrl.Run(context.Background(), ref))
	assert.Equal(t, existing, ref.Root())
	assert.Equal(t, controller.StateComplete, f.ctrl.State(ref))
}

func TestRun_ExistingRootLogsAtDebug(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	existing := testutil.TempDir(t)
	testutil.WriteFile(t, existing, "index.html", "hi")

	newController := func(level string, buf *bytes.Buffer) *controller.Controller {
		c, err := controller.New(controller.Options{
			Fetcher:   mocks.NewMockArchiveFetcher(mockCtrl),
			Extractor: mocks.NewMockExtractor(mockCtrl),
			Logger:    utils.NewLogger(utils.LoggerOptions{Level: level, Format: "json", Output: buf}),
		})
		require.NoError(t, err)
		return c
	}

	for _, tt := range []struct {
		level  string
		logged bool
	}{
		{level: "info", logged: false},
		{level: "debug", logged: true},
	} {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			ref := domain.NewThemeReference("acme", "site-theme", "v1")
			require.NoError(t, ref.SetRoot(existing))

			require.NoError(t, newController(tt.level, &buf).Run(context.Background(), ref))
			assert.Equal(t, tt.logged, strings.Contains(buf.String(), "Using existing theme"))
		})
	}
}

func TestRun_ExtractionFailureLeavesRootUnset(t *testing.T) {
	f := newFixture(t)
	ref := domain.NewThemeReference("acme", "site-theme", "main")

	var archivePath, destDir string
	f.fetcher.EXPECT().Fetch(gomock.Any(), ref, gomock.Any()).DoAndReturn(writeArchive)
	f.extractor.EXPECT().Extract(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, a, d string) error {
			archivePath, destDir = a, d
			return &domain.ExecutionError{
				Kind:    domain.ExecNonZeroExit,
				Command: []string{"unzip", a, "-d", d},
				Code:    9,
				Stderr:  "cannot find zipfile directory",
			}
		})

	err := f.ctrl.Run(context.Background(), ref)
	require.Error(t, err)

	var themeErr *domain.ThemeError
	require.True(t, errors.As(err, &themeErr))
	assert.Equal(t, controller.StageExtract, themeErr.Stage)
	assert.Equal(t, "acme/site-theme", themeErr.Theme)

	var execErr *domain.ExecutionError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, domain.ExecNonZeroExit, execErr.Kind)
	assert.Equal(t, 9, execErr.Code)
	assert.Equal(t, "cannot find zipfile directory", execErr.Stderr)

	assert.Empty(t, ref.Root())
	assert.Equal(t, controller.StateFailed, f.ctrl.State(ref))
	assert.Equal(t, err, f.ctrl.Err(ref))
	testutil.AssertNotExists(t, archivePath)
	testutil.AssertNotExists(t, destDir)
}

func TestRun_DownloadTimeoutSkipsExtraction(t *testing.T) {
	f := newFixture(t)
	ref := domain.NewThemeReference("acme", "slow-theme", "")

	var archivePath string
	f.fetcher.EXPECT().Fetch(gomock.Any(), ref, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ *domain.ThemeReference, dst io.Writer) error {
			archivePath = dst.(*os.File).Name()
			return domain.NewTimeoutError("https://codeload.github.com/acme/slow-theme/zip/HEAD", context.DeadlineExceeded)
		})
	// Extract has no expectation and must not be called

	err := f.ctrl.Run(context.Background(), ref)
	require.Error(t, err)
	assert.True(t, domain.IsTimeout(err))

	var dlErr *domain.DownloadError
	require.True(t, errors.As(err, &dlErr))
	assert.Equal(t, domain.DownloadTimeout, dlErr.Kind)

	var themeErr *domain.ThemeError
	require.True(t, errors.As(err, &themeErr))
	assert.Equal(t, controller.StageFetch, themeErr.Stage)

	assert.Empty(t, ref.Root())
	assert.Equal(t, controller.StateFailed, f.ctrl.State(ref))
	testutil.AssertNotExists(t, archivePath)
}

func TestRun_HTTPStatusFailure(t *testing.T) {
	f := newFixture(t)
	ref := domain.NewThemeReference("acme", "missing", "")

	f.fetcher.EXPECT().Fetch(gomock.Any(), ref, gomock.Any()).
		Return(domain.NewHTTPStatusError("https://codeload.github.com/acme/missing/zip/HEAD", 404, "Not Found"))

	err := f.ctrl.Run(context.Background(), ref)

	var dlErr *domain.DownloadError
	require.True(t, errors.As(err, &dlErr))
	assert.Equal(t, 404, dlErr.Code)
	assert.Contains(t, err.Error(), "request failed with 404 Not Found")
	assert.Empty(t, ref.Root())
}

func TestRun_RootResolutionFailures(t *testing.T) {
	tests := []struct {
		name       string
		files      map[string]string
		wantReason domain.PathResolutionReason
		wantCount  int
	}{
		{name: "empty", files: nil, wantReason: domain.ReasonEmpty},
		{
			name:       "ambiguous",
			files:      map[string]string{"theme-a/x": "a", "theme-b/y": "b"},
			wantReason: domain.ReasonAmbiguous,
			wantCount:  2,
		},
		{
			name:       "not a directory",
			files:      map[string]string{"README.md": "readme"},
			wantReason: domain.ReasonNotDirectory,
			wantCount:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ref := domain.NewThemeReference("acme", "site-theme", "")

			f.fetcher.EXPECT().Fetch(gomock.Any(), ref, gomock.Any()).DoAndReturn(writeArchive)
			f.extractor.EXPECT().Extract(gomock.Any(), gomock.Any(), gomock.Any()).
				DoAndReturn(extractTo(tt.files, nil, nil))

			err := f.ctrl.Run(context.Background(), ref)
			require.Error(t, err)

			var pathErr *domain.PathResolutionError
			require.True(t, errors.As(err, &pathErr))
			assert.Equal(t, tt.wantReason, pathErr.Reason)
			assert.Len(t, pathErr.Entries, tt.wantCount)

			var themeErr *domain.ThemeError
			require.True(t, errors.As(err, &themeErr))
			assert.Equal(t, controller.StageResolve, themeErr.Stage)
			assert.Empty(t, ref.Root())
		})
	}
}

func TestRun_RetryAfterFailure(t *testing.T) {
	f := newFixture(t)
	ref := domain.NewThemeReference("acme", "site-theme", "")

	gomock.InOrder(
		f.fetcher.EXPECT().Fetch(gomock.Any(), ref, gomock.Any()).
			Return(domain.NewTransportError("https://codeload.github.com/acme/site-theme/zip/HEAD", "connection reset", nil)),
		f.fetcher.EXPECT().Fetch(gomock.Any(), ref, gomock.Any()).DoAndReturn(writeArchive),
	)
	f.extractor.EXPECT().Extract(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(extractTo(map[string]string{"site-theme-HEAD/index.html": "hi"}, nil, nil))

	require.Error(t, f.ctrl.Run(context.Background(), ref))
	assert.Equal(t, controller.StateFailed, f.ctrl.State(ref))

	require.NoError(t, f.ctrl.Run(context.Background(), ref))
	assert.Equal(t, controller.StateComplete, f.ctrl.State(ref))
	assert.NoError(t, f.ctrl.Err(ref))
}

func TestRun_ConcurrentSameReference(t *testing.T) {
	f := newFixture(t)
	ref := domain.NewThemeReference("acme", "site-theme", "")

	f.fetcher.EXPECT().Fetch(gomock.Any(), ref, gomock.Any()).DoAndReturn(writeArchive).Times(1)
	f.extractor.EXPECT().Extract(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(extractTo(map[string]string{"site-theme-HEAD/index.html": "hi"}, nil, nil)).Times(1)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = f.ctrl.Run(context.Background(), ref)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.NotEmpty(t, ref.Root())
}

func TestRun_DistinctReferencesUseSeparateSessions(t *testing.T) {
	f := newFixture(t)
	a := domain.NewThemeReference("acme", "site-theme", "v1")
	b := domain.NewThemeReference("acme", "site-theme", "v2")

	f.fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(writeArchive).Times(2)
	f.extractor.EXPECT().Extract(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(extractTo(map[string]string{"site-theme/index.html": "hi"}, nil, nil)).Times(2)

	require.NoError(t, f.ctrl.Run(context.Background(), a))
	require.NoError(t, f.ctrl.Run(context.Background(), b))
	assert.NotEqual(t, a.Root(), b.Root())
}

func TestForget(t *testing.T) {
	f := newFixture(t)
	ref := domain.NewThemeReference("acme", "site-theme", "")

	f.fetcher.EXPECT().Fetch(gomock.Any(), ref, gomock.Any()).DoAndReturn(writeArchive).Times(1)
	f.extractor.EXPECT().Extract(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(extractTo(map[string]string{"site-theme-HEAD/index.html": "hi"}, nil, nil)).Times(1)

	require.NoError(t, f.ctrl.Run(context.Background(), ref))
	root := ref.Root()

	assert.True(t, f.ctrl.Forget(ref))
	assert.Equal(t, controller.StateIdle, f.ctrl.State(ref))
	assert.True(t, f.ctrl.Forget(ref), "forgetting an unknown reference is a no-op")

	// the root is still on disk, so a new run reuses it without fetching
	require.NoError(t, f.ctrl.Run(context.Background(), ref))
	assert.Equal(t, root, ref.Root())
}

func TestForget_KeepsRunningReference(t *testing.T) {
	f := newFixture(t)
	ref := domain.NewThemeReference("acme", "site-theme", "")

	started := make(chan struct{})
	release := make(chan struct{})
	f.fetcher.EXPECT().Fetch(gomock.Any(), ref, gomock.Any()).
		DoAndReturn(func(ctx context.Context, r *domain.ThemeReference, dst io.Writer) error {
			close(started)
			<-release
			return writeArchive(ctx, r, dst)
		}).Times(1)
	f.extractor.EXPECT().Extract(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(extractTo(map[string]string{"site-theme-HEAD/index.html": "hi"}, nil, nil)).Times(1)

	done := make(chan error, 1)
	go func() { done <- f.ctrl.Run(context.Background(), ref) }()

	<-started
	assert.False(t, f.ctrl.Forget(ref))
	assert.Equal(t, controller.StateFetching, f.ctrl.State(ref))

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, controller.StateComplete, f.ctrl.State(ref))
	assert.True(t, f.ctrl.Forget(ref))
}

func TestState_UnknownReferenceIsIdle(t *testing.T) {
	f := newFixture(t)
	ref := domain.NewThemeReference("acme", "site-theme", "")

	assert.Equal(t, controller.StateIdle, f.ctrl.State(ref))
	assert.NoError(t, f.ctrl.Err(ref))
}

func TestResolveRoot(t *testing.T) {
	dir := testutil.TempDir(t)
	testutil.WriteFile(t, dir, "Theme-V2/index.html", "x")

	root, err := controller.ResolveRoot(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Theme-V2"), root)

	_, err = controller.ResolveRoot(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", controller.StateIdle.String())
	assert.Equal(t, "fetching", controller.StateFetching.String())
	assert.Equal(t, "extracting", controller.StateExtracting.String())
	assert.Equal(t, "resolving_root", controller.StateResolvingRoot.String())
	assert.Equal(t, "complete", controller.StateComplete.String())
	assert.Equal(t, "failed", controller.StateFailed.String())
	assert.Equal(t, "unknown", controller.State(99).String())
}
