package core_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	blobmemory "github.com/JonMunkholm/softjail/internal/blob/memory"
	"github.com/JonMunkholm/softjail/internal/config"
	"github.com/JonMunkholm/softjail/internal/core"
	"github.com/JonMunkholm/softjail/internal/metrics"
	"github.com/JonMunkholm/softjail/internal/store/memory"
)

// fakeClock is a settable clock for the blob store.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type serviceFixture struct {
	svc     *core.Service
	db      *memory.DB
	archive *blobmemory.Store
	metrics *metrics.Metrics
	clock   *fakeClock
}

func newServiceFixture(t *testing.T, cfg *config.Config) serviceFixture {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	db := memory.New()
	archive := blobmemory.NewWithClock(clock.Now)
	m := metrics.New(prometheus.NewRegistry())
	return serviceFixture{
		svc:     core.NewService(db, archive, m, cfg),
		db:      db,
		archive: archive,
		metrics: m,
		clock:   clock,
	}
}

func TestService_Import(t *testing.T) {
	f := newServiceFixture(t, nil)

	res, err := f.svc.Import(context.Background(), core.KindDepartments, fixtureDepartments)
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, core.KindDepartments, res.Kind)
	assert.Equal(t, "Imported Alpha with 2 cells\nImported Beta with 1 cells", res.Report)
	assert.Equal(t, 2, res.Accepted)
	assert.Equal(t, 0, res.Rejected)

	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.RecordsImported.WithLabelValues(core.KindDepartments, metrics.OutcomeAccepted)))
	assert.Equal(t, core.ImportLimiterStatus{Active: 0, Available: 5, MaxConcurrent: 5}, f.svc.ImportLimiterStatus())
}

func TestService_ImportArchivesPayloadAndReport(t *testing.T) {
	f := newServiceFixture(t, nil)
	ctx := context.Background()

	res, err := f.svc.Import(ctx, core.KindOfficers, `<Officers><Officer><Name>Ed</Name></Officer></Officers>`)
	require.NoError(t, err)
	assert.Equal(t, core.InvalidDataLine, res.Report)

	report, err := f.svc.ArchivedReport(ctx, core.KindOfficers, res.RunID)
	require.NoError(t, err)
	assert.Equal(t, res.Report, report)

	payload, err := f.svc.ArchivedPayload(ctx, core.KindOfficers, res.RunID)
	require.NoError(t, err)
	assert.Contains(t, payload, "<Name>Ed</Name>")

	infos, err := f.archive.List(ctx, "imports/officers/"+res.RunID+"/")
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "application/xml", infos[0].ContentType)
	assert.Equal(t, res.RunID, infos[0].Metadata["run-id"])
}

func TestService_ImportErrors(t *testing.T) {
	cfg := &config.Config{Import: config.ImportConfig{MaxPayloadSize: 16}}
	f := newServiceFixture(t, cfg)
	ctx := context.Background()

	_, err := f.svc.Import(ctx, "guards", `[]`)
	assert.ErrorIs(t, err, core.ErrUnknownKind)

	_, err = f.svc.Import(ctx, core.KindPrisoners, strings.Repeat(" ", 17))
	assert.ErrorIs(t, err, core.ErrPayloadTooLarge)

	_, err = f.svc.Import(ctx, core.KindPrisoners, `[{"FullName":`)
	assert.ErrorIs(t, err, core.ErrMalformedPayload)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ImportFailures.WithLabelValues(core.KindPrisoners)))

	infos, err := f.archive.List(ctx, "imports/")
	require.NoError(t, err)
	assert.Empty(t, infos, "failed imports are not archived")
}

func TestService_ImportWithoutArchive(t *testing.T) {
	svc := core.NewService(memory.New(), nil, nil, nil)
	ctx := context.Background()

	res, err := svc.Import(ctx, core.KindDepartments, `[]`)
	require.NoError(t, err)
	assert.Equal(t, "", res.Report)

	_, err = svc.ImportHistory(ctx, core.KindDepartments)
	assert.ErrorIs(t, err, core.ErrArchiveDisabled)
	_, err = svc.ArchivedReport(ctx, core.KindDepartments, res.RunID)
	assert.ErrorIs(t, err, core.ErrArchiveDisabled)
	_, err = svc.PurgeArchive(ctx, time.Now())
	assert.ErrorIs(t, err, core.ErrArchiveDisabled)
}

func TestService_ImportHistory(t *testing.T) {
	f := newServiceFixture(t, nil)
	ctx := context.Background()

	first, err := f.svc.Import(ctx, core.KindDepartments, fixtureDepartments)
	require.NoError(t, err)
	f.clock.Advance(time.Minute)
	second, err := f.svc.Import(ctx, core.KindDepartments, `[]`)
	require.NoError(t, err)
	_, err = f.svc.Import(ctx, core.KindPrisoners, `[]`)
	require.NoError(t, err)

	runs, err := f.svc.ImportHistory(ctx, core.KindDepartments)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second.RunID, runs[0].RunID, "newest first")
	assert.Equal(t, first.RunID, runs[1].RunID)
	assert.Equal(t, int64(len(first.Report)), runs[1].ReportSize)
	assert.Equal(t, "imports/departments/"+first.RunID+"/report.txt", runs[1].ReportKey)

	_, err = f.svc.ImportHistory(ctx, "guards")
	assert.ErrorIs(t, err, core.ErrUnknownKind)
}

func TestService_ArchivedReportNotFound(t *testing.T) {
	f := newServiceFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.ArchivedReport(ctx, core.KindPrisoners, "6f1c1c9e-0000-4000-8000-000000000000")
	assert.ErrorIs(t, err, core.ErrRunNotFound)

	_, err = f.svc.ArchivedReport(ctx, core.KindPrisoners, "../../etc/passwd")
	assert.ErrorIs(t, err, core.ErrRunNotFound)
}

func TestService_PurgeArchive(t *testing.T) {
	f := newServiceFixture(t, nil)
	ctx := context.Background()

	old, err := f.svc.Import(ctx, core.KindDepartments, `[]`)
	require.NoError(t, err)
	f.clock.Advance(48 * time.Hour)
	recent, err := f.svc.Import(ctx, core.KindDepartments, `[]`)
	require.NoError(t, err)

	purged, err := f.svc.PurgeArchive(ctx, f.clock.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, purged, "payload and report of the old run")
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.ArchivePurged))

	_, err = f.svc.ArchivedReport(ctx, core.KindDepartments, old.RunID)
	assert.ErrorIs(t, err, core.ErrRunNotFound)
	_, err = f.svc.ArchivedReport(ctx, core.KindDepartments, recent.RunID)
	assert.NoError(t, err)
}

func TestService_RetentionSchedulerStops(t *testing.T) {
	f := newServiceFixture(t, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		f.svc.StartRetentionScheduler(ctx, core.RetentionConfig{Retention: time.Hour, CheckInterval: 10 * time.Millisecond})
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}
}

func TestService_Exports(t *testing.T) {
	f := newServiceFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.Import(ctx, core.KindDepartments, fixtureDepartments)
	require.NoError(t, err)
	_, err = f.svc.Import(ctx, core.KindPrisoners, fixturePrisoners)
	require.NoError(t, err)
	_, err = f.svc.Import(ctx, core.KindOfficers, fixtureOfficers)
	require.NoError(t, err)

	out, err := f.svc.ExportByIDs(ctx, []int64{1})
	require.NoError(t, err)
	assert.Contains(t, out, `"TotalOfficerSalary": 150.01`)

	inbox, err := f.svc.ExportInbox(ctx, "Zed Zulu")
	require.NoError(t, err)
	assert.Contains(t, inbox, "<Description>olleh</Description>")

	xlsx, err := f.svc.ExportByIDsXLSX(ctx, []int64{1})
	require.NoError(t, err)
	assert.NotEmpty(t, xlsx)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Exports.WithLabelValues("json")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Exports.WithLabelValues("xml")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Exports.WithLabelValues("xlsx")))
}

func TestService_ConcurrentImportsUseSeparateSessions(t *testing.T) {
	f := newServiceFixture(t, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Import(ctx, core.KindPrisoners,
				`[{"FullName": "Parallel Prisoner", "Age": 20, "IncarcerationDate": "01/01/2020"}]`)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	require.NoError(t, f.svc.WaitForImports(ctx))

	got, err := f.db.Session().Prisoners(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 10)
}
