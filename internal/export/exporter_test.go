package export

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/metricsd/internal/history"
)

// staticProvider returns a canned document (or error) for every snapshot.
type staticProvider struct {
	body string
	err  error
}

func (p staticProvider) DefaultRegistry() prom.Registerer { return prom.NewRegistry() }
func (p staticProvider) ToJSON() (string, error)          { return p.body, p.err }

type recordingPublisher struct {
	subject string
	data    []byte
	err     error
}

func (r *recordingPublisher) Publish(subject string, data []byte) error {
	r.subject = subject
	r.data = data
	return r.err
}

func TestExportOnce_WritesSnapshotFile(t *testing.T) {
	dir := t.TempDir()
	exp, err := New(staticProvider{body: `{"ok":true}`}, "app", Options{
		Interval:  time.Minute,
		Directory: dir,
	}, nil, nil)
	require.NoError(t, err)

	snap, err := exp.ExportOnce(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, snap.ID)
	require.Equal(t, "app", snap.Registry)

	data, err := os.ReadFile(filepath.Join(dir, "app-"+snap.ID+".json"))
	require.NoError(t, err)
	require.Equal(t, `{"ok":true}`, string(data))
}

func TestExportOnce_PublishesToSubject(t *testing.T) {
	pub := &recordingPublisher{}
	exp, err := New(staticProvider{body: `{"ok":true}`}, "app", Options{
		Interval: time.Minute,
		Subject:  "metrics.snapshots",
	}, pub, nil)
	require.NoError(t, err)

	_, err = exp.ExportOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, "metrics.snapshots", pub.subject)
	require.Equal(t, `{"ok":true}`, string(pub.data))
}

func TestExportOnce_PublishFailureSurfaces(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("nats down")}
	exp, err := New(staticProvider{body: "{}"}, "app", Options{
		Interval: time.Minute,
		Subject:  "metrics.snapshots",
	}, pub, nil)
	require.NoError(t, err)

	_, err = exp.ExportOnce(context.Background())
	require.ErrorContains(t, err, "nats down")
}

func TestExportOnce_AppendsHistoryAndPrunes(t *testing.T) {
	store, err := history.Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	exp, err := New(staticProvider{body: "{}"}, "app", Options{
		Interval:     time.Minute,
		HistoryLimit: 2,
	}, nil, store)
	require.NoError(t, err)

	ctx := context.Background()
	var last history.Snapshot
	for range 5 {
		last, err = exp.ExportOnce(ctx)
		require.NoError(t, err)
	}

	snaps, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	require.Equal(t, last.ID, snaps[0].ID)
}

func TestExportOnce_ProviderFailure(t *testing.T) {
	exp, err := New(staticProvider{err: errors.New("gather broke")}, "app", Options{
		Interval: time.Minute,
	}, nil, nil)
	require.NoError(t, err)

	_, err = exp.ExportOnce(context.Background())
	require.ErrorContains(t, err, "gather broke")
}

func TestExporter_StartStop(t *testing.T) {
	exp, err := New(staticProvider{body: "{}"}, "app", Options{Interval: time.Hour}, nil, nil)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, exp.Start(ctx))
	require.NoError(t, exp.Stop(ctx))
}
