package assets

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yungbote/assets-backend/internal/data/aggregates"
	aggtestutil "github.com/yungbote/assets-backend/internal/data/aggregates/testutil"
	"github.com/yungbote/assets-backend/internal/data/repos"
	"github.com/yungbote/assets-backend/internal/data/repos/testutil"
	domain "github.com/yungbote/assets-backend/internal/domain/assets"
	"github.com/yungbote/assets-backend/internal/modules/assets/derive"
	"github.com/yungbote/assets-backend/internal/modules/assets/pathscheme"
	"github.com/yungbote/assets-backend/internal/platform/blobstore"
	"github.com/yungbote/assets-backend/internal/platform/imaging"
)

const testBaseURL = "http://assets.test"

var pinned = time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)

type fixture struct {
	svc   Service
	db    *gorm.DB
	root  string
	store blobstore.Store
}

type fixtureOpt struct {
	runner aggregates.TxRunner
	store  func(blobstore.Store) blobstore.Store
	cfg    func(*Config)
}

func newFixture(t *testing.T, opt fixtureOpt) *fixture {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	root := t.TempDir()
	local, err := blobstore.NewLocal(root)
	require.NoError(t, err)
	var store blobstore.Store = local
	if opt.store != nil {
		store = opt.store(local)
	}

	assetRepo := repos.NewAssetRepo(db, log)
	gallery := aggregates.NewAssetGalleryAggregate(aggregates.AssetGalleryAggregateDeps{
		Base:     aggregates.BaseDeps{DB: db, Log: log, Runner: opt.runner},
		Assets:   assetRepo,
		Versions: repos.NewAssetVersionRepo(db, log),
		Tags:     repos.NewAssetTagRepo(db, log),
		Logs:     repos.NewAssetLogRepo(db, log),
	})
	cfg := DefaultConfig(testBaseURL + "/")
	cfg.Clock = func() time.Time { return pinned }
	if opt.cfg != nil {
		opt.cfg(&cfg)
	}
	engine := derive.NewEngine(imaging.New(), cfg.Derive, log, nil)

	svc, err := NewService(log, assetRepo, gallery, store, engine, nil, cfg)
	require.NoError(t, err)
	return &fixture{svc: svc, db: db, root: root, store: store}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func imageUpload(t *testing.T, key domain.EntityKey, name string, isPrimary *bool) UploadInput {
	return UploadInput{
		Data:       pngBytes(t, 64, 48),
		FileName:   name,
		MimeType:   "image/png",
		EntityType: key.Type,
		EntityID:   key.ID,
		IsPrimary:  isPrimary,
	}
}

func (f *fixture) upload(t *testing.T, in UploadInput) AssetRecord {
	t.Helper()
	rec, err := f.svc.Upload(context.Background(), in)
	require.NoError(t, err)
	return rec
}

func (f *fixture) activePrimaries(t *testing.T, key domain.EntityKey) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&domain.Asset{}).
		Where("entity_type = ? AND entity_id = ? AND is_primary = ? AND status = ? AND deleted_at IS NULL",
			key.Type, key.ID, true, domain.StatusActive).
		Count(&n).Error)
	return n
}

func (f *fixture) files(t *testing.T) []string {
	t.Helper()
	var out []string
	err := filepath.WalkDir(f.root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			rel, _ := filepath.Rel(f.root, p)
			out = append(out, filepath.ToSlash(rel))
		}
		return nil
	})
	require.NoError(t, err)
	return out
}

func TestUploadImageStoresEveryRendition(t *testing.T) {
	f := newFixture(t, fixtureOpt{})
	key := testutil.NewEntity()

	in := imageUpload(t, key, "Café Déjà Vu #1.PNG", nil)
	in.Tags = []string{" Hero ", "Summer"}
	in.Description = "front view"
	rec := f.upload(t, in)

	require.Equal(t, domain.StatusActive, rec.Status)
	require.Equal(t, domain.FileImage, rec.FileType)
	require.True(t, rec.IsPrimary)
	require.Equal(t, 1, rec.DisplayOrder)
	require.Equal(t, []string{"hero", "summer"}, rec.Tags)
	require.Equal(t, "front view", rec.Description)
	require.Len(t, rec.Checksum, 64)

	// original + preview + thumbnail; medium is off by default
	require.Len(t, rec.Versions, 3)
	for _, v := range rec.Versions {
		require.NotNil(t, v.Width)
		require.NotNil(t, v.Height)
		require.Positive(t, *v.Width)
		require.Positive(t, *v.Height)
		require.Positive(t, v.FileSize)
	}

	want := testBaseURL + "/uploads/images/2024/03/05/" + rec.ID.String() + "/cafe-deja-vu-1-original.jpg"
	require.Equal(t, want, rec.URLs["original"])
	require.Equal(t, testBaseURL+"/uploads/images/2024/03/05/"+rec.ID.String()+"/cafe-deja-vu-1-thumbnail.jpg", rec.URLs["thumbnail"])

	files := f.files(t)
	require.Len(t, files, 3)
	for _, v := range rec.Versions {
		suffix := strings.TrimPrefix(v.URL, testBaseURL+"/uploads/")
		require.Contains(t, files, "upload/"+suffix)
	}
}

func TestUploadThumbnailIsCoverCropped(t *testing.T) {
	f := newFixture(t, fixtureOpt{})
	in := imageUpload(t, testutil.NewEntity(), "wide.png", nil)
	in.Data = pngBytes(t, 900, 300)
	rec := f.upload(t, in)

	sizes := map[domain.VersionKind][2]int{}
	for _, v := range rec.Versions {
		sizes[v.VersionType] = [2]int{*v.Width, *v.Height}
	}
	require.Equal(t, [2]int{900, 300}, sizes[domain.VersionOriginal])
	require.Equal(t, [2]int{800, 267}, sizes[domain.VersionPreview])
	require.Equal(t, [2]int{200, 200}, sizes[domain.VersionThumbnail])
}

func TestUploadDocumentKeepsOriginalOnly(t *testing.T) {
	f := newFixture(t, fixtureOpt{})
	key := testutil.NewEntity()

	rec := f.upload(t, UploadInput{
		Data:       []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n"),
		FileName:   "Report Q1.PDF",
		MimeType:   "application/pdf",
		EntityType: key.Type,
		EntityID:   key.ID,
	})
	require.Equal(t, domain.FileDocument, rec.FileType)
	require.False(t, rec.IsPrimary)
	require.Equal(t, 0, rec.DisplayOrder)
	require.Len(t, rec.Versions, 1)
	require.Equal(t, "report-q1-original.pdf", rec.Versions[0].FileName)
	require.Nil(t, rec.Versions[0].Width)
	require.Equal(t, testBaseURL+"/uploads/documents/2024/03/05/"+rec.ID.String()+"/report-q1-original.pdf", rec.URLs["original"])
}

func TestUploadAutoPrimaryOnlyForFirstImage(t *testing.T) {
	f := newFixture(t, fixtureOpt{})
	key := testutil.NewEntity()

	first := f.upload(t, imageUpload(t, key, "a.png", nil))
	second := f.upload(t, imageUpload(t, key, "b.png", nil))

	require.True(t, first.IsPrimary)
	require.False(t, second.IsPrimary)
	require.Equal(t, 2, second.DisplayOrder)

	again, err := f.svc.FindOne(context.Background(), first.ID)
	require.NoError(t, err)
	require.True(t, again.IsPrimary)
	require.EqualValues(t, 1, f.activePrimaries(t, key))

	third := f.upload(t, imageUpload(t, key, "c.png", testutil.PtrBool(true)))
	require.True(t, third.IsPrimary)
	require.EqualValues(t, 1, f.activePrimaries(t, key))
}

func TestUploadRejections(t *testing.T) {
	f := newFixture(t, fixtureOpt{})
	key := testutil.NewEntity()

	cases := []struct {
		name string
		in   UploadInput
		kind Kind
	}{
		{
			name: "no file",
			in:   UploadInput{FileName: "a.png", MimeType: "image/png", EntityType: key.Type, EntityID: key.ID},
			kind: KindValidation,
		},
		{
			name: "unknown mime",
			in:   UploadInput{Data: []byte("MZ"), FileName: "a.exe", MimeType: "application/x-msdownload", EntityType: key.Type, EntityID: key.ID},
			kind: KindUnsupportedFileType,
		},
		{
			name: "extension disagrees with mime",
			in:   UploadInput{Data: []byte("x"), FileName: "a.pdf", MimeType: "image/png", EntityType: key.Type, EntityID: key.ID},
			kind: KindUnsupportedFileType,
		},
		{
			name: "image over limit",
			in:   UploadInput{Data: make([]byte, 2<<20+1), FileName: "a.png", MimeType: "image/png", EntityType: key.Type, EntityID: key.ID},
			kind: KindValidation,
		},
		{
			name: "bad entity type",
			in:   UploadInput{Data: []byte("x"), FileName: "a.png", MimeType: "image/png", EntityType: "SPACESHIP", EntityID: key.ID},
			kind: KindValidation,
		},
		{
			name: "zero display order",
			in:   UploadInput{Data: []byte("x"), FileName: "a.png", MimeType: "image/png", EntityType: key.Type, EntityID: key.ID, DisplayOrder: testutil.PtrInt(0)},
			kind: KindValidation,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Upload(context.Background(), tc.in)
			require.Error(t, err)
			require.Equal(t, tc.kind, KindOf(err))
		})
	}
	require.Empty(t, f.files(t))
}

func TestUploadSignatureCheck(t *testing.T) {
	f := newFixture(t, fixtureOpt{cfg: func(c *Config) { c.VerifySignature = true }})
	key := testutil.NewEntity()

	_, err := f.svc.Upload(context.Background(), UploadInput{
		Data:       []byte("%PDF-1.4 pretending to be a picture"),
		FileName:   "a.png",
		MimeType:   "image/png",
		EntityType: key.Type,
		EntityID:   key.ID,
	})
	require.True(t, IsKind(err, KindUnsupportedFileType), "got %v", err)

	f.upload(t, imageUpload(t, key, "real.png", nil))
}

func TestUploadUndecodableImageLeavesNothing(t *testing.T) {
	f := newFixture(t, fixtureOpt{})
	key := testutil.NewEntity()

	_, err := f.svc.Upload(context.Background(), UploadInput{
		Data:       []byte("definitely not a png"),
		FileName:   "broken.png",
		MimeType:   "image/png",
		EntityType: key.Type,
		EntityID:   key.ID,
	})
	require.Equal(t, KindStorage, KindOf(err))
	require.Empty(t, f.files(t))

	res, err := f.svc.FindAll(context.Background(), Query{EntityType: key.Type, EntityID: key.ID, Status: domain.StatusProcessing})
	require.NoError(t, err)
	require.Zero(t, res.Total)
}

func TestUploadCommitFailureRemovesStagedFiles(t *testing.T) {
	runner := &aggtestutil.InjectedTxRunner{FailCommit: errors.New("connection reset")}
	f := newFixture(t, fixtureOpt{runner: runner})
	runner.Inner = aggregates.NewGormTxRunner(f.db)
	key := testutil.NewEntity()

	_, err := f.svc.Upload(context.Background(), imageUpload(t, key, "a.png", nil))
	require.Equal(t, KindStorage, KindOf(err))
	require.Empty(t, f.files(t))

	var n int64
	require.NoError(t, f.db.Model(&domain.Asset{}).Where("entity_id = ?", key.ID).Count(&n).Error)
	require.Zero(t, n)
}

type stuckPrefixStore struct {
	blobstore.Store
}

func (s stuckPrefixStore) DeletePrefix(context.Context, string) error {
	return errors.New("permission denied")
}

func TestUploadReportsIntegrityGapWhenCleanupFails(t *testing.T) {
	runner := &aggtestutil.InjectedTxRunner{FailCommit: errors.New("connection reset")}
	f := newFixture(t, fixtureOpt{
		runner: runner,
		store:  func(s blobstore.Store) blobstore.Store { return stuckPrefixStore{s} },
	})
	runner.Inner = aggregates.NewGormTxRunner(f.db)

	_, err := f.svc.Upload(context.Background(), imageUpload(t, testutil.NewEntity(), "a.png", nil))
	require.Equal(t, KindIntegrityGap, KindOf(err))
	require.NotEmpty(t, f.files(t))
}

// shortWriteStore accepts one Put and fails every later one.
type shortWriteStore struct {
	blobstore.Store
	puts       *atomic.Int32
	stuckPurge bool
}

func (s shortWriteStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if s.puts.Add(1) > 1 {
		return errors.New("no space left on device")
	}
	return s.Store.Put(ctx, key, r, size, contentType)
}

func (s shortWriteStore) DeletePrefix(ctx context.Context, prefix string) error {
	if s.stuckPurge {
		return errors.New("permission denied")
	}
	return s.Store.DeletePrefix(ctx, prefix)
}

func TestUploadStagingFailure(t *testing.T) {
	cases := []struct {
		name       string
		stuckPurge bool
		want       Kind
		files      int
	}{
		{name: "cleanup succeeds", want: KindStorage, files: 0},
		{name: "cleanup fails", stuckPurge: true, want: KindIntegrityGap, files: 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, fixtureOpt{
				store: func(s blobstore.Store) blobstore.Store {
					return shortWriteStore{Store: s, puts: new(atomic.Int32), stuckPurge: tc.stuckPurge}
				},
			})
			key := testutil.NewEntity()

			_, err := f.svc.Upload(context.Background(), imageUpload(t, key, "a.png", nil))
			require.Equal(t, tc.want, KindOf(err))
			require.Len(t, f.files(t), tc.files)

			var n int64
			require.NoError(t, f.db.Model(&domain.Asset{}).Where("entity_id = ?", key.ID).Count(&n).Error)
			require.Zero(t, n)
		})
	}
}

func TestSeedBasePathMatchesPathScheme(t *testing.T) {
	id := uuid.New()
	for _, ft := range []domain.FileType{domain.FileImage, domain.FileDocument, domain.FileSpreadsheet} {
		require.Equal(t, pathscheme.BuildBasePath(ft, id, pinned), testutil.SeedBasePath(ft, id, pinned))
	}
	seeded := testutil.SeedAsset(t, context.Background(), testutil.DB(t), testutil.NewEntity(), testutil.WithUploadedAt(pinned))
	_, err := pathscheme.Parse(seeded.BasePath)
	require.NoError(t, err)
}

func TestFindAllDefaultsAndPaging(t *testing.T) {
	f := newFixture(t, fixtureOpt{})
	key := testutil.NewEntity()
	for i := 0; i < 3; i++ {
		f.upload(t, imageUpload(t, key, "p.png", nil))
	}

	res, err := f.svc.FindAll(context.Background(), Query{EntityType: key.Type, EntityID: key.ID, Limit: 2})
	require.NoError(t, err)
	require.EqualValues(t, 3, res.Total)
	require.Len(t, res.Data, 2)
	require.Equal(t, 1, res.Page)
	require.Equal(t, 2, res.Limit)

	res, err = f.svc.FindAll(context.Background(), Query{EntityID: key.ID, Page: 2, Limit: 2})
	require.NoError(t, err)
	require.Len(t, res.Data, 1)

	res, err = f.svc.FindAll(context.Background(), Query{EntityID: key.ID, Limit: 1000})
	require.NoError(t, err)
	require.Equal(t, MaxLimit, res.Limit)

	_, err = f.svc.FindAll(context.Background(), Query{Status: "GONE"})
	require.Equal(t, KindValidation, KindOf(err))
}

func TestDeleteHidesFromListButNotFromFindOne(t *testing.T) {
	f := newFixture(t, fixtureOpt{})
	ctx := context.Background()
	key := testutil.NewEntity()
	a := f.upload(t, imageUpload(t, key, "a.png", nil))
	b := f.upload(t, imageUpload(t, key, "b.png", nil))

	out, err := f.svc.Delete(ctx, a.ID, Audit{IPAddress: "10.0.0.1"})
	require.NoError(t, err)
	require.Equal(t, Outcome{Success: true, Message: "Asset marked as deleted"}, out)

	list, err := f.svc.FindAll(ctx, Query{EntityType: key.Type, EntityID: key.ID})
	require.NoError(t, err)
	require.EqualValues(t, 1, list.Total)
	require.Equal(t, b.ID, list.Data[0].ID)

	got, err := f.svc.FindOne(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusDeleted, got.Status)
	require.NotNil(t, got.DeletedAt)
	require.True(t, pinned.Equal(*got.DeletedAt), "deleted_at follows the service clock: %v", got.DeletedAt)
	require.False(t, got.IsPrimary)

	_, err = f.svc.Delete(ctx, a.ID, Audit{})
	require.NoError(t, err)
	again, err := f.svc.FindOne(ctx, a.ID)
	require.NoError(t, err)
	require.True(t, got.DeletedAt.Equal(*again.DeletedAt))

	_, err = f.svc.Delete(ctx, uuid.New(), Audit{})
	require.Equal(t, KindNotFound, KindOf(err))
	_, err = f.svc.FindOne(ctx, uuid.New())
	require.Equal(t, KindNotFound, KindOf(err))
	require.LessOrEqual(t, f.activePrimaries(t, key), int64(1))
}

func TestGalleryCapsAtSeven(t *testing.T) {
	f := newFixture(t, fixtureOpt{})
	key := testutil.NewEntity()
	for i := 0; i < 10; i++ {
		f.upload(t, imageUpload(t, key, "g.png", nil))
	}
	f.upload(t, UploadInput{
		Data: []byte("a,b\n1,2\n"), FileName: "sheet.csv", MimeType: "text/csv",
		EntityType: key.Type, EntityID: key.ID,
	})

	g, err := f.svc.GetEntityGallery(context.Background(), key.Type, key.ID)
	require.NoError(t, err)
	require.EqualValues(t, 10, g.TotalImages)
	require.Len(t, g.Images, 7)
	require.True(t, g.Images[0].IsPrimary)
	for i, img := range g.Images {
		require.Equal(t, i+1, img.DisplayOrder)
		require.NotEmpty(t, img.URLs["thumbnail"])
	}
}

func TestReorderThenGalleryOrder(t *testing.T) {
	f := newFixture(t, fixtureOpt{})
	ctx := context.Background()
	key := testutil.NewEntity()
	no := testutil.PtrBool(false)
	a := f.upload(t, imageUpload(t, key, "a.png", no))
	b := f.upload(t, imageUpload(t, key, "b.png", no))
	c := f.upload(t, imageUpload(t, key, "c.png", no))

	out, err := f.svc.ReorderImages(ctx, ReorderInput{
		EntityType: key.Type,
		EntityID:   key.ID,
		AssetIDs:   []uuid.UUID{c.ID, a.ID, b.ID},
	})
	require.NoError(t, err)
	require.True(t, out.Success)

	orders := map[uuid.UUID]int{}
	for _, id := range []uuid.UUID{a.ID, b.ID, c.ID} {
		rec, err := f.svc.FindOne(ctx, id)
		require.NoError(t, err)
		orders[id] = rec.DisplayOrder
	}
	require.Equal(t, map[uuid.UUID]int{a.ID: 2, b.ID: 3, c.ID: 1}, orders)

	g, err := f.svc.GetEntityGallery(ctx, key.Type, key.ID)
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{c.ID, a.ID, b.ID}, []uuid.UUID{g.Images[0].ID, g.Images[1].ID, g.Images[2].ID})

	_, err = f.svc.SetPrimaryImage(ctx, SetPrimaryInput{EntityType: key.Type, EntityID: key.ID, AssetID: b.ID, DisplayOrder: testutil.PtrInt(3)})
	require.NoError(t, err)
	g, err = f.svc.GetEntityGallery(ctx, key.Type, key.ID)
	require.NoError(t, err)
	require.Equal(t, b.ID, g.Images[0].ID)
	require.EqualValues(t, 1, f.activePrimaries(t, key))
}

func TestReorderRejectsForeignIDs(t *testing.T) {
	f := newFixture(t, fixtureOpt{})
	key := testutil.NewEntity()
	other := testutil.NewEntity()
	a := f.upload(t, imageUpload(t, key, "a.png", nil))
	x := f.upload(t, imageUpload(t, other, "x.png", nil))

	_, err := f.svc.ReorderImages(context.Background(), ReorderInput{
		EntityType: key.Type,
		EntityID:   key.ID,
		AssetIDs:   []uuid.UUID{a.ID, x.ID},
	})
	require.Equal(t, KindConflict, KindOf(err))

	_, err = f.svc.ReorderImages(context.Background(), ReorderInput{EntityType: key.Type, EntityID: key.ID})
	require.Equal(t, KindValidation, KindOf(err))
}

func TestSetPrimaryImage(t *testing.T) {
	f := newFixture(t, fixtureOpt{})
	ctx := context.Background()
	key := testutil.NewEntity()
	a := f.upload(t, imageUpload(t, key, "a.png", nil))
	b := f.upload(t, imageUpload(t, key, "b.png", nil))

	out, err := f.svc.SetPrimaryImage(ctx, SetPrimaryInput{EntityType: key.Type, EntityID: key.ID, AssetID: b.ID})
	require.NoError(t, err)
	require.Equal(t, "Primary image updated", out.Message)

	got, err := f.svc.FindOne(ctx, b.ID)
	require.NoError(t, err)
	require.True(t, got.IsPrimary)
	require.Equal(t, 1, got.DisplayOrder)
	prev, err := f.svc.FindOne(ctx, a.ID)
	require.NoError(t, err)
	require.False(t, prev.IsPrimary)
	require.NotEqual(t, 1, prev.DisplayOrder)
	require.EqualValues(t, 1, f.activePrimaries(t, key))

	_, err = f.svc.SetPrimaryImage(ctx, SetPrimaryInput{EntityType: key.Type, EntityID: key.ID, AssetID: uuid.New()})
	require.Equal(t, KindNotFound, KindOf(err))

	wrong := testutil.NewEntity()
	_, err = f.svc.SetPrimaryImage(ctx, SetPrimaryInput{EntityType: wrong.Type, EntityID: wrong.ID, AssetID: a.ID})
	require.Equal(t, KindNotFound, KindOf(err))
}

func TestArchiveAndRestore(t *testing.T) {
	f := newFixture(t, fixtureOpt{})
	ctx := context.Background()
	key := testutil.NewEntity()
	a := f.upload(t, imageUpload(t, key, "a.png", nil))
	b := f.upload(t, imageUpload(t, key, "b.png", nil))

	archived, err := f.svc.Archive(ctx, a.ID, Audit{})
	require.NoError(t, err)
	require.Equal(t, domain.StatusArchived, archived.Status)
	require.False(t, archived.IsPrimary)
	require.Zero(t, f.activePrimaries(t, key))

	restored, err := f.svc.Restore(ctx, a.ID, Audit{})
	require.NoError(t, err)
	require.Equal(t, domain.StatusActive, restored.Status)
	require.False(t, restored.IsPrimary)
	require.Greater(t, restored.DisplayOrder, b.DisplayOrder)

	_, err = f.svc.Delete(ctx, a.ID, Audit{})
	require.NoError(t, err)
	_, err = f.svc.Restore(ctx, a.ID, Audit{})
	require.Equal(t, KindConflict, KindOf(err))
	_, err = f.svc.Archive(ctx, uuid.New(), Audit{})
	require.Equal(t, KindNotFound, KindOf(err))
}

func TestArchiveAndRestoreRequireTheirSourceStatus(t *testing.T) {
	f := newFixture(t, fixtureOpt{})
	ctx := context.Background()
	key := testutil.NewEntity()
	processing := testutil.SeedAsset(t, ctx, f.db, key, testutil.WithStatus(domain.StatusProcessing))

	_, err := f.svc.Restore(ctx, processing.ID, Audit{})
	require.Equal(t, KindConflict, KindOf(err))
	_, err = f.svc.Archive(ctx, processing.ID, Audit{})
	require.Equal(t, KindConflict, KindOf(err))

	got, err := f.svc.FindOne(ctx, processing.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusProcessing, got.Status)

	active := f.upload(t, imageUpload(t, key, "a.png", nil))
	again, err := f.svc.Restore(ctx, active.ID, Audit{})
	require.NoError(t, err)
	require.Equal(t, domain.StatusActive, again.Status)
	require.Equal(t, active.DisplayOrder, again.DisplayOrder)

	_, err = f.svc.Archive(ctx, active.ID, Audit{})
	require.NoError(t, err)
	archived, err := f.svc.Archive(ctx, active.ID, Audit{})
	require.NoError(t, err)
	require.Equal(t, domain.StatusArchived, archived.Status)
}

func TestReapStuck(t *testing.T) {
	f := newFixture(t, fixtureOpt{})
	ctx := context.Background()
	key := testutil.NewEntity()

	stuck := testutil.SeedAsset(t, ctx, f.db, key,
		testutil.WithStatus(domain.StatusProcessing),
		testutil.WithUploadedAt(pinned.Add(-time.Hour)))
	fresh := testutil.SeedAsset(t, ctx, f.db, key,
		testutil.WithStatus(domain.StatusProcessing),
		testutil.WithUploadedAt(pinned.Add(-time.Minute)))
	require.NoError(t, f.store.Put(ctx, stuck.Versions[0].FilePath, strings.NewReader("x"), 1, ""))

	dry, err := f.svc.ReapStuck(ctx, ReapInput{OlderThan: 15 * time.Minute, DryRun: true})
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{stuck.ID}, dry.Found)
	require.Zero(t, dry.Reaped)

	res, err := f.svc.ReapStuck(ctx, ReapInput{OlderThan: 15 * time.Minute, PurgeFiles: true})
	require.NoError(t, err)
	require.Equal(t, 1, res.Reaped)
	require.Equal(t, 1, res.Purged)
	require.Empty(t, f.files(t))

	got, err := f.svc.FindOne(ctx, stuck.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusDeleted, got.Status)
	require.True(t, pinned.Equal(*got.DeletedAt))
	left, err := f.svc.FindOne(ctx, fresh.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusProcessing, left.Status)

	_, err = f.svc.ReapStuck(ctx, ReapInput{})
	require.Equal(t, KindValidation, KindOf(err))
}
