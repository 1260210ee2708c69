package assets

import (
	"context"
	"testing"

	"github.com/yungbote/assets-backend/internal/data/repos/testutil"
	types "github.com/yungbote/assets-backend/internal/domain"
	domain "github.com/yungbote/assets-backend/internal/domain/assets"
	"github.com/yungbote/assets-backend/internal/platform/dbctx"
)

func TestAssetVersionRepoKeepsOrder(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	log := testutil.Logger(t)

	a := testutil.SeedAsset(t, ctx, tx, testutil.NewEntity())
	repo := NewAssetVersionRepo(db, log)

	rows := []*types.AssetVersion{
		{AssetID: a.ID, VersionType: domain.VersionPreview, FileName: "p.jpg", FilePath: "x/p.jpg", FileSize: 10},
		{AssetID: a.ID, VersionType: domain.VersionThumbnail, FileName: "t.jpg", FilePath: "x/t.jpg", FileSize: 5},
	}
	if _, err := repo.CreateBatch(dbc, rows); err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}
	got, err := repo.GetByAssetID(dbc, a.ID)
	if err != nil {
		t.Fatalf("GetByAssetID: %v", err)
	}
	// the seeded original sits at position 0 alongside the first batch row
	if len(got) != 3 {
		t.Fatalf("GetByAssetID: want=3 got=%d", len(got))
	}
	if got[len(got)-1].VersionType != domain.VersionThumbnail {
		t.Fatalf("last version: want=thumbnail got=%s", got[len(got)-1].VersionType)
	}
}

func TestAssetTagRepoNormalizesAndKeepsDuplicates(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	a := testutil.SeedAsset(t, ctx, tx, testutil.NewEntity())
	repo := NewAssetTagRepo(db, testutil.Logger(t))

	if _, err := repo.CreateBatch(dbc, a.ID, []string{" Red ", "red", "", "Blue"}); err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}
	got, err := repo.GetByAssetID(dbc, a.ID)
	if err != nil || len(got) != 3 {
		t.Fatalf("GetByAssetID: len=%d err=%v", len(got), err)
	}
	seen := map[string]int{}
	for _, tag := range got {
		seen[tag.Tag]++
	}
	if seen["red"] != 2 || seen["blue"] != 1 {
		t.Fatalf("tags: %v", seen)
	}
}

func TestAssetLogRepoAppend(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	a := testutil.SeedAsset(t, ctx, tx, testutil.NewEntity())
	repo := NewAssetLogRepo(db, testutil.Logger(t))

	meta := types.LogMetadata{FileSize: 99, MimeType: "image/png"}
	if _, err := repo.Append(dbc, a.ID, domain.OpUpload, "10.0.0.1", "", meta); err != nil {
		t.Fatalf("Append: %v", err)
	}
	rows, err := repo.ListByAssetID(dbc, a.ID)
	if err != nil || len(rows) != 1 {
		t.Fatalf("ListByAssetID: len=%d err=%v", len(rows), err)
	}
	row := rows[0]
	if row.Operation != domain.OpUpload || row.IPAddress == nil || *row.IPAddress != "10.0.0.1" || row.UserAgent != nil {
		t.Fatalf("log row: %+v", row)
	}
	if row.Metadata.Data().FileSize != 99 {
		t.Fatalf("metadata: want fileSize=99 got=%+v", row.Metadata.Data())
	}
}
