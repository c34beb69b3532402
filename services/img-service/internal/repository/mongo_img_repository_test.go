package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
	"go.mongodb.org/mongo-driver/mongo/options"
	"mashalpipes.in/Website/services/img-service/internal/domain"
)

// The driver connects lazily, so malformed ids can be exercised without a server.
func newUnreachableMongoRepository(t *testing.T) domain.ImgRepository {
	t.Helper()
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI("mongodb://127.0.0.1:1"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })
	return NewMongoImgRepository(client.Database("test"))
}

func TestMongoImgRepository_MalformedIDIsNotFound(t *testing.T) {
	repo := newUnreachableMongoRepository(t)
	ctx := context.Background()

	_, err := repo.GetByID(ctx, "not-an-object-id")
	assert.ErrorIs(t, err, domain.ErrImageNotFound)

	title := "Hero"
	_, err = repo.Update(ctx, "zzz", domain.UpdateImageRequest{Title: &title})
	assert.ErrorIs(t, err, domain.ErrImageNotFound)

	err = repo.Delete(ctx, "")
	assert.ErrorIs(t, err, domain.ErrImageNotFound)
}

func TestImageDocument_ToDomain(t *testing.T) {
	oid := primitive.NewObjectID()
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	doc := imageDocument{ID: oid, Title: "FloWater", FilePath: "/uploads/flowater.png", CreatedAt: created}

	img := doc.toDomain()
	assert.Equal(t, oid.Hex(), img.ID)
	assert.Equal(t, "FloWater", img.Title)
	assert.Equal(t, "/uploads/flowater.png", img.FilePath)
	assert.Equal(t, created, img.CreatedAt)
	assert.True(t, img.UpdatedAt.IsZero())
}

func TestParseID(t *testing.T) {
	oid := primitive.NewObjectID()
	got, err := parseID(oid.Hex())
	require.NoError(t, err)
	assert.Equal(t, oid, got)

	_, err = parseID("12345")
	assert.ErrorIs(t, err, domain.ErrImageNotFound)
}

func imageDoc(oid primitive.ObjectID, title, filePath string, created time.Time) bson.D {
	return bson.D{
		{Key: "_id", Value: oid},
		{Key: "title", Value: title},
		{Key: "filePath", Value: filePath},
		{Key: "createdAt", Value: created},
		{Key: "updatedAt", Value: created},
	}
}

func TestMongoImgRepository_Mocked(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ns := mtest.TestDb + "." + imageCollection
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	mt.Run("list sorts by creation then id", func(mt *mtest.T) {
		repo := NewMongoImgRepository(mt.DB)
		first, second := primitive.NewObjectID(), primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			imageDoc(first, "Chennai", "/uploads/a.png", created),
			imageDoc(second, "Agra", "/uploads/b.png", created.Add(time.Second)),
		))

		images, err := repo.List(context.Background())
		require.NoError(mt, err)
		require.Len(mt, images, 2)
		assert.Equal(mt, first.Hex(), images[0].ID)
		assert.Equal(mt, "Agra", images[1].Title)

		sort := mt.GetStartedEvent().Command.Lookup("sort").Document()
		keys, err := sort.Elements()
		require.NoError(mt, err)
		require.Len(mt, keys, 2)
		assert.Equal(mt, "createdAt", keys[0].Key())
		assert.Equal(mt, "_id", keys[1].Key())
	})

	mt.Run("list of nothing is empty", func(mt *mtest.T) {
		repo := NewMongoImgRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		images, err := repo.List(context.Background())
		require.NoError(mt, err)
		assert.NotNil(mt, images)
		assert.Empty(mt, images)
	})

	mt.Run("get", func(mt *mtest.T) {
		repo := NewMongoImgRepository(mt.DB)
		oid := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			imageDoc(oid, "Hero", "/uploads/hero.png", created)))

		img, err := repo.GetByID(context.Background(), oid.Hex())
		require.NoError(mt, err)
		assert.Equal(mt, oid.Hex(), img.ID)
		assert.Equal(mt, "Hero", img.Title)
		assert.Equal(mt, created, img.CreatedAt.UTC())
	})

	mt.Run("get unknown", func(mt *mtest.T) {
		repo := NewMongoImgRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := repo.GetByID(context.Background(), primitive.NewObjectID().Hex())
		assert.ErrorIs(mt, err, domain.ErrImageNotFound)
	})

	mt.Run("create writes the id back", func(mt *mtest.T) {
		repo := NewMongoImgRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		img := &domain.Image{Title: "Mashal", FilePath: "/uploads/logo.png"}
		require.NoError(mt, repo.Create(context.Background(), img))
		_, err := primitive.ObjectIDFromHex(img.ID)
		assert.NoError(mt, err)
		assert.False(mt, img.CreatedAt.IsZero())
		assert.Equal(mt, img.CreatedAt, img.UpdatedAt)

		inserted := mt.GetStartedEvent().Command.Lookup("documents").Array().Index(0).Value().Document()
		assert.Equal(mt, img.ID, inserted.Lookup("_id").ObjectID().Hex())
		assert.Equal(mt, "Mashal", inserted.Lookup("title").StringValue())
	})

	mt.Run("create failure", func(mt *mtest.T) {
		repo := NewMongoImgRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "duplicate key"}))

		img := &domain.Image{Title: "Mashal", FilePath: "/uploads/logo.png"}
		assert.Error(mt, repo.Create(context.Background(), img))
		assert.Empty(mt, img.ID)
	})

	mt.Run("update sets only supplied fields", func(mt *mtest.T) {
		repo := NewMongoImgRepository(mt.DB)
		oid := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{
			Key: "value", Value: imageDoc(oid, "Renamed", "/uploads/hero.png", created),
		}))

		title := "Renamed"
		img, err := repo.Update(context.Background(), oid.Hex(), domain.UpdateImageRequest{Title: &title})
		require.NoError(mt, err)
		assert.Equal(mt, "Renamed", img.Title)
		assert.Equal(mt, "/uploads/hero.png", img.FilePath)

		set := mt.GetStartedEvent().Command.Lookup("update", "$set").Document()
		assert.Equal(mt, "Renamed", set.Lookup("title").StringValue())
		_, err = set.LookupErr("filePath")
		assert.Error(mt, err, "filePath was not supplied")
		_, err = set.LookupErr("updatedAt")
		assert.NoError(mt, err)
	})

	mt.Run("update unknown", func(mt *mtest.T) {
		repo := NewMongoImgRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))

		path := "/uploads/x.png"
		_, err := repo.Update(context.Background(), primitive.NewObjectID().Hex(), domain.UpdateImageRequest{FilePath: &path})
		assert.ErrorIs(mt, err, domain.ErrImageNotFound)
	})

	mt.Run("delete", func(mt *mtest.T) {
		repo := NewMongoImgRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		assert.NoError(mt, repo.Delete(context.Background(), primitive.NewObjectID().Hex()))
	})

	mt.Run("delete unknown", func(mt *mtest.T) {
		repo := NewMongoImgRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		err := repo.Delete(context.Background(), primitive.NewObjectID().Hex())
		assert.ErrorIs(mt, err, domain.ErrImageNotFound)
	})

	mt.Run("server error is not a miss", func(mt *mtest.T) {
		repo := NewMongoImgRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Name: "BadValue", Message: "boom"}))

		_, err := repo.GetByID(context.Background(), primitive.NewObjectID().Hex())
		require.Error(mt, err)
		assert.NotErrorIs(mt, err, domain.ErrImageNotFound)
	})
}
