package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"mashalpipes.in/Website/services/img-service/internal/domain"
)

const imageCollection = "images"

// imageDocument is the stored shape. Older documents may lack the timestamps.
type imageDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Title     string             `bson:"title"`
	FilePath  string             `bson:"filePath"`
	CreatedAt time.Time          `bson:"createdAt,omitempty"`
	UpdatedAt time.Time          `bson:"updatedAt,omitempty"`
}

func (d *imageDocument) toDomain() *domain.Image {
	return &domain.Image{
		ID:        d.ID.Hex(),
		Title:     d.Title,
		FilePath:  d.FilePath,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

type mongoImgRepository struct {
	coll *mongo.Collection
}

// NewMongoImgRepository stores images as documents in the "images" collection.
func NewMongoImgRepository(db *mongo.Database) domain.ImgRepository {
	return &mongoImgRepository{coll: db.Collection(imageCollection)}
}

// parseID treats ids that cannot be ObjectIDs as unknown records.
func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, domain.ErrImageNotFound
	}
	return oid, nil
}

func (r *mongoImgRepository) List(ctx context.Context) ([]*domain.Image, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	var docs []imageDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode images: %w", err)
	}
	images := make([]*domain.Image, 0, len(docs))
	for i := range docs {
		images = append(images, docs[i].toDomain())
	}
	return images, nil
}

func (r *mongoImgRepository) GetByID(ctx context.Context, id string) (*domain.Image, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	var doc imageDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrImageNotFound
		}
		return nil, fmt.Errorf("failed to get image: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *mongoImgRepository) Create(ctx context.Context, img *domain.Image) error {
	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := imageDocument{
		ID:        primitive.NewObjectID(),
		Title:     img.Title,
		FilePath:  img.FilePath,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to create image: %w", err)
	}
	img.ID = doc.ID.Hex()
	img.CreatedAt = now
	img.UpdatedAt = now
	return nil
}

func (r *mongoImgRepository) Update(ctx context.Context, id string, req domain.UpdateImageRequest) (*domain.Image, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	set := bson.M{"updatedAt": time.Now().UTC().Truncate(time.Millisecond)}
	if req.Title != nil {
		set["title"] = *req.Title
	}
	if req.FilePath != nil {
		set["filePath"] = *req.FilePath
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc imageDocument
	err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrImageNotFound
		}
		return nil, fmt.Errorf("failed to update image: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *mongoImgRepository) Delete(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrImageNotFound
	}
	return nil
}
