package product

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName is the document collection holding the catalog.
const CollectionName = "productos"

type productDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Nombre      string             `bson:"nombre"`
	Descripcion string             `bson:"descripcion"`
	Precio      float64            `bson:"precio"`
	Stock       int                `bson:"stock"`
	ImagenURL   *string            `bson:"imagenUrl,omitempty"`
}

func (d productDocument) toProduct() Product {
	return Product{
		ID:          d.ID.Hex(),
		Name:        d.Nombre,
		Description: d.Descripcion,
		Price:       decimal.NewFromFloat(d.Precio),
		Stock:       d.Stock,
		ImageURL:    d.ImagenURL,
	}
}

type MongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{collection: db.Collection(CollectionName)}
}

func (m *MongoRepository) List(ctx context.Context) ([]Product, error) {
	cur, err := m.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer cur.Close(ctx)

	var docs []productDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	out := make([]Product, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toProduct())
	}
	return out, nil
}

func (m *MongoRepository) GetByID(ctx context.Context, id string) (Product, error) {
	oid, err := objectID(id)
	if err != nil {
		return Product{}, err
	}
	var doc productDocument
	err = m.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Product{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Product{}, fmt.Errorf("failed to get product: %w", err)
	}
	return doc.toProduct(), nil
}

func (m *MongoRepository) Create(ctx context.Context, f Fields) (string, error) {
	doc := productDocument{
		Nombre:      f.Name,
		Descripcion: f.Description,
		Precio:      f.Price.InexactFloat64(),
		Stock:       f.Stock,
		ImagenURL:   f.ImageURL,
	}
	res, err := m.collection.InsertOne(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("failed to insert product: %w", err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("unexpected inserted id %v", res.InsertedID)
	}
	return oid.Hex(), nil
}

func (m *MongoRepository) Update(ctx context.Context, id string, f Fields) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	update := bson.M{
		"$set": bson.M{
			"nombre":      f.Name,
			"descripcion": f.Description,
			"precio":      f.Price.InexactFloat64(),
			"stock":       f.Stock,
		},
	}
	if f.ImageURL != nil {
		update["$set"].(bson.M)["imagenUrl"] = *f.ImageURL
	} else {
		update["$unset"] = bson.M{"imagenUrl": ""}
	}

	result, err := m.collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return nil
}

func (m *MongoRepository) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	result, err := m.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return nil
}

func (m *MongoRepository) GetStock(ctx context.Context, id string) (int, error) {
	oid, err := objectID(id)
	if err != nil {
		return 0, err
	}
	var doc struct {
		Stock int `bson:"stock"`
	}
	opts := options.FindOne().SetProjection(bson.M{"stock": 1})
	err = m.collection.FindOne(ctx, bson.M{"_id": oid}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read stock: %w", err)
	}
	return doc.Stock, nil
}

func (m *MongoRepository) SetStock(ctx context.Context, id string, stock int) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	result, err := m.collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"stock": stock}})
	if err != nil {
		return fmt.Errorf("failed to write stock: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return nil
}

// ids that are not valid object ids can never exist in the collection
func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return oid, nil
}
