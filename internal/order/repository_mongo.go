package order

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName is the document collection holding orders.
const CollectionName = "pedidos"

type lineDocument struct {
	ProductoID     string  `bson:"productoId"`
	NombreProducto string  `bson:"nombreProducto"`
	PrecioUnitario float64 `bson:"precioUnitario"`
	Cantidad       int     `bson:"cantidad"`
}

type orderDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UsuarioID string             `bson:"usuarioId"`
	Fecha     time.Time          `bson:"fecha"`
	Estado    string             `bson:"estado"`
	Total     float64            `bson:"total"`
	Productos []lineDocument     `bson:"productos"`
}

func toDocument(o Order) orderDocument {
	lines := make([]lineDocument, 0, len(o.Lines))
	for _, l := range o.Lines {
		lines = append(lines, lineDocument{
			ProductoID:     l.ProductID,
			NombreProducto: l.ProductName,
			PrecioUnitario: l.UnitPrice.InexactFloat64(),
			Cantidad:       l.Quantity,
		})
	}
	return orderDocument{
		UsuarioID: o.UserID,
		Fecha:     o.CreatedAt,
		Estado:    string(o.Status),
		Total:     o.Total.InexactFloat64(),
		Productos: lines,
	}
}

func (d orderDocument) toOrder() Order {
	lines := make([]LineSnapshot, 0, len(d.Productos))
	for _, l := range d.Productos {
		lines = append(lines, LineSnapshot{
			ProductID:   l.ProductoID,
			ProductName: l.NombreProducto,
			UnitPrice:   decimal.NewFromFloat(l.PrecioUnitario),
			Quantity:    l.Cantidad,
		})
	}
	return Order{
		ID:        d.ID.Hex(),
		UserID:    d.UsuarioID,
		CreatedAt: d.Fecha,
		Status:    Status(d.Estado),
		Total:     decimal.NewFromFloat(d.Total),
		Lines:     lines,
	}
}

type MongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{collection: db.Collection(CollectionName)}
}

func (m *MongoRepository) Create(ctx context.Context, ord Order) (string, error) {
	res, err := m.collection.InsertOne(ctx, toDocument(ord))
	if err != nil {
		return "", fmt.Errorf("failed to insert order: %w", err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("unexpected inserted id %v", res.InsertedID)
	}
	return oid.Hex(), nil
}

func (m *MongoRepository) ListForUser(ctx context.Context, userID string) ([]Order, error) {
	cur, err := m.collection.Find(ctx, bson.M{"usuarioId": userID})
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer cur.Close(ctx)

	var docs []orderDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}
	out := make([]Order, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toOrder())
	}
	return out, nil
}

func (m *MongoRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "usuarioId", Value: 1}, {Key: "fecha", Value: -1}},
			Options: options.Index().SetName("usuario_fecha"),
		},
	}
	if _, err := m.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}
