package inventory

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// carDocument は cars コレクションに保存するBSONドキュメント。
type carDocument struct {
	ID      primitive.ObjectID `bson:"_id,omitempty"`
	Listing `bson:",inline"`
}

func (d carDocument) toListing() Listing {
	l := d.Listing
	l.ID = d.ID.Hex()
	return l
}

// MongoRepository はMongoDBの cars コレクションを扱うリポジトリ。
type MongoRepository struct {
	client *mongo.Client
	cars   *mongo.Collection
}

// OpenMongo はMongoDBに接続し、所有者IDのインデックスを作成する。
func OpenMongo(ctx context.Context, uri, database, collection string) (*MongoRepository, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("MongoDB接続に失敗: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("MongoDBへの疎通確認に失敗: %w", err)
	}

	cars := client.Database(database).Collection(collection)
	if _, err := cars.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "email", Value: 1}, {Key: "_id", Value: -1}},
	}); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("インデックスの作成に失敗: %w", err)
	}

	return &MongoRepository{client: client, cars: cars}, nil
}

// List は _id の降順で在庫を返す。
func (r *MongoRepository) List(ctx context.Context, w Window) ([]Listing, error) {
	return r.find(ctx, bson.D{}, w)
}

// ListByOwner は所有者IDが一致する在庫を _id の降順で返す。
func (r *MongoRepository) ListByOwner(ctx context.Context, email string, w Window) ([]Listing, error) {
	return r.find(ctx, bson.D{{Key: "email", Value: email}}, w)
}

// Get は _id で在庫を1件取得する。
func (r *MongoRepository) Get(ctx context.Context, id string) (Listing, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return Listing{}, err
	}

	var doc carDocument
	err = r.cars.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Listing{}, ErrNotFound
	}
	if err != nil {
		return Listing{}, fmt.Errorf("在庫の取得に失敗: %w", err)
	}
	return doc.toListing(), nil
}

// Create は新しいObjectIDを割り当てて在庫を挿入する。
func (r *MongoRepository) Create(ctx context.Context, l Listing) (InsertResult, error) {
	doc := carDocument{ID: primitive.NewObjectID(), Listing: l}
	if _, err := r.cars.InsertOne(ctx, doc); err != nil {
		return InsertResult{}, fmt.Errorf("在庫の作成に失敗: %w", err)
	}
	return InsertResult{Acknowledged: true, InsertedID: doc.ID.Hex()}, nil
}

// UpdateQuantity は quantity だけを $set する。
func (r *MongoRepository) UpdateQuantity(ctx context.Context, id string, quantity int) (UpdateResult, error) {
	return r.upsert(ctx, id, Listing{Quantity: &quantity})
}

// Update は指定されたフィールドを $set する。識別子と所有者IDは変更しない。
func (r *MongoRepository) Update(ctx context.Context, id string, fields Listing) (UpdateResult, error) {
	return r.upsert(ctx, id, fields.updatable())
}

func (r *MongoRepository) upsert(ctx context.Context, id string, fields Listing) (UpdateResult, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return UpdateResult{}, err
	}
	filter := bson.D{{Key: "_id", Value: oid}}

	set := bson.D{}
	for _, a := range fields.assignments() {
		set = append(set, bson.E{Key: a.name, Value: a.value})
	}
	if len(set) == 0 {
		return r.touch(ctx, oid)
	}

	res, err := r.cars.UpdateOne(ctx, filter, bson.D{{Key: "$set", Value: set}}, options.Update().SetUpsert(true))
	if err != nil {
		return UpdateResult{}, fmt.Errorf("在庫の更新に失敗: %w", err)
	}

	result := UpdateResult{
		Acknowledged:  true,
		MatchedCount:  res.MatchedCount,
		ModifiedCount: res.ModifiedCount,
		UpsertedCount: res.UpsertedCount,
	}
	if upserted, ok := res.UpsertedID.(primitive.ObjectID); ok {
		result.UpsertedID = upserted.Hex()
	}
	return result, nil
}

// touch は更新するフィールドが無い場合のupsert。
// MongoDB 5.0未満は空の $set を拒否するため、存在確認と挿入で同じ結果を返す。
func (r *MongoRepository) touch(ctx context.Context, oid primitive.ObjectID) (UpdateResult, error) {
	n, err := r.cars.CountDocuments(ctx, bson.D{{Key: "_id", Value: oid}}, options.Count().SetLimit(1))
	if err != nil {
		return UpdateResult{}, fmt.Errorf("在庫の取得に失敗: %w", err)
	}
	if n > 0 {
		return UpdateResult{Acknowledged: true, MatchedCount: 1}, nil
	}
	if _, err := r.cars.InsertOne(ctx, carDocument{ID: oid}); err != nil {
		return UpdateResult{}, fmt.Errorf("在庫の作成に失敗: %w", err)
	}
	return UpdateResult{Acknowledged: true, UpsertedCount: 1, UpsertedID: oid.Hex()}, nil
}

// Delete は _id で在庫を1件削除する。
func (r *MongoRepository) Delete(ctx context.Context, id string) (DeleteResult, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return DeleteResult{}, err
	}

	res, err := r.cars.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return DeleteResult{}, fmt.Errorf("在庫の削除に失敗: %w", err)
	}
	return DeleteResult{Acknowledged: true, DeletedCount: res.DeletedCount}, nil
}

// Count は全在庫の件数を返す。
func (r *MongoRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.cars.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("在庫件数の取得に失敗: %w", err)
	}
	return n, nil
}

// CountByOwner は所有者IDが一致する在庫の件数を返す。
func (r *MongoRepository) CountByOwner(ctx context.Context, email string) (int64, error) {
	n, err := r.cars.CountDocuments(ctx, bson.D{{Key: "email", Value: email}})
	if err != nil {
		return 0, fmt.Errorf("在庫件数の取得に失敗: %w", err)
	}
	return n, nil
}

// Ping はMongoDBのプライマリへの疎通を確認する。
func (r *MongoRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, readpref.Primary())
}

// Close はMongoDBとの接続を切断する。
func (r *MongoRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func (r *MongoRepository) find(ctx context.Context, filter bson.D, w Window) ([]Listing, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}})
	if w.Paged() {
		// limit 0 はドライバー側で無制限として扱われる
		opts.SetSkip(w.Skip).SetLimit(w.Limit)
	}

	cursor, err := r.cars.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("在庫一覧の取得に失敗: %w", err)
	}

	var docs []carDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("在庫の読み込みに失敗: %w", err)
	}

	listings := make([]Listing, 0, len(docs))
	for _, d := range docs {
		listings = append(listings, d.toListing())
	}
	return listings, nil
}

func parseObjectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", ErrMalformedID, id)
	}
	return oid, nil
}
