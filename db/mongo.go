package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"netshield/models"
	"netshield/utils"
)

type MongoClient struct {
	client  *mongo.Client
	history *mongo.Collection
	users   *mongo.Collection
}

type mongoRecord struct {
	ID         string    `bson:"_id"`
	Filename   string    `bson:"filename"`
	Result     string    `bson:"result"`
	Confidence float64   `bson:"confidence"`
	Timestamp  time.Time `bson:"timestamp"`
	SrcIP      *string   `bson:"srcIp,omitempty"`
	DstIP      *string   `bson:"dstIp,omitempty"`
	UserID     *int64    `bson:"userId,omitempty"`
}

type mongoUser struct {
	ID           int64     `bson:"_id"`
	Username     string    `bson:"username"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"passwordHash"`
	CreatedAt    time.Time `bson:"createdAt"`
}

func NewMongoClient(ctx context.Context, uri string) (*MongoClient, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("error connecting to MongoDB: %s", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("error pinging MongoDB: %s", err)
	}

	database := client.Database(utils.GetEnv("MONGO_DB_NAME", "netshield"))
	mc := &MongoClient{
		client:  client,
		history: database.Collection("analysis_history"),
		users:   database.Collection("users"),
	}

	if err := mc.ensureIndexes(ctx); err != nil {
		client.Disconnect(ctx)
		return nil, err
	}
	return mc, nil
}

func (c *MongoClient) ensureIndexes(ctx context.Context) error {
	historyIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "srcIp", Value: 1}}},
		{Keys: bson.D{{Key: "dstIp", Value: 1}}},
		{Keys: bson.D{{Key: "userId", Value: 1}}},
	}
	if _, err := c.history.Indexes().CreateMany(ctx, historyIndexes); err != nil {
		return fmt.Errorf("error creating history indexes: %s", err)
	}

	unique := options.Index().SetUnique(true)
	userIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
	}
	if _, err := c.users.Indexes().CreateMany(ctx, userIndexes); err != nil {
		return fmt.Errorf("error creating user indexes: %s", err)
	}
	return nil
}

func (c *MongoClient) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return c.client.Disconnect(ctx)
}

func (c *MongoClient) AppendRecord(ctx context.Context, record *models.AnalysisRecord) error {
	doc := mongoRecord{
		ID:         uuid.NewString(),
		Filename:   record.Filename,
		Result:     record.Result,
		Confidence: record.Confidence,
		Timestamp:  record.Timestamp,
		SrcIP:      record.SrcIP,
		DstIP:      record.DstIP,
		UserID:     record.UserID,
	}

	if _, err := c.history.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("error storing analysis record: %s", err)
	}
	record.ID = doc.ID
	return nil
}

func (c *MongoClient) AllRecords(ctx context.Context) ([]models.AnalysisRecord, error) {
	return c.findRecords(ctx, bson.M{})
}

func (c *MongoClient) RecordsByUser(ctx context.Context, userID int64) ([]models.AnalysisRecord, error) {
	return c.findRecords(ctx, bson.M{"userId": userID})
}

// RecordsByEndpoint runs the source and destination queries separately and
// concatenates them, so a record matching both sides appears twice.
func (c *MongoClient) RecordsByEndpoint(ctx context.Context, address string) ([]models.AnalysisRecord, error) {
	bySrc, err := c.findRecords(ctx, bson.M{"srcIp": address})
	if err != nil {
		return nil, err
	}
	byDst, err := c.findRecords(ctx, bson.M{"dstIp": address})
	if err != nil {
		return nil, err
	}
	return append(bySrc, byDst...), nil
}

func (c *MongoClient) findRecords(ctx context.Context, filter bson.M) ([]models.AnalysisRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	cursor, err := c.history.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error querying analysis records: %s", err)
	}
	defer cursor.Close(ctx)

	var records []models.AnalysisRecord
	for cursor.Next(ctx) {
		var doc mongoRecord
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("error decoding analysis record: %s", err)
		}
		records = append(records, models.AnalysisRecord{
			ID:         doc.ID,
			Filename:   doc.Filename,
			Result:     doc.Result,
			Confidence: doc.Confidence,
			Timestamp:  doc.Timestamp,
			SrcIP:      doc.SrcIP,
			DstIP:      doc.DstIP,
			UserID:     doc.UserID,
		})
	}

	return records, cursor.Err()
}

func (c *MongoClient) CreateUser(ctx context.Context, user *models.User) error {
	doc := mongoUser{
		Username:     user.Username,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		CreatedAt:    time.Now(),
	}

	// The random ID can collide with an existing _id; that is a retryable
	// event, unlike a duplicate username or email.
	for attempt := 0; attempt < 5; attempt++ {
		doc.ID = int64(utils.GenerateUniqueID())

		_, err := c.users.InsertOne(ctx, doc)
		if err == nil {
			user.ID = doc.ID
			user.CreatedAt = doc.CreatedAt
			return nil
		}
		if mongo.IsDuplicateKeyError(err) {
			if strings.Contains(err.Error(), "_id") {
				continue
			}
			return fmt.Errorf("user already exists: %v", err)
		}
		return fmt.Errorf("failed to create user: %v", err)
	}

	return fmt.Errorf("failed to allocate a user id after repeated collisions")
}

func (c *MongoClient) findUser(ctx context.Context, filter bson.M) (models.User, bool, error) {
	var doc mongoUser
	err := c.users.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.User{}, false, nil
		}
		return models.User{}, false, fmt.Errorf("failed to retrieve user: %s", err)
	}

	return models.User{
		ID:           doc.ID,
		Username:     doc.Username,
		Email:        doc.Email,
		PasswordHash: doc.PasswordHash,
		CreatedAt:    doc.CreatedAt,
	}, true, nil
}

func (c *MongoClient) UserByUsername(ctx context.Context, username string) (models.User, bool, error) {
	return c.findUser(ctx, bson.M{"username": username})
}

func (c *MongoClient) UserByEmail(ctx context.Context, email string) (models.User, bool, error) {
	return c.findUser(ctx, bson.M{"email": email})
}

func (c *MongoClient) UserByID(ctx context.Context, id int64) (models.User, bool, error) {
	return c.findUser(ctx, bson.M{"_id": id})
}
