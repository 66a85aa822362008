package database

import (
	"context"
	"log"
	"sync"
	"time"

	"noxscan/config"
	"noxscan/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	mongoClient *mongo.Client
	mongoOnce   sync.Once
)

func InitMongoDB(cfg *config.MongoDBConfig) *mongo.Client {
	mongoOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Timeout)*time.Second)
		defer cancel()

		clientOptions := options.Client().ApplyURI(cfg.URI)
		if cfg.MaxPoolSize > 0 {
			clientOptions.SetMaxPoolSize(cfg.MaxPoolSize)
		}
		client, err := mongo.Connect(ctx, clientOptions)
		if err != nil {
			log.Fatalf("Failed to connect to MongoDB: %v", err)
		}

		if err := client.Ping(ctx, nil); err != nil {
			log.Fatalf("Failed to ping MongoDB: %v", err)
		}

		if err := ensureIndexes(ctx, client.Database(cfg.Database)); err != nil {
			log.Printf("Failed to create indexes: %v", err)
		}

		log.Println("Connected to MongoDB successfully")
		mongoClient = client
	})

	return mongoClient
}

// ensureIndexes backs the scan listing sort, the per-range latest lookup,
// and audit-log browsing.
func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(models.CollectionScans).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "started_at", Value: -1}}},
		{Keys: bson.D{{Key: "target_range", Value: 1}}},
	})
	if err != nil {
		return err
	}
	_, err = db.Collection(models.CollectionAuditLogs).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: -1}},
	})
	return err
}

func GetMongoDB() *mongo.Client {
	if mongoClient == nil {
		log.Fatal("MongoDB not initialized. Call InitMongoDB first.")
	}
	return mongoClient
}

func GetCollection(collection string) *mongo.Collection {
	cfg := config.GetConfig()
	return GetMongoDB().Database(cfg.MongoDB.Database).Collection(collection)
}

func CloseMongoDB() {
	if mongoClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := mongoClient.Disconnect(ctx); err != nil {
			log.Printf("Error disconnecting MongoDB: %v", err)
		}
		log.Println("MongoDB connection closed")
	}
}
