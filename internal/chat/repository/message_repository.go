package repository

import (
	"context"
	"fmt"

	"vach_chat_service/internal/chat/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MessageRepository definition message store
type MessageRepository interface {
	EnsureIndexes(ctx context.Context) error
	Insert(ctx context.Context, msg *domain.Message) error
	// AdvanceStatus 只有目前狀態在 next 之前才會更新, 回傳是否有更新
	AdvanceStatus(ctx context.Context, messageID string, next domain.Status) (bool, error)
	// MarkRead sender -> receiver 所有未讀改為 read
	MarkRead(ctx context.Context, senderID, receiverID string) (int64, error)
	// FindByIDs 依 ids 順序回傳, 找不到的略過
	FindByIDs(ctx context.Context, ids []string) ([]domain.Message, error)
}

type messageRepository struct {
	coll *mongo.Collection
}

// NewMongoMessageRepository create a MessageRepository
func NewMongoMessageRepository(db *mongo.Database) MessageRepository {
	return &messageRepository{
		coll: db.Collection("messages"),
	}
}

func (r *messageRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "sender_id", Value: 1}, {Key: "receiver_id", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: 1}}},
	})
	return err
}

func (r *messageRepository) Insert(ctx context.Context, msg *domain.Message) error {
	_, err := r.coll.InsertOne(ctx, msg)
	return err
}

func (r *messageRepository) AdvanceStatus(ctx context.Context, messageID string, next domain.Status) (bool, error) {
	prev := domain.PreviousStatuses(next)
	if len(prev) == 0 {
		return false, fmt.Errorf("status %q cannot be advanced to", next)
	}

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": messageID, "status": bson.M{"$in": prev}},
		bson.M{"$set": bson.M{"status": next}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

func (r *messageRepository) MarkRead(ctx context.Context, senderID, receiverID string) (int64, error) {
	res, err := r.coll.UpdateMany(ctx,
		bson.M{"sender_id": senderID, "receiver_id": receiverID, "status": bson.M{"$ne": domain.StatusRead}},
		bson.M{"$set": bson.M{"status": domain.StatusRead}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (r *messageRepository) FindByIDs(ctx context.Context, ids []string) ([]domain.Message, error) {
	if len(ids) == 0 {
		return []domain.Message{}, nil
	}

	cur, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var found []domain.Message
	if err := cur.All(ctx, &found); err != nil {
		return nil, err
	}

	byID := make(map[string]domain.Message, len(found))
	for _, m := range found {
		byID[m.ID] = m
	}
	msgs := make([]domain.Message, 0, len(found))
	for _, id := range ids {
		if m, ok := byID[id]; ok {
			msgs = append(msgs, m)
		}
	}
	return msgs, nil
}
