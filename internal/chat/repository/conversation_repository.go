package repository

import (
	"context"
	"errors"
	"time"

	"vach_chat_service/internal/chat/domain"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConversationRepository definition 1:1 conversation store
type ConversationRepository interface {
	EnsureIndexes(ctx context.Context) error
	// FindOrCreate 以 pair_key upsert, 同一對使用者只會有一個對話
	FindOrCreate(ctx context.Context, a, b string) (*domain.Conversation, error)
	// AppendMessage $push message id, 更新 last_message 並累加 receiver 未讀, 回傳新的未讀數
	AppendMessage(ctx context.Context, conversationID string, msg *domain.Message) (int, error)
	ResetUnread(ctx context.Context, a, b, memberID string) error
	FindByPair(ctx context.Context, a, b string) (*domain.Conversation, error)
	ListByMember(ctx context.Context, memberID string, limit int64) ([]domain.Conversation, error)
}

type conversationRepository struct {
	coll *mongo.Collection
}

// NewMongoConversationRepository create a ConversationRepository
func NewMongoConversationRepository(db *mongo.Database) ConversationRepository {
	return &conversationRepository{
		coll: db.Collection("conversations"),
	}
}

func (r *conversationRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "pair_key", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "participants", Value: 1}, {Key: "updated_at", Value: -1}}},
	})
	return err
}

func (r *conversationRepository) FindOrCreate(ctx context.Context, a, b string) (*domain.Conversation, error) {
	now := time.Now().UTC()
	filter := bson.M{"pair_key": domain.PairKey(a, b)}
	update := bson.M{"$setOnInsert": bson.M{
		"_id":          uuid.New().String(),
		"participants": domain.SortedPair(a, b),
		"messages":     []string{},
		"unread_count": bson.M{},
		"created_at":   now,
		"updated_at":   now,
	}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var conv domain.Conversation
	err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&conv)
	if mongo.IsDuplicateKeyError(err) {
		// 兩個 upsert 同時進來, 輸的那個改讀已建立的文件
		err = r.coll.FindOne(ctx, filter).Decode(&conv)
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *conversationRepository) AppendMessage(ctx context.Context, conversationID string, msg *domain.Message) (int, error) {
	update := bson.M{
		"$push": bson.M{"messages": msg.ID},
		"$set":  bson.M{"last_message": msg.ID, "updated_at": msg.CreatedAt},
		"$inc":  bson.M{"unread_count." + msg.ReceiverID: 1},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var conv domain.Conversation
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": conversationID}, update, opts).Decode(&conv); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, domain.ErrConversationNotFound
		}
		return 0, err
	}
	return conv.Unread(msg.ReceiverID), nil
}

func (r *conversationRepository) ResetUnread(ctx context.Context, a, b, memberID string) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"pair_key": domain.PairKey(a, b)},
		bson.M{"$set": bson.M{"unread_count." + memberID: 0}},
	)
	return err
}

func (r *conversationRepository) FindByPair(ctx context.Context, a, b string) (*domain.Conversation, error) {
	var conv domain.Conversation
	if err := r.coll.FindOne(ctx, bson.M{"pair_key": domain.PairKey(a, b)}).Decode(&conv); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrConversationNotFound
		}
		return nil, err
	}
	return &conv, nil
}

// ListByMember 依最後活動時間排序
func (r *conversationRepository) ListByMember(ctx context.Context, memberID string, limit int64) ([]domain.Conversation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := r.coll.Find(ctx, bson.M{"participants": memberID}, opts)
	if err != nil {
		return nil, err
	}

	convs := []domain.Conversation{}
	if err := cur.All(ctx, &convs); err != nil {
		return nil, err
	}
	return convs, nil
}
