package messaging

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wyfcoding/optionpricing/internal/pricing/domain"
	"github.com/wyfcoding/optionpricing/pkg/contextx"
	"github.com/wyfcoding/optionpricing/pkg/logger"
	"github.com/wyfcoding/optionpricing/pkg/metrics"
	"github.com/wyfcoding/optionpricing/pkg/utils"
)

const (
	statusPending = "pending"
	statusSent    = "sent"
)

// OutboxMessage 事务消息表
type OutboxMessage struct {
	ID        string    `gorm:"type:varchar(36);primary_key"`
	EventID   string    `gorm:"type:varchar(36);index"`
	EventType string    `gorm:"type:varchar(100);index"`
	EventKey  string    `gorm:"type:varchar(64)"`
	Payload   string    `gorm:"type:text"`
	Status    string    `gorm:"type:varchar(20);index;default:'pending'"`
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
}

// TableName 指定表名
func (OutboxMessage) TableName() string {
	return "pricing_outbox_messages"
}

// MessageProducer 将消息发送到消息代理
type MessageProducer interface {
	PublishRaw(ctx context.Context, topic string, key string, payload []byte) error
}

// OutboxEventPublisher 实现 EventPublisher 接口，使用 Outbox 模式
// 事件写入与业务数据同库，调用方 ctx 携带事务时随事务一起提交
type OutboxEventPublisher struct {
	db        *gorm.DB
	producer  MessageProducer
	topic     string
	collector metrics.MetricsCollector
}

// NewOutboxEventPublisher 创建新的 OutboxEventPublisher 实例
func NewOutboxEventPublisher(db *gorm.DB, producer MessageProducer, topic string, collector metrics.MetricsCollector) *OutboxEventPublisher {
	return &OutboxEventPublisher{
		db:        db,
		producer:  producer,
		topic:     topic,
		collector: collector,
	}
}

// PublishOptionPriced 发布期权定价完成事件
func (p *OutboxEventPublisher) PublishOptionPriced(ctx context.Context, event domain.OptionPricedEvent) error {
	return p.publishEvent(ctx, domain.OptionPricedEventType, event.Symbol, event)
}

// PublishBatchPricingCompleted 发布批量定价完成事件
func (p *OutboxEventPublisher) PublishBatchPricingCompleted(ctx context.Context, event domain.BatchPricingCompletedEvent) error {
	return p.publishEvent(ctx, domain.BatchPricingCompletedEventType, event.BatchID, event)
}

// publishEvent 通用事件发布方法
func (p *OutboxEventPublisher) publishEvent(ctx context.Context, eventType, eventKey string, event interface{}) error {
	// 序列化事件数据
	eventData, err := json.Marshal(event)
	if err != nil {
		return err
	}

	// 创建 Outbox 记录
	message := OutboxMessage{
		ID:        uuid.New().String(),
		EventID:   uuid.New().String(),
		EventType: eventType,
		EventKey:  eventKey,
		Payload:   string(eventData),
		Status:    statusPending,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	// 保存到数据库，ctx 携带事务时在同一事务内写入
	return p.getDB(ctx).WithContext(ctx).Create(&message).Error
}

// ProcessOutboxMessages 将待处理消息转发到 Kafka
// 发送失败的消息保持 pending，由下一轮继续处理
func (p *OutboxEventPublisher) ProcessOutboxMessages(ctx context.Context, batchSize int) error {
	var messages []OutboxMessage

	if err := p.db.WithContext(ctx).
		Where("status = ?", statusPending).
		Order("created_at asc").
		Limit(batchSize).
		Find(&messages).Error; err != nil {
		return err
	}

	for _, message := range messages {
		err := utils.RetryWithBackoff(3, 100*time.Millisecond, time.Second, func() error {
			return p.producer.PublishRaw(ctx, p.topic, message.EventKey, []byte(message.Payload))
		})
		if err != nil {
			logger.Error(ctx, "Failed to relay outbox message",
				"message_id", message.ID,
				"event_type", message.EventType,
				"error", err,
			)
			continue
		}

		if err := p.db.WithContext(ctx).
			Model(&OutboxMessage{}).
			Where("id = ?", message.ID).
			Update("status", statusSent).Error; err != nil {
			return err
		}
		p.collector.RecordOutboxPublished()
	}

	var pending int64
	if err := p.db.WithContext(ctx).
		Model(&OutboxMessage{}).
		Where("status = ?", statusPending).
		Count(&pending).Error; err != nil {
		return err
	}
	p.collector.UpdateOutboxPending(pending)

	return nil
}

// StartRelay 启动中继循环，周期性地将待发送消息投递到 Kafka 并清理过期消息
// 阻塞直到 ctx 取消
func (p *OutboxEventPublisher) StartRelay(ctx context.Context, pollInterval time.Duration, batchSize int, retention time.Duration) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	cleanupTicker := time.NewTicker(retention)
	defer cleanupTicker.Stop()

	logger.Info(ctx, "outbox relay started", "poll_interval", pollInterval, "batch_size", batchSize)

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "outbox relay stopped")
			return
		case <-ticker.C:
			if err := p.ProcessOutboxMessages(ctx, batchSize); err != nil {
				logger.Error(ctx, "failed to process outbox messages", "error", err)
			}
		case <-cleanupTicker.C:
			if err := p.CleanupProcessedMessages(ctx, time.Now().Add(-retention)); err != nil {
				logger.Error(ctx, "failed to cleanup outbox messages", "error", err)
			}
		}
	}
}

// CleanupProcessedMessages 清理已处理的消息
func (p *OutboxEventPublisher) CleanupProcessedMessages(ctx context.Context, before time.Time) error {
	return p.db.WithContext(ctx).
		Where("status = ? AND updated_at < ?", statusSent, before).
		Delete(&OutboxMessage{}).Error
}

func (p *OutboxEventPublisher) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := contextx.GetTx(ctx).(*gorm.DB); ok {
		return tx
	}
	return p.db
}
